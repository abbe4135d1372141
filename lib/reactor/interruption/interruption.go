/*
Copyright 2018 Gravitational, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package interruption implements the spot interruption reactor.
//
// When EC2 is about to reclaim a spot instance it emits an interruption
// warning two minutes before termination. The reactor reacts to the warning
// by asking the SSM agent on the instance to run an emergency backup of the
// game save directory to S3. The reactor only waits for the command to be
// accepted, never for the backup itself.
//
// The reactor never fails the invocation: the instance terminates regardless
// of the outcome and the periodic backups on the instance are the fallback.
package interruption

import (
	"context"
	"fmt"
	"strconv"
	"time"

	cloud "github.com/gravitational/fleetkeeper/lib/cloudprovider/aws"
	"github.com/gravitational/fleetkeeper/lib/constants"
	"github.com/gravitational/fleetkeeper/lib/defaults"
	"github.com/gravitational/fleetkeeper/lib/events"
	"github.com/gravitational/fleetkeeper/lib/log"
	"github.com/gravitational/fleetkeeper/lib/metrics"
	"github.com/gravitational/fleetkeeper/lib/reactor"

	lambdaevents "github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/ssm"
	"github.com/gravitational/trace"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

// Config is the interruption reactor configuration
type Config struct {
	// SystemsManager runs remote commands on instances
	SystemsManager cloud.SSM
	// Bucket is the S3 bucket receiving emergency backups
	Bucket string
	// Prefix is the key prefix of emergency backups
	Prefix string
	// SaveDir is the directory to back up on the instance
	SaveDir string
	// StorageClass is the S3 storage class of emergency backups
	StorageClass string
	// Window is the time between the interruption warning and termination
	Window time.Duration
	// SafetyMargin is the time before termination the backup command
	// is not allowed to use
	SafetyMargin time.Duration
	// Clock is used to compute the time left before termination
	Clock clockwork.Clock
	// Metrics optionally records invocation outcomes
	Metrics *metrics.Metrics
}

// CheckAndSetDefaults checks and sets default values
func (c *Config) CheckAndSetDefaults() error {
	if c.SystemsManager == nil {
		return trace.BadParameter("missing parameter SystemsManager")
	}
	if c.Bucket == "" {
		return trace.BadParameter("missing parameter Bucket, set %v", constants.EnvBucket)
	}
	if c.Prefix == "" {
		c.Prefix = defaults.BackupPrefix
	}
	if c.SaveDir == "" {
		c.SaveDir = defaults.SaveDir
	}
	if c.StorageClass == "" {
		c.StorageClass = defaults.StorageClass
	}
	if c.Window == 0 {
		c.Window = defaults.InterruptionWindow
	}
	if c.SafetyMargin == 0 {
		c.SafetyMargin = defaults.SafetyMargin
	}
	if c.SafetyMargin < 0 {
		return trace.BadParameter("safety margin can not be negative: %v", c.SafetyMargin)
	}
	if c.Window-c.SafetyMargin < defaults.MinCommandTimeout {
		return trace.BadParameter("interruption window %v leaves less than %v for the backup command after the %v safety margin",
			c.Window, defaults.MinCommandTimeout, c.SafetyMargin)
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	return nil
}

// Reactor triggers emergency backups on interrupted spot instances
type Reactor struct {
	// Config is the reactor configuration
	Config
	log.Logger
	// script is the rendered backup script
	script string
}

// New returns a new interruption reactor
func New(config Config) (*Reactor, error) {
	if err := config.CheckAndSetDefaults(); err != nil {
		return nil, trace.Wrap(err)
	}
	script, err := renderBackupScript(config)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return &Reactor{
		Config: config,
		Logger: log.NewComponent(constants.ComponentInterruption),
		script: script,
	}, nil
}

// Handle is the Lambda handler for the spot interruption warning event.
// It always returns a response and never an error
func (r *Reactor) Handle(ctx context.Context, event lambdaevents.CloudWatchEvent) (resp *reactor.Response, err error) {
	start := r.Clock.Now()
	logger := r.Logger
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		logger = logger.WithField(constants.FieldRequestID, lc.AwsRequestID)
	}
	var result Result
	defer func() {
		if p := recover(); p != nil {
			logger.Errorf("Unexpected failure handling spot interruption: %v.", p)
			result = Result{
				Outcome: OutcomeFailed,
				Message: MessageFailed,
				Err:     trace.BadParameter("unexpected failure: %v", p),
			}
		}
		r.Metrics.ObserveOutcome(result.Outcome.String())
		r.Metrics.ObserveDuration(r.Clock.Since(start))
		if err := r.Metrics.Push(); err != nil {
			logger.WithError(err).Warn("Failed to push metrics.")
		}
		resp = result.Response()
	}()
	logger.Infof("Spot interruption warning received: %s.", event.Detail)
	notice, err := events.ParseInterruptionNotice(event)
	if err != nil {
		logger.Errorf("Error handling spot interruption: %v.", trace.DebugReport(err))
		result = Result{Outcome: OutcomeFailed, Message: MessageFailed, Err: err}
		return nil, nil
	}
	result = r.React(ctx, *notice)
	return nil, nil
}

// React sends the backup command to the interrupted instance
func (r *Reactor) React(ctx context.Context, notice events.InterruptionNotice) Result {
	logger := r.WithFields(logrus.Fields{
		constants.FieldInstance: notice.InstanceID,
		"action":                notice.Action,
	})
	logger.Infof("Instance will be %v in ~%v.", notice.Action, r.Window)

	timeout, err := r.commandTimeout(notice)
	if err != nil {
		logger.WithError(err).Warn("No time left for the backup command, relying on periodic backups.")
		return Result{
			Outcome:    OutcomeDegraded,
			InstanceID: notice.InstanceID,
			Message:    MessageWindowExhausted,
			Err:        err,
		}
	}

	commandID, err := r.sendBackupCommand(ctx, notice, timeout)
	if err != nil {
		if IsChannelUnavailable(err) {
			logger.WithError(err).Warn("SSM command failed (normal if agent not running).")
			logger.Info("Relying on periodic backups.")
			return Result{
				Outcome:    OutcomeDegraded,
				InstanceID: notice.InstanceID,
				Message:    MessageChannelUnavailable,
				Err:        err,
			}
		}
		logger.Errorf("Failed to send backup command: %v.", trace.DebugReport(err))
		return Result{
			Outcome:    OutcomeFailed,
			InstanceID: notice.InstanceID,
			Message:    MessageFailed,
			Err:        err,
		}
	}

	logger.WithField(constants.FieldCommand, commandID).Infof("Backup command sent with %v timeout.", timeout)
	return Result{
		Outcome:    OutcomeInitiated,
		InstanceID: notice.InstanceID,
		CommandID:  commandID,
		Message:    MessageInitiated,
	}
}

// commandTimeout returns the time the backup command may run for:
// what is left of the interruption window minus the safety margin
func (r *Reactor) commandTimeout(notice events.InterruptionNotice) (time.Duration, error) {
	now := r.Clock.Now()
	issued := notice.Time
	if issued.IsZero() || issued.After(now) {
		issued = now
	}
	deadline := issued.Add(r.Window - r.SafetyMargin)
	timeout := deadline.Sub(now).Truncate(time.Second)
	if timeout < defaults.MinCommandTimeout {
		return 0, trace.LimitExceeded("%v left before termination, the backup command needs at least %v",
			deadline.Add(r.SafetyMargin).Sub(now), defaults.MinCommandTimeout+r.SafetyMargin)
	}
	return timeout, nil
}

func (r *Reactor) sendBackupCommand(ctx context.Context, notice events.InterruptionNotice, timeout time.Duration) (commandID string, err error) {
	seconds := int64(timeout / time.Second)
	out, err := r.SystemsManager.SendCommandWithContext(ctx, &ssm.SendCommandInput{
		InstanceIds:  aws.StringSlice([]string{notice.InstanceID}),
		DocumentName: aws.String(defaults.RunShellScriptDocument),
		Parameters: map[string][]*string{
			"commands":         aws.StringSlice([]string{r.script}),
			"executionTimeout": aws.StringSlice([]string{strconv.FormatInt(seconds, 10)}),
		},
		TimeoutSeconds: aws.Int64(seconds),
		Comment:        aws.String(fmt.Sprintf("Emergency backup due to spot interruption (%v)", notice.Action)),
	})
	if err != nil {
		return "", cloud.ConvertError(err)
	}
	if out.Command == nil || aws.StringValue(out.Command.CommandId) == "" {
		return "", trace.BadParameter("no command returned for instance %v", notice.InstanceID)
	}
	return aws.StringValue(out.Command.CommandId), nil
}

// IsChannelUnavailable returns true if the error means the remote command
// could not be delivered to the instance: the agent is not running,
// the instance is gone or the API is unreachable or throttled
func IsChannelUnavailable(err error) bool {
	return trace.IsConnectionProblem(err) || trace.IsLimitExceeded(err)
}
