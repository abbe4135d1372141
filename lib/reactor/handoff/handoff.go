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

package handoff

import (
	"context"
	"time"

	cloud "github.com/gravitational/fleetkeeper/lib/cloudprovider/aws"
	"github.com/gravitational/fleetkeeper/lib/constants"
	"github.com/gravitational/fleetkeeper/lib/defaults"
	"github.com/gravitational/fleetkeeper/lib/events"
	"github.com/gravitational/fleetkeeper/lib/log"
	"github.com/gravitational/fleetkeeper/lib/metrics"
	"github.com/gravitational/fleetkeeper/lib/reactor"
	"github.com/gravitational/fleetkeeper/lib/utils"

	lambdaevents "github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/gravitational/trace"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

// Config is the handoff reactor configuration
type Config struct {
	// Cloud is Elastic Compute Cloud, AWS cloud service
	Cloud cloud.EC2
	// AutoScaling completes lifecycle actions
	AutoScaling cloud.AutoScaling
	// Device is the device name the volume is attached as
	Device string
	// VolumeTags identify the persistent volume
	VolumeTags map[string]string
	// Poll bounds every wait on volume and instance state
	Poll utils.RetryPolicy
	// LifecycleRetry bounds attempts to complete a throttled lifecycle action
	LifecycleRetry utils.RetryPolicy
	// HeartbeatInterval is the interval to record lifecycle heartbeats
	// at while the volume is being moved. Zero disables heartbeats
	HeartbeatInterval time.Duration
	// CompensationReserve is cut from the invocation deadline to leave
	// time to abandon the lifecycle action
	CompensationReserve time.Duration
	// CompensationTimeout bounds the abandon call
	CompensationTimeout time.Duration
	// Clock drives heartbeats and duration metrics
	Clock clockwork.Clock
	// Metrics optionally records invocation outcomes
	Metrics *metrics.Metrics
}

// CheckAndSetDefaults checks and sets default values
func (c *Config) CheckAndSetDefaults() error {
	if c.Cloud == nil {
		return trace.BadParameter("missing parameter Cloud")
	}
	if c.AutoScaling == nil {
		return trace.BadParameter("missing parameter AutoScaling")
	}
	if c.Device == "" {
		c.Device = defaults.DeviceName
	}
	if len(c.VolumeTags) == 0 {
		c.VolumeTags = defaults.VolumeTags()
	}
	if c.Poll == (utils.RetryPolicy{}) {
		c.Poll = utils.RetryPolicy{
			Interval:    defaults.PollInterval,
			MaxAttempts: defaults.PollAttempts,
		}
	}
	if err := c.Poll.Check(); err != nil {
		return trace.Wrap(err)
	}
	if c.LifecycleRetry == (utils.RetryPolicy{}) {
		c.LifecycleRetry = utils.RetryPolicy{
			Interval:    defaults.LifecycleRetryInterval,
			MaxAttempts: defaults.LifecycleRetryAttempts,
		}
	}
	if err := c.LifecycleRetry.Check(); err != nil {
		return trace.Wrap(err)
	}
	if c.HeartbeatInterval < 0 {
		return trace.BadParameter("heartbeat interval can not be negative: %v", c.HeartbeatInterval)
	}
	if c.CompensationReserve == 0 {
		c.CompensationReserve = defaults.CompensationReserve
	}
	if c.CompensationTimeout == 0 {
		c.CompensationTimeout = defaults.CompensationTimeout
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	return nil
}

// Reactor moves the persistent volume to launching instances
type Reactor struct {
	// Config is the reactor configuration
	Config
	log.Logger
}

// New returns a new handoff reactor
func New(config Config) (*Reactor, error) {
	if err := config.CheckAndSetDefaults(); err != nil {
		return nil, trace.Wrap(err)
	}
	return &Reactor{
		Config: config,
		Logger: log.NewComponent(constants.ComponentHandoff),
	}, nil
}

// Handle is the Lambda handler for lifecycle notices delivered over SNS.
// Failures are returned after the lifecycle action has been abandoned
func (r *Reactor) Handle(ctx context.Context, event lambdaevents.SNSEvent) (*reactor.Response, error) {
	start := r.Clock.Now()
	logger := r.Logger
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		logger = logger.WithField(constants.FieldRequestID, lc.AwsRequestID)
	}
	result, err := r.handle(ctx, event, logger)
	r.Metrics.ObserveOutcome(result.Outcome.String())
	r.Metrics.ObserveDuration(r.Clock.Since(start))
	if err := r.Metrics.Push(); err != nil {
		logger.WithError(err).Warn("Failed to push metrics.")
	}
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return result.Response(), nil
}

func (r *Reactor) handle(ctx context.Context, event lambdaevents.SNSEvent, logger log.Logger) (*Result, error) {
	notice, err := events.ParseLifecycleNotice(event)
	if err != nil {
		logger.Errorf("Failed to parse lifecycle notice: %v.", trace.DebugReport(err))
		return &Result{Outcome: OutcomeFailed, Message: trace.UserMessage(err), Err: err}, trace.Wrap(err)
	}
	return r.handoff(ctx, *notice, logger)
}

// Handoff moves the persistent volume to the instance named in the notice
// and completes the lifecycle action.
//
// The returned result is never nil. A non-nil error means the lifecycle
// action has been abandoned (or an attempt to abandon has been made)
func (r *Reactor) Handoff(ctx context.Context, notice events.LifecycleNotice) (*Result, error) {
	return r.handoff(ctx, notice, r.Logger)
}

func (r *Reactor) handoff(ctx context.Context, notice events.LifecycleNotice, logger log.Logger) (*Result, error) {
	if notice.IsTest() {
		logger.Info("Received test notification, skipping.")
		return &Result{Outcome: OutcomeSkipped, Message: MessageTestNotification}, nil
	}
	logger = logger.WithFields(logrus.Fields{
		constants.FieldInstance:         notice.InstanceID,
		constants.FieldAutoScalingGroup: notice.AutoScalingGroupName,
		constants.FieldLifecycleHook:    notice.HookName,
	})
	if !notice.IsLaunching() {
		logger.Infof("Ignoring lifecycle transition %v.", notice.Transition)
		return &Result{
			Outcome:    OutcomeSkipped,
			InstanceID: notice.InstanceID,
			Message:    MessageIgnoredTransition,
		}, nil
	}
	logger.Infof("Processing instance %v in ASG %v.", notice.InstanceID, notice.AutoScalingGroupName)

	workCtx, cancel := r.workContext(ctx)
	defer cancel()
	stopHeartbeats := func() {}
	if r.HeartbeatInterval > 0 {
		stopHeartbeats = r.startHeartbeatLoop(workCtx, notice, logger)
	}
	defer stopHeartbeats()

	volume, err := r.findVolume(workCtx, logger)
	if err != nil {
		stopHeartbeats()
		return r.abandon(ctx, notice, "", logger, err)
	}
	if volume == nil {
		stopHeartbeats()
		logger.Errorf("No persistent data volume found with tags %v.", r.VolumeTags)
		compensation := r.compensate(ctx, notice, logger)
		return &Result{
			Outcome:      OutcomeAbandoned,
			InstanceID:   notice.InstanceID,
			Message:      MessageVolumeNotFound,
			Compensation: compensation,
		}, nil
	}

	volumeID := aws.StringValue(volume.VolumeId)
	logger = logger.WithField(constants.FieldVolume, volumeID)
	if err := r.moveVolume(workCtx, notice, *volume, logger); err != nil {
		stopHeartbeats()
		return r.abandon(ctx, notice, volumeID, logger, err)
	}
	logger.Info("Volume attached successfully.")

	stopHeartbeats()
	if err := r.completeLifecycle(workCtx, notice, constants.LifecycleContinue, logger); err != nil {
		return r.abandon(ctx, notice, volumeID, logger, err)
	}
	return &Result{
		Outcome:    OutcomeAttached,
		InstanceID: notice.InstanceID,
		VolumeID:   volumeID,
	}, nil
}

// abandon abandons the lifecycle action after the handoff has failed
// with cause and returns cause
func (r *Reactor) abandon(ctx context.Context, notice events.LifecycleNotice, volumeID string, logger log.Logger, cause error) (*Result, error) {
	logger.Errorf("Volume handoff failed: %v.", trace.DebugReport(cause))
	compensation := r.compensate(ctx, notice, logger)
	return &Result{
		Outcome:      OutcomeAbandoned,
		InstanceID:   notice.InstanceID,
		VolumeID:     volumeID,
		Message:      trace.UserMessage(cause),
		Compensation: compensation,
		Err:          cause,
	}, trace.Wrap(cause)
}

// workContext returns the context for the handoff steps. If ctx has
// a deadline, the returned context expires CompensationReserve earlier
func (r *Reactor) workContext(ctx context.Context) (context.Context, context.CancelFunc) {
	deadline, ok := ctx.Deadline()
	if !ok {
		return context.WithCancel(ctx)
	}
	return context.WithDeadline(ctx, deadline.Add(-r.CompensationReserve))
}
