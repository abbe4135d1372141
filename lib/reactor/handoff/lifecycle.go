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
	"sync"

	cloud "github.com/gravitational/fleetkeeper/lib/cloudprovider/aws"
	"github.com/gravitational/fleetkeeper/lib/constants"
	"github.com/gravitational/fleetkeeper/lib/events"
	"github.com/gravitational/fleetkeeper/lib/log"
	"github.com/gravitational/fleetkeeper/lib/utils"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/autoscaling"
	"github.com/gravitational/trace"
)

// completeLifecycle completes the lifecycle action with the given result.
// Throttled requests are retried according to LifecycleRetry
func (r *Reactor) completeLifecycle(ctx context.Context, notice events.LifecycleNotice, result constants.LifecycleActionResult, logger log.Logger) error {
	input := &autoscaling.CompleteLifecycleActionInput{
		AutoScalingGroupName:  aws.String(notice.AutoScalingGroupName),
		LifecycleHookName:     aws.String(notice.HookName),
		InstanceId:            aws.String(notice.InstanceID),
		LifecycleActionResult: aws.String(result.String()),
	}
	if notice.Token != "" {
		input.LifecycleActionToken = aws.String(notice.Token)
	}
	err := utils.RetryWithInterval(ctx, r.LifecycleRetry.BackOff(), func() error {
		_, err := r.AutoScaling.CompleteLifecycleActionWithContext(ctx, input)
		if err == nil {
			return nil
		}
		if cloud.IsThrottled(err) {
			logger.WithError(err).Warn("Lifecycle action request throttled.")
			return cloud.ConvertError(err)
		}
		return utils.Permanent(cloud.ConvertError(err))
	})
	if err != nil {
		return trace.Wrap(err, "failed to complete lifecycle action with %v", result)
	}
	logger.Infof("Lifecycle action completed with result: %v.", result)
	return nil
}

// compensate abandons the lifecycle action so the group replaces the
// instance. It runs on a context detached from the cancellation of ctx
// and bounded by CompensationTimeout
func (r *Reactor) compensate(ctx context.Context, notice events.LifecycleNotice, logger log.Logger) Compensation {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.CompensationTimeout)
	defer cancel()
	err := r.completeLifecycle(ctx, notice, constants.LifecycleAbandon, logger)
	if err != nil {
		logger.Warnf("Failed to abandon lifecycle action: %v.", trace.DebugReport(err))
	}
	return Compensation{Attempted: true, Err: err}
}

// startHeartbeatLoop records lifecycle heartbeats every HeartbeatInterval
// until the returned function is called or ctx expires.
// The returned function blocks until the loop has exited
func (r *Reactor) startHeartbeatLoop(ctx context.Context, notice events.LifecycleNotice, logger log.Logger) func() {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	ticker := r.Clock.NewTicker(r.HeartbeatInterval)

	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				logger.Debugf("Heartbeat loop exiting: %v.", ctx.Err())
				return
			case <-ticker.Chan():
				input := &autoscaling.RecordLifecycleActionHeartbeatInput{
					AutoScalingGroupName: aws.String(notice.AutoScalingGroupName),
					InstanceId:           aws.String(notice.InstanceID),
					LifecycleHookName:    aws.String(notice.HookName),
				}
				if notice.Token != "" {
					input.LifecycleActionToken = aws.String(notice.Token)
				}
				_, err := r.AutoScaling.RecordLifecycleActionHeartbeatWithContext(ctx, input)
				if err != nil {
					logger.WithError(cloud.ConvertError(err)).Warn("Failed to record lifecycle heartbeat.")
					continue
				}
				logger.Debugf("Recorded lifecycle heartbeat for %v.", notice.InstanceID)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
}
