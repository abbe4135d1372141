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

// Package events parses the notifications that trigger the reactors
// out of the Lambda event envelopes they are delivered in
package events

import (
	"encoding/json"
	"time"

	"github.com/gravitational/fleetkeeper/lib/constants"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gravitational/trace"
)

// InterruptionNotice is the spot instance interruption warning
//
// Example event:
//
//   {
//       "version": "0",
//       "detail-type": "EC2 Spot Instance Interruption Warning",
//       "source": "aws.ec2",
//       "time": "2024-05-01T12:00:00Z",
//       "detail": {
//           "instance-id": "i-1234567890abcdef0",
//           "instance-action": "terminate"
//       }
//   }
type InterruptionNotice struct {
	// InstanceID is the ID of the interrupted spot instance
	InstanceID string `json:"instance-id"`
	// Action is the pending action, one of terminate, stop or hibernate
	Action string `json:"instance-action"`
	// Time is the time the warning was issued
	Time time.Time `json:"-"`
}

// Check validates the notice
func (n InterruptionNotice) Check() error {
	if n.InstanceID == "" {
		return trace.BadParameter("missing instance-id in interruption notice")
	}
	if n.Action == "" {
		return trace.BadParameter("missing instance-action in interruption notice")
	}
	return nil
}

// ParseInterruptionNotice extracts the interruption notice from the CloudWatch event
func ParseInterruptionNotice(event events.CloudWatchEvent) (*InterruptionNotice, error) {
	if len(event.Detail) == 0 {
		return nil, trace.BadParameter("missing detail in event %v", event.ID)
	}
	var notice InterruptionNotice
	if err := json.Unmarshal(event.Detail, &notice); err != nil {
		return nil, trace.BadParameter("malformed interruption notice: %v", err)
	}
	if err := notice.Check(); err != nil {
		return nil, trace.Wrap(err)
	}
	notice.Time = event.Time
	return &notice, nil
}

// LifecycleNotice is a lifecycle hook notification posted by
// the auto scaling group
type LifecycleNotice struct {
	// Event is set on test notifications
	Event string `json:"Event,omitempty"`
	// Transition is the lifecycle transition
	Transition string `json:"LifecycleTransition,omitempty"`
	// InstanceID is AWS instance ID
	InstanceID string `json:"EC2InstanceId"`
	// HookName is the name of the lifecycle hook
	HookName string `json:"LifecycleHookName"`
	// AutoScalingGroupName is the name of the auto scaling group
	AutoScalingGroupName string `json:"AutoScalingGroupName"`
	// Token is the token to use when interacting with the lifecycle action
	Token string `json:"LifecycleActionToken,omitempty"`
	// Metadata is the notification metadata configured on the hook
	Metadata string `json:"NotificationMetadata,omitempty"`
}

// IsTest returns true for the test notification sent when
// the notification target is configured
func (n LifecycleNotice) IsTest() bool {
	return n.Event == constants.TestNotification
}

// IsLaunching returns true if the notice is about a launching instance.
// Notices without transition are treated as launching
func (n LifecycleNotice) IsLaunching() bool {
	return n.Transition == "" || n.Transition == constants.InstanceLaunching
}

// Check validates the notice
func (n LifecycleNotice) Check() error {
	if n.InstanceID == "" {
		return trace.BadParameter("missing EC2InstanceId in lifecycle notice")
	}
	if n.HookName == "" {
		return trace.BadParameter("missing LifecycleHookName in lifecycle notice")
	}
	if n.AutoScalingGroupName == "" {
		return trace.BadParameter("missing AutoScalingGroupName in lifecycle notice")
	}
	return nil
}

// ParseLifecycleNotice extracts the lifecycle notice from the SNS envelope.
// Test notifications are returned without validation
func ParseLifecycleNotice(event events.SNSEvent) (*LifecycleNotice, error) {
	if len(event.Records) == 0 {
		return nil, trace.BadParameter("no records in SNS event")
	}
	notice, err := UnmarshalLifecycleNotice(event.Records[0].SNS.Message)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return notice, nil
}

// UnmarshalLifecycleNotice parses the lifecycle notice from the notification message
func UnmarshalLifecycleNotice(message string) (*LifecycleNotice, error) {
	var notice LifecycleNotice
	if err := json.Unmarshal([]byte(message), &notice); err != nil {
		return nil, trace.BadParameter("malformed lifecycle notice: %v", err)
	}
	if notice.IsTest() {
		return &notice, nil
	}
	if err := notice.Check(); err != nil {
		return nil, trace.Wrap(err)
	}
	return &notice, nil
}

// MustMarshalLifecycleNotice returns the notice as a notification message
func MustMarshalLifecycleNotice(notice LifecycleNotice) string {
	out, err := json.Marshal(notice)
	if err != nil {
		panic(err)
	}
	return string(out)
}
