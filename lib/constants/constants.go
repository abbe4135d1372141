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

// package constants contains global constants
// shared between packages
package constants

const (
	// ComponentInterruption is the logging component of the spot interruption reactor
	ComponentInterruption = "interruption"
	// ComponentHandoff is the logging component of the volume handoff reactor
	ComponentHandoff = "handoff"

	// FieldInstance is a logging field for EC2 instance ID
	FieldInstance = "instance"
	// FieldAutoScalingGroup is a logging field for the auto scaling group name
	FieldAutoScalingGroup = "asg_name"
	// FieldLifecycleHook is a logging field for the lifecycle hook name
	FieldLifecycleHook = "hook"
	// FieldVolume is a logging field for EBS volume ID
	FieldVolume = "volume"
	// FieldCommand is a logging field for SSM command ID
	FieldCommand = "command"
	// FieldRequestID is a logging field for Lambda request ID
	FieldRequestID = "request_id"
)

const (
	// TestNotification is the event sent by the auto scaling group
	// when a notification target is first configured
	TestNotification = "autoscaling:TEST_NOTIFICATION"
	// InstanceLaunching is AWS instance launching lifecycle autoscaling event
	InstanceLaunching = "autoscaling:EC2_INSTANCE_LAUNCHING"
	// InstanceTerminating is AWS instance terminating lifecycle autoscaling event
	InstanceTerminating = "autoscaling:EC2_INSTANCE_TERMINATING"

	// SpotInterruptionDetailType is the CloudWatch event detail type
	// of the spot instance interruption warning
	SpotInterruptionDetailType = "EC2 Spot Instance Interruption Warning"
)

// LifecycleActionResult is the result reported to a lifecycle hook
type LifecycleActionResult string

const (
	// LifecycleContinue lets the auto scaling group proceed with the instance
	LifecycleContinue LifecycleActionResult = "CONTINUE"
	// LifecycleAbandon makes the auto scaling group roll back the instance
	LifecycleAbandon LifecycleActionResult = "ABANDON"
)

// String returns the result as expected by the autoscaling API
func (r LifecycleActionResult) String() string {
	return string(r)
}

const (
	// EnvBucket names the bucket for emergency backups
	EnvBucket = "S3_BUCKET"
	// EnvSaveDir names the game save directory on the instance
	EnvSaveDir = "SAVE_DIR"
	// EnvStorageClass names the S3 storage class of uploaded backups
	EnvStorageClass = "STORAGE_CLASS"
	// EnvBackupPrefix names the key prefix of emergency backups
	EnvBackupPrefix = "BACKUP_PREFIX"
	// EnvInterruptionWindow is the time between interruption warning and termination
	EnvInterruptionWindow = "INTERRUPTION_WINDOW"
	// EnvSafetyMargin is the time reserved before termination
	EnvSafetyMargin = "SAFETY_MARGIN"

	// EnvDevice names the device the volume is attached as
	EnvDevice = "DEVICE_NAME"
	// EnvPollInterval is the delay between waiter polls
	EnvPollInterval = "POLL_INTERVAL"
	// EnvPollAttempts is the maximum number of waiter polls
	EnvPollAttempts = "POLL_ATTEMPTS"
	// EnvHeartbeatInterval is the lifecycle heartbeat interval
	EnvHeartbeatInterval = "HEARTBEAT_INTERVAL"
	// EnvVolumeTags lists the tags identifying the persistent volume
	EnvVolumeTags = "VOLUME_TAGS"

	// EnvRegion is the AWS region
	EnvRegion = "AWS_REGION"
	// EnvDebug turns on debug logging
	EnvDebug = "DEBUG"
	// EnvLogFormat selects the log formatter
	EnvLogFormat = "LOG_FORMAT"
	// EnvPushGateway is the address of the prometheus push gateway
	EnvPushGateway = "PUSH_GATEWAY"
)

const (
	// LogFormatJSON selects JSON log output
	LogFormatJSON = "json"
	// LogFormatText selects human readable log output
	LogFormatText = "text"
)
