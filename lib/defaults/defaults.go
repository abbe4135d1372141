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

package defaults

import (
	"time"
)

const (
	// DeviceName is the device the persistent volume is attached as
	DeviceName = "/dev/xvdf"

	// PollInterval is the delay between two waiter polls
	PollInterval = 5 * time.Second
	// PollAttempts is the maximum number of waiter polls before giving up
	PollAttempts = 30

	// LifecycleRetryInterval is the delay between attempts to complete
	// a lifecycle action that failed with a throttling error
	LifecycleRetryInterval = 1 * time.Second
	// LifecycleRetryAttempts is the maximum number of attempts to
	// complete a lifecycle action
	LifecycleRetryAttempts = 3

	// HeartbeatInterval is the interval to record lifecycle heartbeats
	// while the volume is being moved
	HeartbeatInterval = 60 * time.Second

	// CompensationReserve is the part of the invocation deadline kept
	// for abandoning the lifecycle action
	CompensationReserve = 5 * time.Second
	// CompensationTimeout bounds the abandon call
	CompensationTimeout = 5 * time.Second
)

const (
	// InterruptionWindow is the time between the spot interruption
	// warning and the instance termination
	InterruptionWindow = 2 * time.Minute
	// SafetyMargin is the time reserved before termination that the
	// backup command must not use
	SafetyMargin = 10 * time.Second
	// MinCommandTimeout is the smallest timeout accepted by SendCommand
	MinCommandTimeout = 30 * time.Second

	// RunShellScriptDocument is the SSM document executing shell commands
	RunShellScriptDocument = "AWS-RunShellScript"

	// SaveDir is the game save directory on the persistent volume
	SaveDir = "/mnt/palworld-data/Pal/Saved"
	// StorageClass is the storage class of emergency backups
	StorageClass = "STANDARD_IA"
	// BackupPrefix is the key prefix of emergency backups
	BackupPrefix = "emergency-backups"
)

// VolumeTags returns the tags identifying the persistent data volume
func VolumeTags() map[string]string {
	return map[string]string{
		"Persistent": "true",
		"AutoAttach": "true",
	}
}
