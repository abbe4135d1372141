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
	"net/http"

	"github.com/gravitational/fleetkeeper/lib/reactor"
)

const (
	// MessageTestNotification is returned for autoscaling test notices
	MessageTestNotification = "Test notification"
	// MessageIgnoredTransition is returned for transitions other than launch
	MessageIgnoredTransition = "Lifecycle transition ignored"
	// MessageVolumeNotFound is returned when no volume carries the tags
	MessageVolumeNotFound = "Volume not found"
	// statusAttached is reported once the volume is attached
	statusAttached = "attached"
)

// Outcome classifies a handoff
type Outcome int

const (
	// OutcomeFailed means the notice could not be processed
	OutcomeFailed Outcome = iota
	// OutcomeSkipped means the notice required no action
	OutcomeSkipped
	// OutcomeAttached means the volume was attached and the
	// lifecycle action continued
	OutcomeAttached
	// OutcomeAbandoned means the lifecycle action was abandoned
	OutcomeAbandoned
)

// String returns the outcome name
func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeAttached:
		return "attached"
	case OutcomeAbandoned:
		return "abandoned"
	default:
		return "failed"
	}
}

// Compensation describes the attempt to abandon the lifecycle action
type Compensation struct {
	// Attempted is set when ABANDON has been sent
	Attempted bool
	// Err is the error abandoning the action, if any
	Err error
}

// Result describes the outcome of a handoff
type Result struct {
	Outcome      Outcome
	InstanceID   string
	VolumeID     string
	Message      string
	Compensation Compensation
	// Err is the cause of an abandoned or failed handoff
	Err error
}

type attachedBody struct {
	InstanceID string `json:"instance_id"`
	VolumeID   string `json:"volume_id"`
	Status     string `json:"status"`
}

// Response converts the result into the invocation response
func (r Result) Response() *reactor.Response {
	switch r.Outcome {
	case OutcomeSkipped:
		return reactor.NewTextResponse(http.StatusOK, r.Message)
	case OutcomeAttached:
		return reactor.NewJSONResponse(http.StatusOK, attachedBody{
			InstanceID: r.InstanceID,
			VolumeID:   r.VolumeID,
			Status:     statusAttached,
		})
	default:
		return reactor.NewTextResponse(http.StatusInternalServerError, r.Message)
	}
}
