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

package interruption

import (
	"net/http"

	"github.com/gravitational/fleetkeeper/lib/reactor"

	"github.com/gravitational/trace"
)

// Outcome is the outcome of handling an interruption notice
type Outcome int

const (
	// OutcomeFailed means the notice could not be handled
	OutcomeFailed Outcome = iota
	// OutcomeInitiated means the backup command has been accepted
	OutcomeInitiated
	// OutcomeDegraded means the backup command could not be sent
	// and the periodic backups are relied upon
	OutcomeDegraded
)

// String returns the outcome name
func (o Outcome) String() string {
	switch o {
	case OutcomeInitiated:
		return "initiated"
	case OutcomeDegraded:
		return "degraded"
	default:
		return "failed"
	}
}

const (
	// MessageInitiated is reported when the backup command is accepted
	MessageInitiated = "Emergency backup initiated"
	// MessageChannelUnavailable is reported when the command could not be delivered
	MessageChannelUnavailable = "SSM unavailable, relying on periodic backups"
	// MessageWindowExhausted is reported when there is no time left to run the backup
	MessageWindowExhausted = "Interruption window exhausted, relying on periodic backups"
	// MessageFailed is reported on unexpected failures
	MessageFailed = "Error handling spot interruption"
)

// Result is the result of handling an interruption notice
type Result struct {
	// Outcome is the handling outcome
	Outcome Outcome
	// InstanceID is the interrupted instance, empty for malformed notices
	InstanceID string
	// CommandID is the ID of the accepted backup command
	CommandID string
	// Message describes the outcome
	Message string
	// Err is the failure behind a degraded or failed outcome
	Err error
}

// Response converts the result to the Lambda response.
// Degraded results are successful responses
func (r Result) Response() *reactor.Response {
	body := responseBody{
		InstanceID: r.InstanceID,
		CommandID:  r.CommandID,
		Message:    r.Message,
	}
	if r.Outcome == OutcomeFailed {
		if r.Err != nil {
			body.Error = trace.UserMessage(r.Err)
		}
		return reactor.NewJSONResponse(http.StatusInternalServerError, body)
	}
	return reactor.NewJSONResponse(http.StatusOK, body)
}

type responseBody struct {
	InstanceID string `json:"instance_id,omitempty"`
	CommandID  string `json:"command_id,omitempty"`
	Message    string `json:"message"`
	Error      string `json:"error,omitempty"`
}
