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

// Package reactor contains types shared by the notification reactors
package reactor

import (
	"encoding/json"
	"net/http"
)

// Response is the result returned to the Lambda runtime
type Response struct {
	// StatusCode is an HTTP-like status of the invocation
	StatusCode int `json:"statusCode"`
	// Body is the invocation result, either plain text or JSON
	Body string `json:"body"`
}

// NewTextResponse returns a response with a plain text body
func NewTextResponse(statusCode int, text string) *Response {
	return &Response{StatusCode: statusCode, Body: text}
}

// NewJSONResponse returns a response with the JSON encoded body.
// A body that fails to encode yields an internal error response
func NewJSONResponse(statusCode int, body interface{}) *Response {
	out, err := json.Marshal(body)
	if err != nil {
		return &Response{
			StatusCode: http.StatusInternalServerError,
			Body:       err.Error(),
		}
	}
	return &Response{StatusCode: statusCode, Body: string(out)}
}
