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

package common

import (
	"os"

	"github.com/fatih/color"
	"github.com/gravitational/trace"
	log "github.com/sirupsen/logrus"
)

// PrintError prints the red error message to the console
func PrintError(err error) {
	color.New(color.FgRed).Fprintf(os.Stderr, "[ERROR]: %v\n", trace.UserMessage(err))
}

// Exit logs the error and terminates the process.
// It is used when a reactor can not be constructed at cold start
func Exit(err error) {
	log.Error(trace.DebugReport(err))
	PrintError(err)
	os.Exit(255)
}
