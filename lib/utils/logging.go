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

package utils

import (
	"os"

	"github.com/gravitational/fleetkeeper/lib/constants"

	"github.com/gravitational/trace"
	log "github.com/sirupsen/logrus"
)

// InitLogging configures the standard logger for a reactor process.
// Logs go to stdout where the Lambda runtime collects them.
func InitLogging(debug bool, format string) error {
	formatter, err := newFormatter(format)
	if err != nil {
		return trace.Wrap(err)
	}
	trace.SetDebug(debug)
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}
	log.SetLevel(level)
	log.SetFormatter(formatter)
	log.SetOutput(os.Stdout)
	return nil
}

func newFormatter(format string) (log.Formatter, error) {
	switch format {
	case constants.LogFormatJSON, "":
		return &trace.JSONFormatter{}, nil
	case constants.LogFormatText:
		return &trace.TextFormatter{}, nil
	default:
		return nil, trace.BadParameter("unsupported log format %q, expected %q or %q",
			format, constants.LogFormatJSON, constants.LogFormatText)
	}
}
