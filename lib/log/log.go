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

package log

import (
	"github.com/gravitational/trace"
	"github.com/sirupsen/logrus"
)

// Logger is the structured logging interface used by the reactors
type Logger interface {
	// WithField creates a new child logger with the specified field
	WithField(key string, value interface{}) Logger
	// WithFields creates a new child logger with the specified list of fields
	WithFields(fields logrus.Fields) Logger
	// WithError creates a new child logger with the specified error field
	WithError(err error) Logger

	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
}

// New creates a new logger for the specified entry
func New(entry *logrus.Entry) Logger {
	return logger{Entry: entry}
}

// NewComponent creates a new logger on the standard logger
// tagged with the specified component
func NewComponent(component string) Logger {
	return New(logrus.WithField(trace.Component, component))
}

// logger adapts a logrus entry to Logger. Leveled output methods
// are promoted from the entry
type logger struct {
	*logrus.Entry
}

func (r logger) WithField(key string, value interface{}) Logger {
	return New(r.Entry.WithField(key, value))
}

func (r logger) WithFields(fields logrus.Fields) Logger {
	return New(r.Entry.WithFields(fields))
}

func (r logger) WithError(err error) Logger {
	return New(r.Entry.WithError(err))
}
