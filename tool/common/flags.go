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
	"github.com/gravitational/fleetkeeper/lib/constants"
	"github.com/gravitational/fleetkeeper/lib/metrics"
	"github.com/gravitational/fleetkeeper/lib/utils"

	"gopkg.in/alecthomas/kingpin.v2"
)

// Flags are the flags shared by all reactor binaries
type Flags struct {
	// Debug enables debug logging
	Debug *bool
	// LogFormat is either json or text
	LogFormat *string
	// Region is the AWS region
	Region *string
	// PushGateway is the optional address of the Prometheus push gateway
	PushGateway *string
}

// RegisterFlags registers the shared flags with the application
func RegisterFlags(app *kingpin.Application) Flags {
	return Flags{
		Debug: app.Flag("debug", "Enable debug logging.").
			Envar(constants.EnvDebug).Bool(),
		LogFormat: app.Flag("log-format", "Log output format: json or text.").
			Envar(constants.EnvLogFormat).Default(constants.LogFormatJSON).
			Enum(constants.LogFormatJSON, constants.LogFormatText),
		Region: app.Flag("region", "AWS region. Defaults to the region of the Lambda function.").
			Envar(constants.EnvRegion).String(),
		PushGateway: app.Flag("push-gateway", "Address of the Prometheus push gateway to push invocation metrics to.").
			Envar(constants.EnvPushGateway).String(),
	}
}

// InitLogging configures logging from the flags
func (f Flags) InitLogging() error {
	return utils.InitLogging(*f.Debug, *f.LogFormat)
}

// NewMetrics returns the metrics for the named reactor
func (f Flags) NewMetrics(reactor string) *metrics.Metrics {
	return metrics.New(reactor, *f.PushGateway)
}

// Tags parses a comma-separated list of key=value pairs into a map.
// The flag can be repeated
func Tags(s kingpin.Settings) *map[string]string {
	tags := make(tagsValue)
	s.SetValue(&tags)
	return (*map[string]string)(&tags)
}

type tagsValue map[string]string

// Set parses and merges the key=value pairs
func (t *tagsValue) Set(value string) error {
	tags, err := utils.ParseTags(value)
	if err != nil {
		return err
	}
	for key, value := range tags {
		(*t)[key] = value
	}
	return nil
}

func (t *tagsValue) String() string {
	return utils.FormatTags(*t)
}

// IsCumulative allows the flag to be repeated
func (t *tagsValue) IsCumulative() bool {
	return true
}
