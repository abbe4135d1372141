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

package main

import (
	"os"
	"strconv"

	cloud "github.com/gravitational/fleetkeeper/lib/cloudprovider/aws"
	"github.com/gravitational/fleetkeeper/lib/constants"
	"github.com/gravitational/fleetkeeper/lib/defaults"
	"github.com/gravitational/fleetkeeper/lib/reactor/handoff"
	"github.com/gravitational/fleetkeeper/lib/utils"
	"github.com/gravitational/fleetkeeper/tool/common"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/service/autoscaling"
	"github.com/aws/aws-sdk-go/service/ec2"
	"github.com/gravitational/trace"
	"gopkg.in/alecthomas/kingpin.v2"
)

func main() {
	app := kingpin.New("handoff-reactor", "Moves the persistent data volume to instances launched by the auto scaling group.")
	r, err := newReactor(app, os.Args[1:])
	if err != nil {
		common.Exit(err)
	}
	lambda.Start(r.Handle)
}

func newReactor(app *kingpin.Application, args []string) (*handoff.Reactor, error) {
	flags := common.RegisterFlags(app)
	device := app.Flag("device", "Device name to attach the volume as.").
		Envar(constants.EnvDevice).Default(defaults.DeviceName).String()
	pollInterval := app.Flag("poll-interval", "Delay between volume and instance state polls.").
		Envar(constants.EnvPollInterval).Default(defaults.PollInterval.String()).Duration()
	pollAttempts := app.Flag("poll-attempts", "Maximum number of state polls per wait.").
		Envar(constants.EnvPollAttempts).Default(strconv.Itoa(defaults.PollAttempts)).Int()
	heartbeatInterval := app.Flag("heartbeat-interval", "Interval to record lifecycle heartbeats at, 0 disables heartbeats.").
		Envar(constants.EnvHeartbeatInterval).Default(defaults.HeartbeatInterval.String()).Duration()
	tags := common.Tags(app.Flag("tag", "Tag identifying the persistent volume as key=value. Can be repeated or comma-separated.").
		Envar(constants.EnvVolumeTags))
	if _, err := app.Parse(args); err != nil {
		return nil, trace.Wrap(err)
	}
	if err := flags.InitLogging(); err != nil {
		return nil, trace.Wrap(err)
	}
	sess, err := cloud.NewSession(*flags.Region)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return handoff.New(handoff.Config{
		Cloud:       ec2.New(sess),
		AutoScaling: autoscaling.New(sess),
		Device:      *device,
		VolumeTags:  *tags,
		Poll: utils.RetryPolicy{
			Interval:    *pollInterval,
			MaxAttempts: *pollAttempts,
		},
		HeartbeatInterval: *heartbeatInterval,
		Metrics:           flags.NewMetrics(constants.ComponentHandoff),
	})
}
