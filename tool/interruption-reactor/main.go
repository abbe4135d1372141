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

	cloud "github.com/gravitational/fleetkeeper/lib/cloudprovider/aws"
	"github.com/gravitational/fleetkeeper/lib/constants"
	"github.com/gravitational/fleetkeeper/lib/defaults"
	"github.com/gravitational/fleetkeeper/lib/reactor/interruption"
	"github.com/gravitational/fleetkeeper/tool/common"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/service/ssm"
	"github.com/gravitational/trace"
	"gopkg.in/alecthomas/kingpin.v2"
)

func main() {
	app := kingpin.New("interruption-reactor", "Starts an emergency backup on instances receiving a spot interruption warning.")
	r, err := newReactor(app, os.Args[1:])
	if err != nil {
		common.Exit(err)
	}
	lambda.Start(r.Handle)
}

func newReactor(app *kingpin.Application, args []string) (*interruption.Reactor, error) {
	flags := common.RegisterFlags(app)
	bucket := app.Flag("bucket", "S3 bucket receiving emergency backups.").
		Envar(constants.EnvBucket).Required().String()
	saveDir := app.Flag("save-dir", "Game save directory on the instance.").
		Envar(constants.EnvSaveDir).Default(defaults.SaveDir).String()
	storageClass := app.Flag("storage-class", "S3 storage class of emergency backups.").
		Envar(constants.EnvStorageClass).Default(defaults.StorageClass).String()
	prefix := app.Flag("backup-prefix", "Key prefix of emergency backups.").
		Envar(constants.EnvBackupPrefix).Default(defaults.BackupPrefix).String()
	window := app.Flag("interruption-window", "Time between the interruption warning and termination.").
		Envar(constants.EnvInterruptionWindow).Default(defaults.InterruptionWindow.String()).Duration()
	margin := app.Flag("safety-margin", "Time before termination the backup command may not use.").
		Envar(constants.EnvSafetyMargin).Default(defaults.SafetyMargin.String()).Duration()
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
	return interruption.New(interruption.Config{
		SystemsManager: ssm.New(sess),
		Bucket:         *bucket,
		Prefix:         *prefix,
		SaveDir:        *saveDir,
		StorageClass:   *storageClass,
		Window:         *window,
		SafetyMargin:   *margin,
		Metrics:        flags.NewMetrics(constants.ComponentInterruption),
	})
}
