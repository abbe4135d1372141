/*
Copyright 2021 Gravitational, Inc.

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

package mage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gravitational/trace"
)

var (
	// reactors lists the binaries under tool/, one per Lambda function
	reactors = []string{"interruption-reactor", "handoff-reactor"}

	// lambdaArch is the architecture of the Lambda functions
	lambdaArch = envOr("LAMBDA_ARCH", "arm64")
)

func envOr(key, def string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return def
}

// Mkdir returns a mage target that ensures the given directory exists
func Mkdir(dir string) Mkdirer {
	return Mkdirer(dir)
}

// Mkdirer is a mage target to ensure a directory exists
type Mkdirer string

// Name returns the name of the target
func (r Mkdirer) Name() string {
	return fmt.Sprint("Mkdir(", string(r), ")")
}

// ID uniquely identifies the target to mage
func (r Mkdirer) ID() string {
	return string(r)
}

// Run ensures the underlying directory exists
func (r Mkdirer) Run(context.Context) error {
	if err := os.MkdirAll(string(r), 0755); err != nil {
		return trace.ConvertSystemError(err)
	}
	return nil
}

// Clean cleans up the build directory.
func Clean() error {
	if err := os.RemoveAll("build"); err != nil {
		return trace.ConvertSystemError(err)
	}
	return nil
}

func reactorBuildDir(reactor string) string {
	return filepath.Join("build", "lambda", reactor)
}

func inOsArchBinDir(os, arch string, path ...string) string {
	return filepath.Join(append([]string{"build", os, arch, "bin"}, path...)...)
}
