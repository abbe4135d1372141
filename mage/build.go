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
	"path/filepath"
	"runtime"

	"github.com/gravitational/trace"
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

type Build mg.Namespace

// All builds every reactor
func (Build) All() {
	mg.SerialDeps(Build.Lambda)
}

// Lambda builds Linux bootstrap binaries for the provided.al2 runtime
func (Build) Lambda() error {
	for _, reactor := range reactors {
		mg.Deps(Mkdir(reactorBuildDir(reactor)))
		err := sh.RunWith(map[string]string{
			"GOOS":        "linux",
			"GOARCH":      lambdaArch,
			"CGO_ENABLED": "0",
		}, "go", "build",
			"-tags", "lambda.norpc",
			"-ldflags", "-s -w", // shrink the binary
			"-o", filepath.Join(reactorBuildDir(reactor), "bootstrap"),
			"./tool/"+reactor,
		)
		if err != nil {
			return trace.Wrap(err, "failed to build %v", reactor)
		}
	}
	return nil
}

// Native builds platform-native binaries for local runs
func (Build) Native() error {
	for _, reactor := range reactors {
		mg.Deps(Mkdir(inOsArchBinDir(runtime.GOOS, runtime.GOARCH)))
		err := sh.RunV("go", "build",
			"-o", inOsArchBinDir(runtime.GOOS, runtime.GOARCH, reactor),
			"./tool/"+reactor,
		)
		if err != nil {
			return trace.Wrap(err)
		}
	}
	return nil
}
