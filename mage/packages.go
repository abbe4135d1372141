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
	"archive/zip"
	"io"
	"os"
	"path/filepath"

	"github.com/gravitational/trace"
	"github.com/magefile/mage/mg"
)

type Package mg.Namespace

// Lambda packages every reactor into a deployment archive with
// the bootstrap binary at the archive root
func (Package) Lambda() error {
	mg.Deps(Build.Lambda)
	for _, reactor := range reactors {
		dir := reactorBuildDir(reactor)
		err := zipFile(filepath.Join(dir, "bootstrap"), filepath.Join(dir, reactor+".zip"))
		if err != nil {
			return trace.Wrap(err)
		}
	}
	return nil
}

func zipFile(path, archivePath string) error {
	in, err := os.Open(path)
	if err != nil {
		return trace.ConvertSystemError(err)
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return trace.ConvertSystemError(err)
	}
	out, err := os.Create(archivePath)
	if err != nil {
		return trace.ConvertSystemError(err)
	}
	defer out.Close()

	archive := zip.NewWriter(out)
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return trace.Wrap(err)
	}
	header.Method = zip.Deflate
	// the runtime executes bootstrap directly
	header.SetMode(0755)
	w, err := archive.CreateHeader(header)
	if err != nil {
		return trace.Wrap(err)
	}
	if _, err := io.Copy(w, in); err != nil {
		return trace.Wrap(err)
	}
	return trace.Wrap(archive.Close())
}
