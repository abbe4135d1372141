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

package interruption

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/gravitational/trace"
)

// backupScript is the shell script run on the interrupted instance.
// It copies the save directory aside and uploads it under a timestamped key
var backupScript = template.Must(template.New("backup").Funcs(template.FuncMap{
	"quote": shellQuote,
}).Parse(`#!/bin/bash
set -e

TIMESTAMP=$(date +%Y%m%d_%H%M%S)
BACKUP_DIR="/tmp/emergency-backup-$TIMESTAMP"
SAVE_DIR={{ quote .SaveDir }}
DESTINATION={{ quote .Destination }}"/$TIMESTAMP/"

echo "Creating emergency backup due to spot interruption..."

mkdir -p "$BACKUP_DIR"
trap 'rm -rf "$BACKUP_DIR"' EXIT

if [ -d "$SAVE_DIR" ]; then
    cp -r "$SAVE_DIR" "$BACKUP_DIR/"
    aws s3 sync "$BACKUP_DIR" "$DESTINATION" --storage-class {{ quote .StorageClass }}
    echo "Emergency backup completed: $DESTINATION"
else
    echo "No save data found to backup"
fi
`))

type scriptContext struct {
	// SaveDir is the directory to back up
	SaveDir string
	// Destination is the S3 URL backups are uploaded under
	Destination string
	// StorageClass is the S3 storage class of the uploaded objects
	StorageClass string
}

func renderBackupScript(config Config) (string, error) {
	var buf bytes.Buffer
	err := backupScript.Execute(&buf, scriptContext{
		SaveDir:      config.SaveDir,
		Destination:  "s3://" + strings.Trim(config.Bucket+"/"+strings.Trim(config.Prefix, "/"), "/"),
		StorageClass: config.StorageClass,
	})
	if err != nil {
		return "", trace.Wrap(err)
	}
	return buf.String(), nil
}

// shellQuote quotes s for a POSIX shell
func shellQuote(s string) string {
	return "'" + strings.Replace(s, "'", `'\''`, -1) + "'"
}
