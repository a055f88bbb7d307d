// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package attach

import (
	"os"
	"path/filepath"
	"strconv"
)

// resolveTargetPaths uses the per-user temporary directory, which the
// JVM also uses when the target runs as the same user.
func resolveTargetPaths(pid int, tempDir string) (targetPaths, error) {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	suffix := strconv.Itoa(pid)
	return targetPaths{
		socket:   filepath.Join(tempDir, ".java_pid"+suffix),
		triggers: []string{filepath.Join(tempDir, ".attach_pid"+suffix)},
	}, nil
}
