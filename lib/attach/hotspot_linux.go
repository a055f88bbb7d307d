// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package attach

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// resolveTargetPaths resolves paths through /proc/<pid> so that they
// name the target's view of the filesystem even when it runs in its
// own mount namespace. File names use the pid as the target sees it.
func resolveTargetPaths(pid int, tempDir string) (targetPaths, error) {
	procDirectory := filepath.Join("/proc", strconv.Itoa(pid))
	if _, err := os.Stat(procDirectory); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return targetPaths{}, fmt.Errorf("%w: %d", ErrNoSuchProcess, pid)
		}
		return targetPaths{}, fmt.Errorf("inspecting process %d: %w", pid, err)
	}

	namespacePID := pid
	if inner, ok := readNamespacePID(filepath.Join(procDirectory, "status")); ok {
		namespacePID = inner
	}

	if tempDir == "" {
		tempDir = filepath.Join(procDirectory, "root", "tmp")
	}
	triggerName := ".attach_pid" + strconv.Itoa(namespacePID)
	return targetPaths{
		socket: filepath.Join(tempDir, ".java_pid"+strconv.Itoa(namespacePID)),
		triggers: []string{
			filepath.Join(procDirectory, "cwd", triggerName),
			filepath.Join(tempDir, triggerName),
		},
	}, nil
}

// readNamespacePID returns the innermost pid from the NSpid line of a
// /proc/<pid>/status file. Kernels before 4.1 have no NSpid line.
func readNamespacePID(statusPath string) (int, bool) {
	file, err := os.Open(statusPath)
	if err != nil {
		return 0, false
	}
	defer file.Close()
	return parseNamespacePID(bufio.NewScanner(file))
}

func parseNamespacePID(scanner *bufio.Scanner) (int, bool) {
	for scanner.Scan() {
		value, found := strings.CutPrefix(scanner.Text(), "NSpid:")
		if !found {
			continue
		}
		fields := strings.Fields(value)
		if len(fields) == 0 {
			return 0, false
		}
		pid, err := strconv.Atoi(fields[len(fields)-1])
		if err != nil {
			return 0, false
		}
		return pid, true
	}
	return 0, false
}
