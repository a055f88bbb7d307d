// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set with -ldflags "-X github.com/bureau-foundation/attachant/lib/version.Commit=...".
var (
	// Version is the release version.
	Version = "0.1.0-dev"

	// Commit is the source revision. Empty means the revision is taken
	// from the VCS stamp the go command embeds, if any.
	Commit = ""
)

// Info returns the version and source revision, as printed by
// --version.
func Info() string {
	commit, modified := revision()
	if commit == "" {
		return Version
	}
	if modified {
		commit += "-dirty"
	}
	return fmt.Sprintf("%s (%s)", Version, commit)
}

// Full returns Info followed by the Go toolchain and platform.
func Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// revision returns Commit, or the shortened vcs.revision build setting
// and whether the working tree had local changes.
func revision() (commit string, modified bool) {
	if Commit != "" {
		return Commit, false
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "", false
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			commit = setting.Value
			if len(commit) > 12 {
				commit = commit[:12]
			}
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}
	return commit, modified
}
