// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports which build of attachant is running.
//
// [Version] and [Commit] can be injected with -ldflags -X. When Commit
// is not injected, the revision the go command stamps into the binary
// (vcs.revision, vcs.modified) is used instead, so plain "go build"
// from a checkout still identifies itself.
//
// [Info] formats this for --version; [Full] adds the Go version and
// GOOS/GOARCH.
package version
