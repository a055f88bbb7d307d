// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides the binary entrypoint error handler. It is
// the one place outside the CLI framework that writes raw text to
// stderr, for errors that reach main() after the command tree returns.
package process
