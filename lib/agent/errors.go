// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import "errors"

// Errors returned by Controller operations.
var (
	ErrInvalidArgument          = errors.New("agent: invalid argument")
	ErrInvalidBundle            = errors.New("agent: invalid agent bundle")
	ErrAttachFailed             = errors.New("agent: attach failed")
	ErrLoadFailed               = errors.New("agent: load failed")
	ErrHomeDirectoryUnavailable = errors.New("agent: target did not report its runtime home")
	ErrSelfLocationUnresolvable = errors.New("agent: cannot locate the running program's own bundle")
	ErrQueryFailed              = errors.New("agent: system properties query failed")
)
