// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bundle

import "errors"

// Errors returned by Validate. Each is wrapped with the bundle path and
// the specific cause; match with errors.Is.
var (
	ErrBundleNotFound             = errors.New("bundle: agent bundle not found")
	ErrUnreadableBundle           = errors.New("bundle: agent bundle is not a readable archive")
	ErrMissingEntryPointAttribute = errors.New("bundle: manifest does not declare " + AgentClassAttribute)
	ErrEntryPointUnresolvable     = errors.New("bundle: entry point class cannot be loaded from the bundle")
	ErrMissingInitRoutine         = errors.New("bundle: entry point has no " + AgentMainMethod + " method")
)
