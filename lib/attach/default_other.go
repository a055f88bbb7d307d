// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !darwin && !linux

package attach

// Default returns the Unsupported facility; this platform has no
// attach implementation.
func Default(Settings) Facility {
	return Unsupported{}
}
