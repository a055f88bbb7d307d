// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build darwin || linux

package attach

// Default returns the HotSpot facility.
func Default(settings Settings) Facility {
	return NewHotSpot(settings)
}
