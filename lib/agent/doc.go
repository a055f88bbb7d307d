// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package agent drives the attach, load, detach sequence that injects
// an agent into a running JVM.
//
// [Controller] exposes three operations:
//
//   - [Controller.LoadAgent] validates a bundle with [bundle.Validate],
//     attaches to the target, loads the bundle, and detaches.
//   - [Controller.LoadSelf] does the same with the bundle this program
//     was started from (an executable with an agent jar appended).
//   - [Controller.LoadRemoteManagement] asks the target for its
//     java.home and loads the management agent shipped with that
//     installation, configured by [ManagementOptions].
//
// Every operation that attaches also detaches, on success and on
// failure alike. Nothing is retried: loading an agent is not
// idempotent, and whether a second load succeeds is up to the target.
//
// Failures wrap one of the Err* sentinels below so callers can branch
// with errors.Is; validation failures additionally wrap the
// [bundle] sentinel that caused them.
package agent
