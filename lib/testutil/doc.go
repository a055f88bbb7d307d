// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for attachant packages.
//
// [SocketDir] creates a short temporary directory in /tmp suitable for
// Unix domain sockets, whose paths are limited to about 108 bytes. The
// directory is automatically removed when the test completes.
//
// [WriteJar], [AgentJar], and [ClassFile] build agent bundles on disk
// without a Java toolchain: a zip archive with a manifest and class
// files assembled byte by byte, carrying just the constant pool,
// superclass, and method table that bundle validation inspects.
// [JarSpec.Prefix] prepends arbitrary bytes, which models an
// executable with an agent jar appended to it.
//
// [RequireReceive] encapsulates the timeout safety valve pattern
// (select with a timer fallback) so that individual tests do not
// need their own timers.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil
