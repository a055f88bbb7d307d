// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package attach opens control channels to running JVMs.
//
// Callers depend on two interfaces. A [Facility] attaches to a process
// by id and returns a [Connection]; a Connection loads agents into the
// target, queries its system properties, and is released with
// [Connection.Detach]. [Default] picks the implementation for the
// platform the binary was built for:
//
//   - [HotSpot] on Linux and macOS speaks the HotSpot dynamic attach
//     protocol over the target's Unix domain socket
//     (<tmp>/.java_pid<pid>). If the socket does not exist yet, the
//     target is asked to start its attach listener by creating a
//     .attach_pid<pid> trigger file and sending SIGQUIT, then the
//     socket is polled until it appears or the attach timeout passes.
//   - [Unsupported] everywhere else; every Attach fails with
//     [ErrPlatformUnsupported].
//
// On Linux, paths are resolved through /proc/<pid>/root and
// /proc/<pid>/cwd so that targets inside containers (separate mount
// and pid namespaces) can be reached from the host.
//
// The wire protocol lives in protocol.go and is platform-independent:
// a request is the protocol version, command name, and exactly three
// arguments, each NUL-terminated; a response is a decimal completion
// status line followed by command output. HotSpot serves one request
// per socket connection, so every operation dials afresh.
//
// [PlatformSupported] is a cheap, pure check that callers re-evaluate
// on each operation; it is a heuristic, not a guarantee that Attach
// will succeed.
package attach
