// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package bundle validates agent bundles before they are handed to a
// target process.
//
// An agent bundle is a JAR: a zip archive whose META-INF/MANIFEST.MF
// main section names the agent's entry-point class in the Agent-Class
// attribute. The target JVM performs its own checks when it loads the
// agent, but its failures surface as a bare numeric return code from
// across the attach channel. [Validate] repeats the essential checks
// locally so that a broken bundle fails before any process is
// touched, with an error that says what is wrong:
//
//   - the path exists and is a readable zip archive
//   - the manifest declares Agent-Class
//   - the named class is present in the archive itself (no external
//     class path is consulted)
//   - the class, or a superclass also shipped in the archive, declares
//     a public agentmain taking (String, Instrumentation) or (String)
//
// The accepted agentmain form is resolved once and reported as an
// [InitSignature] on the returned [Bundle].
//
// Class files are parsed directly (see classfile.go); no JVM is
// required on the machine running the validator.
package bundle
