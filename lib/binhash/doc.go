// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package binhash provides BLAKE3 content hashing for agent bundles.
//
// Every bundle that attachant hands to a target process is hashed
// before the control channel is opened. The digest is logged next to
// the process id so that an operator can later tell exactly which
// build of an agent was injected into which process, even if the file
// at that path has since been replaced.
//
// Hashes use BLAKE3 keyed mode with a fixed domain key, so a bundle
// digest can never be confused with a plain BLAKE3 sum of the same
// bytes computed by another tool.
//
// The API surface is small:
//
//   - [HashFile] -- streams a file through the keyed hasher with
//     constant memory usage regardless of file size
//   - [HashReader] -- the same for an already open stream
//   - [FormatDigest] -- canonical hex representation for log output
//
// This package has no dependencies on other attachant packages.
package binhash
