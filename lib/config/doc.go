// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for attachant.
//
// Configuration comes from at most one file, named by the --config flag
// or the ATTACHANT_CONFIG environment variable (the flag wins). There
// is no ~/.config discovery and no automatic file search. When neither
// names a file, [Default] applies unchanged.
//
// The file is YAML, or JSON with // and /* */ comments and trailing
// commas when its name ends in .json or .jsonc.
//
// Values in the file overlay the defaults key by key. Variable
// expansion is performed on path fields after loading: ${HOME},
// ${TMPDIR}, and ${VAR:-default} patterns are expanded.
//
// Key exports:
//
//   - [Config] -- master struct with Attach, RemoteManagement, Log
//   - [Default] -- returns a Config with built-in defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends on no other attachant packages.
package config
