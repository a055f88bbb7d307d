// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for attachant.
//
// The central type is [Command], which represents a named subcommand with
// optional nested [Command.Subcommands], a [pflag.FlagSet] factory, and a
// Run function. A command may declare an [Command.Operand], a positional
// argument consumed before subcommand dispatch; attachant's root uses it
// for the target process id ("attachant <pid> load ..."). Commands are
// dispatched via [Command.Execute], which handles flag parsing, subcommand
// routing, the minimum-argument check, and structured help output.
//
// When a user types an unknown subcommand or flag, the framework computes
// Levenshtein edit distance against all known names and suggests the
// closest match (threshold: distance <= 3). This is implemented in
// suggest.go.
//
// Errors meant for a human carry a category and an optional hint
// ([ToolError]); [DiagnoseAttachError] turns the common attach failures
// (permission, missing listener, unsupported platform) into one.
package cli
