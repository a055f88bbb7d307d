// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides attachant's CBOR encoding configuration.
//
// Machine-readable command output comes in two formats: JSON for
// people and scripts, CBOR for tools that archive or compare snapshots
// of a target's state. The encoder uses Core Deterministic Encoding
// (RFC 8949 §4.2): sorted map keys, smallest integer encoding, no
// indefinite-length items. The same system properties therefore always
// produce identical bytes, so two snapshots can be compared by digest.
//
// Types carry `json` tags only; fxamacker/cbor v2 reads them as a
// fallback when `cbor` tags are absent, so one tag controls field
// naming for both formats.
package codec
