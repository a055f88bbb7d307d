// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import "github.com/fxamacker/cbor/v2"

// deterministic sorts map keys, uses the smallest integer encodings,
// and never emits indefinite-length items.
var deterministic = mustEncMode(cbor.CoreDetEncOptions())

func mustEncMode(options cbor.EncOptions) cbor.EncMode {
	mode, err := options.EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}
	return mode
}

// Marshal encodes v as deterministic CBOR. Equal values always encode
// to equal bytes.
func Marshal(v any) ([]byte, error) {
	return deterministic.Marshal(v)
}
