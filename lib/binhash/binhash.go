// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package binhash

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// Digest is a 32-byte BLAKE3 keyed digest.
type Digest [32]byte

// bundleDomainKey is the ASCII encoding of the domain name,
// zero-padded to 32 bytes. Changing it changes every digest.
var bundleDomainKey = [32]byte{
	'a', 't', 't', 'a', 'c', 'h', 'a', 'n', 't', '.', 'b', 'u', 'n', 'd', 'l', 'e',
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// HashFile computes the bundle-domain digest of the file at path. The
// file is streamed through the hasher (via io.Copy) to keep memory
// usage constant regardless of file size.
func HashFile(path string) (Digest, error) {
	file, err := os.Open(path)
	if err != nil {
		return Digest{}, fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer file.Close()

	return HashReader(file)
}

// HashReader computes the bundle-domain digest of everything read
// from reader.
func HashReader(reader io.Reader) (Digest, error) {
	hasher, err := blake3.NewKeyed(bundleDomainKey[:])
	if err != nil {
		panic("binhash: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	if _, err := io.Copy(hasher, reader); err != nil {
		return Digest{}, fmt.Errorf("hashing: %w", err)
	}

	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest, nil
}

// FormatDigest returns the hex-encoded string representation of a
// digest. This is the format used in log output.
func FormatDigest(digest Digest) string {
	return hex.EncodeToString(digest[:])
}
