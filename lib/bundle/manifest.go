// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bundle

import (
	"bytes"
	"strings"
)

// Attributes holds the main-section attributes of a JAR manifest.
// Keys are stored lower-cased; attribute names are case-insensitive.
type Attributes map[string]string

// Get returns the value of the named attribute, or "" if absent.
func (a Attributes) Get(name string) string {
	return a[strings.ToLower(name)]
}

// ParseManifest parses the main section of a JAR manifest. The main
// section ends at the first empty line. A line starting with a single
// space continues the previous value; the space is dropped and the
// rest is appended without a separator. Malformed lines are skipped.
func ParseManifest(data []byte) Attributes {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	attributes := make(Attributes)

	var name string
	var value strings.Builder
	flush := func() {
		if name != "" {
			attributes[strings.ToLower(name)] = value.String()
		}
		name = ""
		value.Reset()
	}

	for _, line := range splitManifestLines(data) {
		if line == "" {
			break
		}
		if line[0] == ' ' {
			if name != "" {
				value.WriteString(line[1:])
			}
			continue
		}
		flush()
		separator := strings.IndexByte(line, ':')
		if separator <= 0 {
			continue
		}
		name = strings.TrimSpace(line[:separator])
		value.WriteString(strings.TrimPrefix(line[separator+1:], " "))
	}
	flush()
	return attributes
}

// splitManifestLines splits on CRLF, LF, or lone CR.
func splitManifestLines(data []byte) []string {
	normalized := strings.ReplaceAll(string(data), "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	return strings.Split(normalized, "\n")
}
