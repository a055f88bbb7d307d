// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package attach

import (
	"fmt"

	"github.com/magiconair/properties"
)

// HomeProperty is the system property holding the runtime
// installation directory.
const HomeProperty = "java.home"

// parseProperties decodes the output of the "properties" command,
// which the target writes with java.util.Properties.store: ISO-8859-1
// with \uXXXX escapes. ${...} sequences in values are literal text.
func parseProperties(output string) (map[string]string, error) {
	loader := properties.Loader{Encoding: properties.ISO_8859_1, DisableExpansion: true}
	parsed, err := loader.LoadBytes([]byte(output))
	if err != nil {
		return nil, fmt.Errorf("parsing target system properties: %w", err)
	}
	return parsed.Map(), nil
}
