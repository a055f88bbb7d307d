// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"bytes"
	"errors"
	"testing"
)

func TestReport(t *testing.T) {
	var buffer bytes.Buffer
	Report(&buffer, errors.New("agent: attach failed: process 4242"))
	if got, want := buffer.String(), "error: agent: attach failed: process 4242\n"; got != want {
		t.Errorf("Report wrote %q, want %q", got, want)
	}
}
