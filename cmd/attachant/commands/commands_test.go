// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"

	"github.com/bureau-foundation/attachant/cmd/attachant/cli"
	"github.com/bureau-foundation/attachant/lib/attach"
	"github.com/bureau-foundation/attachant/lib/testutil"
)

type recordingFacility struct {
	attachErr  error
	properties map[string]string

	attached []string
	detached int
	loads    []string
}

func (f *recordingFacility) Attach(_ context.Context, processID string) (attach.Connection, error) {
	if f.attachErr != nil {
		return nil, f.attachErr
	}
	f.attached = append(f.attached, processID)
	return &recordingConnection{facility: f}, nil
}

type recordingConnection struct {
	facility *recordingFacility
}

func (c *recordingConnection) LoadAgent(_ context.Context, path, options string) error {
	c.facility.loads = append(c.facility.loads, path+" "+options)
	return nil
}

func (c *recordingConnection) SystemProperties(context.Context) (map[string]string, error) {
	return c.facility.properties, nil
}

func (c *recordingConnection) Detach() error {
	c.facility.detached++
	return nil
}

type harness struct {
	facility *recordingFacility
	stdout   bytes.Buffer
	stderr   bytes.Buffer
	self     string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("ATTACHANT_CONFIG", "")
	return &harness{facility: &recordingFacility{}}
}

func (h *harness) execute(args ...string) error {
	return Root(&Environment{
		Stdout:   &h.stdout,
		Stderr:   &h.stderr,
		Facility: h.facility,
		SelfLocator: func() (string, error) {
			if h.self == "" {
				return "", errors.New("no self bundle in tests")
			}
			return h.self, nil
		},
	}).Execute(args)
}

func TestMissingArgumentsPrintUsage(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no arguments", nil, "Expects at least 2 arguments."},
		{"pid only", []string{"pid123"}, "Expects at least 2 arguments."},
		{"load without bundle", []string{"pid123", "load"}, "Expects at least 3 arguments."},
		{"management without port", []string{"pid123", "load-remote-management"}, "Expects at least 5 arguments."},
		{"management without ssl", []string{"pid123", "load-remote-management", "9999", "true"}, "Expects at least 5 arguments."},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			h := newHarness(t)
			if err := h.execute(test.args...); err != nil {
				t.Fatalf("Execute() error = %v, want nil (usage exits successfully)", err)
			}
			output := h.stdout.String()
			if !strings.HasPrefix(output, test.want+"\n") {
				t.Errorf("stdout = %q, want it to start with %q", output, test.want)
			}
			for _, command := range []string{"load", "load-self", "load-remote-management"} {
				if !strings.Contains(output, command) {
					t.Errorf("usage does not list %q:\n%s", command, output)
				}
			}
			if len(h.facility.attached) != 0 {
				t.Errorf("attached to %v with missing arguments", h.facility.attached)
			}
		})
	}
}

func TestUnknownCommand(t *testing.T) {
	h := newHarness(t)
	err := h.execute("pid123", "bogus-command")
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown command")
	}
	if !strings.Contains(err.Error(), `unknown command "bogus-command"`) {
		t.Errorf("error = %q, want unknown command", err.Error())
	}
	if len(h.facility.attached) != 0 {
		t.Errorf("attached to %v for an unknown command", h.facility.attached)
	}
}

func TestVersion(t *testing.T) {
	h := newHarness(t)
	if err := h.execute("--version"); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if !strings.HasPrefix(h.stdout.String(), "attachant ") {
		t.Errorf("stdout = %q, want version line", h.stdout.String())
	}
}

func TestLoad(t *testing.T) {
	h := newHarness(t)
	jar := testutil.AgentJar(t, t.TempDir(), "com.example.Agent")

	if err := h.execute("4242", "load", jar, "verbose=true"); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if len(h.facility.attached) != 1 || h.facility.attached[0] != "4242" {
		t.Errorf("attached = %v, want [4242]", h.facility.attached)
	}
	if want := jar + " verbose=true"; len(h.facility.loads) != 1 || h.facility.loads[0] != want {
		t.Errorf("loads = %q, want [%q]", h.facility.loads, want)
	}
	if h.facility.detached != 1 {
		t.Errorf("detached %d times, want 1", h.facility.detached)
	}
}

func TestLoad_WithoutOptions(t *testing.T) {
	h := newHarness(t)
	jar := testutil.AgentJar(t, t.TempDir(), "com.example.Agent")

	if err := h.execute("4242", "load", jar); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if want := jar + " "; len(h.facility.loads) != 1 || h.facility.loads[0] != want {
		t.Errorf("loads = %q, want [%q]", h.facility.loads, want)
	}
}

func TestLoad_MissingBundle(t *testing.T) {
	h := newHarness(t)
	err := h.execute("4242", "load", filepath.Join(t.TempDir(), "missing.jar"))

	var toolErr *cli.ToolError
	if !errors.As(err, &toolErr) || toolErr.Category != cli.CategoryNotFound {
		t.Fatalf("error = %v, want a not-found ToolError", err)
	}
	if len(h.facility.attached) != 0 {
		t.Errorf("attached to %v for a missing bundle", h.facility.attached)
	}
}

func TestLoad_AttachFailureIsDiagnosed(t *testing.T) {
	h := newHarness(t)
	h.facility.attachErr = fmt.Errorf("%w: 4242", attach.ErrNoSuchProcess)
	jar := testutil.AgentJar(t, t.TempDir(), "com.example.Agent")

	err := h.execute("4242", "load", jar)
	var toolErr *cli.ToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("error = %v, want ToolError", err)
	}
	if toolErr.Category != cli.CategoryNotFound || toolErr.Hint == "" {
		t.Errorf("ToolError = %+v, want not_found with a hint", toolErr)
	}
}

func TestLoadSelf(t *testing.T) {
	h := newHarness(t)
	h.self = testutil.AgentJar(t, t.TempDir(), "com.example.SelfAgent")

	if err := h.execute("4242", "load-self", "mode=self"); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if want := h.self + " mode=self"; len(h.facility.loads) != 1 || h.facility.loads[0] != want {
		t.Errorf("loads = %q, want [%q]", h.facility.loads, want)
	}
}

func TestLoadSelf_HelpLikeOptions(t *testing.T) {
	for _, options := range []string{"help", "-h", "--help"} {
		t.Run(options, func(t *testing.T) {
			h := newHarness(t)
			h.self = testutil.AgentJar(t, t.TempDir(), "com.example.SelfAgent")

			if err := h.execute("4242", "load-self", options); err != nil {
				t.Fatalf("Execute() error: %v", err)
			}
			if want := h.self + " " + options; len(h.facility.loads) != 1 || h.facility.loads[0] != want {
				t.Errorf("loads = %q, want [%q]", h.facility.loads, want)
			}
			if h.facility.detached != 1 {
				t.Errorf("detached %d times, want 1", h.facility.detached)
			}
		})
	}
}

func TestLoadSelf_Unresolvable(t *testing.T) {
	h := newHarness(t)
	if err := h.execute("4242", "load-self"); err == nil {
		t.Fatal("Execute() = nil, want error when the self bundle cannot be located")
	}
	if len(h.facility.attached) != 0 {
		t.Errorf("attached to %v without a bundle", h.facility.attached)
	}
}

func TestLoadRemoteManagement(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "authenticated",
			args: []string{"9999", "true", "false"},
			want: "/opt/jdk/lib/management-agent.jar port=9999,authenticate=true,ssl=false",
		},
		{
			name: "with options",
			args: []string{"9999", "true", "false", "foo=bar"},
			want: "/opt/jdk/lib/management-agent.jar port=9999,authenticate=true,ssl=false,foo=bar",
		},
		{
			name: "booleans parsed leniently",
			args: []string{"1099", "TRUE", "yes"},
			want: "/opt/jdk/lib/management-agent.jar port=1099,authenticate=true,ssl=false",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			h := newHarness(t)
			h.facility.properties = map[string]string{attach.HomeProperty: "/opt/jdk"}

			args := append([]string{"4242", "load-remote-management"}, test.args...)
			if err := h.execute(args...); err != nil {
				t.Fatalf("Execute() error: %v", err)
			}
			if len(h.facility.loads) != 1 || h.facility.loads[0] != test.want {
				t.Errorf("loads = %q, want [%q]", h.facility.loads, test.want)
			}
		})
	}
}

func TestLoadRemoteManagement_HelpNamesKeyPrefix(t *testing.T) {
	h := newHarness(t)
	if err := h.execute("help", "load-remote-management"); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	output := h.stdout.String()
	if !strings.Contains(output, "key_prefix: com.sun.management.jmxremote.") {
		t.Errorf("help does not show the JDK key prefix:\n%s", output)
	}
	if len(h.facility.attached) != 0 {
		t.Errorf("attached to %v while printing help", h.facility.attached)
	}
}

func TestLoadRemoteManagement_InvalidPort(t *testing.T) {
	h := newHarness(t)
	err := h.execute("4242", "load-remote-management", "99x", "true", "false")

	var toolErr *cli.ToolError
	if !errors.As(err, &toolErr) || toolErr.Category != cli.CategoryValidation {
		t.Fatalf("error = %v, want a validation ToolError", err)
	}
	if len(h.facility.attached) != 0 {
		t.Errorf("attached to %v with an invalid port", h.facility.attached)
	}
}

func TestLoadRemoteManagement_ConfigFile(t *testing.T) {
	h := newHarness(t)
	h.facility.properties = map[string]string{attach.HomeProperty: "/opt/jdk"}
	configPath := filepath.Join(t.TempDir(), "attachant.yaml")
	content := "remote_management:\n  key_prefix: com.sun.management.jmxremote.\n"
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := h.execute("--config", configPath, "4242", "load-remote-management", "7091", "false", "false"); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	want := "/opt/jdk/lib/management-agent.jar com.sun.management.jmxremote.port=7091," +
		"com.sun.management.jmxremote.authenticate=false,com.sun.management.jmxremote.ssl=false"
	if len(h.facility.loads) != 1 || h.facility.loads[0] != want {
		t.Errorf("loads = %q, want [%q]", h.facility.loads, want)
	}
}

func TestInvalidLogLevel(t *testing.T) {
	h := newHarness(t)
	jar := testutil.AgentJar(t, t.TempDir(), "com.example.Agent")

	err := h.execute("--log-level", "loud", "4242", "load", jar)
	if err == nil || !strings.Contains(err.Error(), "log.level") {
		t.Fatalf("error = %v, want log.level validation error", err)
	}
	if len(h.facility.attached) != 0 {
		t.Errorf("attached to %v with invalid configuration", h.facility.attached)
	}
}

func TestProperties(t *testing.T) {
	h := newHarness(t)
	h.facility.properties = map[string]string{"java.version": "21.0.2", "java.home": "/opt/jdk"}

	if err := h.execute("4242", "properties"); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if want := "java.home=/opt/jdk\njava.version=21.0.2\n"; h.stdout.String() != want {
		t.Errorf("stdout = %q, want %q", h.stdout.String(), want)
	}
	if h.facility.detached != 1 {
		t.Errorf("detached %d times, want 1", h.facility.detached)
	}
}

func TestProperties_JSON(t *testing.T) {
	h := newHarness(t)
	h.facility.properties = map[string]string{"java.version": "21.0.2"}

	if err := h.execute("4242", "properties", "--json"); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	var report propertiesReport
	if err := json.Unmarshal(h.stdout.Bytes(), &report); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, h.stdout.String())
	}
	if report.ProcessID != "4242" || report.Properties["java.version"] != "21.0.2" {
		t.Errorf("report = %+v", report)
	}
}

func TestProperties_CBOR(t *testing.T) {
	h := newHarness(t)
	h.facility.properties = map[string]string{"java.version": "21.0.2"}

	if err := h.execute("4242", "properties", "--cbor"); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	var report propertiesReport
	if err := cbor.Unmarshal(h.stdout.Bytes(), &report); err != nil {
		t.Fatalf("output is not CBOR: %v", err)
	}
	if report.ProcessID != "4242" || report.Properties["java.version"] != "21.0.2" {
		t.Errorf("report = %+v", report)
	}
}

func TestProperties_ExclusiveFormats(t *testing.T) {
	h := newHarness(t)
	if err := h.execute("4242", "properties", "--json", "--cbor"); err == nil {
		t.Fatal("Execute() = nil, want error for --json with --cbor")
	}
	if len(h.facility.attached) != 0 {
		t.Errorf("attached to %v", h.facility.attached)
	}
}

func TestParseBoolean(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"true", true},
		{"TRUE", true},
		{"True", true},
		{"false", false},
		{"yes", false},
		{"1", false},
		{"", false},
		{" true", false},
	}
	for _, test := range tests {
		if got := parseBoolean(test.value); got != test.want {
			t.Errorf("parseBoolean(%q) = %v, want %v", test.value, got, test.want)
		}
	}
}

func TestParsePort(t *testing.T) {
	for _, value := range []string{"9999", "+9999", "0"} {
		if _, err := parsePort(value); err != nil {
			t.Errorf("parsePort(%q) error: %v", value, err)
		}
	}
	for _, value := range []string{"", "port", "99x", "4294967296"} {
		if _, err := parsePort(value); err == nil {
			t.Errorf("parsePort(%q) succeeded, want error", value)
		}
	}
}
