// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "attachant.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return configPath
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config does not validate: %v", err)
	}

	timeout, err := cfg.Attach.TimeoutDuration()
	if err != nil || timeout != 10*time.Second {
		t.Errorf("expected timeout=10s, got %v (%v)", timeout, err)
	}

	interval, err := cfg.Attach.PollIntervalDuration()
	if err != nil || interval != 200*time.Millisecond {
		t.Errorf("expected poll_interval=200ms, got %v (%v)", interval, err)
	}

	if cfg.RemoteManagement.Bundle != "management-agent.jar" {
		t.Errorf("expected bundle=management-agent.jar, got %s", cfg.RemoteManagement.Bundle)
	}

	if cfg.RemoteManagement.KeyPrefix != "" {
		t.Errorf("expected empty key_prefix, got %q", cfg.RemoteManagement.KeyPrefix)
	}
}

func TestLoad_NoFileMeansDefaults(t *testing.T) {
	t.Setenv(EnvironmentVariable, "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Attach.Timeout != "10s" {
		t.Errorf("expected default timeout, got %s", cfg.Attach.Timeout)
	}
}

func TestLoad_EnvironmentVariable(t *testing.T) {
	configPath := writeConfig(t, `
attach:
  timeout: 30s
log:
  level: debug
`)
	t.Setenv(EnvironmentVariable, configPath)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Attach.Timeout != "30s" {
		t.Errorf("expected timeout=30s, got %s", cfg.Attach.Timeout)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected level=debug, got %s", cfg.Log.Level)
	}
	// Unset keys keep their defaults.
	if cfg.Attach.PollInterval != "200ms" {
		t.Errorf("expected poll_interval to keep default, got %s", cfg.Attach.PollInterval)
	}
}

func TestLoad_FlagOverridesEnvironment(t *testing.T) {
	fromEnvironment := writeConfig(t, "attach:\n  timeout: 30s\n")
	fromFlag := writeConfig(t, "attach:\n  timeout: 45s\n")
	t.Setenv(EnvironmentVariable, fromEnvironment)

	cfg, err := Load(fromFlag)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Attach.Timeout != "45s" {
		t.Errorf("expected timeout from --config file, got %s", cfg.Attach.Timeout)
	}
}

func TestLoad_ValidatesFile(t *testing.T) {
	configPath := writeConfig(t, "attach:\n  timeout: soon\n")

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	if !strings.Contains(err.Error(), "attach.timeout") {
		t.Errorf("expected error to name attach.timeout, got %v", err)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestLoadFile_Malformed(t *testing.T) {
	configPath := writeConfig(t, "attach: [unterminated\n")
	if _, err := LoadFile(configPath); err == nil {
		t.Fatal("expected parse error, got nil")
	}
}

func TestLoadFile_AllKeys(t *testing.T) {
	configPath := writeConfig(t, `
attach:
  timeout: 1m
  poll_interval: 50ms
  temp_dir: /var/tmp
remote_management:
  bundle: jmx-agent.jar
  key_prefix: com.sun.management.jmxremote.
log:
  level: warn
`)

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile() failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}

	if cfg.Attach.TempDir != "/var/tmp" {
		t.Errorf("temp_dir = %s", cfg.Attach.TempDir)
	}
	if cfg.RemoteManagement.Bundle != "jmx-agent.jar" {
		t.Errorf("bundle = %s", cfg.RemoteManagement.Bundle)
	}
	if cfg.RemoteManagement.KeyPrefix != "com.sun.management.jmxremote." {
		t.Errorf("key_prefix = %s", cfg.RemoteManagement.KeyPrefix)
	}
	level, err := cfg.Log.SlogLevel()
	if err != nil || level != slog.LevelWarn {
		t.Errorf("level = %v (%v), want warn", level, err)
	}
}

func TestLoadFile_JSONC(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "attachant.jsonc")
	content := `{
  // JMX keys as the JDK names them
  "remote_management": {
    "key_prefix": "com.sun.management.jmxremote.", /* trailing comma next */
  },
  "attach": {"timeout": "20s"},
}
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile() failed: %v", err)
	}
	if cfg.RemoteManagement.KeyPrefix != "com.sun.management.jmxremote." {
		t.Errorf("key_prefix = %q", cfg.RemoteManagement.KeyPrefix)
	}
	if cfg.Attach.Timeout != "20s" {
		t.Errorf("timeout = %q, want 20s", cfg.Attach.Timeout)
	}
	if cfg.RemoteManagement.Bundle != "management-agent.jar" {
		t.Errorf("bundle = %q, want the default", cfg.RemoteManagement.Bundle)
	}
}

func TestExpandVars(t *testing.T) {
	t.Setenv("ATTACHANT_TEST_VAR", "from-env")

	vars := map[string]string{
		"HOME": "/home/test",
	}

	tests := []struct {
		input    string
		expected string
	}{
		{"${HOME}/tmp", "/home/test/tmp"},
		{"${ATTACHANT_TEST_VAR}/x", "from-env/x"},
		{"${UNSET_VAR_XYZ:-fallback}", "fallback"},
		{"${HOME:-ignored}", "/home/test"},
		{"/plain/path", "/plain/path"},
		{"${UNSET_VAR_XYZ}", ""},
	}

	for _, test := range tests {
		result := expandVars(test.input, vars)
		if result != test.expected {
			t.Errorf("expandVars(%q) = %q, want %q", test.input, result, test.expected)
		}
	}
}

func TestLoadFile_ExpandsTempDir(t *testing.T) {
	t.Setenv("HOME", "/home/test")
	configPath := writeConfig(t, "attach:\n  temp_dir: ${HOME}/jvm-tmp\n")

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile() failed: %v", err)
	}
	if cfg.Attach.TempDir != "/home/test/jvm-tmp" {
		t.Errorf("temp_dir = %s, want /home/test/jvm-tmp", cfg.Attach.TempDir)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr []string
	}{
		{
			name:   "defaults",
			modify: func(*Config) {},
		},
		{
			name:    "unparseable timeout",
			modify:  func(c *Config) { c.Attach.Timeout = "ten seconds" },
			wantErr: []string{"attach.timeout"},
		},
		{
			name:    "zero poll interval",
			modify:  func(c *Config) { c.Attach.PollInterval = "0s" },
			wantErr: []string{"attach.poll_interval must be positive"},
		},
		{
			name: "interval longer than timeout",
			modify: func(c *Config) {
				c.Attach.Timeout = "1s"
				c.Attach.PollInterval = "2s"
			},
			wantErr: []string{"exceeds attach.timeout"},
		},
		{
			name:    "empty bundle",
			modify:  func(c *Config) { c.RemoteManagement.Bundle = "" },
			wantErr: []string{"remote_management.bundle is required"},
		},
		{
			name:    "bundle with directory",
			modify:  func(c *Config) { c.RemoteManagement.Bundle = "ext/management-agent.jar" },
			wantErr: []string{"must be a file name"},
		},
		{
			name:    "unknown log level",
			modify:  func(c *Config) { c.Log.Level = "loud" },
			wantErr: []string{"log.level"},
		},
		{
			name: "several problems reported together",
			modify: func(c *Config) {
				c.Attach.Timeout = "-1s"
				c.Log.Level = "loud"
			},
			wantErr: []string{"attach.timeout must be positive", "log.level"},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := Default()
			test.modify(cfg)
			err := cfg.Validate()
			if len(test.wantErr) == 0 {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want errors containing %q", test.wantErr)
			}
			for _, want := range test.wantErr {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("Validate() = %v, want it to contain %q", err, want)
				}
			}
		})
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"info", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, test := range tests {
		got, err := LogConfig{Level: test.level}.SlogLevel()
		if err != nil {
			t.Errorf("SlogLevel(%q) error: %v", test.level, err)
			continue
		}
		if got != test.want {
			t.Errorf("SlogLevel(%q) = %v, want %v", test.level, got, test.want)
		}
	}
}
