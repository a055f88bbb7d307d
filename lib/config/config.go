// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the configuration file when --config is
// not given.
const EnvironmentVariable = "ATTACHANT_CONFIG"

// Config is the master configuration for attachant.
type Config struct {
	// Attach configures how target processes are reached.
	Attach AttachConfig `yaml:"attach"`

	// RemoteManagement configures the load-remote-management command.
	RemoteManagement RemoteManagementConfig `yaml:"remote_management"`

	// Log configures diagnostic output.
	Log LogConfig `yaml:"log"`
}

// AttachConfig configures the attach facility.
type AttachConfig struct {
	// Timeout bounds the wait for the target's attach listener to
	// start, and each request made over it.
	// Default: 10s
	Timeout string `yaml:"timeout"`

	// PollInterval is how often the listener socket is checked while
	// waiting for the target to start it.
	// Default: 200ms
	PollInterval string `yaml:"poll_interval"`

	// TempDir overrides the directory holding the target's attach
	// socket. Empty means the target's own temporary directory, which
	// is resolved through /proc on Linux.
	TempDir string `yaml:"temp_dir"`
}

// RemoteManagementConfig configures the management agent load.
type RemoteManagementConfig struct {
	// Bundle is the management agent's file name under <java.home>/lib.
	// Default: management-agent.jar
	Bundle string `yaml:"bundle"`

	// KeyPrefix is prepended to the port, authenticate, and ssl option
	// keys, e.g. "com.sun.management.jmxremote.".
	// Default: empty
	KeyPrefix string `yaml:"key_prefix"`
}

// LogConfig configures diagnostic output.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	// Default: info
	Level string `yaml:"level"`
}

// Default returns the default configuration. A configuration file
// overlays these values.
func Default() *Config {
	return &Config{
		Attach: AttachConfig{
			Timeout:      "10s",
			PollInterval: "200ms",
		},
		RemoteManagement: RemoteManagementConfig{
			Bundle: "management-agent.jar",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from path when it is non-empty, otherwise
// from the file named by ATTACHANT_CONFIG. With neither set it returns
// [Default]. The returned configuration has been validated.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvironmentVariable)
	}
	if path == "" {
		return Default(), nil
	}
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}
	return cfg, nil
}

// LoadFile loads configuration from a specific file path, overlaying
// the defaults. The result is not validated.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	// JSON is a subset of YAML, so once comments and trailing commas
	// are stripped a JSONC file decodes through the same path.
	if isJSONC(path) {
		data = jsonc.ToJSON(data)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	// Expand ${HOME} and similar variables in paths for portability.
	cfg.expandVariables()

	return cfg, nil
}

// isJSONC reports whether path names a JSON-with-comments file.
func isJSONC(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return true
	}
	return false
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME":   os.Getenv("HOME"),
		"TMPDIR": os.TempDir(),
	}
	c.Attach.TempDir = expandVars(c.Attach.TempDir, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors. Every problem found is
// reported, joined into one error.
func (c *Config) Validate() error {
	var errs []error

	timeout, err := c.Attach.TimeoutDuration()
	if err != nil {
		errs = append(errs, err)
	}
	interval, err := c.Attach.PollIntervalDuration()
	if err != nil {
		errs = append(errs, err)
	}
	if timeout > 0 && interval > timeout {
		errs = append(errs, fmt.Errorf("attach.poll_interval (%s) exceeds attach.timeout (%s)", interval, timeout))
	}

	if c.RemoteManagement.Bundle == "" {
		errs = append(errs, fmt.Errorf("remote_management.bundle is required"))
	} else if strings.ContainsRune(c.RemoteManagement.Bundle, '/') {
		errs = append(errs, fmt.Errorf("remote_management.bundle must be a file name, got %q", c.RemoteManagement.Bundle))
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// TimeoutDuration parses Timeout.
func (a AttachConfig) TimeoutDuration() (time.Duration, error) {
	return positiveDuration("attach.timeout", a.Timeout)
}

// PollIntervalDuration parses PollInterval.
func (a AttachConfig) PollIntervalDuration() (time.Duration, error) {
	return positiveDuration("attach.poll_interval", a.PollInterval)
}

func positiveDuration(key, value string) (time.Duration, error) {
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if duration <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, value)
	}
	return duration, nil
}

// SlogLevel maps Level to a slog.Level. The comparison ignores case.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("log.level must be one of: debug, info, warn, error; got %q", l.Level)
	}
}
