// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package attach

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"
)

// ErrPlatformUnsupported is returned by facilities that cannot attach
// on the current platform.
var ErrPlatformUnsupported = errors.New("attach: dynamic attach is not supported on this platform")

// ErrDetached is returned when a Connection is used after Detach.
var ErrDetached = errors.New("attach: connection already detached")

// Errors returned by HotSpot and its connections.
var (
	ErrInvalidProcessID = errors.New("attach: invalid process id")
	ErrNoSuchProcess    = errors.New("attach: no such process")
	ErrListenerTimeout  = errors.New("attach: attach listener did not start")
	ErrRequestTimeout   = errors.New("attach: target did not answer the request")
	ErrSocketOwner      = errors.New("attach: attach socket belongs to another user")
)

// Facility establishes control channels to target processes.
type Facility interface {
	// Attach opens a control channel to the process identified by
	// processID. The caller must Detach the returned Connection.
	Attach(ctx context.Context, processID string) (Connection, error)
}

// Connection is an established control channel to one target process.
// It is owned by the call that attached and is not safe for concurrent
// use.
type Connection interface {
	// LoadAgent asks the target to load the agent bundle at path
	// (interpreted in the target's filesystem). An empty options
	// string means no options are passed.
	LoadAgent(ctx context.Context, path, options string) error

	// SystemProperties returns the target's system properties.
	SystemProperties(ctx context.Context) (map[string]string, error)

	// Detach releases the control channel. Calling it more than once
	// is harmless.
	Detach() error
}

// Settings configures a Facility.
type Settings struct {
	// Timeout bounds how long Attach waits for the target to start
	// its attach listener, and how long each request on a Connection
	// waits for an answer. Zero means DefaultTimeout.
	Timeout time.Duration

	// PollInterval is the delay between checks for the listener
	// socket. Zero means DefaultPollInterval.
	PollInterval time.Duration

	// TempDir overrides the directory holding the target's attach
	// socket. Empty means the platform default (on Linux,
	// /proc/<pid>/root/tmp).
	TempDir string

	// Logger receives debug output. Nil means slog.Default().
	Logger *slog.Logger
}

const (
	// DefaultTimeout matches the JDK's own attach timeout.
	DefaultTimeout = 10 * time.Second

	// DefaultPollInterval matches the JDK's own polling step.
	DefaultPollInterval = 200 * time.Millisecond
)

func (s Settings) withDefaults() Settings {
	if s.Timeout <= 0 {
		s.Timeout = DefaultTimeout
	}
	if s.PollInterval <= 0 {
		s.PollInterval = DefaultPollInterval
	}
	if s.Logger == nil {
		s.Logger = slog.Default()
	}
	return s
}

// PlatformSupported reports whether this build targets a platform on
// which the HotSpot attach mechanism is known to work.
func PlatformSupported() bool {
	return platformSupported(runtime.GOOS)
}

func platformSupported(goos string) bool {
	return goos == "linux" || goos == "darwin"
}

// Unsupported is the stand-in Facility for platforms without an attach
// implementation.
type Unsupported struct{}

// Attach always fails with ErrPlatformUnsupported.
func (Unsupported) Attach(_ context.Context, processID string) (Connection, error) {
	return nil, fmt.Errorf("%w (%s/%s, process %s)", ErrPlatformUnsupported, runtime.GOOS, runtime.GOARCH, processID)
}
