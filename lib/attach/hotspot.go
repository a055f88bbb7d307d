// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build darwin || linux

package attach

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"strconv"
	"time"

	"golang.org/x/sys/unix"
)

// targetPaths locates a target's attach socket and the candidate
// locations for its trigger file, in preference order.
type targetPaths struct {
	socket   string
	triggers []string
}

// HotSpot attaches to HotSpot JVMs through their attach listener
// socket.
type HotSpot struct {
	settings Settings
	logger   *slog.Logger

	// resolve and signal are replaced in tests.
	resolve func(pid int) (targetPaths, error)
	signal  func(pid int) error
}

// NewHotSpot returns a HotSpot facility with the given settings.
func NewHotSpot(settings Settings) *HotSpot {
	settings = settings.withDefaults()
	return &HotSpot{
		settings: settings,
		logger:   settings.Logger,
		resolve: func(pid int) (targetPaths, error) {
			return resolveTargetPaths(pid, settings.TempDir)
		},
		signal: func(pid int) error {
			return unix.Kill(pid, unix.SIGQUIT)
		},
	}
}

// Attach connects to the attach listener of the JVM with the given
// decimal process id, starting the listener first if necessary.
func (h *HotSpot) Attach(ctx context.Context, processID string) (Connection, error) {
	pid, err := strconv.Atoi(processID)
	if err != nil || pid <= 0 {
		return nil, fmt.Errorf("%w %q: expected a positive decimal pid", ErrInvalidProcessID, processID)
	}

	paths, err := h.resolve(pid)
	if err != nil {
		return nil, err
	}

	_, err = os.Stat(paths.socket)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := h.startListener(ctx, pid, paths); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("checking attach socket %s: %w", paths.socket, err)
	}

	if err := checkSocketOwner(paths.socket); err != nil {
		return nil, err
	}

	// Prove the listener accepts connections before handing out a
	// Connection; a stale socket file from a dead JVM fails here.
	var dialer net.Dialer
	liveness, err := dialer.DialContext(ctx, "unix", paths.socket)
	if err != nil {
		return nil, fmt.Errorf("connecting to attach socket %s: %w", paths.socket, err)
	}
	liveness.Close()

	h.logger.Debug("attached", "pid", pid, "socket", paths.socket)
	return &hotspotConnection{
		pid:     pid,
		socket:  paths.socket,
		timeout: h.settings.Timeout,
		logger:  h.logger,
	}, nil
}

// startListener creates the trigger file, signals the target, and
// waits for the attach socket to appear. The trigger file is removed
// before returning.
func (h *HotSpot) startListener(ctx context.Context, pid int, paths targetPaths) error {
	trigger, err := createTrigger(paths.triggers)
	if err != nil {
		return fmt.Errorf("creating attach trigger for process %d: %w", pid, err)
	}
	defer os.Remove(trigger)

	h.logger.Debug("starting attach listener", "pid", pid, "trigger", trigger)
	if err := h.signal(pid); err != nil {
		if errors.Is(err, unix.ESRCH) {
			return fmt.Errorf("%w: %d", ErrNoSuchProcess, pid)
		}
		return fmt.Errorf("signalling process %d: %w", pid, err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, h.settings.Timeout)
	defer cancel()
	ticker := time.NewTicker(h.settings.PollInterval)
	defer ticker.Stop()

	for {
		if _, err := os.Stat(paths.socket); err == nil {
			return nil
		}
		select {
		case <-waitCtx.Done():
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("waiting for attach listener of process %d: %w", pid, err)
			}
			return fmt.Errorf("%w: process %d, waited %s for %s: %w",
				ErrListenerTimeout, pid, h.settings.Timeout, paths.socket, waitCtx.Err())
		case <-ticker.C:
		}
	}
}

// createTrigger creates the first trigger file that can be created.
func createTrigger(candidates []string) (string, error) {
	var errs []error
	for _, path := range candidates {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		file.Close()
		return path, nil
	}
	if len(errs) == 0 {
		return "", errors.New("no trigger file location")
	}
	return "", errors.Join(errs...)
}

// checkSocketOwner verifies that path is a socket owned by the
// effective user. The target JVM rejects peers running as anyone other
// than its own user or root, so a mismatch is reported up front.
func checkSocketOwner(path string) error {
	var stat unix.Stat_t
	if err := unix.Stat(path, &stat); err != nil {
		return fmt.Errorf("checking attach socket %s: %w", path, err)
	}
	if stat.Mode&unix.S_IFMT != unix.S_IFSOCK {
		return fmt.Errorf("%s is not a socket", path)
	}
	euid := unix.Geteuid()
	if euid != 0 && stat.Uid != uint32(euid) {
		return fmt.Errorf("%w: %s is owned by uid %d, current uid is %d",
			ErrSocketOwner, path, stat.Uid, euid)
	}
	return nil
}

// hotspotConnection dials the attach socket once per operation.
type hotspotConnection struct {
	pid      int
	socket   string
	timeout  time.Duration
	logger   *slog.Logger
	detached bool
}

// execute runs one request. The request is bounded by the connection
// timeout, and cancelling ctx interrupts a request in flight.
func (c *hotspotConnection) execute(ctx context.Context, command string, arguments ...string) (string, error) {
	if c.detached {
		return "", ErrDetached
	}
	requestCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(requestCtx, "unix", c.socket)
	if err != nil {
		return "", fmt.Errorf("connecting to attach socket %s: %w", c.socket, err)
	}
	defer conn.Close()
	deadline, _ := requestCtx.Deadline()
	if err := conn.SetDeadline(deadline); err != nil {
		return "", fmt.Errorf("setting attach socket deadline: %w", err)
	}
	stop := context.AfterFunc(ctx, func() { conn.SetDeadline(time.Now()) })
	defer stop()

	c.logger.Debug("attach request", "pid", c.pid, "command", command)
	output, err := execute(conn, command, arguments...)
	if err != nil && errors.Is(err, os.ErrDeadlineExceeded) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("%s: %w", command, ctxErr)
		}
		return "", fmt.Errorf("%w: process %d did not answer %s within %s: %w",
			ErrRequestTimeout, c.pid, command, c.timeout, err)
	}
	return output, err
}

func (c *hotspotConnection) LoadAgent(ctx context.Context, path, options string) error {
	output, err := c.execute(ctx, "load", loadArguments(path, options)...)
	if err != nil {
		return err
	}
	return checkLoadResult(output)
}

func (c *hotspotConnection) SystemProperties(ctx context.Context) (map[string]string, error) {
	output, err := c.execute(ctx, "properties")
	if err != nil {
		return nil, err
	}
	return parseProperties(output)
}

// Detach marks the connection unusable. HotSpot holds no per-client
// state between requests, so there is nothing to send.
func (c *hotspotConnection) Detach() error {
	if !c.detached {
		c.detached = true
		c.logger.Debug("detached", "pid", c.pid)
	}
	return nil
}
