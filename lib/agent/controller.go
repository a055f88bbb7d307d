// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bureau-foundation/attachant/lib/attach"
	"github.com/bureau-foundation/attachant/lib/binhash"
	"github.com/bureau-foundation/attachant/lib/bundle"
)

// DefaultManagementBundle is the file name of the management agent
// under <java.home>/lib.
const DefaultManagementBundle = "management-agent.jar"

// Controller runs agent operations against a Facility. The zero value
// is not usable; set at least Facility.
type Controller struct {
	// Facility opens control channels to target processes.
	Facility attach.Facility

	// Logger receives progress and warnings. Nil means slog.Default().
	Logger *slog.Logger

	// SelfLocator returns the path of the running program's own
	// bundle. Nil means [Executable].
	SelfLocator func() (string, error)

	// PlatformSupported is consulted before each operation. Nil means
	// [attach.PlatformSupported].
	PlatformSupported func() bool

	// ManagementBundle is the management agent's file name under
	// <java.home>/lib. Empty means DefaultManagementBundle.
	ManagementBundle string

	// ManagementKeyPrefix is prepended to the port, authenticate,
	// and ssl keys of the management options.
	ManagementKeyPrefix string
}

func (c *Controller) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// checkPlatform logs a warning when the platform is not known to
// support attach. It never blocks the operation: the check is a
// heuristic, and the facility reports the authoritative failure.
func (c *Controller) checkPlatform(operation string) {
	supported := attach.PlatformSupported
	if c.PlatformSupported != nil {
		supported = c.PlatformSupported
	}
	if !supported() {
		c.logger().Warn("dynamic attach is only supported for HotSpot JVMs on Linux and macOS; attempting anyway",
			"operation", operation)
	}
}

// LoadAgent validates the bundle at bundlePath and loads it into the
// process identified by processID. An empty options string passes no
// options to the agent.
func (c *Controller) LoadAgent(ctx context.Context, bundlePath, processID, options string) error {
	c.checkPlatform("load")
	if bundlePath == "" {
		return fmt.Errorf("%w: bundle path is empty", ErrInvalidArgument)
	}
	if processID == "" {
		return fmt.Errorf("%w: process id is empty", ErrInvalidArgument)
	}

	validated, err := bundle.Validate(bundlePath)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBundle, err)
	}

	// The target resolves the path against its own working directory.
	absolute, err := filepath.Abs(bundlePath)
	if err != nil {
		return fmt.Errorf("%w: resolving %s: %w", ErrInvalidArgument, bundlePath, err)
	}

	logger := c.logger().With("pid", processID, "bundle", absolute)
	logger.Info("loading agent",
		"entry_point", validated.EntryPoint,
		"signature", validated.Signature.String(),
		"version", validated.Version,
		"digest", binhash.FormatDigest(validated.Digest),
	)

	return c.withConnection(ctx, processID, func(connection attach.Connection) error {
		if err := connection.LoadAgent(ctx, absolute, options); err != nil {
			return fmt.Errorf("%w: loading %s into process %s: %w", ErrLoadFailed, absolute, processID, err)
		}
		logger.Info("agent loaded")
		return nil
	})
}

// LoadSelf loads the running program's own bundle into the process
// identified by processID.
func (c *Controller) LoadSelf(ctx context.Context, processID, options string) error {
	locate := c.SelfLocator
	if locate == nil {
		locate = Executable
	}
	selfPath, err := locate()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSelfLocationUnresolvable, err)
	}
	if selfPath == "" {
		return fmt.Errorf("%w: empty path", ErrSelfLocationUnresolvable)
	}
	return c.LoadAgent(ctx, selfPath, processID, options)
}

// RemoteManagement configures the management agent.
type RemoteManagement struct {
	Port         int
	Authenticate bool
	SSL          bool

	// Options is appended verbatim after the generated keys. Empty
	// means none.
	Options string
}

// LoadRemoteManagement loads the management agent of the target's own
// runtime installation into the process identified by processID.
func (c *Controller) LoadRemoteManagement(ctx context.Context, processID string, management RemoteManagement) error {
	c.checkPlatform("load-remote-management")
	if processID == "" {
		return fmt.Errorf("%w: process id is empty", ErrInvalidArgument)
	}

	options := ManagementOptions(c.ManagementKeyPrefix, management)
	bundleName := c.ManagementBundle
	if bundleName == "" {
		bundleName = DefaultManagementBundle
	}

	return c.withConnection(ctx, processID, func(connection attach.Connection) error {
		properties, err := connection.SystemProperties(ctx)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrHomeDirectoryUnavailable, err)
		}
		home := properties[attach.HomeProperty]
		if home == "" {
			return fmt.Errorf("%w: %s is not set in process %s", ErrHomeDirectoryUnavailable, attach.HomeProperty, processID)
		}

		agentPath := managementBundlePath(home, bundleName)
		logger := c.logger().With("pid", processID, "bundle", agentPath)
		logger.Info("loading management agent", "port", management.Port,
			"authenticate", management.Authenticate, "ssl", management.SSL)
		if err := connection.LoadAgent(ctx, agentPath, options); err != nil {
			return fmt.Errorf("%w: loading %s into process %s: %w", ErrLoadFailed, agentPath, processID, err)
		}
		logger.Info("management agent loaded")
		return nil
	})
}

// SystemProperties returns the system properties of the process
// identified by processID.
func (c *Controller) SystemProperties(ctx context.Context, processID string) (map[string]string, error) {
	c.checkPlatform("properties")
	if processID == "" {
		return nil, fmt.Errorf("%w: process id is empty", ErrInvalidArgument)
	}
	var properties map[string]string
	err := c.withConnection(ctx, processID, func(connection attach.Connection) error {
		var err error
		properties, err = connection.SystemProperties(ctx)
		if err != nil {
			return fmt.Errorf("%w: process %s: %w", ErrQueryFailed, processID, err)
		}
		return nil
	})
	return properties, err
}

// withConnection attaches to processID, runs operation, and detaches
// whatever the outcome. A detach failure is reported only when the
// operation itself succeeded.
func (c *Controller) withConnection(ctx context.Context, processID string, operation func(attach.Connection) error) (err error) {
	connection, err := c.Facility.Attach(ctx, processID)
	if err != nil {
		return fmt.Errorf("%w: process %s: %w", ErrAttachFailed, processID, err)
	}
	defer func() {
		if detachErr := connection.Detach(); detachErr != nil {
			if err == nil {
				err = fmt.Errorf("detaching from process %s: %w", processID, detachErr)
				return
			}
			c.logger().Warn("detach failed", "pid", processID, "error", detachErr)
		}
	}()
	return operation(connection)
}

// ManagementOptions builds the management agent's option string:
// port, authenticate, and ssl as key=value pairs, each key carrying
// prefix, followed by the caller's options when present.
func ManagementOptions(prefix string, management RemoteManagement) string {
	pairs := []string{
		prefix + "port=" + strconv.Itoa(management.Port),
		prefix + "authenticate=" + strconv.FormatBool(management.Authenticate),
		prefix + "ssl=" + strconv.FormatBool(management.SSL),
	}
	if management.Options != "" {
		pairs = append(pairs, management.Options)
	}
	return strings.Join(pairs, ",")
}

// managementBundlePath joins home, "lib", and name. The path is
// interpreted by the target, which on every supported platform uses
// '/' separators regardless of how this binary was built.
func managementBundlePath(home, name string) string {
	return path.Join(home, "lib", name)
}

// Executable returns the resolved path of the running executable.
func Executable() (string, error) {
	executable, err := os.Executable()
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(executable)
	if err != nil {
		return "", err
	}
	if resolved == "" {
		return "", errors.New("executable path is empty")
	}
	return resolved, nil
}
