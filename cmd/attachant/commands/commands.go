// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the attachant command tree:
//
//	attachant [flags] <pid> load <bundle> [options]
//	attachant [flags] <pid> load-self [options]
//	attachant [flags] <pid> load-remote-management <port> <authenticate> <ssl> [options]
//	attachant [flags] <pid> properties [--json | --cbor]
//
// The process id precedes the command name. Missing arguments print a
// usage summary and succeed without contacting the target.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/attachant/cmd/attachant/cli"
	"github.com/bureau-foundation/attachant/lib/agent"
	"github.com/bureau-foundation/attachant/lib/attach"
	"github.com/bureau-foundation/attachant/lib/config"
	"github.com/bureau-foundation/attachant/lib/version"
)

// Environment is what the command tree needs from the outside world.
// Zero fields fall back to the process's own: os.Stdout, os.Stderr,
// the platform's attach facility built from configuration, and the
// running executable as the self bundle.
type Environment struct {
	Context     context.Context
	Stdout      io.Writer
	Stderr      io.Writer
	Facility    attach.Facility
	SelfLocator func() (string, error)
}

func (e *Environment) withDefaults() *Environment {
	filled := *e
	if filled.Context == nil {
		filled.Context = context.Background()
	}
	if filled.Stdout == nil {
		filled.Stdout = os.Stdout
	}
	if filled.Stderr == nil {
		filled.Stderr = os.Stderr
	}
	if filled.SelfLocator == nil {
		filled.SelfLocator = agent.Executable
	}
	return &filled
}

// globalOptions holds the root flags and the process id operand.
type globalOptions struct {
	configPath  string
	timeout     time.Duration
	logLevel    string
	showVersion bool

	processID string
}

// session carries state from the root command to the subcommand that
// runs.
type session struct {
	environment *Environment
	options     globalOptions
}

// Root builds the attachant command tree.
func Root(environment *Environment) *cli.Command {
	state := &session{environment: environment.withDefaults()}

	var root *cli.Command
	root = &cli.Command{
		Name:    "attachant",
		Operand: "pid",
		Output:  state.environment.Stdout,
		Description: `attachant: load Java agents into running JVMs.

Attaches to the HotSpot JVM with the given process id, loads an agent
bundle (a jar whose manifest names an Agent-Class) or the JVM's own
remote-management agent, then detaches. The target must run as the
same user as attachant.`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("attachant", pflag.ContinueOnError)
			flagSet.StringVar(&state.options.configPath, "config", "",
				"configuration file (default: $"+config.EnvironmentVariable+")")
			flagSet.DurationVar(&state.options.timeout, "timeout", 0,
				"how long to wait for the target's attach listener and for each answer (default from config, 10s)")
			flagSet.StringVar(&state.options.logLevel, "log-level", "",
				"debug, info, warn, or error (default from config, info)")
			flagSet.BoolVar(&state.options.showVersion, "version", false, "print version information and exit")
			return flagSet
		},
		Subcommands: []*cli.Command{
			loadCommand(state),
			loadSelfCommand(state),
			loadRemoteManagementCommand(state),
			propertiesCommand(state),
		},
		Examples: []cli.Example{
			{
				Description: "Load an agent bundle with options",
				Command:     "attachant 4242 load /opt/agents/profiler.jar sampling=10ms",
			},
			{
				Description: "Load attachant's own embedded agent",
				Command:     "attachant 4242 load-self",
			},
			{
				Description: "Expose JMX on port 9999 without authentication or SSL",
				Command:     "attachant 4242 load-remote-management 9999 false false",
			},
			{
				Description: "Dump the target's system properties as JSON",
				Command:     "attachant 4242 properties --json",
			},
		},
	}
	root.Run = func(args []string) error {
		if state.options.showVersion {
			fmt.Fprintf(state.environment.Stdout, "attachant %s\n", version.Full())
			return nil
		}
		if root.Shortfall(args, 2) {
			return nil
		}
		state.options.processID = args[0]
		return root.Dispatch(args[1:])
	}
	return root
}

// controller loads configuration, applies flag overrides, and builds
// the controller that runs the subcommand's operation.
func (s *session) controller() (*agent.Controller, error) {
	cfg, err := config.Load(s.options.configPath)
	if err != nil {
		return nil, err
	}
	if s.options.timeout != 0 {
		cfg.Attach.Timeout = s.options.timeout.String()
	}
	if s.options.logLevel != "" {
		cfg.Log.Level = s.options.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, cli.Validation("%w", err)
	}

	level, _ := cfg.Log.SlogLevel()
	timeout, _ := cfg.Attach.TimeoutDuration()
	pollInterval, _ := cfg.Attach.PollIntervalDuration()

	logger := cli.NewLogger(s.environment.Stderr, level).With("pid", s.options.processID)

	facility := s.environment.Facility
	if facility == nil {
		facility = attach.Default(attach.Settings{
			Timeout:      timeout,
			PollInterval: pollInterval,
			TempDir:      cfg.Attach.TempDir,
			Logger:       logger,
		})
	}

	return &agent.Controller{
		Facility:            facility,
		Logger:              logger,
		SelfLocator:         s.environment.SelfLocator,
		ManagementBundle:    cfg.RemoteManagement.Bundle,
		ManagementKeyPrefix: cfg.RemoteManagement.KeyPrefix,
	}, nil
}

// run builds a controller and runs operation, turning well-known
// failures into errors with hints.
func (s *session) run(operation func(context.Context, *agent.Controller) error) error {
	controller, err := s.controller()
	if err != nil {
		return err
	}
	if err := operation(s.environment.Context, controller); err != nil {
		if diagnosed := cli.DiagnoseAttachError(err); diagnosed != nil {
			return diagnosed
		}
		return err
	}
	return nil
}

// optionalArgument returns args[index], or "" when absent.
func optionalArgument(args []string, index int) string {
	if len(args) > index {
		return args[index]
	}
	return ""
}
