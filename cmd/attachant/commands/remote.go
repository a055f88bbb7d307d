// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"strconv"
	"strings"

	"github.com/bureau-foundation/attachant/cmd/attachant/cli"
	"github.com/bureau-foundation/attachant/lib/agent"
)

func loadRemoteManagementCommand(state *session) *cli.Command {
	return &cli.Command{
		Name:    "load-remote-management",
		Summary: "Start the target's remote-management (JMX) agent",
		Usage:   "attachant <pid> load-remote-management <port> <authenticate> <ssl> [options]",
		Description: `Load the management agent shipped with the target's own runtime.

The agent is located at <java.home>/lib/management-agent.jar, where
java.home is read from the target. It is started with
"port=<port>,authenticate=<authenticate>,ssl=<ssl>" followed by the
optional [options] string. <authenticate> and <ssl> are true when they
equal "true" ignoring case, and false otherwise.

The JDK's management agent reads its settings as system-property
names, so for a stock JDK set the key prefix in the configuration file:

  remote_management:
    key_prefix: com.sun.management.jmxremote.

Without it the keys are passed bare, which suits agents that accept
them that way but leaves the JDK agent on its defaults.`,
		MinArgs: 3,
		Run: func(args []string) error {
			port, err := parsePort(args[0])
			if err != nil {
				return err
			}
			management := agent.RemoteManagement{
				Port:         port,
				Authenticate: parseBoolean(args[1]),
				SSL:          parseBoolean(args[2]),
				Options:      optionalArgument(args, 3),
			}
			return state.run(func(ctx context.Context, controller *agent.Controller) error {
				return controller.LoadRemoteManagement(ctx, state.options.processID, management)
			})
		},
	}
}

// parsePort parses a decimal port number. Range is not checked here;
// the management agent reports ports it cannot bind.
func parsePort(value string) (int, error) {
	port, err := strconv.ParseInt(value, 10, 32)
	if err != nil {
		return 0, cli.Validation("invalid port %q: %w", value, err)
	}
	return int(port), nil
}

// parseBoolean is true only for "true" in any letter case.
func parseBoolean(value string) bool {
	return strings.EqualFold(value, "true")
}
