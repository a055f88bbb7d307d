// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"

	"github.com/bureau-foundation/attachant/cmd/attachant/cli"
	"github.com/bureau-foundation/attachant/lib/agent"
)

func loadCommand(state *session) *cli.Command {
	return &cli.Command{
		Name:    "load",
		Summary: "Load an agent bundle into the target",
		Usage:   "attachant <pid> load <bundle> [options]",
		Description: `Load the agent bundle at <bundle> into the target JVM.

The bundle is checked locally before attaching: it must be a readable
jar whose manifest names an Agent-Class with a public agentmain method.
A relative path is resolved against the current directory. The optional
[options] string is handed to agentmain unchanged.`,
		MinArgs: 1,
		Run: func(args []string) error {
			bundlePath := args[0]
			options := optionalArgument(args, 1)
			return state.run(func(ctx context.Context, controller *agent.Controller) error {
				return controller.LoadAgent(ctx, bundlePath, state.options.processID, options)
			})
		},
	}
}

func loadSelfCommand(state *session) *cli.Command {
	return &cli.Command{
		Name:    "load-self",
		Summary: "Load attachant's own bundle into the target",
		Usage:   "attachant <pid> load-self [options]",
		Description: `Load the running attachant executable as an agent bundle.

This works when an agent jar has been appended to the executable, so the
file is both a native binary and a jar whose manifest names an
Agent-Class. The optional [options] string is handed to agentmain
unchanged.`,
		Run: func(args []string) error {
			options := optionalArgument(args, 0)
			return state.run(func(ctx context.Context, controller *agent.Controller) error {
				return controller.LoadSelf(ctx, state.options.processID, options)
			})
		},
	}
}
