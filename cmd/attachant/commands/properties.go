// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/attachant/cmd/attachant/cli"
	"github.com/bureau-foundation/attachant/lib/agent"
	"github.com/bureau-foundation/attachant/lib/codec"
)

// propertiesReport is the --json and --cbor form of the properties
// command's output.
type propertiesReport struct {
	ProcessID  string            `json:"pid"`
	Properties map[string]string `json:"properties"`
}

func propertiesCommand(state *session) *cli.Command {
	var outputJSON, outputCBOR bool

	return &cli.Command{
		Name:    "properties",
		Summary: "Print the target's system properties",
		Usage:   "attachant <pid> properties [--json | --cbor]",
		Description: `Print the target JVM's system properties, one key=value per line in
key order.

With --json, print an object with the process id and the properties.
With --cbor, write the same object as deterministic CBOR, so that two
snapshots of an unchanged target are byte-identical.`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("properties", pflag.ContinueOnError)
			flagSet.BoolVar(&outputJSON, "json", false, "output as JSON")
			flagSet.BoolVar(&outputCBOR, "cbor", false, "output as deterministic CBOR")
			return flagSet
		},
		Run: func(args []string) error {
			if outputJSON && outputCBOR {
				return cli.Validation("--json and --cbor are mutually exclusive")
			}
			var properties map[string]string
			err := state.run(func(ctx context.Context, controller *agent.Controller) error {
				var err error
				properties, err = controller.SystemProperties(ctx, state.options.processID)
				return err
			})
			if err != nil {
				return err
			}

			stdout := state.environment.Stdout
			report := propertiesReport{ProcessID: state.options.processID, Properties: properties}
			switch {
			case outputJSON:
				return cli.WriteJSON(stdout, report)
			case outputCBOR:
				data, err := codec.Marshal(report)
				if err != nil {
					return cli.Internal("encoding properties: %w", err)
				}
				_, err = stdout.Write(data)
				return err
			}

			keys := make([]string, 0, len(properties))
			for key := range properties {
				keys = append(keys, key)
			}
			slices.Sort(keys)
			for _, key := range keys {
				if _, err := fmt.Fprintf(stdout, "%s=%s\n", key, properties[key]); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
