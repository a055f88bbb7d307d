// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
)

// Command represents a CLI command or subcommand.
type Command struct {
	// Name is the command name as typed by the user (e.g., "load").
	Name string

	// Summary is a one-line description shown in the parent's help listing.
	Summary string

	// Description is a detailed multi-line description shown in the command's
	// own help output.
	Description string

	// Usage is the usage string (e.g., "attachant <pid> load <bundle> [options]").
	// If empty, it is synthesized from the command path and subcommands.
	Usage string

	// Examples are shown in the help output after the description.
	Examples []Example

	// Flags returns a configured *pflag.FlagSet for this command. Called
	// lazily on first use. If nil, the command accepts no flags.
	Flags func() *pflag.FlagSet

	// Operand names a positional argument that precedes the subcommand
	// name (e.g., "pid"). When set, flag parsing stops at the first
	// positional argument and Run receives the operand as args[0]; Run
	// is then expected to call [Command.Dispatch] with the rest.
	Operand string

	// MinArgs is the number of positional arguments Run requires. With
	// fewer, Execute prints a usage summary to the output and returns
	// nil without calling Run.
	MinArgs int

	// Subcommands are nested commands dispatched by the first positional arg.
	Subcommands []*Command

	// Run executes the command with the remaining args (after flag parsing).
	// Exactly one of Run or Subcommands should be set, unless Operand is
	// set. If both are set, Run is used when no subcommand matches.
	Run func(args []string) error

	// Output receives help and usage text. Nil means the parent's
	// output, and os.Stdout at the root.
	Output io.Writer

	// parent is set during dispatch to build the full command path for help.
	parent *Command
}

// Example is a usage example shown in help output.
type Example struct {
	// Description explains what the example does.
	Description string
	// Command is the literal command line.
	Command string
}

// Execute parses args and dispatches to the appropriate subcommand or Run
// function. This is the main entry point for the command tree.
func (c *Command) Execute(args []string) error {
	// Check for help flags before anything else. A command without
	// flags or subcommands takes its arguments verbatim, so "help" or
	// "--help" there is an argument like any other.
	if len(args) > 0 && isHelpFlag(args[0]) && (c.Flags != nil || len(c.Subcommands) > 0) {
		c.printHelpFor(args[1:])
		return nil
	}

	// If we have subcommands, try to dispatch. A command with an operand
	// takes its first positional argument as the operand instead.
	if c.Operand == "" && len(c.Subcommands) > 0 && len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		return c.Dispatch(args)
	}

	// If we have subcommands but no args (and no Run), show help.
	if len(c.Subcommands) > 0 && c.Run == nil {
		c.PrintHelp(c.output())
		if len(args) == 0 {
			return fmt.Errorf("subcommand required")
		}
		return fmt.Errorf("subcommand required (got flag %q)", args[0])
	}

	// Parse flags if defined.
	if c.Flags != nil {
		flagSet := c.Flags()
		if c.Operand != "" {
			flagSet.SetInterspersed(false)
		}

		// Suppress pflag's default error output and usage dump. We
		// format our own error messages with suggestions.
		flagSet.SetOutput(io.Discard)

		if err := flagSet.Parse(args); err != nil {
			if errors.Is(err, pflag.ErrHelp) {
				c.PrintHelp(c.output())
				return nil
			}

			// Build a helpful error message: error line, suggestion if
			// applicable, then a pointer to --help for full usage.
			errMsg := err.Error()

			if strings.Contains(errMsg, "unknown flag") || strings.Contains(errMsg, "unknown shorthand flag") {
				// Recreate the flagSet to get a clean copy for suggestion
				// lookup (the failed parse may have consumed state).
				suggestion := suggestFlag(args, c.Flags())
				if suggestion != "" {
					return fmt.Errorf("%s (did you mean %s?)\n\nRun '%s --help' for usage.",
						errMsg, suggestion, c.fullName())
				}
			}

			return fmt.Errorf("%s\n\nRun '%s --help' for usage.",
				errMsg, c.fullName())
		}
		args = flagSet.Args()
	}

	if c.Shortfall(args, c.MinArgs) {
		return nil
	}

	if c.Run != nil {
		return c.Run(args)
	}

	// Nothing to run and no subcommand matched: show help.
	c.PrintHelp(c.output())
	return fmt.Errorf("no action defined for %q", c.fullName())
}

// Dispatch runs the subcommand named by args[0] with the remaining
// args. An unknown name produces an error suggesting the closest match.
func (c *Command) Dispatch(args []string) error {
	if len(args) == 0 {
		c.PrintHelp(c.output())
		return fmt.Errorf("subcommand required")
	}
	name := args[0]
	if isHelpFlag(name) {
		c.printHelpFor(args[1:])
		return nil
	}
	for _, sub := range c.Subcommands {
		if sub.Name == name {
			sub.parent = c
			return sub.Execute(args[1:])
		}
	}

	// Unknown subcommand: suggest the closest match.
	suggestion := suggestCommand(name, c.Subcommands)
	if suggestion != "" {
		return fmt.Errorf("unknown command %q (did you mean %q?)\n\nRun '%s --help' for usage.",
			name, suggestion, c.rootName())
	}
	return fmt.Errorf("unknown command %q\n\nRun '%s --help' for usage.",
		name, c.rootName())
}

// Shortfall reports whether args holds fewer than minimum positional
// arguments. When it does, it prints "Expects at least N arguments."
// and the root's usage to the output. N counts every positional
// argument on the command line, including the operands and command
// names of the ancestors.
func (c *Command) Shortfall(args []string, minimum int) bool {
	if len(args) >= minimum {
		return false
	}
	w := c.output()
	fmt.Fprintf(w, "Expects at least %d arguments.\n", c.positionalDepth()+minimum)
	c.root().PrintHelp(w)
	return true
}

// positionalDepth counts the positional arguments consumed before this
// command's own arguments: one per subcommand name, plus one for each
// ancestor with an operand.
func (c *Command) positionalDepth() int {
	depth := 0
	for command := c; command.parent != nil; command = command.parent {
		depth++
		if command.parent.Operand != "" {
			depth++
		}
	}
	return depth
}

// PrintHelp writes structured help output to w.
func (c *Command) PrintHelp(w io.Writer) {
	name := c.fullName()

	// Description or summary.
	if c.Description != "" {
		fmt.Fprintf(w, "%s\n\n", c.Description)
	} else if c.Summary != "" {
		fmt.Fprintf(w, "%s\n\n", c.Summary)
	}

	// Usage line.
	switch {
	case c.Usage != "":
		fmt.Fprintf(w, "Usage:\n  %s\n", c.Usage)
	case c.Operand != "":
		fmt.Fprintf(w, "Usage:\n  %s [flags] <%s> <command> [arguments]\n", name, c.Operand)
	case len(c.Subcommands) > 0:
		fmt.Fprintf(w, "Usage:\n  %s <command> [flags]\n", name)
	default:
		fmt.Fprintf(w, "Usage:\n  %s [flags]\n", name)
	}

	// Subcommands.
	if len(c.Subcommands) > 0 {
		fmt.Fprintf(w, "\nCommands:\n")
		tw := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
		for _, sub := range c.Subcommands {
			fmt.Fprintf(tw, "  %s\t%s\n", sub.Name, sub.Summary)
		}
		tw.Flush()
	}

	// Flags.
	if c.Flags != nil {
		flagSet := c.Flags()
		var flagHelp strings.Builder
		flagSet.SetOutput(&flagHelp)
		flagSet.PrintDefaults()
		if flagHelp.Len() > 0 {
			fmt.Fprintf(w, "\nFlags:\n%s", flagHelp.String())
		}
	}

	// Examples.
	if len(c.Examples) > 0 {
		fmt.Fprintf(w, "\nExamples:\n")
		for _, example := range c.Examples {
			if example.Description != "" {
				fmt.Fprintf(w, "  # %s\n", example.Description)
			}
			fmt.Fprintf(w, "  %s\n", example.Command)
			if example.Description != "" {
				fmt.Fprintln(w)
			}
		}
	}

	// Footer: help hint for subcommands.
	if len(c.Subcommands) > 0 {
		fmt.Fprintf(w, "\nRun '%s help <command>' for more information on a command.\n", name)
	}
}

// printHelpFor prints the help of the subcommand named by args[0], or
// c's own help when args names no subcommand.
func (c *Command) printHelpFor(args []string) {
	if len(args) > 0 {
		for _, sub := range c.Subcommands {
			if sub.Name == args[0] {
				sub.parent = c
				sub.PrintHelp(sub.output())
				return
			}
		}
	}
	c.PrintHelp(c.output())
}

// fullName returns the complete command path (e.g., "attachant <pid> load").
func (c *Command) fullName() string {
	if c.parent == nil {
		return c.Name
	}
	prefix := c.parent.fullName()
	if c.parent.Operand != "" {
		prefix += " <" + c.parent.Operand + ">"
	}
	return prefix + " " + c.Name
}

func (c *Command) root() *Command {
	command := c
	for command.parent != nil {
		command = command.parent
	}
	return command
}

func (c *Command) rootName() string {
	return c.root().Name
}

func (c *Command) output() io.Writer {
	for command := c; command != nil; command = command.parent {
		if command.Output != nil {
			return command.Output
		}
	}
	return os.Stdout
}

// isHelpFlag returns true for common help flag variants.
func isHelpFlag(arg string) bool {
	return arg == "-h" || arg == "--help" || arg == "help"
}
