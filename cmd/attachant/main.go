// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// attachant loads Java agents into running HotSpot JVMs.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bureau-foundation/attachant/cmd/attachant/commands"
	"github.com/bureau-foundation/attachant/lib/process"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return commands.Root(&commands.Environment{Context: ctx}).Execute(os.Args[1:])
}
