// Copyright 2026 The smsbot Authors
// SPDX-License-Identifier: Apache-2.0

// smsbot posts messages to a Matrix room from scripts and SMS gateways.
// Run "smsbot --help" for the command list.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/smsbot-matrix/smsbot/cmd/smsbot/cli"
	"github.com/smsbot-matrix/smsbot/cmd/smsbot/commands"
	"github.com/smsbot-matrix/smsbot/lib/clock"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error (%s): %v\n", cli.CategoryOf(err), err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	workingDirectory, err := os.Getwd()
	if err != nil {
		return cli.Internal("determining working directory: %w", err)
	}

	env := &commands.Environment{
		Stdin:            os.Stdin,
		Stdout:           os.Stdout,
		Stderr:           os.Stderr,
		Lookup:           os.LookupEnv,
		WorkingDirectory: workingDirectory,
		Clock:            clock.Real(),
	}
	return commands.Root(env).Execute(ctx, os.Args[1:])
}
