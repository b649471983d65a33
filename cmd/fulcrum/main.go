// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// fulcrum sends dispatch entries and manages improvements from the
// command line, and validates a project's Fulcrum configuration.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bureau-foundation/fulcrum/cmd/fulcrum/cli"
	"github.com/bureau-foundation/fulcrum/cmd/fulcrum/commands"
	"github.com/bureau-foundation/fulcrum/lib/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := commands.Root(os.Stdout, config.Environ()).Execute(ctx, os.Args[1:])
	if err == nil {
		return 0
	}

	// Commands that print their own report (validate) return an
	// ExitError with the desired code; don't add an "error:" line.
	var exitError *cli.ExitError
	if errors.As(err, &exitError) {
		return exitError.ExitCode()
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	var toolError *cli.ToolError
	if errors.As(err, &toolError) && toolError.Category == cli.CategoryValidation {
		return 2
	}
	return 1
}
