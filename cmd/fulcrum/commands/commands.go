// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the fulcrum CLI command tree.
//
// Every command that talks to Fulcrum resolves its configuration from
// the process environment, optionally layered with a dotenv file
// (--env-file) and a YAML config file (--config). The validation
// commands replay the checks a project runs after scaffolding to prove
// its FULCRUM_* variables point at a working server.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/bureau-foundation/fulcrum/cmd/fulcrum/cli"
	"github.com/bureau-foundation/fulcrum/lib/config"
	"github.com/bureau-foundation/fulcrum/lib/version"
)

// app carries what every command needs besides its own parameters.
type app struct {
	out     io.Writer
	environ config.Source
}

// Root builds the complete command tree. Command output goes to out;
// environ is the base configuration source (normally config.Environ()).
func Root(out io.Writer, environ config.Source) *cli.Command {
	a := &app{out: out, environ: environ}
	return &cli.Command{
		Name: "fulcrum",
		Description: `Fulcrum: best-effort run telemetry.

Send dispatch timeline entries and manage improvement suggestions
against a Fulcrum server, and validate that a project's FULCRUM_*
configuration reaches it.`,
		Subcommands: []*cli.Command{
			a.dispatchCommand(),
			a.improvementsCommand(),
			a.configCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(context.Context, []string, *slog.Logger) error {
					_, err := fmt.Fprintf(out, "fulcrum %s\n", version.Full())
					return err
				},
			},
		},
	}
}
