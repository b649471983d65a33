// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/bureau-foundation/fulcrum/cmd/fulcrum/cli"
	"github.com/bureau-foundation/fulcrum/lib/config"
)

func (a *app) configCommand() *cli.Command {
	return &cli.Command{
		Name:        "config",
		Summary:     "Inspect the resolved configuration",
		Subcommands: []*cli.Command{a.configShowCommand()},
	}
}

// clientSummary is the output type of config show. Tokens are masked.
type clientSummary struct {
	Enabled         bool     `json:"enabled"`
	URL             string   `json:"url"`
	Token           string   `json:"token"`
	TokenSource     string   `json:"token_source,omitempty"`
	TicketUUID      string   `json:"ticket_uuid"`
	RunUUID         string   `json:"run_uuid"`
	ProjectUUID     string   `json:"project_uuid,omitempty"`
	Debug           bool     `json:"debug"`
	TimeoutMS       int64    `json:"timeout_ms"`
	MaxPayloadBytes int      `json:"max_payload_bytes"`
	Missing         []string `json:"missing"`
}

type configSummary struct {
	Dispatch     clientSummary `json:"dispatch"`
	Improvements clientSummary `json:"improvements"`
}

// maskToken keeps the last four characters of tokens long enough that
// doing so still hides most of the value.
func maskToken(token string) string {
	switch {
	case token == "":
		return ""
	case len(token) <= 8:
		return "****"
	default:
		return "****" + token[len(token)-4:]
	}
}

func summarize(source config.Source) configSummary {
	dispatchConfig := config.ResolveDispatch(source)
	improvementsConfig := config.ResolveImprovements(source)
	return configSummary{
		Dispatch: clientSummary{
			Enabled:         dispatchConfig.Enabled(),
			URL:             dispatchConfig.URL,
			Token:           maskToken(dispatchConfig.Token),
			TicketUUID:      dispatchConfig.TicketUUID,
			RunUUID:         dispatchConfig.RunUUID,
			Debug:           dispatchConfig.Debug,
			TimeoutMS:       dispatchConfig.Timeout.Milliseconds(),
			MaxPayloadBytes: dispatchConfig.MaxPayloadBytes,
			Missing:         dispatchConfig.Missing,
		},
		Improvements: clientSummary{
			Enabled:         improvementsConfig.Enabled(),
			URL:             improvementsConfig.URL,
			Token:           maskToken(improvementsConfig.Token),
			TokenSource:     improvementsConfig.TokenSource,
			TicketUUID:      improvementsConfig.TicketUUID,
			RunUUID:         improvementsConfig.RunUUID,
			ProjectUUID:     improvementsConfig.ProjectUUID,
			Debug:           improvementsConfig.Debug,
			TimeoutMS:       improvementsConfig.Timeout.Milliseconds(),
			MaxPayloadBytes: improvementsConfig.MaxPayloadBytes,
			Missing:         improvementsConfig.Missing,
		},
	}
}

type configShowParams struct {
	Environment
	cli.JSONOutput
}

func (a *app) configShowCommand() *cli.Command {
	var params configShowParams

	return &cli.Command{
		Name:    "show",
		Summary: "Print the configuration each client would use",
		Description: `Resolve the dispatch and improvements configuration from the
environment and any --env-file or --config, and print it with tokens
masked. Missing required keys are listed per client.`,
		Usage:  "fulcrum config show [flags]",
		Params: func() any { return &params },
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument %q", args[0])
			}
			source, err := params.Source(a.environ)
			if err != nil {
				return err
			}
			summary := summarize(source)
			if summary.Dispatch.Missing == nil {
				summary.Dispatch.Missing = []string{}
			}
			if summary.Improvements.Missing == nil {
				summary.Improvements.Missing = []string{}
			}
			if done, err := params.EmitJSON(a.out, summary); done {
				return err
			}

			writer := tabwriter.NewWriter(a.out, 2, 0, 2, ' ', 0)
			for _, section := range []struct {
				name    string
				summary clientSummary
			}{
				{"dispatch", summary.Dispatch},
				{"improvements", summary.Improvements},
			} {
				fmt.Fprintf(writer, "%s:\n", section.name)
				fmt.Fprintf(writer, "  enabled\t%t\n", section.summary.Enabled)
				fmt.Fprintf(writer, "  url\t%s\n", section.summary.URL)
				token := section.summary.Token
				if section.summary.TokenSource != "" {
					token += " (" + section.summary.TokenSource + ")"
				}
				fmt.Fprintf(writer, "  token\t%s\n", token)
				fmt.Fprintf(writer, "  ticket_uuid\t%s\n", section.summary.TicketUUID)
				fmt.Fprintf(writer, "  run_uuid\t%s\n", section.summary.RunUUID)
				if section.name == "improvements" {
					fmt.Fprintf(writer, "  project_uuid\t%s\n", section.summary.ProjectUUID)
				}
				fmt.Fprintf(writer, "  debug\t%t\n", section.summary.Debug)
				fmt.Fprintf(writer, "  timeout_ms\t%d\n", section.summary.TimeoutMS)
				fmt.Fprintf(writer, "  max_payload_bytes\t%d\n", section.summary.MaxPayloadBytes)
				if len(section.summary.Missing) > 0 {
					fmt.Fprintf(writer, "  missing\t%s\n", strings.Join(section.summary.Missing, ", "))
				}
			}
			return writer.Flush()
		},
	}
}
