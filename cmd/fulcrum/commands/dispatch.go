// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bureau-foundation/fulcrum/cmd/fulcrum/cli"
	"github.com/bureau-foundation/fulcrum/lib/config"
	"github.com/bureau-foundation/fulcrum/lib/dispatch"
	"github.com/bureau-foundation/fulcrum/lib/payload"
	"github.com/bureau-foundation/fulcrum/lib/payloadfile"
)

var dispatchRequired = []string{
	config.KeyDispatchURL,
	config.KeyDispatchToken,
	config.KeyTicketUUID,
	config.KeyRunUUID,
}

func (a *app) dispatchCommand() *cli.Command {
	return &cli.Command{
		Name:    "dispatch",
		Summary: "Send and validate dispatch timeline entries",
		Subcommands: []*cli.Command{
			a.dispatchValidateCommand(),
			a.dispatchSendCommand(),
		},
	}
}

// dispatchClient resolves the dispatch configuration and builds a client
// that reports failures through logger.
func (a *app) dispatchClient(environment *Environment, logger *slog.Logger) (*dispatch.Client, error) {
	source, err := environment.Source(a.environ)
	if err != nil {
		return nil, err
	}
	return dispatch.New(config.ResolveDispatch(source), dispatch.WithLogger(logger)), nil
}

type dispatchValidateParams struct {
	Environment
}

func (a *app) dispatchValidateCommand() *cli.Command {
	var params dispatchValidateParams

	return &cli.Command{
		Name:    "validate",
		Summary: "Emit test entries to check dispatch connectivity",
		Description: `Emit three test entries (text, api_call, external_ref) and report
whether the server accepted each one. Exits 1 when the client is
disabled or any entry fails.`,
		Usage: "fulcrum dispatch validate [flags]",
		Examples: []cli.Example{
			{
				Description: "Validate using the project's .env file",
				Command:     "fulcrum dispatch validate --env-file .env",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument %q", args[0])
			}
			client, err := a.dispatchClient(&params.Environment, logger)
			if err != nil {
				return err
			}

			report := newReport(a.out, "Fulcrum Dispatch Validation")
			if !client.Enabled() {
				return report.disabled("Dispatch", dispatchRequired, client.Missing())
			}
			report.enabled()

			report.test("text")
			report.result(client.Text(ctx, "Dispatch validation started", ""))

			report.test("api_call")
			report.result(client.APICall(ctx, "Validation API call", "fulcrum-sdk", "validate",
				payload.Map{"test_mode": true}))

			report.test("external_ref")
			report.result(client.ExternalRef(ctx, "Validation external reference",
				"fulcrum-sdk", "validation", "test-ref-001", ""))

			return report.finish()
		},
	}
}

type dispatchSendParams struct {
	Environment
	Kind          string `flag:"kind,k" desc:"entry kind (text, api_call, external_ref, db, model, or a custom kind)" default:"text"`
	Summary       string `flag:"summary,s" desc:"one-line summary shown on the timeline"`
	PayloadFile   string `flag:"payload-file,p" desc:"payload object file (.json, .jsonc, .yaml, .yml, .cbor)"`
	MessageUUID   string `flag:"message-uuid" desc:"correlate with a parent message"`
	Source        string `flag:"source" desc:"source tag (default sdk)"`
	SkipRedaction bool   `flag:"skip-redaction" desc:"send the payload without key redaction"`
}

func (a *app) dispatchSendCommand() *cli.Command {
	var params dispatchSendParams

	return &cli.Command{
		Name:    "send",
		Summary: "Send one dispatch entry",
		Description: `Send a single timeline entry. The summary may be given with --summary
or as positional arguments. The payload is read from --payload-file and
is redacted and size-bounded exactly as library callers' payloads are.`,
		Usage: "fulcrum dispatch send [flags] [summary...]",
		Examples: []cli.Example{
			{
				Description: "Record a note",
				Command:     "fulcrum dispatch send Deploy finished",
			},
			{
				Description: "Record an API call with details from a file",
				Command:     "fulcrum dispatch send --kind api_call --summary 'Charged card' --payload-file charge.yaml",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			summary := params.Summary
			if summary == "" {
				summary = strings.Join(args, " ")
			} else if len(args) > 0 {
				return cli.Validation("summary given both with --summary and as arguments")
			}
			if strings.TrimSpace(params.Kind) == "" {
				return cli.Validation("--kind cannot be empty")
			}

			var eventPayload payload.Map
			if params.PayloadFile != "" {
				var err error
				eventPayload, err = payloadfile.Read(params.PayloadFile)
				if err != nil {
					return cli.Validation("%w", err)
				}
			}

			client, err := a.dispatchClient(&params.Environment, logger)
			if err != nil {
				return err
			}
			if !client.Enabled() {
				return fmt.Errorf("dispatch client disabled: missing %s", strings.Join(client.Missing(), ", "))
			}

			event := dispatch.Event{
				Kind:          params.Kind,
				Summary:       summary,
				MessageUUID:   params.MessageUUID,
				Source:        params.Source,
				SkipRedaction: params.SkipRedaction,
			}
			if eventPayload != nil {
				event.Payload = eventPayload
			}
			if !client.Emit(ctx, event) {
				return errors.New("dispatch entry was not accepted")
			}
			_, err = fmt.Fprintln(a.out, "sent")
			return err
		},
	}
}
