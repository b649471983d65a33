// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/bureau-foundation/fulcrum/cmd/fulcrum/cli"
	"github.com/bureau-foundation/fulcrum/lib/config"
	"github.com/bureau-foundation/fulcrum/lib/improvements"
	"github.com/bureau-foundation/fulcrum/lib/payload"
	"github.com/bureau-foundation/fulcrum/lib/payloadfile"
)

// validationDedupeKey identifies the record created by validation runs,
// so repeated runs collapse onto one record server-side.
const validationDedupeKey = "validation-test-001"

var improvementsRequired = []string{
	config.KeyImprovementsURL,
	strings.Join(config.ImprovementsTokenKeys, "|"),
	config.KeyRunUUID,
}

func (a *app) improvementsCommand() *cli.Command {
	return &cli.Command{
		Name:    "improvements",
		Summary: "Manage improvement suggestions",
		Subcommands: []*cli.Command{
			a.improvementsValidateCommand(),
			a.improvementsListCommand(),
			a.improvementsCreateCommand(),
			a.improvementsUpdateCommand(),
			a.improvementsDeleteCommand(),
			a.improvementsEventCommand(),
		},
	}
}

// improvementsClient resolves the improvements configuration and builds
// a client that reports failures through logger.
func (a *app) improvementsClient(environment *Environment, logger *slog.Logger) (*improvements.Client, error) {
	source, err := environment.Source(a.environ)
	if err != nil {
		return nil, err
	}
	return improvements.New(config.ResolveImprovements(source), improvements.WithLogger(logger)), nil
}

// enabledImprovementsClient is improvementsClient for commands that
// cannot do anything useful with a disabled client.
func (a *app) enabledImprovementsClient(environment *Environment, logger *slog.Logger) (*improvements.Client, error) {
	client, err := a.improvementsClient(environment, logger)
	if err != nil {
		return nil, err
	}
	if !client.Enabled() {
		return nil, fmt.Errorf("improvements client disabled: missing %s", strings.Join(client.Missing(), ", "))
	}
	return client, nil
}

// singleUUID extracts the one positional improvement UUID.
func singleUUID(args []string) (string, error) {
	if len(args) != 1 {
		return "", cli.Validation("expected 1 improvement UUID, got %d arguments", len(args))
	}
	return args[0], nil
}

type improvementsValidateParams struct {
	Environment
}

func (a *app) improvementsValidateCommand() *cli.Command {
	var params improvementsValidateParams

	return &cli.Command{
		Name:    "validate",
		Summary: "Exercise the improvements API end to end",
		Description: `List improvements, create a test improvement (dedupe key
"validation-test-001"), find it, mark it resolved, attach an event,
and delete it. Exits 1 when the client is disabled or any step fails.`,
		Usage:  "fulcrum improvements validate [flags]",
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument %q", args[0])
			}
			client, err := a.improvementsClient(&params.Environment, logger)
			if err != nil {
				return err
			}

			report := newReport(a.out, "Fulcrum Improvements Validation")
			if !client.Enabled() {
				return report.disabled("Improvements", improvementsRequired, client.Missing())
			}
			report.enabled()

			report.test("list")
			report.detail("Found %d improvements", len(client.List(ctx, "")))

			report.test("create")
			report.result(client.Create(ctx, improvements.CreateRequest{
				Title:       "Validation test improvement",
				Description: "Created by improvements validation",
				DedupeKey:   validationDedupeKey,
				Status:      improvements.StatusOpen,
			}))

			report.test("list (verify creation)")
			var created *improvements.Improvement
			for _, item := range client.List(ctx, "") {
				if item.DedupeKey == validationDedupeKey {
					created = &item
					break
				}
			}
			if created == nil {
				report.fail("Could not find created improvement")
				report.note("  Skipping update, event, and delete tests")
				return report.finish()
			}
			report.detail("Found created improvement (uuid: %s)", created.UUID)

			resolved := improvements.StatusResolved
			report.test("update")
			report.result(client.Update(ctx, created.UUID, improvements.UpdateFields{Status: &resolved}))

			report.test("event")
			report.result(client.EmitEvent(ctx, created.UUID, "validated", payload.Map{"test_mode": true}))

			report.test("delete")
			report.result(client.Delete(ctx, created.UUID))

			return report.finish()
		},
	}
}

type improvementsListParams struct {
	Environment
	cli.JSONOutput
	Project string `flag:"project" desc:"project UUID (default FULCRUM_PROJECT_UUID)"`
}

func (a *app) improvementsListCommand() *cli.Command {
	var params improvementsListParams

	return &cli.Command{
		Name:    "list",
		Summary: "List improvements visible to this run",
		Description: `List improvements for the configured run, filtered by project when
one is configured or given with --project. A failed request prints an
empty list; the failure itself is logged.`,
		Usage:  "fulcrum improvements list [flags]",
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument %q", args[0])
			}
			client, err := a.enabledImprovementsClient(&params.Environment, logger)
			if err != nil {
				return err
			}

			items := client.List(ctx, params.Project)
			if done, err := params.EmitJSON(a.out, items); done {
				return err
			}
			if len(items) == 0 {
				_, err := fmt.Fprintln(a.out, "No improvements.")
				return err
			}
			writer := tabwriter.NewWriter(a.out, 2, 0, 3, ' ', 0)
			fmt.Fprintln(writer, "UUID\tSTATUS\tDEDUPE KEY\tTITLE")
			for _, item := range items {
				fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n", item.UUID, item.Status, item.DedupeKey, item.Title)
			}
			return writer.Flush()
		},
	}
}

type improvementsCreateParams struct {
	Environment
	Title       string `flag:"title,t" desc:"improvement title (required)"`
	Description string `flag:"description,d" desc:"longer description"`
	DedupeKey   string `flag:"dedupe-key" desc:"collapse repeated suggestions onto one record"`
	Status      string `flag:"status" desc:"open, in_progress, resolved, or dismissed" default:"open"`
}

func (a *app) improvementsCreateCommand() *cli.Command {
	var params improvementsCreateParams

	return &cli.Command{
		Name:    "create",
		Summary: "Create an improvement",
		Usage:   "fulcrum improvements create --title <title> [flags]",
		Examples: []cli.Example{
			{
				Description: "Suggest a follow-up that other runs may also suggest",
				Command:     "fulcrum improvements create --title 'Cache geocoding results' --dedupe-key geocode-cache",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument %q", args[0])
			}
			if strings.TrimSpace(params.Title) == "" {
				return cli.Validation("--title is required")
			}
			status := improvements.Status(params.Status)
			if !status.Valid() {
				return cli.Validation("--status %q must be open, in_progress, resolved, or dismissed", params.Status)
			}
			client, err := a.enabledImprovementsClient(&params.Environment, logger)
			if err != nil {
				return err
			}
			if !client.Create(ctx, improvements.CreateRequest{
				Title:       params.Title,
				Description: params.Description,
				DedupeKey:   params.DedupeKey,
				Status:      status,
			}) {
				return errors.New("improvement was not created")
			}
			_, err = fmt.Fprintln(a.out, "created")
			return err
		},
	}
}

type improvementsUpdateParams struct {
	Environment
	Title       string `flag:"title,t" desc:"new title"`
	Description string `flag:"description,d" desc:"new description"`
	DedupeKey   string `flag:"dedupe-key" desc:"new dedupe key"`
	Status      string `flag:"status" desc:"new status: open, in_progress, resolved, or dismissed"`
}

func (a *app) improvementsUpdateCommand() *cli.Command {
	var params improvementsUpdateParams

	return &cli.Command{
		Name:    "update",
		Summary: "Update fields of an improvement",
		Description: `Change the given fields of an improvement. Flags left unset are not
sent; at least one is required.`,
		Usage:  "fulcrum improvements update <uuid> [flags]",
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			uuid, err := singleUUID(args)
			if err != nil {
				return err
			}
			var fields improvements.UpdateFields
			if params.Title != "" {
				fields.Title = &params.Title
			}
			if params.Description != "" {
				fields.Description = &params.Description
			}
			if params.DedupeKey != "" {
				fields.DedupeKey = &params.DedupeKey
			}
			if params.Status != "" {
				status := improvements.Status(params.Status)
				if !status.Valid() {
					return cli.Validation("--status %q must be open, in_progress, resolved, or dismissed", params.Status)
				}
				fields.Status = &status
			}
			if fields == (improvements.UpdateFields{}) {
				return cli.Validation("nothing to update: set at least one of --title, --description, --dedupe-key, --status")
			}

			client, err := a.enabledImprovementsClient(&params.Environment, logger)
			if err != nil {
				return err
			}
			if !client.Update(ctx, uuid, fields) {
				return fmt.Errorf("improvement %s was not updated", uuid)
			}
			_, err = fmt.Fprintln(a.out, "updated")
			return err
		},
	}
}

type improvementsDeleteParams struct {
	Environment
}

func (a *app) improvementsDeleteCommand() *cli.Command {
	var params improvementsDeleteParams

	return &cli.Command{
		Name:    "delete",
		Summary: "Delete an improvement",
		Usage:   "fulcrum improvements delete <uuid> [flags]",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			uuid, err := singleUUID(args)
			if err != nil {
				return err
			}
			client, err := a.enabledImprovementsClient(&params.Environment, logger)
			if err != nil {
				return err
			}
			if !client.Delete(ctx, uuid) {
				return fmt.Errorf("improvement %s was not deleted", uuid)
			}
			_, err = fmt.Fprintln(a.out, "deleted")
			return err
		},
	}
}

type improvementsEventParams struct {
	Environment
	Action        string `flag:"action,a" desc:"event action (required)"`
	PayloadFile   string `flag:"payload-file,p" desc:"payload object file (.json, .jsonc, .yaml, .yml, .cbor)"`
	SkipRedaction bool   `flag:"skip-redaction" desc:"send the payload without key redaction"`
}

func (a *app) improvementsEventCommand() *cli.Command {
	var params improvementsEventParams

	return &cli.Command{
		Name:    "event",
		Summary: "Attach an audit event to an improvement",
		Usage:   "fulcrum improvements event <uuid> --action <action> [flags]",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			uuid, err := singleUUID(args)
			if err != nil {
				return err
			}
			if strings.TrimSpace(params.Action) == "" {
				return cli.Validation("--action is required")
			}
			var eventPayload payload.Map
			if params.PayloadFile != "" {
				eventPayload, err = payloadfile.Read(params.PayloadFile)
				if err != nil {
					return cli.Validation("%w", err)
				}
			}
			var options []improvements.EventOption
			if params.SkipRedaction {
				options = append(options, improvements.WithSkipRedaction())
			}

			client, err := a.enabledImprovementsClient(&params.Environment, logger)
			if err != nil {
				return err
			}
			if !client.EmitEvent(ctx, uuid, params.Action, eventPayload, options...) {
				return fmt.Errorf("event for improvement %s was not accepted", uuid)
			}
			_, err = fmt.Fprintln(a.out, "recorded")
			return err
		},
	}
}
