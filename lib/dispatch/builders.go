// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"context"
	"strings"

	"github.com/bureau-foundation/fulcrum/lib/besteffort"
	"github.com/bureau-foundation/fulcrum/lib/payload"
	"github.com/bureau-foundation/fulcrum/lib/sanitize"
)

// Text sends a free-form milestone. The payload is {"text": text} when
// text is non-empty and absent otherwise.
func (client *Client) Text(ctx context.Context, summary, text string, options ...EventOption) bool {
	event := newEvent(KindText, summary, options)
	if text != "" {
		event.Payload = payload.Map{"text": text}
	}
	return client.Emit(ctx, event)
}

// APICall records a call to an external API. service and operation are
// required. details are merged into the payload but never replace the
// service or operation keys.
func (client *Client) APICall(ctx context.Context, summary, service, operation string, details payload.Map, options ...EventOption) bool {
	return besteffort.Guard(client.logger, "dispatch.api_call", func() error {
		service, operation := strings.TrimSpace(service), strings.TrimSpace(operation)
		if service == "" || operation == "" {
			return besteffort.Invalid("api_call requires service and operation")
		}
		event := newEvent(KindAPICall, summary, options)
		event.Payload = payload.Merge(payload.Map{
			"service":   service,
			"operation": operation,
		}, details)
		return client.send(ctx, event)
	})
}

// ExternalRef records a resource hosted by an external provider that
// can be fetched by ID. provider, refType and refID are required; the
// url key is present only when url is non-empty.
func (client *Client) ExternalRef(ctx context.Context, summary, provider, refType, refID, url string, options ...EventOption) bool {
	return besteffort.Guard(client.logger, "dispatch.external_ref", func() error {
		fields := payload.Map{
			"provider": strings.TrimSpace(provider),
			"ref_type": strings.TrimSpace(refType),
			"ref_id":   strings.TrimSpace(refID),
		}
		for key, value := range fields {
			if value == "" {
				return besteffort.Invalid("external_ref requires %s", key)
			}
		}
		if url = strings.TrimSpace(url); url != "" {
			fields["url"] = url
		}
		event := newEvent(KindExternalRef, summary, options)
		event.Payload = fields
		return client.send(ctx, event)
	})
}

// DB records a database operation. operation must be one of insert,
// update, delete or select and table is required. rows is included when
// non-nil. String literals in query are replaced with the redaction
// marker unless redaction is skipped.
func (client *Client) DB(ctx context.Context, summary string, operation DBOperation, table string, rows *int, query string, options ...EventOption) bool {
	return besteffort.Guard(client.logger, "dispatch.db", func() error {
		if !operation.Valid() {
			return besteffort.Invalid("db operation %q is not one of insert, update, delete, select", operation)
		}
		table = strings.TrimSpace(table)
		if table == "" {
			return besteffort.Invalid("db requires table")
		}
		event := newEvent(KindDB, summary, options)
		fields := payload.Map{
			"operation": string(operation.normalized()),
			"table":     table,
		}
		if rows != nil {
			fields["rows"] = *rows
		}
		if query != "" {
			if !event.SkipRedaction {
				query = sanitize.RedactSQL(query)
			}
			fields["query"] = query
		}
		event.Payload = fields
		return client.send(ctx, event)
	})
}

// Model records a model result. modelName is required. data is an
// arbitrary field/value record and goes through the same redaction and
// size limits as any payload. Empty summaries and nil data are left out.
func (client *Client) Model(ctx context.Context, summary, modelName string, data payload.Map, inputSummary, outputSummary string, options ...EventOption) bool {
	return besteffort.Guard(client.logger, "dispatch.model", func() error {
		modelName = strings.TrimSpace(modelName)
		if modelName == "" {
			return besteffort.Invalid("model requires model_name")
		}
		fields := payload.Map{"model_name": modelName}
		if data != nil {
			fields["data"] = data
		}
		if inputSummary != "" {
			fields["input_summary"] = inputSummary
		}
		if outputSummary != "" {
			fields["output_summary"] = outputSummary
		}
		event := newEvent(KindModel, summary, options)
		event.Payload = fields
		return client.send(ctx, event)
	})
}

func newEvent(kind, summary string, options []EventOption) Event {
	event := Event{Kind: kind, Summary: summary}
	for _, option := range options {
		option(&event)
	}
	return event
}
