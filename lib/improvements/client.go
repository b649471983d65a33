// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package improvements

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/bureau-foundation/fulcrum/lib/besteffort"
	"github.com/bureau-foundation/fulcrum/lib/config"
	"github.com/bureau-foundation/fulcrum/lib/payload"
	"github.com/bureau-foundation/fulcrum/lib/sanitize"
)

// Client manages improvement records. It is immutable after New and
// safe for concurrent use.
type Client struct {
	config    config.ImprovementsConfig
	base      string
	transport *besteffort.Transport
	logger    *slog.Logger
	redactor  *sanitize.Redactor
}

// Option configures a Client.
type Option func(*options)

type options struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *options) { o.httpClient = httpClient }
}

// WithLogger sets the failure logger. Without it, failures are written
// to stderr when the configuration has Debug set and discarded
// otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// New creates a Client. A configuration with missing keys yields a
// disabled client: mutating operations return false and List returns an
// empty slice, all without network I/O.
func New(cfg config.ImprovementsConfig, opts ...Option) *Client {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = config.DefaultTimeout
	}
	if cfg.MaxPayloadBytes <= 0 {
		cfg.MaxPayloadBytes = sanitize.DefaultMaxPayloadBytes
	}

	client := &Client{
		config: cfg,
		base:   strings.TrimRight(cfg.URL, "/"),
		transport: besteffort.NewTransport(besteffort.TransportConfig{
			HTTPClient: o.httpClient,
			Token:      cfg.Token,
			Timeout:    cfg.Timeout,
		}),
		logger:   besteffort.ResolveLogger(o.logger, cfg.Debug),
		redactor: sanitize.NewRedactor(sanitize.BaseKeys),
	}
	switch {
	case !cfg.Enabled():
		client.logger.Info("improvements client disabled", "missing", cfg.Missing)
	case cfg.TokenDeprecated():
		client.logger.Info("improvements client authenticated with deprecated key",
			"key", config.KeyDispatchToken, "preferred", config.KeyRunToken)
	}
	return client
}

// Enabled reports whether the client will make requests.
func (client *Client) Enabled() bool {
	return client.config.Enabled()
}

// Missing returns the configuration keys whose absence disabled the
// client.
func (client *Client) Missing() []string {
	return slices.Clone(client.config.Missing)
}

// List returns the improvements visible to this run. projectUUID
// overrides the configured project; when both are empty the filter is
// omitted. Any failure yields an empty slice.
func (client *Client) List(ctx context.Context, projectUUID string) []Improvement {
	return besteffort.GuardList(client.logger, "improvements.list", func() ([]Improvement, error) {
		if !client.config.Enabled() {
			return nil, besteffort.Disabled(client.config.Missing)
		}
		query := url.Values{"run_uuid": {client.config.RunUUID}}
		if projectUUID = strings.TrimSpace(projectUUID); projectUUID == "" {
			projectUUID = client.config.ProjectUUID
		}
		if projectUUID != "" {
			query.Set("project_uuid", projectUUID)
		}

		response, err := client.transport.Do(ctx, besteffort.Request{
			Method: http.MethodGet,
			URL:    client.base,
			Query:  query,
		})
		if err != nil {
			return nil, err
		}
		return decodeList(response)
	})
}

// decodeList accepts either a bare JSON array or an object wrapping the
// array under "improvements".
func decodeList(response besteffort.Response) ([]Improvement, error) {
	var raw json.RawMessage
	if err := response.DecodeJSON(&raw); err != nil {
		return nil, err
	}
	var items []Improvement
	if trimmed := strings.TrimSpace(string(raw)); strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, &besteffort.Failure{Kind: besteffort.KindDecode, Err: err}
		}
		return items, nil
	}
	var wrapped struct {
		Improvements []Improvement `json:"improvements"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, &besteffort.Failure{Kind: besteffort.KindDecode, Err: err}
	}
	return wrapped.Improvements, nil
}

// Create asks the server to create an improvement. A repeated
// DedupeKey is resolved by the server; the client does not check.
func (client *Client) Create(ctx context.Context, request CreateRequest) bool {
	return besteffort.Guard(client.logger, "improvements.create", func() error {
		if !client.config.Enabled() {
			return besteffort.Disabled(client.config.Missing)
		}
		title := strings.TrimSpace(request.Title)
		if title == "" {
			return besteffort.Invalid("create requires title")
		}
		status := request.Status
		if status == "" {
			status = StatusOpen
		}
		if !status.Valid() {
			return besteffort.Invalid("status %q is not valid", status)
		}

		_, err := client.transport.Do(ctx, besteffort.Request{
			Method: http.MethodPost,
			URL:    client.base + "/",
			Body: createBody{
				Title:       sanitize.TruncateString(title, sanitize.TitleMax),
				Description: request.Description,
				DedupeKey:   sanitize.TruncateString(strings.TrimSpace(request.DedupeKey), sanitize.DedupeKeyMax),
				Status:      status,
				RunUUID:     client.config.RunUUID,
				ProjectUUID: client.config.ProjectUUID,
				TicketUUID:  client.config.TicketUUID,
			},
		})
		return err
	})
}

// Update changes the supplied fields of an improvement.
func (client *Client) Update(ctx context.Context, uuid string, fields UpdateFields) bool {
	return besteffort.Guard(client.logger, "improvements.update", func() error {
		if !client.config.Enabled() {
			return besteffort.Disabled(client.config.Missing)
		}
		target, err := client.recordURL(uuid)
		if err != nil {
			return err
		}
		body := updateBody{
			Description: fields.Description,
			Status:      fields.Status,
			RunUUID:     client.config.RunUUID,
		}
		if fields.Title == nil && fields.Description == nil && fields.Status == nil && fields.DedupeKey == nil {
			return besteffort.Invalid("update requires at least one field")
		}
		if fields.Title != nil {
			title := sanitize.TruncateString(strings.TrimSpace(*fields.Title), sanitize.TitleMax)
			if title == "" {
				return besteffort.Invalid("title cannot be empty")
			}
			body.Title = &title
		}
		if fields.Status != nil && !fields.Status.Valid() {
			return besteffort.Invalid("status %q is not valid", *fields.Status)
		}
		if fields.DedupeKey != nil {
			dedupeKey := sanitize.TruncateString(strings.TrimSpace(*fields.DedupeKey), sanitize.DedupeKeyMax)
			body.DedupeKey = &dedupeKey
		}

		_, err = client.transport.Do(ctx, besteffort.Request{
			Method: http.MethodPatch,
			URL:    target,
			Body:   body,
		})
		return err
	})
}

// Delete removes an improvement.
func (client *Client) Delete(ctx context.Context, uuid string) bool {
	return besteffort.Guard(client.logger, "improvements.delete", func() error {
		if !client.config.Enabled() {
			return besteffort.Disabled(client.config.Missing)
		}
		target, err := client.recordURL(uuid)
		if err != nil {
			return err
		}
		_, err = client.transport.Do(ctx, besteffort.Request{
			Method: http.MethodDelete,
			URL:    target,
			Query:  url.Values{"run_uuid": {client.config.RunUUID}},
		})
		return err
	})
}

// EmitEvent attaches an audit action to an improvement. action is
// required and cut to 64 characters; payload is redacted and bounded
// like a dispatch payload.
func (client *Client) EmitEvent(ctx context.Context, uuid, action string, eventPayload payload.Map, opts ...EventOption) bool {
	return besteffort.Guard(client.logger, "improvements.emit_event", func() error {
		if !client.config.Enabled() {
			return besteffort.Disabled(client.config.Missing)
		}
		target, err := client.recordURL(uuid)
		if err != nil {
			return err
		}
		action = strings.TrimSpace(action)
		if action == "" {
			return besteffort.Invalid("event requires action")
		}
		var o eventOptions
		for _, opt := range opts {
			opt(&o)
		}

		body := eventBody{
			Action:  sanitize.TruncateString(action, sanitize.ActionMax),
			RunUUID: client.config.RunUUID,
		}
		normalized, err := payload.NormalizeMap(eventPayload)
		if err != nil {
			return besteffort.Invalid("payload: %v", err)
		}
		if len(normalized) > 0 {
			if !o.skipRedaction {
				normalized = client.redactor.RedactMap(normalized)
			}
			envelopeSize, err := payload.Size(body)
			if err != nil {
				return &besteffort.Failure{Kind: besteffort.KindEncode, Err: err}
			}
			body.Payload, _ = sanitize.Bound(normalized, client.config.MaxPayloadBytes-envelopeSize-len(`,"payload":`))
		}

		_, err = client.transport.Do(ctx, besteffort.Request{
			Method: http.MethodPost,
			URL:    target + "/events",
			Body:   body,
		})
		return err
	})
}

// recordURL returns base/{uuid} with the uuid path-escaped.
func (client *Client) recordURL(uuid string) (string, error) {
	uuid = strings.TrimSpace(uuid)
	if uuid == "" {
		return "", besteffort.Invalid("improvement uuid is required")
	}
	return client.base + "/" + url.PathEscape(uuid), nil
}
