// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/bureau-foundation/fulcrum/lib/besteffort"
	"github.com/bureau-foundation/fulcrum/lib/clock"
	"github.com/bureau-foundation/fulcrum/lib/config"
	"github.com/bureau-foundation/fulcrum/lib/payload"
	"github.com/bureau-foundation/fulcrum/lib/sanitize"
)

// Client emits dispatch events. It is immutable after New and safe for
// concurrent use.
type Client struct {
	config    config.DispatchConfig
	transport *besteffort.Transport
	logger    *slog.Logger
	clock     clock.Clock
	redactor  *sanitize.Redactor
}

// Option configures a Client.
type Option func(*options)

type options struct {
	httpClient *http.Client
	logger     *slog.Logger
	clock      clock.Clock
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

// WithClock sets the clock used for client_ts.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// New creates a Client. A configuration with missing keys yields a
// disabled client whose emit methods all return false without network
// I/O.
func New(cfg config.DispatchConfig, opts ...Option) *Client {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.clock == nil {
		o.clock = clock.Real()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = config.DefaultTimeout
	}
	if cfg.MaxPayloadBytes <= 0 {
		cfg.MaxPayloadBytes = sanitize.DefaultMaxPayloadBytes
	}

	client := &Client{
		config: cfg,
		transport: besteffort.NewTransport(besteffort.TransportConfig{
			HTTPClient: o.httpClient,
			Token:      cfg.Token,
			Timeout:    cfg.Timeout,
		}),
		logger:   besteffort.ResolveLogger(o.logger, cfg.Debug),
		clock:    o.clock,
		redactor: sanitize.NewRedactor(sanitize.DispatchKeys),
	}
	if !cfg.Enabled() {
		client.logger.Info("dispatch client disabled", "missing", cfg.Missing)
	}
	return client
}

// Enabled reports whether the client will send events.
func (client *Client) Enabled() bool {
	return client.config.Enabled()
}

// Missing returns the configuration keys whose absence disabled the
// client.
func (client *Client) Missing() []string {
	return slices.Clone(client.config.Missing)
}

// Emit sends one event and reports whether the server accepted it.
func (client *Client) Emit(ctx context.Context, event Event) bool {
	return besteffort.Guard(client.logger, "dispatch.emit", func() error {
		return client.send(ctx, event)
	})
}

// send validates and normalizes event, then POSTs it.
func (client *Client) send(ctx context.Context, event Event) error {
	if !client.config.Enabled() {
		return besteffort.Disabled(client.config.Missing)
	}
	entry, err := client.entry(event)
	if err != nil {
		return err
	}
	_, err = client.transport.Do(ctx, besteffort.Request{
		Method: http.MethodPost,
		URL:    client.config.URL,
		Body:   entry,
	})
	return err
}

// entry builds the wire envelope for event with every length and size
// limit applied.
func (client *Client) entry(event Event) (*Entry, error) {
	kind := strings.TrimSpace(event.Kind)
	if kind == "" {
		return nil, besteffort.Invalid("kind is required")
	}
	source := strings.TrimSpace(event.Source)
	if source == "" {
		source = DefaultSource
	}

	entry := &Entry{
		TicketUUID:    client.config.TicketUUID,
		RunUUID:       client.config.RunUUID,
		Kind:          sanitize.TruncateString(kind, sanitize.KindMax),
		Summary:       sanitize.Summary(event.Summary),
		MessageUUID:   strings.TrimSpace(event.MessageUUID),
		Source:        sanitize.TruncateString(source, sanitize.SourceMax),
		SchemaVersion: SchemaVersion,
		ClientTS:      client.clock.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
	}

	body, err := payload.NormalizeMap(event.Payload)
	if err != nil {
		return nil, besteffort.Invalid("payload: %v", err)
	}
	if len(body) == 0 {
		return entry, nil
	}
	if !event.SkipRedaction {
		body = client.redactor.RedactMap(body)
	}

	envelopeSize, err := payload.Size(entry)
	if err != nil {
		return nil, &besteffort.Failure{Kind: besteffort.KindEncode, Err: err}
	}
	budget := client.config.MaxPayloadBytes - envelopeSize - len(`,"payload":`)
	entry.Payload, _ = sanitize.Bound(body, budget)
	return entry, nil
}
