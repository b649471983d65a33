// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/bureau-foundation/fulcrum/lib/sanitize"
)

// Recognized configuration keys.
const (
	KeyDispatchURL     = "FULCRUM_DISPATCH_URL"
	KeyDispatchToken   = "FULCRUM_DISPATCH_TOKEN"
	KeyImprovementsURL = "FULCRUM_IMPROVEMENTS_URL"
	KeyRunToken        = "FULCRUM_RUN_TOKEN"
	KeyTicketUUID      = "FULCRUM_TICKET_UUID"
	KeyRunUUID         = "FULCRUM_RUN_UUID"
	KeyProjectUUID     = "FULCRUM_PROJECT_UUID"
	KeyDebug           = "FULCRUM_DEBUG"
	KeyTimeoutMS       = "FULCRUM_TIMEOUT_MS"
	KeyMaxPayloadBytes = "FULCRUM_MAX_PAYLOAD_BYTES"
)

// DefaultTimeout bounds every request when FULCRUM_TIMEOUT_MS is unset
// or invalid.
const DefaultTimeout = 1500 * time.Millisecond

// ImprovementsTokenKeys is the ordered list of keys consulted for the
// improvements token. The first key with a non-empty value wins.
var ImprovementsTokenKeys = []string{KeyRunToken, KeyDispatchToken}

// DispatchConfig is the resolved configuration of a dispatch client.
type DispatchConfig struct {
	URL             string
	Token           string
	TicketUUID      string
	RunUUID         string
	Debug           bool
	Timeout         time.Duration
	MaxPayloadBytes int

	// Missing lists the required keys that were absent, in resolution
	// order. A non-empty Missing disables the client.
	Missing []string
}

// Enabled reports whether every required key was present.
func (c DispatchConfig) Enabled() bool {
	return len(c.Missing) == 0
}

// ImprovementsConfig is the resolved configuration of an improvements
// client.
type ImprovementsConfig struct {
	URL string

	Token string
	// TokenSource names the key that supplied Token, or "" when no
	// candidate was set.
	TokenSource string

	ProjectUUID     string
	TicketUUID      string
	RunUUID         string
	Debug           bool
	Timeout         time.Duration
	MaxPayloadBytes int

	Missing []string
}

// Enabled reports whether every required key was present.
func (c ImprovementsConfig) Enabled() bool {
	return len(c.Missing) == 0
}

// TokenDeprecated reports whether the token came from the deprecated
// FULCRUM_DISPATCH_TOKEN fallback.
func (c ImprovementsConfig) TokenDeprecated() bool {
	return c.TokenSource == KeyDispatchToken
}

// ResolveDispatch reads the dispatch configuration from source. It
// requires the dispatch URL, the dispatch token, the ticket UUID and the
// run UUID.
func ResolveDispatch(source Source) DispatchConfig {
	r := resolver{source: source}
	return DispatchConfig{
		URL:             r.required(KeyDispatchURL),
		Token:           r.required(KeyDispatchToken),
		TicketUUID:      r.required(KeyTicketUUID),
		RunUUID:         r.required(KeyRunUUID),
		Debug:           r.flag(KeyDebug),
		Timeout:         r.timeout(),
		MaxPayloadBytes: r.positive(KeyMaxPayloadBytes, sanitize.DefaultMaxPayloadBytes),
		Missing:         r.missing,
	}
}

// ResolveImprovements reads the improvements configuration from source.
// It requires the improvements URL, a token from [ImprovementsTokenKeys]
// and the run UUID. Ticket and project UUIDs are optional.
func ResolveImprovements(source Source) ImprovementsConfig {
	r := resolver{source: source}
	cfg := ImprovementsConfig{URL: r.required(KeyImprovementsURL)}
	cfg.Token, cfg.TokenSource = r.firstOf(ImprovementsTokenKeys)
	if cfg.Token == "" {
		r.missing = append(r.missing, strings.Join(ImprovementsTokenKeys, "|"))
	}
	cfg.RunUUID = r.required(KeyRunUUID)
	cfg.ProjectUUID = r.optional(KeyProjectUUID)
	cfg.TicketUUID = r.optional(KeyTicketUUID)
	cfg.Debug = r.flag(KeyDebug)
	cfg.Timeout = r.timeout()
	cfg.MaxPayloadBytes = r.positive(KeyMaxPayloadBytes, sanitize.DefaultMaxPayloadBytes)
	cfg.Missing = r.missing
	return cfg
}

// resolver accumulates missing keys while reading a Source.
type resolver struct {
	source  Source
	missing []string
}

func (r *resolver) optional(key string) string {
	if r.source == nil {
		return ""
	}
	value, ok := r.source.Lookup(key)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}

func (r *resolver) required(key string) string {
	value := r.optional(key)
	if value == "" {
		r.missing = append(r.missing, key)
	}
	return value
}

func (r *resolver) firstOf(keys []string) (string, string) {
	for _, key := range keys {
		if value := r.optional(key); value != "" {
			return value, key
		}
	}
	return "", ""
}

func (r *resolver) flag(key string) bool {
	switch strings.ToLower(r.optional(key)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func (r *resolver) positive(key string, fallback int) int {
	value, err := strconv.Atoi(r.optional(key))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func (r *resolver) timeout() time.Duration {
	return time.Duration(r.positive(KeyTimeoutMS, int(DefaultTimeout/time.Millisecond))) * time.Millisecond
}
