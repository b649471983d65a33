// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func completeDispatch() MapSource {
	return MapSource{
		KeyDispatchURL:   "https://fulcrum.test/api/dispatch",
		KeyDispatchToken: "dispatch-token",
		KeyTicketUUID:    "ticket-1",
		KeyRunUUID:       "run-1",
	}
}

func completeImprovements() MapSource {
	return MapSource{
		KeyImprovementsURL: "https://fulcrum.test/api/improvements",
		KeyRunToken:        "run-token",
		KeyRunUUID:         "run-1",
	}
}

func TestResolveDispatch(t *testing.T) {
	t.Parallel()

	cfg := ResolveDispatch(completeDispatch())
	if !cfg.Enabled() {
		t.Fatalf("expected enabled, missing=%v", cfg.Missing)
	}
	if cfg.URL != "https://fulcrum.test/api/dispatch" || cfg.Token != "dispatch-token" {
		t.Errorf("unexpected endpoint: %+v", cfg)
	}
	if cfg.TicketUUID != "ticket-1" || cfg.RunUUID != "run-1" {
		t.Errorf("unexpected correlation ids: %+v", cfg)
	}
	if cfg.Timeout != DefaultTimeout {
		t.Errorf("expected timeout=%v, got %v", DefaultTimeout, cfg.Timeout)
	}
	if cfg.MaxPayloadBytes != 65536 {
		t.Errorf("expected max payload 65536, got %d", cfg.MaxPayloadBytes)
	}
	if cfg.Debug {
		t.Error("expected debug=false by default")
	}
}

func TestResolveDispatch_MissingDisables(t *testing.T) {
	t.Parallel()

	for _, key := range []string{KeyDispatchURL, KeyDispatchToken, KeyTicketUUID, KeyRunUUID} {
		t.Run(key, func(t *testing.T) {
			t.Parallel()

			source := completeDispatch()
			delete(source, key)
			cfg := ResolveDispatch(source)
			if cfg.Enabled() {
				t.Fatal("expected disabled config")
			}
			if !slices.Equal(cfg.Missing, []string{key}) {
				t.Errorf("expected missing=[%s], got %v", key, cfg.Missing)
			}
		})
	}

	t.Run("whitespace counts as missing", func(t *testing.T) {
		t.Parallel()

		source := completeDispatch()
		source[KeyRunUUID] = "   "
		if ResolveDispatch(source).Enabled() {
			t.Error("expected whitespace-only run uuid to disable the client")
		}
	})

	t.Run("nil source", func(t *testing.T) {
		t.Parallel()

		cfg := ResolveDispatch(nil)
		if cfg.Enabled() || len(cfg.Missing) != 4 {
			t.Errorf("expected four missing keys, got %v", cfg.Missing)
		}
	})
}

func TestResolveImprovements_TokenPreference(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		run        string
		dispatch   string
		wantToken  string
		wantSource string
	}{
		{"run token only", "run-token", "", "run-token", KeyRunToken},
		{"dispatch token fallback", "", "legacy-token", "legacy-token", KeyDispatchToken},
		{"run token wins", "run-token", "legacy-token", "run-token", KeyRunToken},
		{"neither", "", "", "", ""},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			source := completeImprovements()
			delete(source, KeyRunToken)
			if test.run != "" {
				source[KeyRunToken] = test.run
			}
			if test.dispatch != "" {
				source[KeyDispatchToken] = test.dispatch
			}

			cfg := ResolveImprovements(source)
			if cfg.Token != test.wantToken || cfg.TokenSource != test.wantSource {
				t.Errorf("token=%q source=%q, want %q from %q", cfg.Token, cfg.TokenSource, test.wantToken, test.wantSource)
			}
			if cfg.Enabled() != (test.wantToken != "") {
				t.Errorf("enabled=%v with token %q", cfg.Enabled(), cfg.Token)
			}
			if cfg.TokenDeprecated() != (test.wantSource == KeyDispatchToken) {
				t.Errorf("TokenDeprecated()=%v for source %q", cfg.TokenDeprecated(), cfg.TokenSource)
			}
		})
	}
}

func TestResolveImprovements_OptionalIDs(t *testing.T) {
	t.Parallel()

	cfg := ResolveImprovements(completeImprovements())
	if !cfg.Enabled() {
		t.Fatalf("expected enabled without ticket/project ids, missing=%v", cfg.Missing)
	}

	source := completeImprovements()
	source[KeyProjectUUID] = "project-1"
	source[KeyTicketUUID] = "ticket-1"
	cfg = ResolveImprovements(source)
	if cfg.ProjectUUID != "project-1" || cfg.TicketUUID != "ticket-1" {
		t.Errorf("unexpected ids: %+v", cfg)
	}

	source = completeImprovements()
	delete(source, KeyImprovementsURL)
	delete(source, KeyRunUUID)
	cfg = ResolveImprovements(source)
	if !slices.Equal(cfg.Missing, []string{KeyImprovementsURL, KeyRunUUID}) {
		t.Errorf("unexpected missing list: %v", cfg.Missing)
	}
}

func TestResolve_Overrides(t *testing.T) {
	t.Parallel()

	tests := []struct {
		timeout     string
		maxBytes    string
		debug       string
		wantTimeout time.Duration
		wantBytes   int
		wantDebug   bool
	}{
		{"250", "1024", "1", 250 * time.Millisecond, 1024, true},
		{"0", "-5", "true", DefaultTimeout, 65536, true},
		{"soon", "big", "YES", DefaultTimeout, 65536, true},
		{"", "", "on", DefaultTimeout, 65536, true},
		{"", "", "0", DefaultTimeout, 65536, false},
		{"", "", "false", DefaultTimeout, 65536, false},
		{"", "", "debug", DefaultTimeout, 65536, false},
	}
	for _, test := range tests {
		source := completeDispatch()
		source[KeyTimeoutMS] = test.timeout
		source[KeyMaxPayloadBytes] = test.maxBytes
		source[KeyDebug] = test.debug

		cfg := ResolveDispatch(source)
		if cfg.Timeout != test.wantTimeout {
			t.Errorf("timeout %q: got %v, want %v", test.timeout, cfg.Timeout, test.wantTimeout)
		}
		if cfg.MaxPayloadBytes != test.wantBytes {
			t.Errorf("max bytes %q: got %d, want %d", test.maxBytes, cfg.MaxPayloadBytes, test.wantBytes)
		}
		if cfg.Debug != test.wantDebug {
			t.Errorf("debug %q: got %v, want %v", test.debug, cfg.Debug, test.wantDebug)
		}
	}
}

func TestLayered(t *testing.T) {
	t.Parallel()

	first := MapSource{KeyRunUUID: "", KeyTicketUUID: "from-first"}
	second := MapSource{KeyRunUUID: "from-second", KeyTicketUUID: "shadowed"}
	source := Layered(nil, first, second)

	if value, _ := source.Lookup(KeyTicketUUID); value != "from-first" {
		t.Errorf("expected first layer to win, got %q", value)
	}
	if value, _ := source.Lookup(KeyRunUUID); value != "from-second" {
		t.Errorf("expected empty value to fall through, got %q", value)
	}
	if _, ok := source.Lookup(KeyProjectUUID); ok {
		t.Error("expected unknown key to be unset")
	}
}

func TestReadEnvFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".env")
	content := "# scaffolded project settings\n" +
		"FULCRUM_DISPATCH_URL=https://fulcrum.test/api/dispatch\n" +
		"FULCRUM_DISPATCH_TOKEN=\"quoted-token\"\n" +
		"FULCRUM_TICKET_UUID=ticket-1\n" +
		"FULCRUM_RUN_UUID=run-1\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}

	source, err := ReadEnvFile(path)
	if err != nil {
		t.Fatalf("ReadEnvFile failed: %v", err)
	}
	cfg := ResolveDispatch(source)
	if !cfg.Enabled() {
		t.Fatalf("expected enabled, missing=%v", cfg.Missing)
	}
	if cfg.Token != "quoted-token" {
		t.Errorf("expected unquoted token, got %q", cfg.Token)
	}

	if _, err := ReadEnvFile(filepath.Join(t.TempDir(), "absent.env")); err == nil {
		t.Error("expected error for a missing env file")
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv("FULCRUM_TEST_SECRET", "expanded-token")

	path := filepath.Join(t.TempDir(), "fulcrum.yaml")
	content := `
dispatch:
  url: https://fulcrum.test/api/dispatch
  token: ${FULCRUM_TEST_SECRET}
improvements:
  url: ${FULCRUM_TEST_UNSET:-https://fulcrum.test/api/improvements}
ticket_uuid: ticket-1
run_uuid: run-1
debug: true
timeout_ms: 900
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	source, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	dispatch := ResolveDispatch(source)
	if !dispatch.Enabled() {
		t.Fatalf("expected enabled, missing=%v", dispatch.Missing)
	}
	if dispatch.Token != "expanded-token" {
		t.Errorf("expected expanded token, got %q", dispatch.Token)
	}
	if !dispatch.Debug || dispatch.Timeout != 900*time.Millisecond {
		t.Errorf("unexpected debug/timeout: %v %v", dispatch.Debug, dispatch.Timeout)
	}

	improvements := ResolveImprovements(source)
	if improvements.URL != "https://fulcrum.test/api/improvements" {
		t.Errorf("expected default expansion, got %q", improvements.URL)
	}
	if improvements.TokenSource != KeyDispatchToken {
		t.Errorf("expected dispatch token fallback, got %q", improvements.TokenSource)
	}
	if _, ok := source[KeyRunToken]; ok {
		t.Error("empty fields must not appear in the source")
	}
}

func TestLoadFile_Errors(t *testing.T) {
	t.Parallel()

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for a missing file")
	}

	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("dispatch: [unclosed"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("expected parse error")
	}
}
