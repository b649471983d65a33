// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package improvements

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/fulcrum/lib/config"
	"github.com/bureau-foundation/fulcrum/lib/payload"
	"github.com/bureau-foundation/fulcrum/lib/sanitize"
	"github.com/bureau-foundation/fulcrum/lib/testutil"
)

func testConfig(url string) config.ImprovementsConfig {
	return config.ImprovementsConfig{
		URL:         url,
		Token:       "run-token",
		TokenSource: config.KeyRunToken,
		ProjectUUID: "project-1",
		TicketUUID:  "ticket-1",
		RunUUID:     "run-1",
		Timeout:     time.Second,
	}
}

func testClient(t *testing.T, options ...Option) (*Client, *testutil.RecordingServer) {
	t.Helper()
	server := testutil.NewRecordingServer(t)
	return New(testConfig(server.URL+"/api/improvements/"), options...), server
}

func ptr[T any](v T) *T { return &v }

func TestDisabledClientMakesNoRequests(t *testing.T) {
	t.Parallel()

	server := testutil.NewRecordingServer(t)
	client := New(config.ResolveImprovements(config.MapSource{
		config.KeyImprovementsURL: server.URL,
		config.KeyRunUUID:         "run-1",
	}))
	if client.Enabled() {
		t.Fatal("expected client without a token to be disabled")
	}

	ctx := context.Background()
	if items := client.List(ctx, ""); items == nil || len(items) != 0 {
		t.Errorf("List = %#v, want empty non-nil slice", items)
	}
	results := map[string]bool{
		"create": client.Create(ctx, CreateRequest{Title: "t"}),
		"update": client.Update(ctx, "uuid-1", UpdateFields{Status: ptr(StatusResolved)}),
		"delete": client.Delete(ctx, "uuid-1"),
		"event":  client.EmitEvent(ctx, "uuid-1", "validated", nil),
	}
	for name, ok := range results {
		if ok {
			t.Errorf("%s on a disabled client returned true", name)
		}
	}
	if server.Calls() != 0 {
		t.Errorf("disabled client made %d requests", server.Calls())
	}
}

func TestList(t *testing.T) {
	t.Parallel()

	client, server := testClient(t)
	server.Respond(http.StatusOK, `[{"uuid":"u1","title":"First","status":"open","dedupe_key":"k1"}]`)

	items := client.List(context.Background(), "")
	if len(items) != 1 || items[0].UUID != "u1" || items[0].Status != StatusOpen || items[0].DedupeKey != "k1" {
		t.Errorf("unexpected items %+v", items)
	}
	request := server.Last(t)
	if request.Method != http.MethodGet || request.Path != "/api/improvements" {
		t.Errorf("unexpected request line %s %s", request.Method, request.Path)
	}
	if request.Query.Get("run_uuid") != "run-1" || request.Query.Get("project_uuid") != "project-1" {
		t.Errorf("unexpected query %v", request.Query)
	}

	server.Respond(http.StatusOK, `{"improvements":[{"uuid":"u2","title":"Second","status":"resolved"}]}`)
	items = client.List(context.Background(), "project-override")
	if len(items) != 1 || items[0].UUID != "u2" {
		t.Errorf("unexpected wrapped items %+v", items)
	}
	if got := server.Last(t).Query.Get("project_uuid"); got != "project-override" {
		t.Errorf("project_uuid = %q, want override", got)
	}
}

func TestListOmitsEmptyProject(t *testing.T) {
	t.Parallel()

	server := testutil.NewRecordingServer(t)
	cfg := testConfig(server.URL)
	cfg.ProjectUUID = ""
	client := New(cfg)
	server.Respond(http.StatusOK, `[]`)

	if items := client.List(context.Background(), ""); items == nil || len(items) != 0 {
		t.Errorf("List = %#v", items)
	}
	if _, present := server.Last(t).Query["project_uuid"]; present {
		t.Error("project_uuid must be omitted when unset")
	}
}

func TestListFailuresReturnEmpty(t *testing.T) {
	t.Parallel()

	for name, respond := range map[string]func(*testutil.RecordingServer){
		"server error": func(s *testutil.RecordingServer) { s.Respond(http.StatusInternalServerError, `{}`) },
		"not json":     func(s *testutil.RecordingServer) { s.Respond(http.StatusOK, `<html>`) },
		"empty body":   func(s *testutil.RecordingServer) { s.Respond(http.StatusOK, ``) },
		"wrong shape":  func(s *testutil.RecordingServer) { s.Respond(http.StatusOK, `{"improvements":"nope"}`) },
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			client, server := testClient(t)
			respond(server)
			if items := client.List(context.Background(), ""); items == nil || len(items) != 0 {
				t.Errorf("List = %#v, want empty non-nil slice", items)
			}
		})
	}
}

func TestCreate(t *testing.T) {
	t.Parallel()

	client, server := testClient(t)
	server.Respond(http.StatusCreated, `{"uuid":"u1"}`)

	ok := client.Create(context.Background(), CreateRequest{
		Title:       "  " + strings.Repeat("t", 300) + "  ",
		Description: "Created by improvements validation",
		DedupeKey:   "validation-test-001",
	})
	if !ok {
		t.Fatal("expected Create to succeed")
	}

	request := server.Last(t)
	if request.Method != http.MethodPost || request.Path != "/api/improvements/" {
		t.Errorf("unexpected request line %s %s", request.Method, request.Path)
	}
	if got := request.Header.Get("Authorization"); got != "Bearer run-token" {
		t.Errorf("Authorization = %q", got)
	}
	var body map[string]any
	request.DecodeBody(t, &body)
	if title := body["title"].(string); title != strings.Repeat("t", 256) {
		t.Errorf("title has %d chars, want 256", len(title))
	}
	expected := map[string]any{
		"status":       "open",
		"dedupe_key":   "validation-test-001",
		"run_uuid":     "run-1",
		"project_uuid": "project-1",
		"ticket_uuid":  "ticket-1",
		"description":  "Created by improvements validation",
	}
	for key, want := range expected {
		if body[key] != want {
			t.Errorf("%s = %v, want %v", key, body[key], want)
		}
	}
}

func TestCreateValidation(t *testing.T) {
	t.Parallel()

	client, server := testClient(t)
	ctx := context.Background()
	if client.Create(ctx, CreateRequest{Title: "   "}) {
		t.Error("expected empty title to fail")
	}
	if client.Create(ctx, CreateRequest{Title: "t", Status: Status("closed")}) {
		t.Error("expected invalid status to fail")
	}
	if server.Calls() != 0 {
		t.Errorf("invalid creates made %d requests", server.Calls())
	}
}

func TestCreateServerErrorLogged(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	client, server := testClient(t, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	server.Respond(http.StatusInternalServerError, `{"error":"boom"}`)

	if client.Create(context.Background(), CreateRequest{Title: "t"}) {
		t.Error("expected false on 500")
	}
	if server.Calls() != 1 {
		t.Errorf("expected one attempt, got %d", server.Calls())
	}
	output := logs.String()
	if !strings.Contains(output, "operation=improvements.create") || !strings.Contains(output, "status=500") {
		t.Errorf("expected failure in debug log, got %q", output)
	}
}

func TestUpdateSendsOnlySuppliedFields(t *testing.T) {
	t.Parallel()

	client, server := testClient(t)
	if !client.Update(context.Background(), "uuid/with space", UpdateFields{Status: ptr(StatusResolved)}) {
		t.Fatal("expected Update to succeed")
	}

	request := server.Last(t)
	if request.Method != http.MethodPatch {
		t.Errorf("method = %s", request.Method)
	}
	if request.Path != "/api/improvements/uuid/with space" {
		t.Errorf("path = %q", request.Path)
	}
	if string(request.Body) != `{"status":"resolved","run_uuid":"run-1"}` {
		t.Errorf("body = %s", request.Body)
	}
}

func TestUpdateValidation(t *testing.T) {
	t.Parallel()

	client, server := testClient(t)
	ctx := context.Background()
	checks := map[string]bool{
		"empty uuid":     client.Update(ctx, " ", UpdateFields{Status: ptr(StatusOpen)}),
		"no fields":      client.Update(ctx, "u1", UpdateFields{}),
		"invalid status": client.Update(ctx, "u1", UpdateFields{Status: ptr(Status("done"))}),
		"empty title":    client.Update(ctx, "u1", UpdateFields{Title: ptr("  ")}),
	}
	for name, ok := range checks {
		if ok {
			t.Errorf("%s: expected false", name)
		}
	}
	if server.Calls() != 0 {
		t.Errorf("invalid updates made %d requests", server.Calls())
	}
}

func TestDelete(t *testing.T) {
	t.Parallel()

	client, server := testClient(t)
	server.Respond(http.StatusNoContent, "")
	if !client.Delete(context.Background(), "u1") {
		t.Fatal("expected Delete to succeed")
	}
	request := server.Last(t)
	if request.Method != http.MethodDelete || request.Path != "/api/improvements/u1" {
		t.Errorf("unexpected request line %s %s", request.Method, request.Path)
	}
	if request.Query.Get("run_uuid") != "run-1" {
		t.Errorf("query = %v", request.Query)
	}
	if client.Delete(context.Background(), "") {
		t.Error("expected empty uuid to fail")
	}
	if server.Calls() != 1 {
		t.Errorf("expected 1 request, got %d", server.Calls())
	}
}

func TestEmitEvent(t *testing.T) {
	t.Parallel()

	client, server := testClient(t)
	server.Respond(http.StatusCreated, `{}`)
	ok := client.EmitEvent(context.Background(), "u1", strings.Repeat("a", 70), payload.Map{
		"test_mode":   true,
		"credentials": payload.Map{"user": "x", "pass": "y"},
	})
	if !ok {
		t.Fatal("expected EmitEvent to succeed")
	}

	request := server.Last(t)
	if request.Method != http.MethodPost || request.Path != "/api/improvements/u1/events" {
		t.Errorf("unexpected request line %s %s", request.Method, request.Path)
	}
	var body map[string]any
	request.DecodeBody(t, &body)
	if action := body["action"].(string); len(action) != 64 {
		t.Errorf("action has %d chars, want 64", len(action))
	}
	if body["run_uuid"] != "run-1" {
		t.Errorf("run_uuid = %v", body["run_uuid"])
	}
	sent := body["payload"].(map[string]any)
	if sent["test_mode"] != true || sent["credentials"] != sanitize.Marker {
		t.Errorf("payload = %v", sent)
	}

	if client.EmitEvent(context.Background(), "u1", " ", nil) {
		t.Error("expected empty action to fail")
	}
	if server.Calls() != 1 {
		t.Errorf("expected 1 request, got %d", server.Calls())
	}
}

func TestEmitEventBoundsPayload(t *testing.T) {
	t.Parallel()

	server := testutil.NewRecordingServer(t)
	cfg := testConfig(server.URL)
	cfg.MaxPayloadBytes = 1024
	client := New(cfg)

	if !client.EmitEvent(context.Background(), "u1", "bulk", payload.Map{"log": strings.Repeat("line\n", 1000)}) {
		t.Fatal("expected EmitEvent to succeed")
	}
	request := server.Last(t)
	if len(request.Body) > 1024 {
		t.Errorf("body is %d bytes, limit 1024", len(request.Body))
	}
	var body map[string]any
	request.DecodeBody(t, &body)
	if body["payload"].(map[string]any)[sanitize.TruncatedKey] != true {
		t.Errorf("expected truncation indicator, got %v", body["payload"])
	}
}
