// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/bureau-foundation/fulcrum/lib/clock"
	"github.com/bureau-foundation/fulcrum/lib/config"
	"github.com/bureau-foundation/fulcrum/lib/payload"
	"github.com/bureau-foundation/fulcrum/lib/sanitize"
	"github.com/bureau-foundation/fulcrum/lib/testutil"
)

var testTime = time.Date(2026, 3, 14, 9, 26, 53, 589_000_000, time.UTC)

// testClient starts a RecordingServer and returns an enabled client
// pointed at it.
func testClient(t *testing.T, options ...Option) (*Client, *testutil.RecordingServer) {
	t.Helper()
	server := testutil.NewRecordingServer(t)
	cfg := config.DispatchConfig{
		URL:             server.URL + "/api/dispatch",
		Token:           "dispatch-token",
		TicketUUID:      "ticket-1",
		RunUUID:         "run-1",
		Timeout:         time.Second,
		MaxPayloadBytes: sanitize.DefaultMaxPayloadBytes,
	}
	options = append([]Option{WithClock(clock.Fake(testTime))}, options...)
	return New(cfg, options...), server
}

// sentEntry decodes the last request body as a generic object so tests
// can assert on key presence.
func sentEntry(t *testing.T, server *testutil.RecordingServer) map[string]any {
	t.Helper()
	var entry map[string]any
	server.Last(t).DecodeBody(t, &entry)
	return entry
}

func TestDisabledClientMakesNoRequests(t *testing.T) {
	t.Parallel()

	server := testutil.NewRecordingServer(t)
	source := config.MapSource{
		config.KeyDispatchURL:   server.URL,
		config.KeyDispatchToken: "token",
		config.KeyRunUUID:       "run-1",
	}
	client := New(config.ResolveDispatch(source))
	if client.Enabled() {
		t.Fatal("expected client without ticket uuid to be disabled")
	}
	if missing := client.Missing(); len(missing) != 1 || missing[0] != config.KeyTicketUUID {
		t.Errorf("unexpected missing keys %v", missing)
	}

	ctx := context.Background()
	rows := 3
	results := map[string]bool{
		"emit":         client.Emit(ctx, Event{Kind: "custom", Summary: "x"}),
		"text":         client.Text(ctx, "Processing complete", ""),
		"api_call":     client.APICall(ctx, "Called API", "claude", "messages.create", nil),
		"external_ref": client.ExternalRef(ctx, "Ref", "browser-use", "task", "task_1", ""),
		"db":           client.DB(ctx, "Inserted", DBInsert, "calls", &rows, ""),
		"model":        client.Model(ctx, "Scored", "classifier", nil, "", ""),
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

func TestTextEnvelope(t *testing.T) {
	t.Parallel()

	client, server := testClient(t)
	if !client.Text(context.Background(), "Processing complete", "") {
		t.Fatal("expected Text to succeed")
	}

	request := server.Last(t)
	if request.Method != http.MethodPost || request.Path != "/api/dispatch" {
		t.Errorf("unexpected request line %s %s", request.Method, request.Path)
	}
	if got := request.Header.Get("Authorization"); got != "Bearer dispatch-token" {
		t.Errorf("unexpected Authorization %q", got)
	}

	entry := sentEntry(t, server)
	expected := map[string]any{
		"ticket_uuid":    "ticket-1",
		"run_uuid":       "run-1",
		"kind":           "text",
		"summary":        "Processing complete",
		"source":         "sdk",
		"schema_version": float64(1),
		"client_ts":      "2026-03-14T09:26:53.589Z",
	}
	for key, want := range expected {
		if entry[key] != want {
			t.Errorf("%s = %v, want %v", key, entry[key], want)
		}
	}
	if _, present := entry["payload"]; present {
		t.Errorf("expected no payload, got %v", entry["payload"])
	}
	if _, present := entry["message_uuid"]; present {
		t.Errorf("expected no message_uuid, got %v", entry["message_uuid"])
	}
}

func TestTextWithOptions(t *testing.T) {
	t.Parallel()

	client, server := testClient(t)
	ok := client.Text(context.Background(), "Step done", "details here",
		WithMessageUUID("message-7"),
		WithSource("  voice-agent-with-a-very-long-source-name  "))
	if !ok {
		t.Fatal("expected Text to succeed")
	}

	entry := sentEntry(t, server)
	if entry["message_uuid"] != "message-7" {
		t.Errorf("message_uuid = %v", entry["message_uuid"])
	}
	if source := entry["source"].(string); source != "voice-agent-with-a-very-long-sou" || utf8.RuneCountInString(source) != 32 {
		t.Errorf("source = %q, want 32-char prefix", source)
	}
	if payload := entry["payload"].(map[string]any); payload["text"] != "details here" {
		t.Errorf("payload = %v", payload)
	}
}

func TestExternalRefWithoutURL(t *testing.T) {
	t.Parallel()

	client, server := testClient(t)
	if !client.ExternalRef(context.Background(), "Browser task created", "browser-use", "task", "task_abc123", "") {
		t.Fatal("expected ExternalRef to succeed")
	}

	var entry struct {
		Kind    string          `json:"kind"`
		Payload json.RawMessage `json:"payload"`
	}
	server.Last(t).DecodeBody(t, &entry)
	if entry.Kind != KindExternalRef {
		t.Errorf("kind = %q", entry.Kind)
	}
	if string(entry.Payload) != `{"provider":"browser-use","ref_id":"task_abc123","ref_type":"task"}` {
		t.Errorf("payload = %s", entry.Payload)
	}
}

func TestExternalRefWithURL(t *testing.T) {
	t.Parallel()

	client, server := testClient(t)
	if !client.ExternalRef(context.Background(), "Call placed", "phonic", "call", "call_1", "https://phonic.test/calls/call_1") {
		t.Fatal("expected ExternalRef to succeed")
	}
	payload := sentEntry(t, server)["payload"].(map[string]any)
	if payload["url"] != "https://phonic.test/calls/call_1" {
		t.Errorf("url = %v", payload["url"])
	}
}

func TestAPICallRedactsSecrets(t *testing.T) {
	t.Parallel()

	client, server := testClient(t)
	ok := client.APICall(context.Background(), "Called Claude", "claude", "messages.create", payload.Map{
		"api_key":   "sk-test-123",
		"service":   "ignored: details never override service",
		"model":     "claude-sonnet",
		"request":   payload.Map{"headers": payload.Map{"Authorization": "Bearer sk-live-456"}},
		"responses": []any{payload.Map{"Access-Token": "at-789", "status": 200}},
	})
	if !ok {
		t.Fatal("expected APICall to succeed")
	}

	body := string(server.Last(t).Body)
	for _, secret := range []string{"sk-test-123", "sk-live-456", "at-789"} {
		if strings.Contains(body, secret) {
			t.Errorf("body contains secret %q: %s", secret, body)
		}
	}

	payload := sentEntry(t, server)["payload"].(map[string]any)
	if payload["api_key"] != sanitize.Marker {
		t.Errorf("api_key = %v, want %s", payload["api_key"], sanitize.Marker)
	}
	if payload["service"] != "claude" || payload["operation"] != "messages.create" {
		t.Errorf("service/operation = %v/%v", payload["service"], payload["operation"])
	}
	if payload["model"] != "claude-sonnet" {
		t.Errorf("model = %v", payload["model"])
	}
}

func TestSkipRedaction(t *testing.T) {
	t.Parallel()

	client, server := testClient(t)
	ok := client.Emit(context.Background(), Event{
		Kind:          "custom",
		Summary:       "caller-vetted payload",
		Payload:       map[string]string{"token": "public-share-token"},
		SkipRedaction: true,
	})
	if !ok {
		t.Fatal("expected Emit to succeed")
	}
	payload := sentEntry(t, server)["payload"].(map[string]any)
	if payload["token"] != "public-share-token" {
		t.Errorf("token = %v, want unredacted", payload["token"])
	}
}

func TestSummaryTruncation(t *testing.T) {
	t.Parallel()

	client, server := testClient(t)
	summary := strings.Repeat("ü", 600)
	if !client.Text(context.Background(), summary, "") {
		t.Fatal("expected Text to succeed")
	}
	sent := sentEntry(t, server)["summary"].(string)
	if utf8.RuneCountInString(sent) != 512 || !strings.HasPrefix(summary, sent) {
		t.Errorf("summary has %d runes, want a 512-rune prefix", utf8.RuneCountInString(sent))
	}

	if !client.Text(context.Background(), sent, "") {
		t.Fatal("expected Text to succeed")
	}
	if again := sentEntry(t, server)["summary"].(string); again != sent {
		t.Error("re-sending a truncated summary changed it")
	}
}

func TestSummaryIsSingleLine(t *testing.T) {
	t.Parallel()

	client, server := testClient(t)
	client.Text(context.Background(), "row one\nrow two\r\n", "")
	if got := sentEntry(t, server)["summary"]; got != "row one row two" {
		t.Errorf("summary = %q", got)
	}
}

func TestKindTruncation(t *testing.T) {
	t.Parallel()

	client, server := testClient(t)
	client.Emit(context.Background(), Event{Kind: "  " + strings.Repeat("k", 80) + "  ", Summary: "x"})
	if kind := sentEntry(t, server)["kind"].(string); kind != strings.Repeat("k", 64) {
		t.Errorf("kind = %q (%d chars)", kind, len(kind))
	}
}

func TestOversizedPayloadIsBounded(t *testing.T) {
	t.Parallel()

	server := testutil.NewRecordingServer(t)
	limit := 2048
	client := New(config.DispatchConfig{
		URL:             server.URL,
		Token:           "t",
		TicketUUID:      "ticket-1",
		RunUUID:         "run-1",
		MaxPayloadBytes: limit,
	})

	rows := make([]any, 200)
	for i := range rows {
		rows[i] = payload.Map{"id": i, "name": "row with some text to make it large", "password": "p"}
	}
	if !client.Model(context.Background(), "Scored batch", "classifier", payload.Map{"rows": rows}, "", "") {
		t.Fatal("expected Model to succeed")
	}

	request := server.Last(t)
	if len(request.Body) > limit {
		t.Errorf("body is %d bytes, limit %d", len(request.Body), limit)
	}
	sent := sentEntry(t, server)["payload"].(map[string]any)
	if sent[sanitize.TruncatedKey] != true {
		t.Fatalf("expected truncation indicator, got %v", sent)
	}
	preview := sent[sanitize.PreviewKey].(string)
	if preview == "" {
		t.Error("expected a non-empty preview")
	}
	if strings.Contains(preview, `"password":"p"`) {
		t.Error("preview leaks a redacted value")
	}
}

func TestEnvelopeOverSmallLimitKeepsMinimalPayload(t *testing.T) {
	t.Parallel()

	server := testutil.NewRecordingServer(t)
	limit := 300
	client := New(config.DispatchConfig{
		URL:             server.URL,
		Token:           "t",
		TicketUUID:      "ticket-1",
		RunUUID:         "run-1",
		MaxPayloadBytes: limit,
	})

	summary := strings.Repeat("é", sanitize.SummaryMax)
	if !client.Text(context.Background(), summary, strings.Repeat("x", 500)) {
		t.Fatal("expected Text to succeed even when the envelope exceeds the limit")
	}

	entry := sentEntry(t, server)
	if got := entry["summary"].(string); utf8.RuneCountInString(got) != sanitize.SummaryMax {
		t.Errorf("summary has %d runes, want %d", utf8.RuneCountInString(got), sanitize.SummaryMax)
	}
	sent := entry["payload"].(map[string]any)
	if sent[sanitize.TruncatedKey] != true {
		t.Fatalf("expected truncation indicator, got %v", sent)
	}
	if preview := sent[sanitize.PreviewKey].(string); preview != "" {
		t.Errorf("preview = %q, want empty when the envelope alone exceeds the limit", preview)
	}
}

func TestValidationFailuresMakeNoRequests(t *testing.T) {
	t.Parallel()

	client, server := testClient(t)
	ctx := context.Background()
	checks := map[string]bool{
		"empty kind":           client.Emit(ctx, Event{Kind: "   ", Summary: "x"}),
		"non-object payload":   client.Emit(ctx, Event{Kind: "custom", Payload: []int{1, 2}}),
		"api_call no service":  client.APICall(ctx, "x", "", "op", nil),
		"api_call no op":       client.APICall(ctx, "x", "svc", " ", nil),
		"external_ref no id":   client.ExternalRef(ctx, "x", "browser-use", "task", "", ""),
		"external_ref no type": client.ExternalRef(ctx, "x", "browser-use", "", "id", ""),
		"db bad operation":     client.DB(ctx, "x", DBOperation("merge"), "calls", nil, ""),
		"db no table":          client.DB(ctx, "x", DBInsert, "", nil, ""),
		"model no name":        client.Model(ctx, "x", "", nil, "", ""),
	}
	for name, ok := range checks {
		if ok {
			t.Errorf("%s: expected false", name)
		}
	}
	if server.Calls() != 0 {
		t.Errorf("invalid input produced %d requests", server.Calls())
	}
}

func TestDBPayload(t *testing.T) {
	t.Parallel()

	client, server := testClient(t)
	rows := 2
	ok := client.DB(context.Background(), "Updated contacts", DBOperation("UPDATE"), "contacts", &rows,
		"UPDATE contacts SET email = 'a@b.com' WHERE id = 7")
	if !ok {
		t.Fatal("expected DB to succeed")
	}
	payload := sentEntry(t, server)["payload"].(map[string]any)
	if payload["operation"] != "update" || payload["table"] != "contacts" || payload["rows"] != float64(2) {
		t.Errorf("payload = %v", payload)
	}
	if payload["query"] != "UPDATE contacts SET email = '[REDACTED]' WHERE id = 7" {
		t.Errorf("query = %v", payload["query"])
	}

	client.DB(context.Background(), "Selected", DBSelect, "contacts", nil, "SELECT 'x'", WithSkipRedaction())
	payload = sentEntry(t, server)["payload"].(map[string]any)
	if payload["query"] != "SELECT 'x'" {
		t.Errorf("query with skipped redaction = %v", payload["query"])
	}
	if _, present := payload["rows"]; present {
		t.Error("rows must be absent when nil")
	}
}

func TestModelPayload(t *testing.T) {
	t.Parallel()

	client, server := testClient(t)
	ok := client.Model(context.Background(), "Classified", "intent-v2",
		payload.Map{"label": "refund", "secret_key": "k"}, "customer email", "refund request")
	if !ok {
		t.Fatal("expected Model to succeed")
	}
	payload := sentEntry(t, server)["payload"].(map[string]any)
	if payload["model_name"] != "intent-v2" || payload["input_summary"] != "customer email" || payload["output_summary"] != "refund request" {
		t.Errorf("payload = %v", payload)
	}
	data := payload["data"].(map[string]any)
	if data["label"] != "refund" || data["secret_key"] != sanitize.Marker {
		t.Errorf("data = %v", data)
	}
}

func TestServerErrorCollapsesToFalse(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	client, server := testClient(t, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	server.Respond(http.StatusBadGateway, `{"error":"upstream"}`)

	if client.Text(context.Background(), "x", "") {
		t.Error("expected false on 502")
	}
	if server.Calls() != 1 {
		t.Errorf("expected one attempt, got %d", server.Calls())
	}
	if !strings.Contains(logs.String(), "status=502") {
		t.Errorf("expected failure in log, got %q", logs.String())
	}
}

func TestTimeoutReturnsFalse(t *testing.T) {
	t.Parallel()

	server := testutil.NewRecordingServer(t)
	server.SetDelay(10 * time.Second)
	timeout := 150 * time.Millisecond
	client := New(config.DispatchConfig{
		URL:        server.URL,
		Token:      "t",
		TicketUUID: "ticket-1",
		RunUUID:    "run-1",
		Timeout:    timeout,
	})

	done := make(chan bool, 1)
	start := time.Now()
	go func() { done <- client.Text(context.Background(), "slow", "") }()

	ok := testutil.RequireReceive(t, done, 5*time.Second, "waiting for emit to time out")
	if ok {
		t.Error("expected false on timeout")
	}
	if elapsed := time.Since(start); elapsed > timeout+2*time.Second {
		t.Errorf("emit took %v with a %v timeout", elapsed, timeout)
	}
}

func TestConcurrentEmits(t *testing.T) {
	t.Parallel()

	client, server := testClient(t)
	var wait sync.WaitGroup
	for i := range 20 {
		wait.Add(1)
		go func() {
			defer wait.Done()
			if !client.Text(context.Background(), testutil.UniqueID("event"), "", WithMessageUUID(strings.Repeat("m", i))) {
				t.Error("concurrent emit failed")
			}
		}()
	}
	wait.Wait()
	if server.Calls() != 20 {
		t.Errorf("expected 20 requests, got %d", server.Calls())
	}
}
