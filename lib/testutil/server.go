// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"
)

// RecordedRequest is one request captured by a RecordingServer.
type RecordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// DecodeBody unmarshals the request body into v, failing the test on
// error.
func (request RecordedRequest) DecodeBody(t testing.TB, v any) {
	t.Helper()
	if err := json.Unmarshal(request.Body, v); err != nil {
		t.Fatalf("decoding %s %s body %q: %v", request.Method, request.Path, request.Body, err)
	}
}

// Responder computes the status and body for a recorded request.
type Responder func(request RecordedRequest) (status int, body string)

// RecordingServer is an httptest.Server that records every request and
// answers with a configurable response. The default response is 200
// with body "{}".
type RecordingServer struct {
	*httptest.Server

	mutex     sync.Mutex
	requests  []RecordedRequest
	responder Responder
	delay     time.Duration
	closing   chan struct{}
}

// NewRecordingServer starts a RecordingServer that is closed when the
// test completes.
func NewRecordingServer(t testing.TB) *RecordingServer {
	t.Helper()
	server := &RecordingServer{
		responder: func(RecordedRequest) (int, string) { return http.StatusOK, "{}" },
		closing:   make(chan struct{}),
	}
	server.Server = httptest.NewServer(http.HandlerFunc(server.serve))
	t.Cleanup(func() {
		close(server.closing)
		server.Server.Close()
	})
	return server
}

// Respond makes every subsequent request answer with status and body.
func (server *RecordingServer) Respond(status int, body string) {
	server.RespondWith(func(RecordedRequest) (int, string) { return status, body })
}

// RespondWith installs a responder for subsequent requests.
func (server *RecordingServer) RespondWith(responder Responder) {
	server.mutex.Lock()
	defer server.mutex.Unlock()
	server.responder = responder
}

// SetDelay makes the server wait d before answering. The wait ends early
// when the client goes away or the server is closed.
func (server *RecordingServer) SetDelay(d time.Duration) {
	server.mutex.Lock()
	defer server.mutex.Unlock()
	server.delay = d
}

// Requests returns a copy of every request recorded so far.
func (server *RecordingServer) Requests() []RecordedRequest {
	server.mutex.Lock()
	defer server.mutex.Unlock()
	return append([]RecordedRequest(nil), server.requests...)
}

// Calls returns the number of requests received.
func (server *RecordingServer) Calls() int {
	server.mutex.Lock()
	defer server.mutex.Unlock()
	return len(server.requests)
}

// Last returns the most recent request, failing the test when there is
// none.
func (server *RecordingServer) Last(t testing.TB) RecordedRequest {
	t.Helper()
	requests := server.Requests()
	if len(requests) == 0 {
		t.Fatalf("no requests recorded")
	}
	return requests[len(requests)-1]
}

func (server *RecordingServer) serve(writer http.ResponseWriter, request *http.Request) {
	body, _ := io.ReadAll(request.Body)
	recorded := RecordedRequest{
		Method: request.Method,
		Path:   request.URL.Path,
		Query:  request.URL.Query(),
		Header: request.Header.Clone(),
		Body:   body,
	}

	server.mutex.Lock()
	server.requests = append(server.requests, recorded)
	responder := server.responder
	delay := server.delay
	server.mutex.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay) //nolint:realclock simulated server latency
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-request.Context().Done():
			return
		case <-server.closing:
			return
		}
	}

	status, responseBody := responder(recorded)
	if responseBody != "" {
		writer.Header().Set("Content-Type", "application/json")
	}
	writer.WriteHeader(status)
	_, _ = io.WriteString(writer, responseBody)
}
