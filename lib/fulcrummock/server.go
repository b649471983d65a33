// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fulcrummock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/fulcrum/lib/clock"
	"github.com/bureau-foundation/fulcrum/lib/sanitize"
	"github.com/bureau-foundation/fulcrum/lib/sqlitepool"
)

// Config configures a mock server.
type Config struct {
	// Path is the SQLite database file. Required.
	Path string

	// DispatchToken authenticates /dispatch and, as the deprecated
	// fallback, /improvements. Empty accepts any token on /dispatch.
	DispatchToken string

	// RunTokens authenticate /improvements. When both RunTokens and
	// DispatchToken are empty any token is accepted there.
	RunTokens []string

	// MaxBodyBytes rejects larger request bodies with 413. Defaults to
	// the client payload limit.
	MaxBodyBytes int64

	Clock  clock.Clock
	Logger *slog.Logger
}

// Server is a mock Fulcrum server. It is safe for concurrent use.
type Server struct {
	config Config
	store  *store
	pool   *sqlitepool.Pool
	clock  clock.Clock
	logger *slog.Logger

	requests atomic.Int64

	faultMutex    sync.Mutex
	failStatus    int
	failRemaining int
	delay         time.Duration
}

// Open creates a Server backed by the database at cfg.Path.
func Open(cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = sanitize.DefaultMaxPayloadBytes
	}
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:   cfg.Path,
		Schema: schema,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("fulcrummock: %w", err)
	}
	return &Server{
		config: cfg,
		store:  &store{pool: pool},
		pool:   pool,
		clock:  cfg.Clock,
		logger: logger,
	}, nil
}

// Close releases the database.
func (s *Server) Close() error {
	return s.pool.Close()
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /dispatch", s.handleDispatch)
	mux.HandleFunc("GET /improvements", s.handleList)
	mux.HandleFunc("GET /improvements/{$}", s.handleList)
	mux.HandleFunc("POST /improvements", s.handleCreate)
	mux.HandleFunc("POST /improvements/{$}", s.handleCreate)
	mux.HandleFunc("PATCH /improvements/{uuid}", s.handleUpdate)
	mux.HandleFunc("DELETE /improvements/{uuid}", s.handleDelete)
	mux.HandleFunc("POST /improvements/{uuid}/events", s.handleEvent)
	return s.middleware(mux)
}

// FailNext makes the next n requests answer status without touching
// the store.
func (s *Server) FailNext(status, n int) {
	s.faultMutex.Lock()
	defer s.faultMutex.Unlock()
	s.failStatus = status
	s.failRemaining = n
}

// SetDelay delays every response by d. Zero removes the delay.
func (s *Server) SetDelay(d time.Duration) {
	s.faultMutex.Lock()
	defer s.faultMutex.Unlock()
	s.delay = d
}

// Requests returns the number of requests received, including failed
// and rejected ones.
func (s *Server) Requests() int64 {
	return s.requests.Load()
}

// Dispatches returns every stored dispatch in arrival order.
func (s *Server) Dispatches(ctx context.Context) ([]Dispatch, error) {
	return s.store.dispatches(ctx)
}

// Improvements returns every stored improvement.
func (s *Server) Improvements(ctx context.Context) ([]Improvement, error) {
	return s.store.listImprovements(ctx, "", "")
}

// Events returns the events attached to an improvement.
func (s *Server) Events(ctx context.Context, improvementUUID string) ([]Event, error) {
	return s.store.events(ctx, improvementUUID)
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// middleware counts requests, applies injected faults and logs each
// request.
func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			s.logger.Info("request", "method", r.Method, "path", r.URL.Path, "status", recorder.status)
		}()

		s.faultMutex.Lock()
		delay := s.delay
		failStatus := 0
		if s.failRemaining > 0 {
			s.failRemaining--
			failStatus = s.failStatus
		}
		s.faultMutex.Unlock()

		if delay > 0 {
			timer := time.NewTimer(delay)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-r.Context().Done():
				return
			}
		}
		if failStatus != 0 {
			s.sendError(recorder, failStatus, "injected failure")
			return
		}
		if !s.authorized(r) {
			s.sendError(recorder, http.StatusUnauthorized, "invalid or missing bearer token")
			return
		}
		r.Body = http.MaxBytesReader(recorder, r.Body, s.config.MaxBodyBytes)
		next.ServeHTTP(recorder, r)
	})
}

func (s *Server) authorized(r *http.Request) bool {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	token = strings.TrimSpace(token)
	if !ok || token == "" {
		return false
	}
	if strings.HasPrefix(r.URL.Path, "/dispatch") {
		return s.config.DispatchToken == "" || token == s.config.DispatchToken
	}
	if s.config.DispatchToken == "" && len(s.config.RunTokens) == 0 {
		return true
	}
	return token == s.config.DispatchToken || slices.Contains(s.config.RunTokens, token)
}

// decodeBody decodes the JSON request body into v, writing a 413 or 400
// and returning false on failure.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.sendError(w, http.StatusRequestEntityTooLarge, "request body too large (max %d bytes)", tooLarge.Limit)
			return false
		}
		s.sendError(w, http.StatusBadRequest, "invalid request body: %v", err)
		return false
	}
	return true
}

func (s *Server) sendError(w http.ResponseWriter, status int, format string, args ...any) {
	s.writeJSON(w, status, errorResponse{Error: fmt.Sprintf(format, args...)})
}

// writeJSON encodes value as the response body. Encoding failures mean
// the client went away and are only logged.
func (s *Server) writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(value); err != nil {
		s.logger.Warn("writing JSON response", "error", err, "status", status)
	}
}

func (s *Server) now() string {
	return s.clock.Now().UTC().Format("2006-01-02T15:04:05.000Z")
}
