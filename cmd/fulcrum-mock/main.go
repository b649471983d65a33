// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Fulcrum-mock serves the dispatch and improvements APIs for local
// development and end-to-end tests. Records are kept in a SQLite file,
// so a run's timeline can be inspected after the process exits.
//
// Routes:
//   - POST /dispatch: store a dispatch entry (202)
//   - GET /improvements: list improvements for ?run_uuid, optionally ?project_uuid
//   - POST /improvements/: create, deduplicated on dedupe_key per project (or run)
//   - PATCH /improvements/{uuid}: update fields
//   - DELETE /improvements/{uuid}: delete the record and its events
//   - POST /improvements/{uuid}/events: attach an audit event
//
// Point a project at it with FULCRUM_DISPATCH_URL=http://<listen>/dispatch
// and FULCRUM_IMPROVEMENTS_URL=http://<listen>/improvements.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/fulcrum/lib/fulcrummock"
	"github.com/bureau-foundation/fulcrum/lib/process"
	"github.com/bureau-foundation/fulcrum/lib/version"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		process.Fatal("fulcrum-mock", err)
	}
}

func run(args []string) error {
	var (
		listen        string
		databasePath  string
		dispatchToken string
		runTokens     []string
		showVersion   bool
	)
	flagSet := pflag.NewFlagSet("fulcrum-mock", pflag.ContinueOnError)
	flagSet.StringVar(&listen, "listen", "127.0.0.1:8000", "address to serve on")
	flagSet.StringVar(&databasePath, "db", "fulcrum-mock.db", "SQLite database file")
	flagSet.StringVar(&dispatchToken, "dispatch-token", "", "accepted dispatch token (empty accepts any)")
	flagSet.StringSliceVar(&runTokens, "run-token", nil, "accepted improvements run token (repeatable)")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	if showVersion {
		fmt.Printf("fulcrum-mock %s\n", version.Full())
		return nil
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mock, err := fulcrummock.Open(fulcrummock.Config{
		Path:          databasePath,
		DispatchToken: dispatchToken,
		RunTokens:     runTokens,
		Logger:        logger,
	})
	if err != nil {
		return err
	}
	defer mock.Close()

	listener, err := net.Listen("tcp", listen)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", listen, err)
	}

	server := &http.Server{
		Handler:           mock.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveDone := make(chan error, 1)
	go func() {
		serveDone <- server.Serve(listener)
	}()

	logger.Info("fulcrum mock running",
		"address", listener.Addr().String(),
		"database", databasePath,
	)

	select {
	case <-ctx.Done():
	case err := <-serveDone:
		return err
	}
	logger.Info("shutting down")

	shutdownContext, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownContext); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-serveDone; err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
	}
	return nil
}
