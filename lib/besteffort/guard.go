// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package besteffort

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"
)

// Guard runs fn and reports whether it returned nil. Errors and panics
// are logged through logger and never propagate.
func Guard(logger *slog.Logger, operation string, fn func() error) (ok bool) {
	defer func() {
		if recovered := recover(); recovered != nil {
			LogFailure(logger, operation, panicFailure(recovered))
			ok = false
		}
	}()
	if err := fn(); err != nil {
		LogFailure(logger, operation, err)
		return false
	}
	return true
}

// GuardList runs fn and returns its result, or an empty non-nil slice
// when fn fails or panics. A nil result from a successful fn is also
// returned as an empty slice.
func GuardList[T any](logger *slog.Logger, operation string, fn func() ([]T, error)) (result []T) {
	defer func() {
		if recovered := recover(); recovered != nil {
			LogFailure(logger, operation, panicFailure(recovered))
			result = []T{}
		}
	}()
	items, err := fn()
	if err != nil {
		LogFailure(logger, operation, err)
		return []T{}
	}
	if items == nil {
		return []T{}
	}
	return items
}

func panicFailure(recovered any) *Failure {
	return &Failure{Kind: KindPanic, Err: fmt.Errorf("%v\n%s", recovered, debug.Stack())}
}

// LogFailure writes a Warn-level entry describing a failed operation.
// Disabled-client failures are not logged; the client reports its
// missing configuration once at construction. A panicking handler is
// swallowed.
func LogFailure(logger *slog.Logger, operation string, err error) {
	if logger == nil || err == nil {
		return
	}
	kind := KindOf(err)
	if kind == KindDisabled {
		return
	}
	defer func() { _ = recover() }()

	attributes := []any{"operation", operation, "kind", string(kind), "error", err.Error()}
	var failure *Failure
	if errors.As(err, &failure) && failure.StatusCode != 0 {
		attributes = append(attributes, "status", failure.StatusCode)
	}
	logger.Warn("fulcrum request failed", attributes...)
}

// ResolveLogger returns injected when it is non-nil. Otherwise it
// returns a text logger on stderr when debug is set, and a discard
// logger when it is not.
func ResolveLogger(injected *slog.Logger, debug bool) *slog.Logger {
	return resolveLogger(injected, debug, os.Stderr)
}

func resolveLogger(injected *slog.Logger, debug bool, stderr io.Writer) *slog.Logger {
	if injected != nil {
		return injected
	}
	if !debug {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
