// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package besteffort

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buffer bytes.Buffer
	return slog.New(slog.NewTextHandler(&buffer, nil)), &buffer
}

func TestGuard(t *testing.T) {
	t.Parallel()

	logger, buffer := bufferLogger()

	if !Guard(logger, "emit", func() error { return nil }) {
		t.Error("expected success")
	}
	if buffer.Len() != 0 {
		t.Errorf("success must not log, got %q", buffer.String())
	}

	if Guard(logger, "create", func() error { return &Failure{Kind: KindStatus, StatusCode: 500} }) {
		t.Error("expected failure")
	}
	output := buffer.String()
	for _, want := range []string{"operation=create", "kind=status", "status=500"} {
		if !strings.Contains(output, want) {
			t.Errorf("log %q missing %q", output, want)
		}
	}
}

func TestGuardRecoversPanic(t *testing.T) {
	t.Parallel()

	logger, buffer := bufferLogger()
	if Guard(logger, "emit", func() error { panic("boom") }) {
		t.Error("expected panic to collapse to false")
	}
	if !strings.Contains(buffer.String(), "kind=panic") {
		t.Errorf("expected panic to be logged, got %q", buffer.String())
	}
}

func TestGuardList(t *testing.T) {
	t.Parallel()

	logger, _ := bufferLogger()

	items := GuardList(logger, "list", func() ([]string, error) { return []string{"a"}, nil })
	if len(items) != 1 {
		t.Errorf("expected one item, got %v", items)
	}

	for name, fn := range map[string]func() ([]string, error){
		"error": func() ([]string, error) { return []string{"partial"}, errors.New("broken") },
		"nil":   func() ([]string, error) { return nil, nil },
		"panic": func() ([]string, error) { panic("boom") },
	} {
		items := GuardList(logger, "list", fn)
		if items == nil || len(items) != 0 {
			t.Errorf("%s: expected empty non-nil slice, got %#v", name, items)
		}
	}
}

func TestLogFailureSkipsDisabled(t *testing.T) {
	t.Parallel()

	logger, buffer := bufferLogger()
	if Guard(logger, "emit", func() error { return Disabled([]string{"FULCRUM_DISPATCH_URL"}) }) {
		t.Error("expected disabled to collapse to false")
	}
	if buffer.Len() != 0 {
		t.Errorf("disabled failures must not be logged per call, got %q", buffer.String())
	}

	LogFailure(nil, "emit", errors.New("nil logger is a no-op"))
}

func TestResolveLogger(t *testing.T) {
	t.Parallel()

	injected, _ := bufferLogger()
	if resolveLogger(injected, false, nil) != injected {
		t.Error("expected injected logger to win")
	}

	var stderr bytes.Buffer
	resolveLogger(nil, true, &stderr).Warn("fulcrum request failed", "kind", "timeout")
	if !strings.Contains(stderr.String(), "kind=timeout") {
		t.Errorf("expected debug logger to write to stderr, got %q", stderr.String())
	}

	stderr.Reset()
	resolveLogger(nil, false, &stderr).Warn("dropped")
	if stderr.Len() != 0 {
		t.Errorf("expected discard logger, got %q", stderr.String())
	}
}
