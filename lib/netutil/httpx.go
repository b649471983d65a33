// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides bounded HTTP response reads for the fulcrum
// clients.
//
// ReadResponse caps body reads at MaxResponseSize so a
// misbehaving server cannot make a best-effort telemetry call allocate
// without bound. ErrorBody additionally clips the text it returns to
// MaxErrorBody, since it only ever ends up in a debug log line.
package netutil

import (
	"io"
	"strings"
	"unicode/utf8"
)

// MaxResponseSize is the bound on JSON API response body reads: 8 MB.
// An improvements listing is the largest legitimate response and is
// orders of magnitude smaller.
const MaxResponseSize int64 = 8 << 20

// MaxErrorBody is the longest error body string returned by ErrorBody.
const MaxErrorBody = 512

// ReadResponse reads a JSON API response body up to MaxResponseSize bytes.
// Use instead of io.ReadAll when reading HTTP response bodies.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}

// ErrorBody reads an HTTP error response body and returns it as a
// trimmed string of at most MaxErrorBody bytes, cut on a rune boundary.
// Read errors are ignored; a partial or empty body is still useful in a
// diagnostic.
func ErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, MaxErrorBody*4))
	return ClipDiagnostic(string(data))
}

// ClipDiagnostic trims s and clips it to MaxErrorBody bytes without
// splitting a UTF-8 sequence.
func ClipDiagnostic(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= MaxErrorBody {
		return s
	}
	cut := MaxErrorBody
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
