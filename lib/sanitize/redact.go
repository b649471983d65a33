// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sanitize

import (
	"slices"
	"strings"
)

// Marker replaces the value of every redacted key.
const Marker = "[REDACTED]"

// BaseKeys is the denylist shared by every client.
var BaseKeys = []string{
	"api_key",
	"token",
	"password",
	"secret",
	"credential",
	"credentials",
	"authorization",
	"auth_token",
	"private_key",
	"secret_key",
	"access_key",
	"refresh_token",
}

// DispatchKeys extends BaseKeys with the short and vendor-specific names
// that show up in timeline payloads built from raw API responses.
var DispatchKeys = append(slices.Clone(BaseKeys),
	"auth",
	"key",
	"apikey",
	"api_secret",
	"access_token",
	"client_secret",
	"session_token",
	"passwd",
	"x_api_key",
)

// Redactor replaces denylisted keys in payloads. The zero value redacts
// nothing; use NewRedactor. A Redactor is immutable and safe for
// concurrent use.
type Redactor struct {
	keys map[string]struct{}
}

// NewRedactor returns a Redactor for the given key names.
func NewRedactor(keys []string) *Redactor {
	set := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		set[normalizeKey(key)] = struct{}{}
	}
	return &Redactor{keys: set}
}

// Matches reports whether key is on the denylist. Matching is
// case-insensitive and treats "-" and " " as "_", so "API-Key" and
// "api key" both match "api_key".
func (r *Redactor) Matches(key string) bool {
	if r == nil {
		return false
	}
	_, ok := r.keys[normalizeKey(key)]
	return ok
}

// Redact returns a copy of v with every denylisted map key's value
// replaced by Marker, at any depth. Maps and slices are copied; the
// input is not modified. Scalars are returned as is.
func (r *Redactor) Redact(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, value := range typed {
			if r.Matches(key) {
				out[key] = Marker
				continue
			}
			out[key] = r.Redact(value)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, value := range typed {
			out[i] = r.Redact(value)
		}
		return out
	case []map[string]any:
		out := make([]any, len(typed))
		for i, value := range typed {
			out[i] = r.Redact(value)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(typed))
		for key, value := range typed {
			if r.Matches(key) {
				out[key] = Marker
				continue
			}
			out[key] = value
		}
		return out
	default:
		return v
	}
}

// RedactMap is Redact for an object payload. A nil map stays nil.
func (r *Redactor) RedactMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	return r.Redact(m).(map[string]any)
}

func normalizeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	return strings.NewReplacer("-", "_", " ", "_").Replace(key)
}

// RedactSQL replaces the contents of every single-quoted SQL string
// literal in query with Marker. Doubled quotes and backslash escapes
// inside a literal do not end it. An unterminated literal is closed.
// Identifiers, numbers and keywords are left alone.
func RedactSQL(query string) string {
	if !strings.Contains(query, "'") {
		return query
	}

	var builder strings.Builder
	builder.Grow(len(query))
	inLiteral := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		if !inLiteral {
			builder.WriteByte(c)
			if c == '\'' {
				inLiteral = true
				builder.WriteString(Marker)
			}
			continue
		}
		if c == '\\' && i+1 < len(query) {
			i++
			continue
		}
		if c != '\'' {
			continue
		}
		if i+1 < len(query) && query[i+1] == '\'' {
			i++
			continue
		}
		inLiteral = false
		builder.WriteByte('\'')
	}
	if inLiteral {
		builder.WriteByte('\'')
	}
	return builder.String()
}
