// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sanitize

import (
	"strings"
	"unicode/utf8"
)

// TruncateString returns the longest prefix of s that holds at most max
// runes. Strings already within the limit are returned unchanged, so
// truncation is idempotent. max <= 0 yields "".
func TruncateString(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max || utf8.RuneCountInString(s) <= max {
		return s
	}
	count := 0
	for index := range s {
		if count == max {
			return s[:index]
		}
		count++
	}
	return s
}

// SingleLine collapses every run of CR/LF characters into one space and
// drops line breaks at either end.
func SingleLine(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	var builder strings.Builder
	builder.Grow(len(s))
	pendingSpace := false
	for _, r := range s {
		if r == '\r' || r == '\n' {
			pendingSpace = true
			continue
		}
		if pendingSpace && builder.Len() > 0 {
			builder.WriteByte(' ')
		}
		pendingSpace = false
		builder.WriteRune(r)
	}
	return builder.String()
}

// Summary normalizes a summary line: single-lined, then truncated to
// SummaryMax runes.
func Summary(s string) string {
	return TruncateString(SingleLine(s), SummaryMax)
}
