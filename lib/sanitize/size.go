// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sanitize

import (
	"unicode/utf8"

	"github.com/bureau-foundation/fulcrum/lib/payload"
)

// Keys of the truncation wrapper produced by Bound.
const (
	TruncatedKey     = "_truncated"
	OriginalBytesKey = "_original_bytes"
	PreviewKey       = "_preview"
)

// Bound returns p unchanged when its serialized size is within budget.
// Otherwise it returns a replacement object
//
//	{"_truncated": true, "_original_bytes": N, "_preview": "..."}
//
// where _preview is the longest prefix of the serialized original (cut
// on a rune boundary) that keeps the replacement within budget. The
// second result reports whether truncation happened.
//
// Bound never rejects: if the budget cannot hold even an empty preview
// the replacement is returned anyway and the server decides. Bounding a
// bounded payload with the same budget is a no-op.
func Bound(p payload.Map, budget int) (payload.Map, bool) {
	if p == nil {
		return nil, false
	}

	data, err := payload.Marshal(p)
	if err != nil {
		return truncationWrapper(0, ""), true
	}
	if len(data) <= budget {
		return p, false
	}
	if IsTruncated(p) && p[PreviewKey] == "" {
		// Already the smallest possible replacement.
		return p, false
	}

	best := truncationWrapper(len(data), "")
	low, high := 0, len(data)
	for low <= high {
		middle := low + (high-low)/2
		candidate := truncationWrapper(len(data), runePrefix(data, middle))
		size, err := payload.Size(candidate)
		if err == nil && size <= budget {
			best = candidate
			low = middle + 1
		} else {
			high = middle - 1
		}
	}
	return best, true
}

// IsTruncated reports whether p is a truncation wrapper produced by
// Bound.
func IsTruncated(p payload.Map) bool {
	flag, ok := p[TruncatedKey].(bool)
	return ok && flag
}

func truncationWrapper(originalBytes int, preview string) payload.Map {
	return payload.Map{
		TruncatedKey:     true,
		OriginalBytesKey: originalBytes,
		PreviewKey:       preview,
	}
}

// runePrefix returns data[:n] backed off to the nearest rune start.
func runePrefix(data []byte, n int) string {
	if n >= len(data) {
		return string(data)
	}
	for n > 0 && !utf8.RuneStart(data[n]) {
		n--
	}
	return string(data[:n])
}
