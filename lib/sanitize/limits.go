// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sanitize

// Field length limits, in characters (runes).
const (
	SummaryMax   = 512
	TitleMax     = 256
	DedupeKeyMax = 256
	KindMax      = 64
	ActionMax    = 64
	SourceMax    = 32
)

// DefaultMaxPayloadBytes is the serialized size limit applied when the
// configuration does not override it.
const DefaultMaxPayloadBytes = 65536
