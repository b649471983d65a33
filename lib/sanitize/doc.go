// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sanitize makes event payloads safe and bounded before they
// leave the process.
//
// Three independent steps, applied by the clients in this order:
//
//  1. Redaction: [Redactor.Redact] walks a payload recursively and
//     replaces the value of every denylisted key with [Marker]. Key
//     matching is exact after case folding and separator
//     normalization; values are never inspected. [RedactSQL] scrubs
//     string literals from SQL text.
//  2. Length limits: [TruncateString] and [SingleLine] bound the
//     envelope's string fields (summary, title, kind, action, source).
//  3. Size limits: [Bound] replaces a payload whose serialized form
//     exceeds its byte budget with a truncation wrapper carrying a
//     preview of the (already redacted) original.
//
// Every function here is deterministic, never panics on well-formed
// input, and is idempotent: sanitizing a sanitized value is a no-op.
package sanitize
