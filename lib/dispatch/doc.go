// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package dispatch sends user-facing timeline events to Fulcrum.
//
// A [Client] is built once from a resolved [config.DispatchConfig] and
// shared by whoever emits. Every event is one POST of an [Entry]:
//
//	{"ticket_uuid", "run_uuid", "kind", "summary", "message_uuid"?,
//	 "payload"?, "source", "schema_version", "client_ts"?}
//
// Delivery is best effort. Emit methods return true on a 2xx response
// and false on anything else: a disabled client, invalid input, a
// timeout, a non-2xx status, even a panic. There is no retry and no
// queue, and events carry no ordering guarantee.
//
// Before sending, the client normalizes the event: the summary is
// single-lined and cut to 512 characters, the kind to 64, the source to
// 32; the payload is redacted with [sanitize.DispatchKeys] (unless the
// caller passes [WithSkipRedaction]) and bounded so the whole request
// body fits FULCRUM_MAX_PAYLOAD_BYTES. An oversized payload is replaced
// by a truncation wrapper rather than dropped.
//
// The typed builders ([Client.Text], [Client.APICall],
// [Client.ExternalRef], [Client.DB], [Client.Model]) validate their own
// fields and return false without a request when validation fails.
package dispatch
