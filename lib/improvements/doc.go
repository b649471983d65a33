// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package improvements is a best-effort CRUD client for Fulcrum
// improvement records: developer-facing suggestions that the server
// owns and deduplicates.
//
// Operations map onto the improvements resource (base = the configured
// improvements URL):
//
//	List       GET    base?run_uuid=&project_uuid=
//	Create     POST   base/
//	Update     PATCH  base/{uuid}
//	Delete     DELETE base/{uuid}?run_uuid=
//	EmitEvent  POST   base/{uuid}/events
//
// Like package dispatch, every operation issues at most one request,
// bounded by the configured timeout, and never returns an error:
// mutating operations return false and List returns an empty slice on
// any failure. The client keeps no state between calls and performs no
// local deduplication; a dedupe_key is passed through for the server to
// enforce.
package improvements
