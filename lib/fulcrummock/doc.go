// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package fulcrummock is an in-process Fulcrum server implementing the
// dispatch and improvements wire contracts, for tests and local
// development.
//
// Records live in a SQLite database (via lib/sqlitepool), so state
// survives across requests the way the real service's does, and
// improvement deduplication is enforced the way a server must: a
// partial UNIQUE index on (scope, dedupe_key), where scope is the
// project UUID or, without one, the run UUID. A create whose dedupe_key
// already exists in its scope answers 200 with the existing record
// instead of 201, so concurrent creates from independent runs never
// produce two records.
//
// Routes:
//
//	POST   /dispatch
//	GET    /improvements[/]          ?run_uuid=&project_uuid=
//	POST   /improvements[/]
//	PATCH  /improvements/{uuid}
//	DELETE /improvements/{uuid}      ?run_uuid=
//	POST   /improvements/{uuid}/events
//
// Every route requires a bearer token. With no tokens configured any
// non-empty token is accepted.
//
// Tests can inject faults with [Server.FailNext] and [Server.SetDelay]
// and inspect state with [Server.Dispatches], [Server.Improvements],
// [Server.Events] and [Server.Requests].
package fulcrummock
