// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for Fulcrum packages.
//
// [RecordingServer] is an httptest.Server that records every request
// (method, path, query, headers, body) and answers with a configurable
// status, body and delay. Client tests use it both to assert the exact
// wire format and to count calls, so "no network call was made" is a
// check on [RecordingServer.Calls].
//
// [RequireReceive] encapsulates the timeout safety valve pattern
// (select with time.After fallback) so that individual tests do not
// need direct time.After calls.
//
// [UniqueID] generates monotonically increasing identifiers for test
// disambiguation, and [WriteTempFile] writes fixture files into a
// per-test directory.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no Fulcrum-internal dependencies.
package testutil
