// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package besteffort is the shared transport core of the Fulcrum
// clients: one bounded HTTP request per call, bearer authentication,
// no retries, and a boundary that turns every failure into a boolean.
//
// Inside the package, failures are ordinary errors. [Transport.Do]
// returns a [*Failure] whose [FailureKind] classifies what went wrong
// (timeout, connection, non-2xx status, undecodable body, ...). Public
// client methods wrap their work in [Guard] or [GuardList], which log
// the failure and collapse it (or a recovered panic) to false or an
// empty slice. Callers of the clients never see an error.
//
// Logging goes through a caller-supplied *slog.Logger. [ResolveLogger]
// picks the injected logger when there is one, a stderr text handler
// when debug is enabled, and a discard logger otherwise. Only failures
// are logged.
package besteffort
