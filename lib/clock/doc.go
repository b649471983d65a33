// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable wall-clock for components that
// stamp records with the current time.
//
// The dispatch client stamps every entry with client_ts and the mock
// server stamps improvements with created_at/updated_at. Both take a
// Clock so tests can pin the time:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	client := dispatch.New(cfg, dispatch.WithClock(c))
//	c.Advance(time.Second)
//
// Production code uses Real().
package clock
