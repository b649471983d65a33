// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config resolves client configuration for the Fulcrum dispatch
// and improvements clients.
//
// Configuration is read from a [Source], a key/value lookup. The process
// environment ([Environ]) is the usual source; [ReadEnvFile] and
// [LoadFile] produce sources from a dotenv file or a YAML file, and
// [Layered] stacks several sources so the first non-empty value wins.
//
// Resolution never fails. [ResolveDispatch] and [ResolveImprovements]
// return immutable values; when a required key is missing the value
// lists it in Missing and reports Enabled() == false, and clients built
// from it become no-ops.
//
// Improvements authentication is resolved from an ordered candidate
// list: FULCRUM_RUN_TOKEN first, then the deprecated
// FULCRUM_DISPATCH_TOKEN. TokenSource records which key supplied the
// token.
//
// Key exports:
//
//   - [Source], [Environ], [MapSource], [Layered]
//   - [ReadEnvFile] and [LoadFile] -- file-backed sources
//   - [ResolveDispatch] and [ResolveImprovements]
//
// This package depends on no other Fulcrum packages except lib/sanitize
// for the payload size default.
package config
