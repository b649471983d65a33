// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the CBOR encoding configuration used for
// binary payload files.
//
// Events travel to the Fulcrum API as JSON. CBOR appears only at the
// edge: payload files handed to "fulcrum dispatch send --payload-file"
// may be CBOR-encoded when they are produced by tooling that already
// speaks it. The encoder uses Core Deterministic Encoding (RFC 8949
// §4.2) so the same logical payload always produces identical bytes.
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
package codec
