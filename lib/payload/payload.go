// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package payload defines the JSON value variant carried in event
// payloads and the helpers that measure it.
//
// A payload value is one of: nil, bool, float64, json.Number, string,
// []any, or Map. Callers may hand the clients arbitrary JSON-serializable
// Go values (structs, typed maps, slices); Normalize converts them into
// the variant so the sanitizer can walk them generically.
package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Map is a JSON object payload.
type Map = map[string]any

// Normalize converts v into the JSON value variant by encoding it and
// decoding the result with UseNumber, so integers keep their exact
// textual form. Values that encoding/json cannot serialize (channels,
// functions, cyclic structures) return an error.
func Normalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	data, err := Marshal(v)
	if err != nil {
		return nil, err
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var out any
	if err := decoder.Decode(&out); err != nil {
		return nil, fmt.Errorf("payload: decoding normalized value: %w", err)
	}
	return out, nil
}

// NormalizeMap normalizes v and requires the result to be a JSON object.
// A nil input yields a nil Map.
func NormalizeMap(v any) (Map, error) {
	normalized, err := Normalize(v)
	if err != nil {
		return nil, err
	}
	if normalized == nil {
		return nil, nil
	}
	object, ok := normalized.(Map)
	if !ok {
		return nil, fmt.Errorf("payload: expected a JSON object, got %T", v)
	}
	return object, nil
}

// Marshal encodes v as compact JSON without HTML escaping and without
// the trailing newline json.Encoder appends. This is the exact encoding
// the transport writes, so sizes measured with it match the wire.
func Marshal(v any) ([]byte, error) {
	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		return nil, fmt.Errorf("payload: encoding: %w", err)
	}
	return bytes.TrimSuffix(buffer.Bytes(), []byte("\n")), nil
}

// Size returns the serialized byte length of v.
func Size(v any) (int, error) {
	data, err := Marshal(v)
	if err != nil {
		return 0, err
	}
	return len(data), nil
}

// Merge copies every key of src into dst that dst does not already
// hold, returning dst. A nil dst is allocated.
func Merge(dst, src Map) Map {
	if dst == nil {
		dst = Map{}
	}
	for key, value := range src {
		if _, exists := dst[key]; exists {
			continue
		}
		dst[key] = value
	}
	return dst
}
