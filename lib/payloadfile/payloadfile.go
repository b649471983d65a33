// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package payloadfile reads event payloads from files for the fulcrum
// CLI. The format follows the file extension:
//
//   - .json, .jsonc: JSON, with comments and trailing commas allowed
//   - .yaml, .yml: YAML
//   - .cbor: CBOR
//
// Every format must decode to a single object. The result is
// normalized into the payload variant, so a YAML file and the JSON
// file it was converted from produce identical payloads.
package payloadfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/fulcrum/lib/codec"
	"github.com/bureau-foundation/fulcrum/lib/payload"
)

// MaxFileSize bounds payload files. Anything larger would be truncated
// to a preview by the client anyway.
const MaxFileSize = 4 << 20

// Read loads and decodes the payload file at path.
func Read(path string) (payload.Map, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("payload file: %w", err)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("payload file %s is %d bytes, limit is %d", path, info.Size(), MaxFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("payload file: %w", err)
	}
	result, err := Decode(filepath.Ext(path), data)
	if err != nil {
		return nil, fmt.Errorf("payload file %s: %w", path, err)
	}
	return result, nil
}

// Decode decodes data according to ext (with or without the leading
// dot). An unknown extension is an error.
func Decode(ext string, data []byte) (payload.Map, error) {
	var raw map[string]any
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "json", "jsonc":
		decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		decoder.UseNumber()
		if err := decoder.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decoding JSON: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("decoding YAML: %w", err)
		}
	case "cbor":
		if err := codec.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("decoding CBOR: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported payload format %q (use .json, .jsonc, .yaml, .yml, or .cbor)", ext)
	}
	if raw == nil {
		return nil, fmt.Errorf("payload must be an object")
	}
	return payload.NormalizeMap(raw)
}
