// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"testing"
)

func TestMarshalDeterministic(t *testing.T) {
	value := map[string]any{
		"service":   "mapbox",
		"operation": "geocode",
		"count":     3,
	}

	first, err := Marshal(value)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for range 10 {
		again, err := Marshal(value)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatal("Marshal produced different bytes for the same map")
		}
	}
}

func TestUnmarshalAnyProducesStringKeyedMaps(t *testing.T) {
	data, err := Marshal(map[string]any{
		"outer": map[string]any{"inner": "value"},
	})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded any
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	top, ok := decoded.(map[string]any)
	if !ok {
		t.Fatalf("decoded type = %T, want map[string]any", decoded)
	}
	nested, ok := top["outer"].(map[string]any)
	if !ok {
		t.Fatalf("nested type = %T, want map[string]any", top["outer"])
	}
	if nested["inner"] != "value" {
		t.Errorf("inner = %v, want value", nested["inner"])
	}
}
