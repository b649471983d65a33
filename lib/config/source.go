// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Source looks up configuration values by key. The boolean reports
// whether the key is set at all; an empty value counts as unset during
// resolution.
type Source interface {
	Lookup(key string) (string, bool)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(key string) (string, bool)

// Lookup calls f(key).
func (f SourceFunc) Lookup(key string) (string, bool) { return f(key) }

// Environ returns a Source backed by the process environment.
func Environ() Source {
	return SourceFunc(os.LookupEnv)
}

// MapSource is a Source backed by a map. Tests and file loaders use it.
type MapSource map[string]string

// Lookup returns the value stored under key.
func (m MapSource) Lookup(key string) (string, bool) {
	value, ok := m[key]
	return value, ok
}

// Layered returns a Source that consults sources in order and returns
// the first value that is non-empty after trimming. Nil sources are
// skipped.
func Layered(sources ...Source) Source {
	return SourceFunc(func(key string) (string, bool) {
		for _, source := range sources {
			if source == nil {
				continue
			}
			if value, ok := source.Lookup(key); ok && strings.TrimSpace(value) != "" {
				return value, true
			}
		}
		return "", false
	})
}

// ReadEnvFile parses a dotenv file into a MapSource. The process
// environment is not modified.
func ReadEnvFile(path string) (MapSource, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("reading env file %s: %w", path, err)
	}
	return MapSource(values), nil
}
