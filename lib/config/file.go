// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"
)

// File is the YAML form of the configuration keys. Every field maps to
// one FULCRUM_* key; empty fields are left out of the resulting Source
// so that later layers can supply them.
//
//	dispatch:
//	  url: https://fulcrum.example/api/dispatch
//	  token: ${FULCRUM_DISPATCH_TOKEN}
//	improvements:
//	  url: https://fulcrum.example/api/improvements
//	  run_token: ${FULCRUM_RUN_TOKEN}
//	ticket_uuid: ...
//	run_uuid: ...
//	project_uuid: ...
//	debug: true
//	timeout_ms: 1500
//	max_payload_bytes: 65536
type File struct {
	Dispatch struct {
		URL   string `yaml:"url"`
		Token string `yaml:"token"`
	} `yaml:"dispatch"`

	Improvements struct {
		URL      string `yaml:"url"`
		RunToken string `yaml:"run_token"`
	} `yaml:"improvements"`

	TicketUUID      string `yaml:"ticket_uuid"`
	RunUUID         string `yaml:"run_uuid"`
	ProjectUUID     string `yaml:"project_uuid"`
	Debug           *bool  `yaml:"debug"`
	TimeoutMS       int    `yaml:"timeout_ms"`
	MaxPayloadBytes int    `yaml:"max_payload_bytes"`
}

// LoadFile reads a YAML configuration file and returns it as a
// MapSource. ${VAR} and ${VAR:-default} patterns in string values are
// expanded against the process environment.
func LoadFile(path string) (MapSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return file.Source(), nil
}

// Source converts the file into a MapSource keyed by FULCRUM_* names.
func (f *File) Source() MapSource {
	source := MapSource{}
	set := func(key, value string) {
		value = expandVars(value)
		if value != "" {
			source[key] = value
		}
	}
	set(KeyDispatchURL, f.Dispatch.URL)
	set(KeyDispatchToken, f.Dispatch.Token)
	set(KeyImprovementsURL, f.Improvements.URL)
	set(KeyRunToken, f.Improvements.RunToken)
	set(KeyTicketUUID, f.TicketUUID)
	set(KeyRunUUID, f.RunUUID)
	set(KeyProjectUUID, f.ProjectUUID)
	if f.Debug != nil {
		source[KeyDebug] = strconv.FormatBool(*f.Debug)
	}
	if f.TimeoutMS != 0 {
		source[KeyTimeoutMS] = strconv.Itoa(f.TimeoutMS)
	}
	if f.MaxPayloadBytes != 0 {
		source[KeyMaxPayloadBytes] = strconv.Itoa(f.MaxPayloadBytes)
	}
	return source
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns.
func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		if len(parts) >= 3 {
			return parts[2]
		}
		return ""
	})
}
