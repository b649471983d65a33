// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/fulcrum/cmd/fulcrum/cli"
	"github.com/bureau-foundation/fulcrum/lib/config"
)

// Environment holds the flags that choose where configuration comes
// from. The process environment always wins, then the dotenv file, then
// the YAML file. With GenerateIDs, random ticket and run UUIDs fill in
// for missing ones, which is convenient against a local mock server.
type Environment struct {
	EnvFile     string
	ConfigFile  string
	GenerateIDs bool
}

// AddFlags binds the environment flags.
func (e *Environment) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&e.EnvFile, "env-file", "", "dotenv file with FULCRUM_* variables")
	flagSet.StringVar(&e.ConfigFile, "config", "", "YAML config file")
	flagSet.BoolVar(&e.GenerateIDs, "generate-ids", false, "generate ticket and run UUIDs when unset")
}

// Source layers the configured files under base.
func (e *Environment) Source(base config.Source) (config.Source, error) {
	sources := []config.Source{base}
	if e.EnvFile != "" {
		envFile, err := config.ReadEnvFile(e.EnvFile)
		if err != nil {
			return nil, cli.Internal("--env-file: %w", err)
		}
		sources = append(sources, envFile)
	}
	if e.ConfigFile != "" {
		configFile, err := config.LoadFile(e.ConfigFile)
		if err != nil {
			return nil, cli.Internal("--config: %w", err)
		}
		sources = append(sources, configFile)
	}
	if e.GenerateIDs {
		sources = append(sources, config.MapSource{
			config.KeyTicketUUID: uuid.NewString(),
			config.KeyRunUUID:    uuid.NewString(),
		})
	}
	return config.Layered(sources...), nil
}
