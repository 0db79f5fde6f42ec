// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads and validates the frame service configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the full frame service configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Storage     StorageConfig     `yaml:"storage"`
	Log         LogConfig         `yaml:"log"`
	Replication ReplicationConfig `yaml:"replication"`
}

// ServerConfig configures the HTTP listeners.
type ServerConfig struct {
	// Addr is the API listen address.
	Addr string `yaml:"addr" validate:"required,hostname_port"`

	// MetricsAddr is the Prometheus metrics listen address. Empty disables
	// the metrics listener.
	MetricsAddr string `yaml:"metrics_addr" validate:"omitempty,hostname_port"`
}

// StorageConfig configures snapshot persistence.
type StorageConfig struct {
	// Path is the BadgerDB directory. Ignored when InMemory is true.
	Path string `yaml:"path" validate:"required_without=InMemory"`

	// InMemory runs storage without disk persistence. For development.
	InMemory bool `yaml:"in_memory"`

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool `yaml:"sync_writes"`
}

// LogConfig configures logging output.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" validate:"oneof=debug info warn error"`

	// Format is "json" or "text". "auto" picks text on a terminal.
	Format string `yaml:"format" validate:"oneof=json text auto"`
}

// ReplicationConfig tunes the update stream and persistence cadence.
type ReplicationConfig struct {
	// SendBuffer is the per-watcher buffered update count. A watcher that
	// falls this far behind is disconnected and must resync.
	SendBuffer int `yaml:"send_buffer" validate:"min=1"`

	// PersistEvery bounds how often an edited frame is flushed to storage.
	// Edits within the window coalesce into one write.
	PersistEvery time.Duration `yaml:"persist_every" validate:"min=0"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:        "localhost:8085",
			MetricsAddr: "localhost:9095",
		},
		Storage: StorageConfig{
			Path:       "data/frames",
			SyncWrites: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
		Replication: ReplicationConfig{
			SendBuffer:   64,
			PersistEvery: 2 * time.Second,
		},
	}
}

// Load reads, parses, and validates a YAML configuration file. Fields left
// out of the file keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration against its struct constraints.
func (c Config) Validate() error {
	return validator.New().Struct(c)
}
