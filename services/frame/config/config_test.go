// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: "0.0.0.0:9000"
storage:
  in_memory: true
  path: "ignored"
log:
  level: debug
  format: json
replication:
  send_buffer: 16
  persist_every: 500ms
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr)
	assert.True(t, cfg.Storage.InMemory)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 16, cfg.Replication.SendBuffer)
	assert.Equal(t, 500*time.Millisecond, cfg.Replication.PersistEvery)
}

func TestLoad_PartialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
log:
  level: warn
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, def.Server.Addr, cfg.Server.Addr)
	assert.Equal(t, def.Replication.SendBuffer, cfg.Replication.SendBuffer)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "server: ["},
		{"bad log level", "log:\n  level: loud\n"},
		{"bad format", "log:\n  format: xml\n"},
		{"bad addr", "server:\n  addr: not-an-address\n"},
		{"zero send buffer", "replication:\n  send_buffer: 0\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			assert.Error(t, err)
		})
	}
}
