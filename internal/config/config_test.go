// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	// Spot-check the values every provisioning step depends on
	assert.Equal(t, "webgis_db", cfg.Database.Name)
	assert.Equal(t, "postgis", cfg.Database.Extension)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, ".venv", cfg.Python.VenvDir)
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gisup.yaml")

	cfg := Default()
	cfg.Database.Name = "staging_db"
	cfg.Repos.Backend.Dir = "backend-checkout"
	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "staging_db", loaded.Database.Name)
	assert.Equal(t, "backend-checkout", loaded.Repos.Backend.Dir)
	// Untouched fields keep their defaults
	assert.Equal(t, "webgis_user", loaded.Database.User)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gisup.yaml")
	partial := "database:\n  name: custom_db\n"
	require.NoError(t, os.WriteFile(path, []byte(partial), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "custom_db", cfg.Database.Name)
	assert.Equal(t, "webgis_user", cfg.Database.User)
	assert.Equal(t, "python3", cfg.Python.Interpreter)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gisup.yaml")
	require.NoError(t, Save(Default(), path))

	t.Setenv("GISUP_DB_PASSWORD", "s3cret-from-env")
	t.Setenv("GISUP_SUPERUSER_DSN", "host=db.internal user=postgres dbname=postgres sslmode=require")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "s3cret-from-env", cfg.Database.Password)
	assert.Equal(t, "host=db.internal user=postgres dbname=postgres sslmode=require", cfg.Database.SuperuserDSN)
	// Fields without overrides are untouched
	assert.Equal(t, "webgis_db", cfg.Database.Name)
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing database name", func(c *Config) { c.Database.Name = "" }},
		{"missing database user", func(c *Config) { c.Database.User = "" }},
		{"missing superuser dsn", func(c *Config) { c.Database.SuperuserDSN = "" }},
		{"missing admin username", func(c *Config) { c.Admin.Username = "" }},
		{"missing frontend url", func(c *Config) { c.Repos.Frontend.URL = "" }},
		{"missing backend dir", func(c *Config) { c.Repos.Backend.Dir = "" }},
		{"missing venv dir", func(c *Config) { c.Python.VenvDir = "" }},
		{"port out of range", func(c *Config) { c.Database.Port = 70000 }},
		{"port zero", func(c *Config) { c.Database.Port = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
