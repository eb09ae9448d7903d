// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/kraklabs/gisup/internal/config"
)

func TestBuild_BaseServices(t *testing.T) {
	b := Build(config.Default(), Options{})

	require.Len(t, b.Databases, 1)
	assert.Equal(t, "webgis_db", b.Databases[0].Name)

	require.Len(t, b.Services, 2)
	assert.Equal(t, "static", b.Services[0].Runtime)
	assert.Equal(t, "webgis-frontend", b.Services[0].Name)
	assert.Equal(t, "python", b.Services[1].Runtime)
	assert.Equal(t, "webgis-backend", b.Services[1].Name)

	// Backend binds its connection string to the managed database
	var dbBinding *EnvVar
	for i, ev := range b.Services[1].EnvVars {
		if ev.Key == "DATABASE_URL" {
			dbBinding = &b.Services[1].EnvVars[i]
		}
	}
	require.NotNil(t, dbBinding)
	require.NotNil(t, dbBinding.FromDatabase)
	assert.Equal(t, "webgis_db", dbBinding.FromDatabase.Name)
	assert.Equal(t, "connectionString", dbBinding.FromDatabase.Property)
}

func TestBuild_OptionalServices(t *testing.T) {
	b := Build(config.Default(), Options{Worker: true, Cron: true})
	require.Len(t, b.Services, 4)

	types := map[string]string{}
	for _, s := range b.Services {
		types[s.Name] = s.Type
	}
	assert.Equal(t, "worker", types["webgis-worker"])
	assert.Equal(t, "cron", types["webgis-maintenance"])

	// Cron jobs need a schedule
	for _, s := range b.Services {
		if s.Type == "cron" {
			assert.NotEmpty(t, s.Schedule)
		}
	}
}

func TestWrite_OverwritesUnconditionally(t *testing.T) {
	path := filepath.Join(t.TempDir(), "render.yaml")
	require.NoError(t, os.WriteFile(path, []byte("stale: content\n"), 0644))

	require.NoError(t, Write(config.Default(), Options{}, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "stale")

	// The output must parse back into the blueprint shape
	var decoded Blueprint
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Len(t, decoded.Services, 2)
	assert.Len(t, decoded.Databases, 1)
}
