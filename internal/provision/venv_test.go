// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package provision

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/gisup/internal/config"
	"github.com/kraklabs/gisup/internal/execx"
)

func pythonCfg() config.Python {
	return config.Python{Interpreter: "python3", VenvDir: ".venv", Requirements: "requirements.txt"}
}

func TestEnsureVenv_CreatesWhenAbsent(t *testing.T) {
	backend := t.TempDir()
	r := &execx.FakeRunner{}

	venv, created, err := EnsureVenv(context.Background(), r, pythonCfg(), backend, nil)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, filepath.Join(backend, ".venv"), venv.Dir)
	assert.True(t, r.CalledWith("python3 -m venv "+venv.Dir))
}

func TestEnsureVenv_ReusesExisting(t *testing.T) {
	backend := t.TempDir()
	venvDir := filepath.Join(backend, ".venv")
	require.NoError(t, os.MkdirAll(venvDir, 0750))
	require.NoError(t, os.WriteFile(filepath.Join(venvDir, "pyvenv.cfg"), []byte("home = /usr\n"), 0600))

	r := &execx.FakeRunner{}
	_, created, err := EnsureVenv(context.Background(), r, pythonCfg(), backend, nil)
	require.NoError(t, err)
	assert.False(t, created)
	// Reuse means no process is spawned at all
	assert.Empty(t, r.Calls)
}

func TestInstallRequirements_BulkSuccess(t *testing.T) {
	venv := Venv{Dir: filepath.Join(t.TempDir(), ".venv")}
	r := &execx.FakeRunner{}

	err := InstallRequirements(context.Background(), r, venv, "requirements.txt", nil)
	require.NoError(t, err)

	require.Len(t, r.Calls, 2)
	assert.Contains(t, r.Calls[0], "install --upgrade pip setuptools wheel")
	assert.Contains(t, r.Calls[1], "install -r requirements.txt")
}

func TestInstallRequirements_FallbackToleratesIndividualFailures(t *testing.T) {
	dir := t.TempDir()
	reqs := filepath.Join(dir, "requirements.txt")
	manifest := strings.Join([]string{
		"# WebGIS backend dependencies",
		"Django==5.0.6",
		"djangorestframework==3.15.1",
		"",
		"psycopg2-binary==2.9.9",
	}, "\n")
	require.NoError(t, os.WriteFile(reqs, []byte(manifest), 0600))

	venv := Venv{Dir: filepath.Join(dir, ".venv")}
	pip := venv.Pip()
	r := &execx.FakeRunner{
		Fail: map[string]error{
			pip + " install -r":                       fmt.Errorf("exit status 1"),
			pip + " install psycopg2-binary==2.9.9":   fmt.Errorf("exit status 1"),
		},
	}

	// Individual failures are tolerated: the step still succeeds
	err := InstallRequirements(context.Background(), r, venv, reqs, nil)
	require.NoError(t, err)

	// Comments and blank lines are skipped; all three requirements tried
	assert.True(t, r.CalledWith(pip+" install Django==5.0.6"))
	assert.True(t, r.CalledWith(pip+" install djangorestframework==3.15.1"))
	assert.True(t, r.CalledWith(pip+" install psycopg2-binary==2.9.9"))
	assert.False(t, r.CalledWith(pip+" install #"))
}

func TestInstallRequirements_FallbackFailsOnUnreadableManifest(t *testing.T) {
	venv := Venv{Dir: filepath.Join(t.TempDir(), ".venv")}
	r := &execx.FakeRunner{
		Fail: map[string]error{venv.Pip() + " install -r": fmt.Errorf("exit status 1")},
	}

	err := InstallRequirements(context.Background(), r, venv, filepath.Join(t.TempDir(), "missing.txt"), nil)
	assert.Error(t, err)
}

func TestInstallGDALBinding_PinsNativeVersion(t *testing.T) {
	venv := Venv{Dir: filepath.Join(t.TempDir(), ".venv")}
	r := &execx.FakeRunner{
		Outputs: map[string]string{"gdal-config --version": "3.8.4"},
	}

	version, err := InstallGDALBinding(context.Background(), r, venv, nil)
	require.NoError(t, err)
	assert.Equal(t, "3.8.4", version)
	assert.True(t, r.CalledWith(venv.Pip()+" install GDAL==3.8.4"))
}

func TestInstallGDALBinding_FailsWithoutGdalConfig(t *testing.T) {
	venv := Venv{Dir: filepath.Join(t.TempDir(), ".venv")}
	r := &execx.FakeRunner{
		Fail: map[string]error{"gdal-config": fmt.Errorf("executable file not found")},
	}

	_, err := InstallGDALBinding(context.Background(), r, venv, nil)
	require.Error(t, err)
	// No pip install attempted without a known version
	assert.False(t, r.CalledWith(venv.Pip()))
}
