// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package provision

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/kraklabs/gisup/internal/config"
	"github.com/kraklabs/gisup/internal/errors"
	"github.com/kraklabs/gisup/internal/execx"
)

// Venv locates the interpreter and pip inside an isolated Python
// environment rooted in the backend checkout.
type Venv struct {
	// Dir is the absolute or checkout-relative venv directory.
	Dir string
}

// Python returns the venv interpreter path.
func (v Venv) Python() string { return filepath.Join(v.Dir, "bin", "python") }

// Pip returns the venv pip path.
func (v Venv) Pip() string { return filepath.Join(v.Dir, "bin", "pip") }

// exists reports whether the venv has been created. pyvenv.cfg is written
// by `python -m venv` and is the cheapest reliable marker.
func (v Venv) exists() bool {
	_, err := os.Stat(filepath.Join(v.Dir, "pyvenv.cfg"))
	return err == nil
}

// EnsureVenv creates the virtual environment if it does not exist.
// Existing environments are reused, never recreated. It reports whether
// an environment was created.
func EnsureVenv(ctx context.Context, r execx.Runner, cfg config.Python, backendDir string, logger *slog.Logger) (Venv, bool, error) {
	if logger == nil {
		logger = slog.Default()
	}
	venv := Venv{Dir: filepath.Join(backendDir, cfg.VenvDir)}

	if venv.exists() {
		logger.Info("provision.venv.reuse", "dir", venv.Dir)
		return venv, false, nil
	}

	logger.Info("provision.venv.create", "dir", venv.Dir)
	if err := r.Run(ctx, execx.Cmd{
		Name: cfg.Interpreter,
		Args: []string{"-m", "venv", venv.Dir},
	}); err != nil {
		return venv, false, errors.NewInternalError(
			"Cannot create Python virtual environment",
			fmt.Sprintf("%s -m venv %s failed", cfg.Interpreter, venv.Dir),
			"Check that the python3-venv package is installed",
			err,
		)
	}
	return venv, true, nil
}

// InstallRequirements installs the dependency manifest into the venv.
//
// The base tooling (pip, setuptools, wheel) is upgraded first, then the
// manifest is installed in bulk. If the bulk install fails - typically one
// native extension failing to build - the fallback installs the manifest
// entries one by one, logging and tolerating individual failures so one
// broken package does not block the remaining pure-Python ones. This is
// the only place in the bootstrapper where an external command failure is
// not fatal.
func InstallRequirements(ctx context.Context, r execx.Runner, venv Venv, requirementsPath string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	if err := r.Run(ctx, execx.Cmd{
		Name: venv.Pip(),
		Args: []string{"install", "--upgrade", "pip", "setuptools", "wheel"},
	}); err != nil {
		return errors.NewInternalError(
			"Cannot upgrade pip tooling",
			"pip install --upgrade pip setuptools wheel failed",
			"Check the virtual environment and network connectivity",
			err,
		)
	}

	err := r.Run(ctx, execx.Cmd{
		Name: venv.Pip(),
		Args: []string{"install", "-r", requirementsPath},
	})
	if err == nil {
		return nil
	}

	logger.Warn("provision.venv.bulk_install_failed", "err", err)
	return installOneByOne(ctx, r, venv, requirementsPath, logger)
}

// installOneByOne is the tolerant fallback path for a failed bulk install.
func installOneByOne(ctx context.Context, r execx.Runner, venv Venv, requirementsPath string, logger *slog.Logger) error {
	data, err := os.ReadFile(requirementsPath) //nolint:gosec // G304: path comes from config
	if err != nil {
		return errors.NewConfigError(
			"Cannot read requirements manifest",
			fmt.Sprintf("%s is not readable", requirementsPath),
			"Check python.requirements in gisup.yaml",
			err,
		)
	}

	for _, line := range strings.Split(string(data), "\n") {
		req := strings.TrimSpace(line)
		if req == "" || strings.HasPrefix(req, "#") {
			continue
		}
		if err := r.Run(ctx, execx.Cmd{
			Name: venv.Pip(),
			Args: []string{"install", req},
		}); err != nil {
			// Tolerated: log and continue with the rest of the manifest.
			logger.Warn("provision.venv.requirement_failed", "requirement", req, "err", err)
		}
	}
	return nil
}

// InstallGDALBinding installs the Python GDAL binding pinned to the
// installed native library's exact version, queried from gdal-config.
// A version mismatch between binding and library fails at import time, so
// this runs as its own step after the manifest install.
func InstallGDALBinding(ctx context.Context, r execx.Runner, venv Venv, logger *slog.Logger) (string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	version, err := r.Output(ctx, execx.Cmd{
		Name: "gdal-config",
		Args: []string{"--version"},
	})
	if err != nil {
		return "", errors.NewPreflightError(
			"Cannot determine the native GDAL version",
			"gdal-config --version failed",
			"Install the GDAL development package (libgdal-dev / gdal) first",
		)
	}

	logger.Info("provision.venv.gdal", "version", version)
	if err := r.Run(ctx, execx.Cmd{
		Name: venv.Pip(),
		Args: []string{"install", "GDAL==" + version},
	}); err != nil {
		return version, errors.NewInternalError(
			"Cannot install the GDAL Python binding",
			fmt.Sprintf("pip install GDAL==%s failed", version),
			"Check that libgdal-dev headers match the reported version",
			err,
		)
	}
	return version, nil
}
