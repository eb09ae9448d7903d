// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/gisup/internal/errors"
	"github.com/kraklabs/gisup/internal/execx"
	"github.com/kraklabs/gisup/internal/provision"
	"github.com/kraklabs/gisup/internal/ui"
)

// runVenv executes the 'venv' CLI command, which builds the backend
// Python environment.
func runVenv(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("venv", flag.ExitOnError)
	workDir := fs.String("workdir", ".", "Directory the backend is checked out under")
	skipGDAL := fs.Bool("skip-gdal", false, "Skip installing the GDAL Python binding")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: gisup venv [options]

Description:
  Create the virtual environment inside the backend checkout (reused if
  it already exists), upgrade the packaging tools, install the
  dependency manifest, and pin the GDAL Python binding to the native
  library version reported by gdal-config.

  If the bulk dependency install fails, each requirement is retried
  individually and failures are reported without aborting, so one broken
  pin does not block the rest of the environment.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg := loadConfig(globals)
	ctx := context.Background()
	runner := execx.System{}
	backendDir := filepath.Join(*workDir, cfg.Repos.Backend.Dir)

	venv, created, err := provision.EnsureVenv(ctx, runner, cfg.Python, backendDir, nil)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	if created {
		ui.Successf("Created virtual environment at %s", venv.Dir)
	} else {
		ui.Infof("Reusing virtual environment at %s", venv.Dir)
	}

	reqs := filepath.Join(backendDir, cfg.Python.Requirements)
	ui.Info("Installing dependencies...")
	if err := provision.InstallRequirements(ctx, runner, venv, reqs, nil); err != nil {
		errors.FatalError(err, globals.JSON)
	}
	ui.Success("Dependencies installed")

	if !*skipGDAL {
		version, err := provision.InstallGDALBinding(ctx, runner, venv, nil)
		if err != nil {
			errors.FatalError(err, globals.JSON)
		}
		ui.Successf("GDAL binding pinned to %s", version)
	}
}
