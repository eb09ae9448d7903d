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

// runDjango executes the 'django' CLI command: migrations, static files,
// and the admin account.
func runDjango(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("django", flag.ExitOnError)
	workDir := fs.String("workdir", ".", "Directory the backend is checked out under")
	skipStatic := fs.Bool("skip-static", false, "Skip collecting static files")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: gisup django [options]

Description:
  Apply the Django side of the bootstrap inside the backend checkout:
  run database migrations, collect static files, and ensure the admin
  superuser exists. The superuser is only created when the configured
  username is absent; an existing account is never modified.

  Requires the virtual environment ('gisup venv') and the .env file
  ('gisup envfile') to be in place.

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

	venv := provision.Venv{Dir: filepath.Join(backendDir, cfg.Python.VenvDir)}
	dj := provision.Django{Python: venv.Python(), Dir: backendDir}

	ui.Info("Applying migrations...")
	if err := dj.Migrate(ctx, runner); err != nil {
		errors.FatalError(err, globals.JSON)
	}
	ui.Success("Migrations applied")

	if !*skipStatic {
		ui.Info("Collecting static files...")
		if err := dj.CollectStatic(ctx, runner); err != nil {
			errors.FatalError(err, globals.JSON)
		}
		ui.Success("Static files collected")
	}

	created, err := dj.EnsureSuperuser(ctx, runner, cfg.Admin, nil)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	if created {
		ui.Successf("Superuser %s created", cfg.Admin.Username)
	} else {
		ui.Infof("Superuser %s already exists", cfg.Admin.Username)
	}
}
