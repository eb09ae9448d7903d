// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/gisup/internal/errors"
	"github.com/kraklabs/gisup/internal/execx"
	"github.com/kraklabs/gisup/internal/output"
	"github.com/kraklabs/gisup/internal/provision"
	"github.com/kraklabs/gisup/internal/ui"
)

// runDB executes the 'db' CLI command, which provisions only the PostGIS
// database.
func runDB(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	keepDB := fs.Bool("keep-db", false, "Preserve an existing database instead of recreating it")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: gisup db [options]

Description:
  Provision the PostGIS database: ensure the application role exists,
  drop and recreate the database, and enable the spatial extension.

  WARNING: without --keep-db this DROPS the existing database and all
  its data. The role is never dropped and an existing role's password
  is never changed.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  gisup db
  gisup db --keep-db
  GISUP_SUPERUSER_DSN="host=db.internal user=postgres ..." gisup db
`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg := loadConfig(globals)
	plat := detectPlatform(globals)

	spinner := NewSpinner(NewProgressConfig(globals), fmt.Sprintf("provisioning %s", cfg.Database.Name))
	res, err := provision.ProvisionDatabase(context.Background(), cfg.Database, plat, execx.System{}, nil, *keepDB)
	if spinner != nil {
		_ = spinner.Finish()
	}
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	if globals.JSON {
		if jerr := output.JSON(res); jerr != nil {
			errors.FatalError(jerr, true)
		}
		return
	}

	if res.RoleCreated {
		ui.Successf("Role %s created", cfg.Database.User)
	} else {
		ui.Infof("Role %s already exists (password unchanged)", cfg.Database.User)
	}
	if res.DatabaseRecreated {
		ui.Successf("Database %s recreated with %s enabled", cfg.Database.Name, res.Extension)
	} else {
		ui.Infof("Database %s preserved", cfg.Database.Name)
	}
}
