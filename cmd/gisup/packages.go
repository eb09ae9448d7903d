// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/gisup/internal/errors"
	"github.com/kraklabs/gisup/internal/execx"
	"github.com/kraklabs/gisup/internal/preflight"
	"github.com/kraklabs/gisup/internal/ui"
)

// runPackages executes the 'packages' CLI command, which installs the
// system packages the environment depends on.
func runPackages(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("packages", flag.ExitOnError)
	list := fs.Bool("list", false, "Print the package list without installing")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: gisup packages [options]

Description:
  Install the system packages the environment depends on: PostgreSQL
  with PostGIS, the Python venv tooling, native build dependencies, and
  the GDAL geospatial libraries. The package manager's own idempotence
  makes re-runs safe.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	plat := detectPlatform(globals)
	runner := execx.System{}

	if *list {
		fmt.Println(strings.Join(plat.Packages(), "\n"))
		return
	}

	if err := preflight.Check(plat, runner).Err(); err != nil {
		errors.FatalError(err, globals.JSON)
	}

	ui.Infof("Installing %d packages via %s...", len(plat.Packages()), plat.Name())
	if err := plat.InstallPackages(context.Background(), runner); err != nil {
		errors.FatalError(errors.NewPermissionError(
			"System package installation failed",
			"The package manager exited non-zero",
			"Check the package manager output above; on Linux, verify sudo access",
			err,
		), globals.JSON)
	}
	ui.Success("System packages installed")
}
