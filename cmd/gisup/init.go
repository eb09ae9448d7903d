// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/gisup/internal/config"
	"github.com/kraklabs/gisup/internal/errors"
	"github.com/kraklabs/gisup/internal/ui"
)

// runInit executes the 'init' CLI command, which writes the default
// configuration file.
func runInit(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	force := fs.Bool("force", false, "Overwrite an existing configuration file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: gisup init [options]

Description:
  Write the default configuration to %s. The defaults target a local
  development environment; edit the file before running 'gisup up' to
  point at different repositories, database names, or credentials.

  Secrets can stay out of the file entirely: GISUP_DB_PASSWORD,
  GISUP_SUPERUSER_DSN, and GISUP_ADMIN_PASSWORD override the
  corresponding fields at load time.

Options:
`, config.DefaultPath)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	path := globals.ConfigPath

	if !*force {
		if _, err := os.Stat(path); err == nil {
			errors.FatalError(errors.NewConflictError(
				"Configuration file already exists",
				fmt.Sprintf("%s is already present", path),
				"Edit it directly, or re-run with --force to overwrite",
			), globals.JSON)
		}
	}

	if err := config.Save(config.Default(), path); err != nil {
		errors.FatalError(errors.NewConfigError(
			"Could not write configuration",
			fmt.Sprintf("Failed to write %s", path),
			"Check directory permissions",
			err,
		), globals.JSON)
	}

	ui.Successf("Wrote %s", path)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Printf("  $EDITOR %s    Review the defaults\n", path)
	fmt.Println("  gisup up           Bootstrap the environment")
}
