// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/gisup/internal/envfile"
	"github.com/kraklabs/gisup/internal/errors"
	"github.com/kraklabs/gisup/internal/ui"
)

// runEnvfile executes the 'envfile' CLI command, which writes the backend
// .env file.
func runEnvfile(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("envfile", flag.ExitOnError)
	workDir := fs.String("workdir", ".", "Directory the backend is checked out under")
	force := fs.Bool("force", false, "Overwrite an existing .env file (rotates the secret key)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: gisup envfile [options]

Description:
  Write the backend .env file with the database connection, a freshly
  generated Django secret key, and the service URLs. An existing file
  is left untouched unless --force is given, so a re-run never rotates
  the secret under a running backend.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg := loadConfig(globals)
	path := filepath.Join(*workDir, cfg.Repos.Backend.Dir, envfile.FileName)

	written, err := envfile.Write(path, cfg, *force)
	if err != nil {
		errors.FatalError(errors.NewConfigError(
			"Could not write environment file",
			fmt.Sprintf("Failed to write %s", path),
			"Check that the backend checkout exists and is writable",
			err,
		), globals.JSON)
	}

	if written {
		ui.Successf("Wrote %s", path)
	} else {
		ui.Infof("%s already exists, left untouched (use --force to regenerate)", path)
	}
}
