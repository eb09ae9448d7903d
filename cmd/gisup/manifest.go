// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/gisup/internal/errors"
	"github.com/kraklabs/gisup/internal/manifest"
	"github.com/kraklabs/gisup/internal/ui"
)

// runManifest executes the 'manifest' CLI command, which generates the
// deployment manifest.
func runManifest(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("manifest", flag.ExitOnError)
	workDir := fs.String("workdir", ".", "Directory the manifest is written to")
	worker := fs.Bool("worker", false, "Include a background worker service")
	cron := fs.Bool("cron", false, "Include a nightly maintenance job")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: gisup manifest [options]

Description:
  Generate %s: the static frontend site, the Python backend service,
  and a managed PostgreSQL database, with the backend bound to the
  database connection string and a platform-generated secret key. The
  file is derived entirely from gisup.yaml and overwritten on every
  run.

Options:
`, manifest.DefaultPath)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  gisup manifest
  gisup manifest --worker --cron
`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg := loadConfig(globals)
	path := filepath.Join(*workDir, manifest.DefaultPath)

	opts := manifest.Options{Worker: *worker, Cron: *cron}
	if err := manifest.Write(cfg, opts, path); err != nil {
		errors.FatalError(errors.NewConfigError(
			"Could not write deployment manifest",
			fmt.Sprintf("Failed to write %s", path),
			"Check directory permissions",
			err,
		), globals.JSON)
	}

	ui.Successf("Wrote %s", path)
}
