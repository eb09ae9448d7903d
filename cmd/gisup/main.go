// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later
// Package main implements the gisup CLI for bootstrapping WebGIS
// development environments.
//
// Usage:
//
//	gisup init                    Write a default gisup.yaml configuration
//	gisup up [--keep-db]          Run the full bootstrap sequence
//	gisup preflight [--json]      Check required tools without changing anything
//	gisup db [--keep-db]          Provision only the PostGIS database
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/kraklabs/gisup/internal/config"
	"github.com/kraklabs/gisup/internal/errors"
	"github.com/kraklabs/gisup/internal/ui"
)

// Version information (set via ldflags during build)
var (
	version = "dev"     // Version string
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// GlobalFlags carries the options shared by every subcommand.
type GlobalFlags struct {
	// JSON switches output to machine-readable JSON.
	JSON bool

	// Quiet suppresses progress output.
	Quiet bool

	// NoColor disables ANSI colors.
	NoColor bool

	// ConfigPath is the gisup.yaml location.
	ConfigPath string
}

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version and exit")
		jsonOutput  = flag.Bool("json", false, "Output as JSON (machine-readable)")
		quiet       = flag.Bool("q", false, "Suppress progress output")
		noColor     = flag.Bool("no-color", false, "Disable colored output")
		configPath  = flag.String("config", config.DefaultPath, "Path to gisup.yaml")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `gisup - WebGIS environment bootstrapper

gisup provisions a complete WebGIS development environment: system
packages, a PostGIS database, the frontend and backend checkouts, an
isolated Python environment, Django migrations and admin account, the
backend .env file, and a deployment manifest.

Usage:
  gisup <command> [options]

Commands:
  init        Write a default gisup.yaml configuration
  up          Run the full bootstrap sequence
  preflight   Check required tools without changing anything
  packages    Install system packages only
  db          Provision the PostGIS database only (destructive!)
  sync        Clone or update the frontend and backend repositories
  venv        Build the backend Python environment
  envfile     Write the backend .env file
  django      Run migrations, collect static files, ensure the admin account
  manifest    Generate the deployment manifest (render.yaml)

Global Options:
  --config    Path to gisup.yaml (default: ./gisup.yaml)
  --json      Output as JSON
  --no-color  Disable colored output
  -q          Suppress progress output
  --version   Show version and exit

Examples:
  gisup init                         Write the default configuration
  gisup up                           Bootstrap everything
  gisup up --keep-db                 Bootstrap, preserving an existing database
  gisup preflight --json             Tool check for CI
  gisup db --keep-db                 Ensure role/extension without dropping data

Getting Started:
  1. Write the configuration:   gisup init
  2. Review and edit:           $EDITOR gisup.yaml
  3. Bootstrap the environment: gisup up

Environment Variables:
  GISUP_DB_PASSWORD      Application role password
  GISUP_SUPERUSER_DSN    PostgreSQL superuser connection string
  GISUP_ADMIN_PASSWORD   Django admin password
  GISUP_LOG              Log level: debug, info, warn, error (default: warn)

For detailed command help: gisup <command> --help

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("gisup version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		os.Exit(0)
	}

	globals := GlobalFlags{
		JSON:       *jsonOutput,
		Quiet:      *quiet || *jsonOutput,
		NoColor:    *noColor,
		ConfigPath: *configPath,
	}
	ui.InitColors(globals.NoColor)
	setupLogging()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "init":
		runInit(cmdArgs, globals)
	case "up":
		runUp(cmdArgs, globals)
	case "preflight":
		runPreflight(cmdArgs, globals)
	case "packages":
		runPackages(cmdArgs, globals)
	case "db":
		runDB(cmdArgs, globals)
	case "sync":
		runSync(cmdArgs, globals)
	case "venv":
		runVenv(cmdArgs, globals)
	case "envfile":
		runEnvfile(cmdArgs, globals)
	case "django":
		runDjango(cmdArgs, globals)
	case "manifest":
		runManifest(cmdArgs, globals)
	case "version":
		fmt.Printf("gisup version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}

// setupLogging installs a text slog handler on stderr. The level comes
// from GISUP_LOG and defaults to warn so structured events stay out of
// the way of the ui output.
func setupLogging() {
	level := slog.LevelWarn
	switch os.Getenv("GISUP_LOG") {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// loadConfig loads and validates gisup.yaml, exiting with a config error
// when it is missing or invalid.
func loadConfig(globals GlobalFlags) *config.Config {
	cfg, err := config.Load(globals.ConfigPath)
	if err != nil {
		errors.FatalError(errors.NewConfigError(
			"Could not load configuration",
			fmt.Sprintf("Failed to read %s", globals.ConfigPath),
			"Run 'gisup init' to create a default configuration",
			err,
		), globals.JSON)
	}
	return cfg
}
