// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/gisup/internal/bootstrap"
	"github.com/kraklabs/gisup/internal/errors"
	"github.com/kraklabs/gisup/internal/execx"
	"github.com/kraklabs/gisup/internal/manifest"
	"github.com/kraklabs/gisup/internal/output"
	"github.com/kraklabs/gisup/internal/provision"
	"github.com/kraklabs/gisup/internal/ui"
)

// stepTitles maps orchestrator step names to the lines shown to the
// operator.
var stepTitles = map[string]string{
	"preflight": "Checking required tools",
	"packages":  "Installing system packages",
	"database":  "Provisioning database",
	"sync":      "Syncing repositories",
	"venv":      "Building Python environment",
	"envfile":   "Writing backend .env",
	"django":    "Applying Django setup",
	"manifest":  "Generating deployment manifest",
}

// runUp executes the 'up' CLI command: the full bootstrap sequence.
func runUp(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("up", flag.ExitOnError)
	keepDB := fs.Bool("keep-db", false, "Preserve an existing database instead of recreating it")
	forceEnv := fs.Bool("force-env", false, "Overwrite an existing .env file (rotates the secret key)")
	worker := fs.Bool("worker", false, "Include a background worker in the deployment manifest")
	cron := fs.Bool("cron", false, "Include a nightly maintenance job in the deployment manifest")
	workDir := fs.String("workdir", ".", "Directory for checkouts and the deployment manifest")
	stepTimeout := fs.Duration("step-timeout", 0, "Bound each step's duration (0 = no bound)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: gisup up [options]

Description:
  Run the full environment bootstrap. This command:
  1. Verifies required tools are on PATH.
  2. Installs system packages (PostgreSQL, PostGIS, GDAL, build tools).
  3. Drops and recreates the application database with PostGIS enabled.
  4. Clones or updates the frontend and backend repositories.
  5. Builds the Python environment and installs dependencies.
  6. Writes the backend .env file (preserved if it already exists).
  7. Runs migrations, collects static files, ensures the admin account.
  8. Generates the deployment manifest.

  Every step except the database recreation is idempotent; re-run after
  a failure and the sequence converges. Use --keep-db to make the
  database step non-destructive too.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  gisup up
  gisup up --keep-db
  gisup up --worker --cron
`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg := loadConfig(globals)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !globals.Quiet {
		ui.Header("WebGIS Environment Bootstrap")
	}

	bar := NewStepBar(NewProgressConfig(globals), bootstrap.StepCount, "bootstrapping")

	res, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:      cfg,
		Runner:      execx.System{},
		Platform:    nil, // detect
		WorkDir:     *workDir,
		KeepDB:      *keepDB,
		ForceEnv:    *forceEnv,
		Manifest:    manifest.Options{Worker: *worker, Cron: *cron},
		StepTimeout: *stepTimeout,
		OnStep: func(n, total int, name string) {
			if bar != nil {
				_ = bar.Add(1)
			}
			if !globals.Quiet {
				ui.Step(n, total, stepTitles[name])
			}
		},
	})
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	if globals.JSON {
		if jerr := output.JSON(upResultJSON(res)); jerr != nil {
			errors.FatalError(jerr, true)
		}
		return
	}

	fmt.Println()
	ui.Success("Environment is ready!")
	fmt.Printf("  %s %s\n", ui.Label("Database:"), describeDB(res, *keepDB, cfg.Database.Name))
	fmt.Printf("  %s %s, %s\n", ui.Label("Checkouts:"),
		describeSync("frontend", res.FrontendSync),
		describeSync("backend", res.BackendSync))
	fmt.Printf("  %s %s\n", ui.Label("Admin:"), describeSuperuser(res, cfg.Admin.Username))
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Printf("  cd %s && npm run dev       Start the frontend\n", cfg.Repos.Frontend.Dir)
	fmt.Printf("  cd %s && %s/bin/python manage.py runserver\n",
		cfg.Repos.Backend.Dir, cfg.Python.VenvDir)
}

type upResult struct {
	RoleCreated       bool    `json:"role_created"`
	DatabaseRecreated bool    `json:"database_recreated"`
	FrontendSync      string  `json:"frontend_sync"`
	BackendSync       string  `json:"backend_sync"`
	VenvCreated       bool    `json:"venv_created"`
	GDALVersion       string  `json:"gdal_version,omitempty"`
	EnvWritten        bool    `json:"env_written"`
	SuperuserCreated  bool    `json:"superuser_created"`
	DurationSeconds   float64 `json:"duration_seconds"`
}

func upResultJSON(res *bootstrap.Result) upResult {
	return upResult{
		RoleCreated:       res.RoleCreated,
		DatabaseRecreated: res.DatabaseRecreated,
		FrontendSync:      string(res.FrontendSync),
		BackendSync:       string(res.BackendSync),
		VenvCreated:       res.VenvCreated,
		GDALVersion:       res.GDALVersion,
		EnvWritten:        res.EnvWritten,
		SuperuserCreated:  res.SuperuserCreated,
		DurationSeconds:   res.Duration.Seconds(),
	}
}

func describeDB(res *bootstrap.Result, keep bool, name string) string {
	switch {
	case res.DatabaseRecreated:
		return fmt.Sprintf("%s recreated (empty, PostGIS enabled)", name)
	case keep:
		return fmt.Sprintf("%s preserved", name)
	default:
		return name
	}
}

func describeSync(label string, action provision.SyncAction) string {
	return fmt.Sprintf("%s %s", label, string(action))
}

func describeSuperuser(res *bootstrap.Result, username string) string {
	if res.SuperuserCreated {
		return fmt.Sprintf("%s created", username)
	}
	return fmt.Sprintf("%s already present", username)
}
