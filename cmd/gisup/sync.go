// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/gisup/internal/config"
	"github.com/kraklabs/gisup/internal/errors"
	"github.com/kraklabs/gisup/internal/execx"
	"github.com/kraklabs/gisup/internal/output"
	"github.com/kraklabs/gisup/internal/provision"
	"github.com/kraklabs/gisup/internal/ui"
)

// runSync executes the 'sync' CLI command, which clones or fast-forwards
// the frontend and backend repositories.
func runSync(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	workDir := fs.String("workdir", ".", "Directory the repositories are checked out under")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: gisup sync [options]

Description:
  Clone the frontend and backend repositories, or fast-forward them if
  they are already checked out. Local commits that diverge from the
  remote are never discarded; a diverged checkout is reported as a
  conflict for the operator to resolve.

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

	type repoSync struct {
		Name   string `json:"name"`
		Dir    string `json:"dir"`
		Action string `json:"action"`
	}
	var results []repoSync

	repos := []struct {
		name string
		repo config.Repo
	}{
		{"frontend", cfg.Repos.Frontend},
		{"backend", cfg.Repos.Backend},
	}

	for _, r := range repos {
		dir := filepath.Join(*workDir, r.repo.Dir)
		action, err := provision.SyncRepo(ctx, runner, config.Repo{URL: r.repo.URL, Dir: dir}, nil)
		if err != nil {
			errors.FatalError(err, globals.JSON)
		}
		results = append(results, repoSync{Name: r.name, Dir: dir, Action: string(action)})
		if !globals.Quiet {
			ui.Successf("%s %s at %s", r.name, action, ui.DimText(dir))
		}
	}

	if globals.JSON {
		if err := output.JSON(results); err != nil {
			errors.FatalError(err, true)
		}
	}
}
