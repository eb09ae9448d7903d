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

package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/kraklabs/gisup/internal/config"
	"github.com/kraklabs/gisup/internal/envfile"
	"github.com/kraklabs/gisup/internal/errors"
	"github.com/kraklabs/gisup/internal/execx"
	"github.com/kraklabs/gisup/internal/manifest"
	"github.com/kraklabs/gisup/internal/platform"
	"github.com/kraklabs/gisup/internal/preflight"
	"github.com/kraklabs/gisup/internal/provision"
)

// StepCount is the number of top-level steps Run executes.
const StepCount = 8

// Options configures a bootstrap run.
type Options struct {
	// Config is the validated bootstrap configuration. Required.
	Config *config.Config

	// Runner executes external commands. Required.
	Runner execx.Runner

	// Logger is optional; nil uses slog.Default().
	Logger *slog.Logger

	// Platform is optional; nil uses platform.Detect().
	Platform platform.Platform

	// WorkDir is where the repositories are checked out and the manifest
	// is written. Defaults to ".".
	WorkDir string

	// KeepDB preserves an existing application database instead of
	// dropping and recreating it.
	KeepDB bool

	// ForceEnv overwrites an existing .env file, rotating its secret key.
	ForceEnv bool

	// Manifest selects the optional services of the deployment manifest.
	Manifest manifest.Options

	// StepTimeout bounds each individual step. Zero means no bound; a
	// hung external command then hangs the run, matching interactive use
	// where the operator watches the output.
	StepTimeout time.Duration

	// OnStep, when set, is called before each step starts. n is 1-based,
	// total is StepCount.
	OnStep func(n, total int, name string)
}

// Result summarizes what a run actually changed.
type Result struct {
	RoleCreated       bool
	DatabaseRecreated bool
	FrontendSync      provision.SyncAction
	BackendSync       provision.SyncAction
	VenvCreated       bool
	GDALVersion       string
	EnvWritten        bool
	SuperuserCreated  bool
	Duration          time.Duration
}

// Run executes the full bootstrap sequence. The first failing step aborts
// the run; the returned error is the step's error, annotated with the
// step name.
func Run(ctx context.Context, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workDir := opts.WorkDir
	if workDir == "" {
		workDir = "."
	}

	plat := opts.Platform
	if plat == nil {
		var err error
		plat, err = platform.Detect()
		if err != nil {
			return nil, err
		}
	}

	cfg := opts.Config
	r := opts.Runner
	res := &Result{}
	runStart := time.Now()

	logger.Info("bootstrap.run.start",
		"platform", plat.Name(),
		"db", cfg.Database.Name,
		"keep_db", opts.KeepDB,
	)

	frontendDir := filepath.Join(workDir, cfg.Repos.Frontend.Dir)
	backendDir := filepath.Join(workDir, cfg.Repos.Backend.Dir)

	seq := stepper{total: StepCount, logger: logger, onStep: opts.OnStep, timeout: opts.StepTimeout}

	err := seq.run(ctx, "preflight", func(context.Context) error {
		return preflight.Check(plat, r).Err()
	})

	if err == nil {
		err = seq.run(ctx, "packages", func(ctx context.Context) error {
			if perr := plat.InstallPackages(ctx, r); perr != nil {
				return errors.NewPermissionError(
					"System package installation failed",
					"The package manager exited non-zero",
					"Check the package manager output above; on Linux, verify sudo access",
					perr,
				)
			}
			return nil
		})
	}

	if err == nil {
		err = seq.run(ctx, "database", func(ctx context.Context) error {
			db, derr := provision.ProvisionDatabase(ctx, cfg.Database, plat, r, logger, opts.KeepDB)
			if derr != nil {
				return derr
			}
			res.RoleCreated = db.RoleCreated
			res.DatabaseRecreated = db.DatabaseRecreated
			return nil
		})
	}

	if err == nil {
		err = seq.run(ctx, "sync", func(ctx context.Context) error {
			action, serr := provision.SyncRepo(ctx, r, config.Repo{
				URL: cfg.Repos.Frontend.URL,
				Dir: frontendDir,
			}, logger)
			if serr != nil {
				return serr
			}
			res.FrontendSync = action

			action, serr = provision.SyncRepo(ctx, r, config.Repo{
				URL: cfg.Repos.Backend.URL,
				Dir: backendDir,
			}, logger)
			if serr != nil {
				return serr
			}
			res.BackendSync = action
			return nil
		})
	}

	var venv provision.Venv
	if err == nil {
		err = seq.run(ctx, "venv", func(ctx context.Context) error {
			v, created, verr := provision.EnsureVenv(ctx, r, cfg.Python, backendDir, logger)
			if verr != nil {
				return verr
			}
			venv, res.VenvCreated = v, created

			reqs := filepath.Join(backendDir, cfg.Python.Requirements)
			if verr := provision.InstallRequirements(ctx, r, venv, reqs, logger); verr != nil {
				return verr
			}

			version, verr := provision.InstallGDALBinding(ctx, r, venv, logger)
			if verr != nil {
				return verr
			}
			res.GDALVersion = version
			return nil
		})
	}

	if err == nil {
		err = seq.run(ctx, "envfile", func(context.Context) error {
			written, werr := envfile.Write(filepath.Join(backendDir, envfile.FileName), cfg, opts.ForceEnv)
			res.EnvWritten = written
			return werr
		})
	}

	if err == nil {
		err = seq.run(ctx, "django", func(ctx context.Context) error {
			dj := provision.Django{Python: venv.Python(), Dir: backendDir}
			if derr := dj.Migrate(ctx, r); derr != nil {
				return derr
			}
			if derr := dj.CollectStatic(ctx, r); derr != nil {
				return derr
			}
			created, derr := dj.EnsureSuperuser(ctx, r, cfg.Admin, logger)
			if derr != nil {
				return derr
			}
			res.SuperuserCreated = created
			return nil
		})
	}

	if err == nil {
		err = seq.run(ctx, "manifest", func(context.Context) error {
			return manifest.Write(cfg, opts.Manifest, filepath.Join(workDir, manifest.DefaultPath))
		})
	}

	res.Duration = time.Since(runStart)
	recordRun(res.Duration, err)

	if err != nil {
		logger.Error("bootstrap.run.failed", "err", err, "duration", res.Duration)
		return nil, err
	}

	logger.Info("bootstrap.run.success",
		"duration", res.Duration,
		"db_recreated", res.DatabaseRecreated,
		"superuser_created", res.SuperuserCreated,
	)
	return res, nil
}

// stepper numbers the steps, times them, applies the optional per-step
// timeout, and annotates failures with the step name.
type stepper struct {
	n       int
	total   int
	logger  *slog.Logger
	onStep  func(n, total int, name string)
	timeout time.Duration
}

func (s *stepper) run(ctx context.Context, name string, fn func(context.Context) error) error {
	s.n++
	if s.onStep != nil {
		s.onStep(s.n, s.total, name)
	}
	s.logger.Info("bootstrap.step.start", "step", name, "n", s.n, "total", s.total)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	err := fn(ctx)
	recordStep(time.Since(start), err)

	if err != nil {
		s.logger.Error("bootstrap.step.failed", "step", name, "err", err)
		return fmt.Errorf("step %s: %w", name, err)
	}
	s.logger.Info("bootstrap.step.done", "step", name, "duration", time.Since(start))
	return nil
}
