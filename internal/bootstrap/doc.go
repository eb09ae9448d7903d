// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package bootstrap orchestrates the full environment setup.
//
// Run executes the provisioning steps in a fixed order:
//
//	preflight → packages → database → sync → venv → envfile → django → manifest
//
// Each step is idempotent on its own, so the whole sequence can be re-run
// after a failure and will converge instead of duplicating work. The one
// deliberate exception is the database step, which drops and recreates the
// application database on every run unless KeepDB is set.
//
// # Failure Policy
//
// The first failing step aborts the run. There is no rollback: everything
// a completed step produced (installed packages, a cloned repository, a
// created role) is already in its desired state and safe to keep. The
// caller receives the step's error unchanged, so exit-code classification
// works the same as for the individual subcommands.
//
// # Typical Use
//
//	res, err := bootstrap.Run(ctx, bootstrap.Options{
//	    Config: cfg,
//	    Runner: execx.System{},
//	    OnStep: func(n, total int, name string) {
//	        ui.Step(n, total, name)
//	    },
//	})
package bootstrap
