// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/gisup/internal/errors"
	"github.com/kraklabs/gisup/internal/execx"
	"github.com/kraklabs/gisup/internal/output"
	"github.com/kraklabs/gisup/internal/platform"
	"github.com/kraklabs/gisup/internal/preflight"
	"github.com/kraklabs/gisup/internal/ui"
)

// runPreflight executes the 'preflight' CLI command, a read-only check of
// the required tools.
func runPreflight(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("preflight", flag.ExitOnError)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: gisup preflight [--json]

Description:
  Check that every tool the detected platform needs is on PATH. The
  check changes nothing, so it is safe to run anywhere, including CI.
  Exit code 0 means 'gisup up' can proceed.
`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	plat := detectPlatform(globals)
	res := preflight.Check(plat, execx.System{})

	if globals.JSON {
		if err := output.JSON(res); err != nil {
			errors.FatalError(err, true)
		}
		if !res.OK() {
			os.Exit(errors.ExitPreflight)
		}
		return
	}

	ui.Header(fmt.Sprintf("Preflight (%s)", res.Platform))
	for _, tool := range res.Present {
		ui.Successf("%s", tool)
	}
	for _, tool := range res.Missing {
		ui.Errorf("%s (not found)", tool)
	}

	if err := res.Err(); err != nil {
		errors.FatalError(err, globals.JSON)
	}
	fmt.Println()
	ui.Success("All required tools are available")
}

// detectPlatform resolves the host platform, exiting on unsupported
// operating systems.
func detectPlatform(globals GlobalFlags) platform.Platform {
	plat, err := platform.Detect()
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	return plat
}
