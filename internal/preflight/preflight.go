// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package preflight verifies external prerequisites before any mutating
// provisioning step runs.
//
// The check is read-only: it resolves each tool the detected platform
// requires and reports every missing one at once, so the operator fixes
// the machine in a single pass instead of discovering tools one failure
// at a time.
package preflight

import (
	"strings"

	"github.com/kraklabs/gisup/internal/errors"
	"github.com/kraklabs/gisup/internal/execx"
	"github.com/kraklabs/gisup/internal/platform"
)

// Result reports the outcome of a preflight check.
type Result struct {
	Platform string   `json:"platform"`
	Present  []string `json:"present"`
	Missing  []string `json:"missing,omitempty"`
}

// OK reports whether every required tool resolved.
func (r Result) OK() bool {
	return len(r.Missing) == 0
}

// Check resolves every tool the platform requires on the search path.
// It never mutates anything.
func Check(p platform.Platform, r execx.Runner) Result {
	res := Result{Platform: p.Name()}
	for _, tool := range p.RequiredTools() {
		if _, err := r.LookPath(tool); err != nil {
			res.Missing = append(res.Missing, tool)
		} else {
			res.Present = append(res.Present, tool)
		}
	}
	return res
}

// Err converts a failed Result into the fatal preflight error reported to
// the operator. Returns nil when the check passed.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	return errors.NewPreflightError(
		"Required tools are missing",
		strings.Join(r.Missing, ", ")+" not found on PATH",
		"Install the missing tools and re-run the command",
	)
}
