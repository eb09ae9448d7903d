// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package platform selects OS-specific provisioning behavior.
//
// The bootstrapper supports exactly two host platforms, Linux (apt-get)
// and macOS (Homebrew). Everything OS-specific sits behind the Platform
// interface: the required tool list, system package installation, and
// starting the PostgreSQL service. Detection happens once at startup;
// unsupported platforms fail immediately rather than risk a partially
// provisioned host.
package platform

import (
	"context"
	"fmt"
	"runtime"

	"github.com/kraklabs/gisup/internal/execx"
)

// Platform is the capability set that differs between supported hosts.
type Platform interface {
	// Name is the classification, "linux" or "darwin".
	Name() string

	// RequiredTools lists the external tools that must resolve on PATH
	// before any mutating step runs. Only the Linux variant needs sudo.
	RequiredTools() []string

	// Packages lists the system packages installed by InstallPackages.
	Packages() []string

	// InstallPackages installs the fixed package set through the native
	// package manager. Idempotence is the package manager's guarantee;
	// any failure is fatal to the whole run.
	InstallPackages(ctx context.Context, r execx.Runner) error

	// StartDatabaseService starts the PostgreSQL service if the database
	// is not reachable.
	StartDatabaseService(ctx context.Context, r execx.Runner) error
}

// Detect classifies the current host. It returns an error on anything
// other than Linux or macOS.
func Detect() (Platform, error) {
	return detect(runtime.GOOS)
}

// detect is the testable core of Detect.
func detect(goos string) (Platform, error) {
	switch goos {
	case "linux":
		return Linux{}, nil
	case "darwin":
		return Darwin{}, nil
	default:
		return nil, fmt.Errorf("unsupported platform %q: gisup supports Linux (apt) and macOS (Homebrew)", goos)
	}
}
