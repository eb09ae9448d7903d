// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package platform

import (
	"context"

	"github.com/kraklabs/gisup/internal/execx"
)

// Darwin provisions macOS hosts through Homebrew. No sudo: brew refuses
// to run as root, and brew services manages launchd per-user.
type Darwin struct{}

// Name implements Platform.
func (Darwin) Name() string { return "darwin" }

// RequiredTools implements Platform.
func (Darwin) RequiredTools() []string {
	return []string{"git", "python3", "brew"}
}

// Packages implements Platform. Homebrew's postgresql formula bundles
// contrib, so the set is shorter than on Linux.
func (Darwin) Packages() []string {
	return []string{
		"postgresql@16",
		"postgis",
		"gdal",
	}
}

// InstallPackages implements Platform.
func (d Darwin) InstallPackages(ctx context.Context, r execx.Runner) error {
	return r.Run(ctx, execx.Cmd{
		Name: "brew",
		Args: append([]string{"install"}, d.Packages()...),
	})
}

// StartDatabaseService implements Platform.
func (Darwin) StartDatabaseService(ctx context.Context, r execx.Runner) error {
	return r.Run(ctx, execx.Cmd{
		Name: "brew",
		Args: []string{"services", "start", "postgresql@16"},
	})
}
