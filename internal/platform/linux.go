// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package platform

import (
	"context"

	"github.com/kraklabs/gisup/internal/execx"
)

// Linux provisions Debian/Ubuntu hosts through apt-get.
type Linux struct{}

// Name implements Platform.
func (Linux) Name() string { return "linux" }

// RequiredTools implements Platform. sudo is required here because
// apt-get and service management need elevated privileges.
func (Linux) RequiredTools() []string {
	return []string{"git", "python3", "sudo", "apt-get"}
}

// Packages implements Platform: PostgreSQL server with the PostGIS
// extension packages, the compiler toolchain for native Python
// extensions, and the GDAL geospatial libraries.
func (Linux) Packages() []string {
	return []string{
		"postgresql",
		"postgresql-contrib",
		"postgis",
		"python3-venv",
		"python3-dev",
		"build-essential",
		"gdal-bin",
		"libgdal-dev",
		"libpq-dev",
	}
}

// InstallPackages implements Platform. apt-get update runs first so a
// fresh machine has current package indexes.
func (l Linux) InstallPackages(ctx context.Context, r execx.Runner) error {
	if err := r.Run(ctx, execx.Cmd{
		Name: "sudo",
		Args: []string{"apt-get", "update"},
	}); err != nil {
		return err
	}
	return r.Run(ctx, execx.Cmd{
		Name: "sudo",
		Args: append([]string{"apt-get", "install", "-y"}, l.Packages()...),
	})
}

// StartDatabaseService implements Platform.
func (Linux) StartDatabaseService(ctx context.Context, r execx.Runner) error {
	return r.Run(ctx, execx.Cmd{
		Name: "sudo",
		Args: []string{"service", "postgresql", "start"},
	})
}
