// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package provision

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kraklabs/gisup/internal/config"
	"github.com/kraklabs/gisup/internal/errors"
	"github.com/kraklabs/gisup/internal/execx"
)

// Django drives the backend application's own management commands through
// the venv interpreter. gisup implements none of the application logic:
// migrations, static assets, and account creation are all delegated to
// manage.py.
type Django struct {
	// Python is the venv interpreter path.
	Python string

	// Dir is the backend checkout containing manage.py.
	Dir string
}

// Migrate applies the application's database migrations.
func (d Django) Migrate(ctx context.Context, r execx.Runner) error {
	if err := r.Run(ctx, execx.Cmd{
		Name: d.Python,
		Args: []string{"manage.py", "migrate", "--noinput"},
		Dir:  d.Dir,
	}); err != nil {
		return errors.NewDatabaseError(
			"Database migrations failed",
			"manage.py migrate exited non-zero",
			"Check the backend's database settings in .env",
			err,
		)
	}
	return nil
}

// CollectStatic gathers the application's static assets.
func (d Django) CollectStatic(ctx context.Context, r execx.Runner) error {
	if err := r.Run(ctx, execx.Cmd{
		Name: d.Python,
		Args: []string{"manage.py", "collectstatic", "--noinput"},
		Dir:  d.Dir,
	}); err != nil {
		return errors.NewInternalError(
			"Static asset collection failed",
			"manage.py collectstatic exited non-zero",
			"Check STATIC_ROOT in the backend settings",
			err,
		)
	}
	return nil
}

// superuserProbe prints "true" or "false" depending on whether an account
// with the given username exists. Printing instead of exit codes keeps
// probe failures (missing Django, bad settings) distinguishable from a
// negative answer.
const superuserProbe = "from django.contrib.auth import get_user_model; " +
	"print(get_user_model().objects.filter(username=%q).exists())"

// EnsureSuperuser creates the administrative account unless one with the
// configured username already exists. The existence check and the
// creation are two separate delegated calls, so this is best-effort
// idempotence, acceptable because the bootstrapper is never invoked
// concurrently against one environment.
//
// Returns true when an account was created, false when it already existed.
func (d Django) EnsureSuperuser(ctx context.Context, r execx.Runner, admin config.Admin, logger *slog.Logger) (bool, error) {
	if logger == nil {
		logger = slog.Default()
	}

	out, err := r.Output(ctx, execx.Cmd{
		Name: d.Python,
		Args: []string{"manage.py", "shell", "-c", fmt.Sprintf(superuserProbe, admin.Username)},
		Dir:  d.Dir,
	})
	if err != nil {
		return false, errors.NewInternalError(
			"Cannot check for an existing admin account",
			"manage.py shell probe exited non-zero",
			"Check that migrations ran and .env points at the provisioned database",
			err,
		)
	}

	if out == "True" {
		logger.Info("provision.admin.exists", "username", admin.Username)
		return false, nil
	}

	if err := r.Run(ctx, execx.Cmd{
		Name: d.Python,
		Args: []string{"manage.py", "createsuperuser", "--noinput"},
		Dir:  d.Dir,
		Env: []string{
			"DJANGO_SUPERUSER_USERNAME=" + admin.Username,
			"DJANGO_SUPERUSER_EMAIL=" + admin.Email,
			"DJANGO_SUPERUSER_PASSWORD=" + admin.Password,
		},
	}); err != nil {
		return false, errors.NewInternalError(
			"Cannot create admin account",
			"manage.py createsuperuser exited non-zero",
			"Check the admin credentials in gisup.yaml",
			err,
		)
	}
	logger.Info("provision.admin.created", "username", admin.Username)
	return true, nil
}
