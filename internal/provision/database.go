// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package provision

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/kraklabs/gisup/internal/config"
	"github.com/kraklabs/gisup/internal/errors"
	"github.com/kraklabs/gisup/internal/execx"
	"github.com/kraklabs/gisup/internal/platform"
)

// How long to wait for the database service to accept connections after a
// start attempt.
const (
	pingInterval = 2 * time.Second
	pingAttempts = 15
)

// DatabaseResult reports what the database step changed.
type DatabaseResult struct {
	RoleCreated       bool   `json:"role_created"`
	DatabaseRecreated bool   `json:"database_recreated"`
	Extension         string `json:"extension"`
}

// ProvisionDatabase brings the PostGIS database to its desired state:
//
//  1. the service is reachable (started through the platform if not),
//  2. the login role exists (created if absent; an existing role's
//     password is never modified),
//  3. the database exists, owned by that role - dropped and recreated
//     unless keep is set and it already exists (the drop is the one
//     deliberately destructive step of the bootstrapper; repeat runs lose
//     all rows),
//  4. the spatial extension is installed in that database.
//
// Failures identify the statement that failed - role creation, database
// creation, or extension installation are distinguishable error
// conditions.
func ProvisionDatabase(ctx context.Context, cfg config.Database, plat platform.Platform, r execx.Runner, logger *slog.Logger, keep bool) (*DatabaseResult, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := connectSuperuser(ctx, cfg.SuperuserDSN, plat, r, logger)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()

	res := &DatabaseResult{Extension: cfg.Extension}

	created, err := ensureRole(ctx, db, cfg.User, cfg.Password)
	if err != nil {
		return nil, err
	}
	res.RoleCreated = created
	logger.Info("provision.db.role", "role", cfg.User, "created", created)

	recreated, err := recreateDatabase(ctx, db, cfg.Name, cfg.User, keep)
	if err != nil {
		return nil, err
	}
	res.DatabaseRecreated = recreated
	logger.Info("provision.db.database", "database", cfg.Name, "recreated", recreated)

	if err := enableExtension(ctx, cfg); err != nil {
		return nil, err
	}
	logger.Info("provision.db.extension", "extension", cfg.Extension, "database", cfg.Name)

	return res, nil
}

// connectSuperuser opens the maintenance connection and verifies
// reachability. If the first ping fails it asks the platform to start the
// database service, then keeps pinging with a bounded retry.
func connectSuperuser(ctx context.Context, dsn string, plat platform.Platform, r execx.Runner, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.NewDatabaseError(
			"Invalid superuser connection string",
			err.Error(),
			"Check database.superuser_dsn in gisup.yaml",
			err,
		)
	}

	if err := db.PingContext(ctx); err == nil {
		return db, nil
	}

	logger.Info("provision.db.service.start", "platform", plat.Name())
	if err := plat.StartDatabaseService(ctx, r); err != nil {
		_ = db.Close()
		return nil, errors.NewDatabaseError(
			"Cannot start the PostgreSQL service",
			fmt.Sprintf("the service start command failed on %s", plat.Name()),
			"Start PostgreSQL manually and re-run the command",
			err,
		)
	}

	var pingErr error
	for i := 0; i < pingAttempts; i++ {
		if pingErr = db.PingContext(ctx); pingErr == nil {
			return db, nil
		}
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, ctx.Err()
		case <-time.After(pingInterval):
		}
	}

	_ = db.Close()
	return nil, errors.NewDatabaseError(
		"PostgreSQL is not accepting connections",
		pingErr.Error(),
		"Check the service logs and the host/port in database.superuser_dsn",
		pingErr,
	)
}

// ensureRole creates the login role if absent. It reports whether it
// created the role and never alters an existing role's password.
func ensureRole(ctx context.Context, db *sql.DB, user, password string) (bool, error) {
	var one int
	err := db.QueryRowContext(ctx, "SELECT 1 FROM pg_roles WHERE rolname = $1", user).Scan(&one)
	switch {
	case err == nil:
		return false, nil
	case !stderrors.Is(err, sql.ErrNoRows):
		return false, errors.NewDatabaseError(
			"Cannot query existing roles",
			err.Error(),
			"Verify the superuser connection works: psql \"$GISUP_SUPERUSER_DSN\"",
			err,
		)
	}

	if _, err := db.ExecContext(ctx, createRoleStmt(user, password)); err != nil {
		return false, errors.NewDatabaseError(
			"Cannot create database role",
			fmt.Sprintf("CREATE ROLE %s failed", user),
			"Check that the configured superuser may create roles",
			err,
		)
	}
	return true, nil
}

// recreateDatabase drops and recreates the database owned by the role.
// With keep set, an existing database is left untouched.
func recreateDatabase(ctx context.Context, db *sql.DB, name, owner string, keep bool) (bool, error) {
	if keep {
		var one int
		err := db.QueryRowContext(ctx, "SELECT 1 FROM pg_database WHERE datname = $1", name).Scan(&one)
		if err == nil {
			return false, nil
		}
		if !stderrors.Is(err, sql.ErrNoRows) {
			return false, errors.NewDatabaseError(
				"Cannot query existing databases",
				err.Error(),
				"Verify the superuser connection works",
				err,
			)
		}
	}

	if _, err := db.ExecContext(ctx, dropDatabaseStmt(name)); err != nil {
		return false, errors.NewDatabaseError(
			"Cannot drop existing database",
			fmt.Sprintf("DROP DATABASE %s failed; active connections block the drop", name),
			"Disconnect clients from the database and re-run, or use --keep-db",
			err,
		)
	}
	if _, err := db.ExecContext(ctx, createDatabaseStmt(name, owner)); err != nil {
		return false, errors.NewDatabaseError(
			"Cannot create database",
			fmt.Sprintf("CREATE DATABASE %s failed", name),
			"Check that the configured superuser may create databases",
			err,
		)
	}
	return true, nil
}

// enableExtension installs the spatial extension. Extensions are
// per-database, so this opens a second connection into the target
// database.
func enableExtension(ctx context.Context, cfg config.Database) error {
	dsn := dsnWithDatabase(cfg.SuperuserDSN, cfg.Name)
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return errors.NewDatabaseError(
			"Cannot connect to the new database",
			err.Error(),
			"Check database.superuser_dsn in gisup.yaml",
			err,
		)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.ExecContext(ctx, createExtensionStmt(cfg.Extension)); err != nil {
		return errors.NewDatabaseError(
			"Cannot install spatial extension",
			fmt.Sprintf("CREATE EXTENSION %s failed in %s", cfg.Extension, cfg.Name),
			"Check that the PostGIS packages are installed for this PostgreSQL version",
			err,
		)
	}
	return nil
}

// Statement builders. Identifiers and the password literal are quoted so
// configured names cannot break out of the statement.

func createRoleStmt(user, password string) string {
	return fmt.Sprintf("CREATE ROLE %s LOGIN PASSWORD %s",
		pq.QuoteIdentifier(user), pq.QuoteLiteral(password))
}

func dropDatabaseStmt(name string) string {
	return fmt.Sprintf("DROP DATABASE IF EXISTS %s", pq.QuoteIdentifier(name))
}

func createDatabaseStmt(name, owner string) string {
	return fmt.Sprintf("CREATE DATABASE %s OWNER %s",
		pq.QuoteIdentifier(name), pq.QuoteIdentifier(owner))
}

func createExtensionStmt(ext string) string {
	return fmt.Sprintf("CREATE EXTENSION IF NOT EXISTS %s", pq.QuoteIdentifier(ext))
}

// dsnWithDatabase rewrites the dbname parameter of a keyword/value
// connection string, preserving every other parameter.
func dsnWithDatabase(dsn, dbname string) string {
	fields := strings.Fields(dsn)
	replaced := false
	for i, f := range fields {
		if strings.HasPrefix(f, "dbname=") {
			fields[i] = "dbname=" + dbname
			replaced = true
		}
	}
	if !replaced {
		fields = append(fields, "dbname="+dbname)
	}
	return strings.Join(fields, " ")
}
