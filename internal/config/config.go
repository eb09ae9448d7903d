// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config defines the bootstrap configuration for gisup.
//
// Everything that used to be a hard-coded constant in the original setup
// script lives here: database identity, admin account, repository URLs,
// local directory names, and service URLs. The configuration is loaded
// from gisup.yaml and can be overridden per-field through GISUP_*
// environment variables, which keeps secrets out of the file and lets CI
// point a run at a disposable target.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joeshaw/envdecode"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where commands look for the configuration file.
const DefaultPath = "gisup.yaml"

// Config is the root configuration structure. Every provisioning step
// receives the sections it needs instead of reaching for globals.
type Config struct {
	Database Database `yaml:"database"`
	Admin    Admin    `yaml:"admin"`
	Repos    Repos    `yaml:"repositories"`
	Python   Python   `yaml:"python"`
	Site     Site     `yaml:"site"`
}

// Database identifies the PostGIS database to provision and the superuser
// connection used to provision it.
type Database struct {
	// Name is the database to (re)create.
	Name string `yaml:"name"`

	// User is the owning login role, created if absent. An existing
	// role's password is never modified.
	User     string `yaml:"user"`
	Password string `yaml:"password" env:"GISUP_DB_PASSWORD"`

	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// Extension is the spatial extension installed into the fresh
	// database.
	Extension string `yaml:"extension"`

	// SuperuserDSN is the lib/pq connection string used for provisioning
	// statements. It must reach a maintenance database (usually
	// "postgres") as a role allowed to create roles and databases.
	SuperuserDSN string `yaml:"superuser_dsn" env:"GISUP_SUPERUSER_DSN"`
}

// Admin is the Django superuser created once per environment.
type Admin struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password" env:"GISUP_ADMIN_PASSWORD"`
}

// Repo is one companion repository to clone or update.
type Repo struct {
	URL string `yaml:"url"`
	Dir string `yaml:"dir"`
}

// Repos names the two source trees the environment is built from.
type Repos struct {
	Frontend Repo `yaml:"frontend"`
	Backend  Repo `yaml:"backend"`
}

// Python configures the isolated runtime environment inside the backend
// checkout.
type Python struct {
	// Interpreter is the system interpreter used to create the venv.
	Interpreter string `yaml:"interpreter"`

	// VenvDir is relative to the backend checkout.
	VenvDir string `yaml:"venv_dir"`

	// Requirements is the dependency manifest, relative to the backend
	// checkout.
	Requirements string `yaml:"requirements"`
}

// Site holds the environment-file values that are not database-related.
type Site struct {
	Debug       bool   `yaml:"debug"`
	FrontendURL string `yaml:"frontend_url"`
	BackendURL  string `yaml:"backend_url"`

	// Email credentials are written to the environment file and may be
	// left empty for development environments.
	EmailHostUser     string `yaml:"email_host_user" env:"GISUP_EMAIL_HOST_USER"`
	EmailHostPassword string `yaml:"email_host_password" env:"GISUP_EMAIL_HOST_PASSWORD"`
}

// Default returns the development defaults, mirroring the constants of the
// original setup script.
func Default() *Config {
	return &Config{
		Database: Database{
			Name:         "webgis_db",
			User:         "webgis_user",
			Password:     "webgis_pass",
			Host:         "localhost",
			Port:         5432,
			Extension:    "postgis",
			SuperuserDSN: "host=localhost port=5432 user=postgres dbname=postgres sslmode=disable",
		},
		Admin: Admin{
			Username: "admin",
			Email:    "admin@example.com",
			Password: "admin_pass",
		},
		Repos: Repos{
			Frontend: Repo{
				URL: "https://github.com/kraklabs/webgis-frontend.git",
				Dir: "webgis-frontend",
			},
			Backend: Repo{
				URL: "https://github.com/kraklabs/webgis-backend.git",
				Dir: "webgis-backend",
			},
		},
		Python: Python{
			Interpreter:  "python3",
			VenvDir:      ".venv",
			Requirements: "requirements.txt",
		},
		Site: Site{
			Debug:       true,
			FrontendURL: "http://localhost:5173",
			BackendURL:  "http://localhost:8000",
		},
	}
}

// Load reads the configuration file at path, applies GISUP_* environment
// overrides, and validates the result.
//
// A missing file is an error: commands that need configuration tell the
// operator to run 'gisup init' first.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is operator-supplied
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := envdecode.Decode(cfg); err != nil {
		return nil, fmt.Errorf("apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML to path, creating parent
// directories as needed.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate checks that every field a provisioning step depends on is set.
func (c *Config) Validate() error {
	switch {
	case c.Database.Name == "":
		return fmt.Errorf("database.name is required")
	case c.Database.User == "":
		return fmt.Errorf("database.user is required")
	case c.Database.Password == "":
		return fmt.Errorf("database.password is required")
	case c.Database.SuperuserDSN == "":
		return fmt.Errorf("database.superuser_dsn is required")
	case c.Admin.Username == "":
		return fmt.Errorf("admin.username is required")
	case c.Admin.Email == "":
		return fmt.Errorf("admin.email is required")
	case c.Admin.Password == "":
		return fmt.Errorf("admin.password is required")
	case c.Repos.Frontend.URL == "" || c.Repos.Frontend.Dir == "":
		return fmt.Errorf("repositories.frontend url and dir are required")
	case c.Repos.Backend.URL == "" || c.Repos.Backend.Dir == "":
		return fmt.Errorf("repositories.backend url and dir are required")
	case c.Python.Interpreter == "":
		return fmt.Errorf("python.interpreter is required")
	case c.Python.VenvDir == "":
		return fmt.Errorf("python.venv_dir is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return fmt.Errorf("database.port %d is out of range", c.Database.Port)
	}
	return nil
}
