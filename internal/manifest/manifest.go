// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package manifest generates the deployment blueprint consumed by the
// Render platform.
//
// The blueprint lists a static frontend site, the backend web service, an
// optional background worker, an optional scheduled maintenance job, and
// a managed PostgreSQL database. The field semantics belong to the
// platform's schema; gisup only templates them. The file is overwritten
// unconditionally on every run.
package manifest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kraklabs/gisup/internal/config"
)

// DefaultPath is where Generate writes the blueprint.
const DefaultPath = "render.yaml"

// Options selects the optional services of the blueprint.
type Options struct {
	// Worker adds a background worker service running the task queue.
	Worker bool

	// Cron adds a nightly maintenance job.
	Cron bool
}

// EnvVar is one environment binding of a service. Exactly one of Value,
// FromDatabase, or GenerateValue is set.
type EnvVar struct {
	Key           string        `yaml:"key"`
	Value         string        `yaml:"value,omitempty"`
	FromDatabase  *DatabaseRef  `yaml:"fromDatabase,omitempty"`
	GenerateValue bool          `yaml:"generateValue,omitempty"`
}

// DatabaseRef points an environment binding at a managed database
// property.
type DatabaseRef struct {
	Name     string `yaml:"name"`
	Property string `yaml:"property"`
}

// Service is one deployable unit of the blueprint.
type Service struct {
	Type              string   `yaml:"type"`
	Name              string   `yaml:"name"`
	Runtime           string   `yaml:"runtime,omitempty"`
	BuildCommand      string   `yaml:"buildCommand,omitempty"`
	StartCommand      string   `yaml:"startCommand,omitempty"`
	StaticPublishPath string   `yaml:"staticPublishPath,omitempty"`
	Schedule          string   `yaml:"schedule,omitempty"`
	EnvVars           []EnvVar `yaml:"envVars,omitempty"`
}

// ManagedDatabase is the platform-provisioned PostgreSQL instance.
type ManagedDatabase struct {
	Name                 string `yaml:"name"`
	Plan                 string `yaml:"plan"`
	PostgresMajorVersion string `yaml:"postgresMajorVersion"`
}

// Blueprint is the root document of render.yaml.
type Blueprint struct {
	Databases []ManagedDatabase `yaml:"databases"`
	Services  []Service         `yaml:"services"`
}

// Build assembles the blueprint from the bootstrap configuration.
func Build(cfg *config.Config, opts Options) *Blueprint {
	dbName := cfg.Database.Name
	dbRef := func(property string) *DatabaseRef {
		return &DatabaseRef{Name: dbName, Property: property}
	}

	backendEnv := []EnvVar{
		{Key: "DATABASE_URL", FromDatabase: dbRef("connectionString")},
		{Key: "SECRET_KEY", GenerateValue: true},
		{Key: "DEBUG", Value: "false"},
		{Key: "CORS_ALLOWED_ORIGINS", Value: cfg.Site.FrontendURL},
	}

	b := &Blueprint{
		Databases: []ManagedDatabase{
			{Name: dbName, Plan: "free", PostgresMajorVersion: "16"},
		},
		Services: []Service{
			{
				Type:              "web",
				Name:              "webgis-frontend",
				Runtime:           "static",
				BuildCommand:      "npm install && npm run build",
				StaticPublishPath: "./dist",
			},
			{
				Type:         "web",
				Name:         "webgis-backend",
				Runtime:      "python",
				BuildCommand: "pip install -r requirements.txt && python manage.py collectstatic --noinput",
				StartCommand: "gunicorn WebGIS.wsgi:application",
				EnvVars:      backendEnv,
			},
		},
	}

	if opts.Worker {
		b.Services = append(b.Services, Service{
			Type:         "worker",
			Name:         "webgis-worker",
			Runtime:      "python",
			BuildCommand: "pip install -r requirements.txt",
			StartCommand: "celery -A WebGIS worker --loglevel=info",
			EnvVars:      backendEnv,
		})
	}
	if opts.Cron {
		b.Services = append(b.Services, Service{
			Type:         "cron",
			Name:         "webgis-maintenance",
			Runtime:      "python",
			Schedule:     "0 3 * * *",
			BuildCommand: "pip install -r requirements.txt",
			StartCommand: "python manage.py clearsessions",
			EnvVars:      backendEnv,
		})
	}
	return b
}

// Write marshals the blueprint and overwrites path unconditionally.
func Write(cfg *config.Config, opts Options, path string) error {
	data, err := yaml.Marshal(Build(cfg, opts))
	if err != nil {
		return fmt.Errorf("marshal blueprint: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil { //nolint:gosec // world-readable manifest
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
