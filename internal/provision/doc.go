// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package provision implements the individual provisioning steps of the
// bootstrapper: the PostGIS database, the two companion repositories, the
// Python virtual environment, and the Django application (migrations,
// static assets, admin account).
//
// Each step is an explicit function taking its configuration section, a
// Runner for external commands, and a logger. Steps return errors instead
// of exiting; the orchestrator in internal/bootstrap decides how failures
// abort the run. Every step is individually idempotent except database
// recreation, which is destructive by documented policy (see
// ProvisionDatabase).
package provision
