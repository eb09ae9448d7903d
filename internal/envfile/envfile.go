// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package envfile generates the key-value environment file consumed by
// the Django backend.
//
// The file carries the debug flag, a generated secret key, the allowed
// cross-origin value, the database connection parameters, the optional
// email credentials, and two informational service URLs. An existing file
// is preserved unless the caller forces an overwrite, so a re-run does
// not rotate the secret under a running backend.
package envfile

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/kraklabs/gisup/internal/config"
)

// FileName is the environment file written into the backend checkout.
const FileName = ".env"

// secretChars matches Django's get_random_secret_key() alphabet.
const secretChars = "abcdefghijklmnopqrstuvwxyz0123456789!@#$%^&*(-_=+)"

// secretLength matches Django's 50-character secret keys.
const secretLength = 50

// engine is the GeoDjango database backend; plain postgres backends lack
// the spatial field types.
const engine = "django.contrib.gis.db.backends.postgis"

// Entry is one key-value pair of the environment file.
type Entry struct {
	Key   string
	Value string
}

// Entries renders the file content in its fixed key order. The two email
// credential keys are the only ones permitted to be empty.
func Entries(cfg *config.Config, secretKey string) []Entry {
	return []Entry{
		{"DEBUG", fmt.Sprintf("%v", cfg.Site.Debug)},
		{"SECRET_KEY", secretKey},
		{"CORS_ALLOWED_ORIGINS", cfg.Site.FrontendURL},
		{"DB_ENGINE", engine},
		{"DB_NAME", cfg.Database.Name},
		{"DB_USER", cfg.Database.User},
		{"DB_PASSWORD", cfg.Database.Password},
		{"DB_HOST", cfg.Database.Host},
		{"DB_PORT", fmt.Sprintf("%d", cfg.Database.Port)},
		{"EMAIL_HOST_USER", cfg.Site.EmailHostUser},
		{"EMAIL_HOST_PASSWORD", cfg.Site.EmailHostPassword},
		{"FRONTEND_URL", cfg.Site.FrontendURL},
		{"BACKEND_URL", cfg.Site.BackendURL},
	}
}

// Render produces the file body.
func Render(entries []Entry) string {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.Key)
		b.WriteString("=")
		b.WriteString(e.Value)
		b.WriteString("\n")
	}
	return b.String()
}

// GenerateSecretKey returns a fresh 50-character secret drawn from
// Django's secret alphabet using crypto/rand.
func GenerateSecretKey() (string, error) {
	var b strings.Builder
	max := big.NewInt(int64(len(secretChars)))
	for i := 0; i < secretLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate secret: %w", err)
		}
		b.WriteByte(secretChars[n.Int64()])
	}
	return b.String(), nil
}

// Write persists the environment file at path. When the file already
// exists and force is false, it is left untouched and Write reports
// written=false.
func Write(path string, cfg *config.Config, force bool) (bool, error) {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		}
	}

	secret, err := GenerateSecretKey()
	if err != nil {
		return false, err
	}
	body := Render(Entries(cfg, secret))
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}
