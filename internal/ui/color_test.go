// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"testing"

	"github.com/fatih/color"
)

func TestInitColors(t *testing.T) {
	// Save original state
	original := color.NoColor
	defer func() { color.NoColor = original }()

	tests := []struct {
		name     string
		noColor  bool
		expected bool
	}{
		{
			name:     "colors enabled when noColor is false",
			noColor:  false,
			expected: false,
		},
		{
			name:     "colors disabled when noColor is true",
			noColor:  true,
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			InitColors(tt.noColor)
			if color.NoColor != tt.expected {
				t.Errorf("InitColors(%v): color.NoColor = %v, expected %v",
					tt.noColor, color.NoColor, tt.expected)
			}
		})
	}
}

func TestLabel(t *testing.T) {
	// Disable colors for predictable output
	original := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = original }()

	result := Label("Database:")
	expected := "Database:"
	if result != expected {
		t.Errorf("Label() = %q, expected %q", result, expected)
	}
}

func TestDimText(t *testing.T) {
	// Disable colors for predictable output
	original := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = original }()

	result := DimText("/srv/webgis-backend")
	expected := "/srv/webgis-backend"
	if result != expected {
		t.Errorf("DimText() = %q, expected %q", result, expected)
	}
}
