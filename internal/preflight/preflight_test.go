// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package preflight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/kraklabs/gisup/internal/errors"
	"github.com/kraklabs/gisup/internal/execx"
	"github.com/kraklabs/gisup/internal/platform"
)

func TestCheck_AllPresent(t *testing.T) {
	r := &execx.FakeRunner{}
	res := Check(platform.Linux{}, r)

	assert.True(t, res.OK())
	assert.NoError(t, res.Err())
	assert.Equal(t, "linux", res.Platform)
	assert.ElementsMatch(t, []string{"git", "python3", "sudo", "apt-get"}, res.Present)
}

func TestCheck_EnumeratesEveryMissingTool(t *testing.T) {
	r := &execx.FakeRunner{Missing: map[string]bool{"git": true, "sudo": true}}
	res := Check(platform.Linux{}, r)

	assert.False(t, res.OK())
	// Both missing tools are reported, not just the first
	assert.ElementsMatch(t, []string{"git", "sudo"}, res.Missing)
	assert.ElementsMatch(t, []string{"python3", "apt-get"}, res.Present)

	err := res.Err()
	require.Error(t, err)
	ue, ok := err.(*gerrors.UserError)
	require.True(t, ok)
	assert.Equal(t, gerrors.ExitPreflight, ue.ExitCode)
	assert.Contains(t, ue.Cause, "git")
	assert.Contains(t, ue.Cause, "sudo")
}

func TestCheck_DarwinToolSet(t *testing.T) {
	r := &execx.FakeRunner{Missing: map[string]bool{"brew": true}}
	res := Check(platform.Darwin{}, r)

	assert.Equal(t, []string{"brew"}, res.Missing)
	// The darwin branch never asks for sudo or apt-get
	assert.NotContains(t, res.Present, "sudo")
	assert.NotContains(t, res.Present, "apt-get")
}
