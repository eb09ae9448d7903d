// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package provision

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/gisup/internal/config"
	gerrors "github.com/kraklabs/gisup/internal/errors"
	"github.com/kraklabs/gisup/internal/execx"
)

func repoIn(t *testing.T, base string) config.Repo {
	t.Helper()
	return config.Repo{
		URL: "https://example.com/webgis-backend.git",
		Dir: filepath.Join(base, "webgis-backend"),
	}
}

func TestSyncRepo_ClonesWhenAbsent(t *testing.T) {
	repo := repoIn(t, t.TempDir())
	r := &execx.FakeRunner{}

	action, err := SyncRepo(context.Background(), r, repo, nil)
	require.NoError(t, err)
	assert.Equal(t, SyncCloned, action)

	// Reachability probe runs before the clone
	require.Len(t, r.Calls, 2)
	assert.Contains(t, r.Calls[0], "git ls-remote --exit-code")
	assert.Contains(t, r.Calls[1], "git clone "+repo.URL)
}

func TestSyncRepo_UpdatesExistingCheckout(t *testing.T) {
	repo := repoIn(t, t.TempDir())
	require.NoError(t, os.MkdirAll(filepath.Join(repo.Dir, ".git"), 0750))
	// An untracked file that must survive the sync
	untracked := filepath.Join(repo.Dir, "scratch.txt")
	require.NoError(t, os.WriteFile(untracked, []byte("local notes"), 0600))

	r := &execx.FakeRunner{}
	action, err := SyncRepo(context.Background(), r, repo, nil)
	require.NoError(t, err)
	assert.Equal(t, SyncUpdated, action)

	assert.True(t, r.CalledWith("git -C "+repo.Dir+" fetch origin"))
	assert.True(t, r.CalledWith("git -C "+repo.Dir+" merge --ff-only FETCH_HEAD"))
	assert.False(t, r.CalledWith("git clone"))

	// Untracked local files stay in place
	data, err := os.ReadFile(untracked)
	require.NoError(t, err)
	assert.Equal(t, "local notes", string(data))
}

func TestSyncRepo_FailsOnNonCheckoutDirectory(t *testing.T) {
	repo := repoIn(t, t.TempDir())
	require.NoError(t, os.MkdirAll(repo.Dir, 0750))
	marker := filepath.Join(repo.Dir, "important.txt")
	require.NoError(t, os.WriteFile(marker, []byte("do not delete"), 0600))

	r := &execx.FakeRunner{}
	_, err := SyncRepo(context.Background(), r, repo, nil)
	require.Error(t, err)

	ue, ok := err.(*gerrors.UserError)
	require.True(t, ok)
	assert.Equal(t, gerrors.ExitConflict, ue.ExitCode)

	// The directory and its contents are untouched
	data, readErr := os.ReadFile(marker)
	require.NoError(t, readErr)
	assert.Equal(t, "do not delete", string(data))
	// No git mutation ran
	assert.False(t, r.CalledWith("git clone"))
	assert.False(t, r.CalledWith("git -C"))
}

func TestSyncRepo_FailsOnFileAtTargetPath(t *testing.T) {
	base := t.TempDir()
	repo := config.Repo{URL: "https://example.com/r.git", Dir: filepath.Join(base, "occupied")}
	require.NoError(t, os.WriteFile(repo.Dir, []byte("a file"), 0600))

	_, err := SyncRepo(context.Background(), &execx.FakeRunner{}, repo, nil)
	require.Error(t, err)
	ue, ok := err.(*gerrors.UserError)
	require.True(t, ok)
	assert.Equal(t, gerrors.ExitConflict, ue.ExitCode)
}

func TestSyncRepo_UnreachableRemoteMutatesNothing(t *testing.T) {
	repo := repoIn(t, t.TempDir())
	r := &execx.FakeRunner{
		Fail: map[string]error{"git ls-remote": fmt.Errorf("exit status 128")},
	}

	_, err := SyncRepo(context.Background(), r, repo, nil)
	require.Error(t, err)

	ue, ok := err.(*gerrors.UserError)
	require.True(t, ok)
	assert.Equal(t, gerrors.ExitNetwork, ue.ExitCode)

	// Probe only; no clone attempted, no directory created
	require.Len(t, r.Calls, 1)
	_, statErr := os.Stat(repo.Dir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestSyncRepo_DivergedCheckoutIsConflict(t *testing.T) {
	repo := repoIn(t, t.TempDir())
	require.NoError(t, os.MkdirAll(filepath.Join(repo.Dir, ".git"), 0750))

	r := &execx.FakeRunner{
		Fail: map[string]error{"git -C " + repo.Dir + " merge": fmt.Errorf("exit status 128")},
	}
	_, err := SyncRepo(context.Background(), r, repo, nil)
	require.Error(t, err)
	ue, ok := err.(*gerrors.UserError)
	require.True(t, ok)
	assert.Equal(t, gerrors.ExitConflict, ue.ExitCode)
}
