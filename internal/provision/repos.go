// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package provision

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kraklabs/gisup/internal/config"
	"github.com/kraklabs/gisup/internal/errors"
	"github.com/kraklabs/gisup/internal/execx"
)

// SyncAction describes what SyncRepo did with the target directory.
type SyncAction string

const (
	// SyncCloned means the repository was freshly cloned.
	SyncCloned SyncAction = "cloned"

	// SyncUpdated means an existing checkout was fast-forwarded.
	SyncUpdated SyncAction = "updated"
)

// SyncRepo brings one companion repository to the latest state of its
// remote.
//
// The remote is probed first with a lightweight reference query; nothing
// on disk is touched while the network is unavailable, so a failed sync
// never leaves a half-cloned directory behind. Then exactly one of three
// cases applies:
//
//   - the target is an existing checkout: fetch and fast-forward merge,
//     leaving untracked files alone;
//   - the target exists but is not a checkout: fail with a conflict error
//     telling the operator to move it - gisup never deletes a directory
//     it does not recognize;
//   - the target is absent: clone fresh.
func SyncRepo(ctx context.Context, r execx.Runner, repo config.Repo, logger *slog.Logger) (SyncAction, error) {
	if logger == nil {
		logger = slog.Default()
	}

	// Reachability first: no local mutation on network failure.
	if err := r.Run(ctx, execx.Cmd{
		Name:  "git",
		Args:  []string{"ls-remote", "--exit-code", repo.URL, "HEAD"},
		Quiet: true,
	}); err != nil {
		return "", errors.NewNetworkError(
			"Git remote is unreachable",
			fmt.Sprintf("git ls-remote %s failed", repo.URL),
			"Check your network connection and the repository URL",
			err,
		)
	}

	info, statErr := os.Stat(repo.Dir)
	switch {
	case statErr == nil && isCheckout(repo.Dir):
		logger.Info("provision.repo.update", "dir", repo.Dir)
		if err := r.Run(ctx, execx.Cmd{
			Name: "git",
			Args: []string{"-C", repo.Dir, "fetch", "origin"},
		}); err != nil {
			return "", errors.NewNetworkError(
				"Cannot fetch repository updates",
				fmt.Sprintf("git fetch failed in %s", repo.Dir),
				"Check the checkout's remote configuration",
				err,
			)
		}
		if err := r.Run(ctx, execx.Cmd{
			Name: "git",
			Args: []string{"-C", repo.Dir, "merge", "--ff-only", "FETCH_HEAD"},
		}); err != nil {
			return "", errors.NewConflictError(
				"Cannot fast-forward local checkout",
				fmt.Sprintf("%s has diverged from its remote", repo.Dir),
				fmt.Sprintf("Resolve the divergence manually: git -C %s status", repo.Dir),
			)
		}
		return SyncUpdated, nil

	case statErr == nil && info.IsDir():
		// Occupied by something that is not a checkout. Failing here is
		// the point: silently overwriting an operator's directory is the
		// failure mode this branch exists to prevent.
		return "", errors.NewConflictError(
			"Target directory is not a git checkout",
			fmt.Sprintf("%s exists but has no .git directory", repo.Dir),
			fmt.Sprintf("Move or remove %s and re-run the sync", repo.Dir),
		)

	case statErr == nil:
		// A plain file occupies the target path.
		return "", errors.NewConflictError(
			"Target path is a file",
			fmt.Sprintf("%s exists and is not a directory", repo.Dir),
			fmt.Sprintf("Move or remove %s and re-run the sync", repo.Dir),
		)

	default:
		logger.Info("provision.repo.clone", "url", repo.URL, "dir", repo.Dir)
		if err := r.Run(ctx, execx.Cmd{
			Name: "git",
			Args: []string{"clone", repo.URL, repo.Dir},
		}); err != nil {
			return "", errors.NewNetworkError(
				"Cannot clone repository",
				fmt.Sprintf("git clone %s failed", repo.URL),
				"Check the repository URL and your access rights",
				err,
			)
		}
		return SyncCloned, nil
	}
}

// isCheckout reports whether dir is a git working copy. The .git entry is
// a directory in normal clones and a file in worktrees; both count.
func isCheckout(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}
