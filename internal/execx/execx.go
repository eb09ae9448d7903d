// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package execx wraps os/exec behind a small Runner interface so that
// provisioning steps can be exercised in tests without spawning real
// processes.
//
// Every external command gisup issues (apt-get, brew, git, python) goes
// through a Runner. The production implementation is System; tests use
// FakeRunner from fake.go.
package execx

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
)

// Cmd describes one external command invocation.
type Cmd struct {
	// Name is the executable to run, resolved via PATH.
	Name string

	// Args are the command arguments, not including the executable name.
	Args []string

	// Dir is the working directory. Empty means inherit the caller's.
	Dir string

	// Env holds extra KEY=value entries appended to the inherited
	// environment.
	Env []string

	// Quiet discards the command's stdout/stderr instead of streaming it
	// to the operator's terminal.
	Quiet bool
}

// String renders the invocation for diagnostics, e.g. "git clone <url>".
func (c Cmd) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Runner executes external commands on behalf of provisioning steps.
type Runner interface {
	// LookPath reports where the named tool resolves on the search path.
	// A non-nil error means the tool is not installed.
	LookPath(name string) (string, error)

	// Run executes the command and blocks until it exits. A non-nil error
	// means a non-zero exit status or a spawn failure.
	Run(ctx context.Context, cmd Cmd) error

	// Output executes the command and returns its trimmed stdout.
	Output(ctx context.Context, cmd Cmd) (string, error)
}

// System is the production Runner backed by os/exec.
type System struct{}

// LookPath implements Runner.
func (System) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// Run implements Runner. The command inherits the caller's environment
// plus cmd.Env, and streams output to the terminal unless cmd.Quiet is set.
func (System) Run(ctx context.Context, cmd Cmd) error {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	if !cmd.Quiet {
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
	}
	return c.Run()
}

// Output implements Runner. Stderr is suppressed; stdout is returned with
// surrounding whitespace trimmed.
func (System) Output(ctx context.Context, cmd Cmd) (string, error) {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	out, err := c.Output()
	return strings.TrimSpace(string(out)), err
}

// ExitCode extracts the process exit code from a Runner error.
// Returns -1 when the error does not carry one (spawn failure, nil error).
func ExitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
