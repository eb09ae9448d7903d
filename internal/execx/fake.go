// Copyright 2026 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package execx

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// FakeRunner is a scripted Runner for tests.
//
// Commands are matched by prefix against their rendered form ("git clone
// https://..."), so a test can fail every "apt-get install" without
// spelling out the full package list. All invocations are recorded in
// order for assertions.
//
//	r := &execx.FakeRunner{
//	    Missing: map[string]bool{"brew": true},
//	    Fail:    map[string]error{"git ls-remote": fmt.Errorf("exit status 128")},
//	    Outputs: map[string]string{"gdal-config --version": "3.8.4"},
//	}
type FakeRunner struct {
	mu sync.Mutex

	// Missing marks tool names that LookPath reports as not installed.
	Missing map[string]bool

	// Fail maps a command prefix to the error Run/Output returns for it.
	Fail map[string]error

	// Outputs maps a command prefix to the stdout Output returns for it.
	Outputs map[string]string

	// Calls records every Run/Output invocation in order.
	Calls []string
}

// LookPath implements Runner.
func (f *FakeRunner) LookPath(name string) (string, error) {
	if f.Missing[name] {
		return "", fmt.Errorf("exec: %q: executable file not found in $PATH", name)
	}
	return "/usr/bin/" + name, nil
}

// Run implements Runner.
func (f *FakeRunner) Run(_ context.Context, cmd Cmd) error {
	f.record(cmd)
	return f.match(cmd)
}

// Output implements Runner.
func (f *FakeRunner) Output(_ context.Context, cmd Cmd) (string, error) {
	f.record(cmd)
	if err := f.match(cmd); err != nil {
		return "", err
	}
	rendered := cmd.String()
	for prefix, out := range f.Outputs {
		if strings.HasPrefix(rendered, prefix) {
			return out, nil
		}
	}
	return "", nil
}

// CalledWith reports whether any recorded invocation starts with prefix.
func (f *FakeRunner) CalledWith(prefix string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, call := range f.Calls {
		if strings.HasPrefix(call, prefix) {
			return true
		}
	}
	return false
}

func (f *FakeRunner) record(cmd Cmd) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, cmd.String())
}

func (f *FakeRunner) match(cmd Cmd) error {
	rendered := cmd.String()
	for prefix, err := range f.Fail {
		if strings.HasPrefix(rendered, prefix) {
			return err
		}
	}
	return nil
}
