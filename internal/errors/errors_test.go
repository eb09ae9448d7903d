// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package errors

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
)

// TestUserError_Error verifies the Error() method implementation.
func TestUserError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *UserError
		want string
	}{
		{
			name: "with underlying error",
			err: &UserError{
				Message: "Cannot create database role",
				Err:     fmt.Errorf("connection refused"),
			},
			want: "Cannot create database role: connection refused",
		},
		{
			name: "without underlying error",
			err: &UserError{
				Message: "Invalid input",
				Err:     nil,
			},
			want: "Invalid input",
		},
		{
			name: "empty message with underlying error",
			err: &UserError{
				Message: "",
				Err:     fmt.Errorf("some error"),
			},
			want: ": some error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			if got != tt.want {
				t.Errorf("UserError.Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestUserError_Unwrap verifies the Unwrap() method implementation.
func TestUserError_Unwrap(t *testing.T) {
	underlyingErr := fmt.Errorf("underlying error")

	ue := &UserError{Message: "test", Err: underlyingErr}
	if got := ue.Unwrap(); got != underlyingErr {
		t.Errorf("UserError.Unwrap() = %v, want %v", got, underlyingErr)
	}

	ue = &UserError{Message: "test"}
	if got := ue.Unwrap(); got != nil {
		t.Errorf("UserError.Unwrap() = %v, want nil", got)
	}
}

// TestExitCodes verifies that exit code constants have the correct values.
func TestExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		exitCode int
		want     int
	}{
		{"ExitSuccess", ExitSuccess, 0},
		{"ExitConfig", ExitConfig, 1},
		{"ExitDatabase", ExitDatabase, 2},
		{"ExitNetwork", ExitNetwork, 3},
		{"ExitInput", ExitInput, 4},
		{"ExitPermission", ExitPermission, 5},
		{"ExitConflict", ExitConflict, 7},
		{"ExitPreflight", ExitPreflight, 8},
		{"ExitInternal", ExitInternal, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.exitCode != tt.want {
				t.Errorf("%s = %d, want %d", tt.name, tt.exitCode, tt.want)
			}
		})
	}
}

// TestConstructors verifies that each constructor assigns its category's
// exit code and preserves the message fields.
func TestConstructors(t *testing.T) {
	underlying := fmt.Errorf("boom")

	tests := []struct {
		name     string
		err      *UserError
		wantCode int
		wantErr  error
	}{
		{
			name:     "config",
			err:      NewConfigError("msg", "cause", "fix", underlying),
			wantCode: ExitConfig,
			wantErr:  underlying,
		},
		{
			name:     "database",
			err:      NewDatabaseError("msg", "cause", "fix", underlying),
			wantCode: ExitDatabase,
			wantErr:  underlying,
		},
		{
			name:     "network",
			err:      NewNetworkError("msg", "cause", "fix", underlying),
			wantCode: ExitNetwork,
			wantErr:  underlying,
		},
		{
			name:     "input",
			err:      NewInputError("msg", "cause", "fix"),
			wantCode: ExitInput,
			wantErr:  nil,
		},
		{
			name:     "permission",
			err:      NewPermissionError("msg", "cause", "fix", underlying),
			wantCode: ExitPermission,
			wantErr:  underlying,
		},
		{
			name:     "conflict",
			err:      NewConflictError("msg", "cause", "fix"),
			wantCode: ExitConflict,
			wantErr:  nil,
		},
		{
			name:     "preflight",
			err:      NewPreflightError("msg", "cause", "fix"),
			wantCode: ExitPreflight,
			wantErr:  nil,
		},
		{
			name:     "internal",
			err:      NewInternalError("msg", "cause", "fix", underlying),
			wantCode: ExitInternal,
			wantErr:  underlying,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Message != "msg" || tt.err.Cause != "cause" || tt.err.Fix != "fix" {
				t.Errorf("constructor did not preserve fields: %+v", tt.err)
			}
			if tt.err.ExitCode != tt.wantCode {
				t.Errorf("ExitCode = %d, want %d", tt.err.ExitCode, tt.wantCode)
			}
			if !errors.Is(tt.err, tt.wantErr) && tt.wantErr != nil {
				t.Errorf("errors.Is() should find the underlying error")
			}
		})
	}
}

// TestUserError_Format verifies terminal formatting with colors disabled.
func TestUserError_Format(t *testing.T) {
	// Make output deterministic regardless of the environment
	t.Setenv("NO_COLOR", "1")

	tests := []struct {
		name string
		err  *UserError
		want []string
	}{
		{
			name: "all fields",
			err: &UserError{
				Message: "Cannot create database role",
				Cause:   "CREATE ROLE webgis failed",
				Fix:     "Check the superuser connection",
			},
			want: []string{
				"Error: Cannot create database role\n",
				"Cause: CREATE ROLE webgis failed\n",
				"Fix:   Check the superuser connection\n",
			},
		},
		{
			name: "message only",
			err:  &UserError{Message: "Something failed"},
			want: []string{"Error: Something failed\n"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Format(true)
			for _, fragment := range tt.want {
				if !strings.Contains(got, fragment) {
					t.Errorf("Format() = %q, missing %q", got, fragment)
				}
			}
			if tt.err.Cause == "" && strings.Contains(got, "Cause:") {
				t.Errorf("Format() should omit empty Cause section: %q", got)
			}
			if tt.err.Fix == "" && strings.Contains(got, "Fix:") {
				t.Errorf("Format() should omit empty Fix section: %q", got)
			}
		})
	}
}

// TestUserError_ToJSON verifies the JSON conversion.
func TestUserError_ToJSON(t *testing.T) {
	ue := NewConflictError(
		"Target directory is not a git checkout",
		"webgis-backend/ has no .git directory",
		"Move or remove the directory",
	)

	j := ue.ToJSON()
	if j.Error != ue.Message {
		t.Errorf("ToJSON().Error = %q, want %q", j.Error, ue.Message)
	}
	if j.Cause != ue.Cause {
		t.Errorf("ToJSON().Cause = %q, want %q", j.Cause, ue.Cause)
	}
	if j.Fix != ue.Fix {
		t.Errorf("ToJSON().Fix = %q, want %q", j.Fix, ue.Fix)
	}
	if j.ExitCode != ExitConflict {
		t.Errorf("ToJSON().ExitCode = %d, want %d", j.ExitCode, ExitConflict)
	}
}

// TestFormat_RespectsNoColorEnv verifies that NO_COLOR strips escape codes.
func TestFormat_RespectsNoColorEnv(t *testing.T) {
	if err := os.Setenv("NO_COLOR", "1"); err != nil {
		t.Fatalf("setenv: %v", err)
	}
	defer os.Unsetenv("NO_COLOR")

	ue := NewPreflightError("Required tools are missing", "git not found", "Install git")
	got := ue.Format(false)
	if strings.Contains(got, "\x1b[") {
		t.Errorf("Format() contains ANSI escapes despite NO_COLOR: %q", got)
	}
}
