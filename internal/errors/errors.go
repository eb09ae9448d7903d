// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package errors provides structured error handling for the gisup CLI.
//
// Every provisioning step reports failures as a UserError, which carries
// what went wrong, why it happened, and how the operator can fix it. The
// package also defines the exit codes used by the CLI so that scripted
// callers can distinguish error categories.
//
// Creating and reporting errors:
//
//	err := errors.NewDatabaseError(
//	    "Cannot create database role",
//	    "CREATE ROLE webgis failed",
//	    "Check that the configured superuser can log in: psql -U postgres",
//	    underlyingErr,
//	)
//	errors.FatalError(err, jsonMode) // prints and exits with ExitDatabase
//
// # Exit Codes
//
// Exit codes follow Unix conventions and map one-to-one to the error
// taxonomy of the bootstrapper:
//   - ExitSuccess (0): successful execution
//   - ExitConfig (1): configuration errors (missing/invalid gisup.yaml)
//   - ExitDatabase (2): database provisioning errors (role, database, extension)
//   - ExitNetwork (3): network errors (unreachable git remote, download failure)
//   - ExitInput (4): invalid user input (bad arguments, validation errors)
//   - ExitPermission (5): permission denied (file access, sudo refusal)
//   - ExitConflict (7): precondition conflicts that need operator intervention
//     (for example a target directory that exists but is not a git checkout)
//   - ExitPreflight (8): a required external tool is missing from PATH
//   - ExitInternal (10): internal errors (bugs, panics)
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Exit codes for different error categories.
const (
	// ExitSuccess indicates successful execution.
	ExitSuccess = 0

	// ExitConfig indicates configuration errors (missing/invalid config files).
	ExitConfig = 1

	// ExitDatabase indicates database provisioning errors.
	ExitDatabase = 2

	// ExitNetwork indicates network errors (unreachable remote, timeout).
	ExitNetwork = 3

	// ExitInput indicates invalid user input (bad arguments, validation errors).
	ExitInput = 4

	// ExitPermission indicates permission denied errors.
	ExitPermission = 5

	// ExitConflict indicates a precondition conflict that must be resolved by
	// the operator. gisup never resolves these destructively on its own.
	ExitConflict = 7

	// ExitPreflight indicates a missing prerequisite detected before any
	// mutating operation ran.
	ExitPreflight = 8

	// ExitInternal indicates internal errors (bugs, unexpected panics).
	// Exit code 10 signals "this is a bug that should be reported".
	ExitInternal = 10
)

// UserError represents an error with structured context for end users.
//
// It provides three levels of information:
//   - Message: what went wrong (user-facing error description)
//   - Cause: why it happened (diagnostic information)
//   - Fix: how to fix it (actionable suggestion)
//
// UserError also carries an exit code for consistent CLI exit behavior
// and optionally wraps an underlying error for error chain compatibility.
type UserError struct {
	// Message describes what went wrong in user-friendly language.
	Message string

	// Cause explains why the error occurred (diagnostic information).
	Cause string

	// Fix provides an actionable suggestion on how to resolve the error.
	Fix string

	// ExitCode is the exit code that should be used when exiting due to this error.
	ExitCode int

	// Err is the underlying error that caused this error (optional).
	// This enables error wrapping and compatibility with errors.Is/As.
	Err error
}

// Error implements the error interface. If an underlying error is present,
// its message is appended for context.
func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error, allowing errors.Is and errors.As to
// inspect the chain.
func (e *UserError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a configuration error with exit code ExitConfig.
//
// Use this for errors related to missing, invalid, or malformed
// configuration files.
//
// Example:
//
//	return NewConfigError(
//	    "Cannot load gisup configuration",
//	    "gisup.yaml is missing",
//	    "Run 'gisup init' to create a configuration",
//	    nil,
//	)
func NewConfigError(msg, cause, fix string, err error) *UserError {
	return &UserError{
		Message:  msg,
		Cause:    cause,
		Fix:      fix,
		ExitCode: ExitConfig,
		Err:      err,
	}
}

// NewDatabaseError creates a database provisioning error with exit code
// ExitDatabase.
//
// Use this for failures of individual provisioning statements (role
// creation, database creation, extension installation) so the operator can
// tell exactly which statement failed.
func NewDatabaseError(msg, cause, fix string, err error) *UserError {
	return &UserError{
		Message:  msg,
		Cause:    cause,
		Fix:      fix,
		ExitCode: ExitDatabase,
		Err:      err,
	}
}

// NewNetworkError creates a network error with exit code ExitNetwork.
//
// Use this for unreachable git remotes, failed package downloads, and
// similar connectivity failures.
func NewNetworkError(msg, cause, fix string, err error) *UserError {
	return &UserError{
		Message:  msg,
		Cause:    cause,
		Fix:      fix,
		ExitCode: ExitNetwork,
		Err:      err,
	}
}

// NewInputError creates an input validation error with exit code ExitInput.
//
// Input errors typically do not wrap an underlying error.
func NewInputError(msg, cause, fix string) *UserError {
	return &UserError{
		Message:  msg,
		Cause:    cause,
		Fix:      fix,
		ExitCode: ExitInput,
		Err:      nil,
	}
}

// NewPermissionError creates a permission denied error with exit code
// ExitPermission.
func NewPermissionError(msg, cause, fix string, err error) *UserError {
	return &UserError{
		Message:  msg,
		Cause:    cause,
		Fix:      fix,
		ExitCode: ExitPermission,
		Err:      err,
	}
}

// NewConflictError creates a precondition-conflict error with exit code
// ExitConflict.
//
// Use this when a target resource exists in an unexpected state and the
// safe action is to stop and let the operator decide. The canonical case is
// a repository target directory that exists but is not a git checkout:
// deleting it could destroy unrelated operator data.
//
// Example:
//
//	return NewConflictError(
//	    "Target directory is not a git checkout",
//	    "webgis-backend/ exists but has no .git directory",
//	    "Move or remove webgis-backend/ and re-run 'gisup sync'",
//	)
func NewConflictError(msg, cause, fix string) *UserError {
	return &UserError{
		Message:  msg,
		Cause:    cause,
		Fix:      fix,
		ExitCode: ExitConflict,
		Err:      nil,
	}
}

// NewPreflightError creates a missing-prerequisite error with exit code
// ExitPreflight.
//
// Preflight errors are always raised before any mutating operation runs.
//
// Example:
//
//	return NewPreflightError(
//	    "Required tools are missing",
//	    "git, python3 not found on PATH",
//	    "Install the missing tools and re-run 'gisup up'",
//	)
func NewPreflightError(msg, cause, fix string) *UserError {
	return &UserError{
		Message:  msg,
		Cause:    cause,
		Fix:      fix,
		ExitCode: ExitPreflight,
		Err:      nil,
	}
}

// NewInternalError creates an internal error with exit code ExitInternal.
//
// Use this for unexpected errors that indicate bugs in the program.
// Internal errors should be reported to the maintainers.
func NewInternalError(msg, cause, fix string, err error) *UserError {
	return &UserError{
		Message:  msg,
		Cause:    cause,
		Fix:      fix,
		ExitCode: ExitInternal,
		Err:      err,
	}
}

// Color definitions for error formatting.
var (
	colorError = color.New(color.FgRed, color.Bold)
	colorCause = color.New(color.FgYellow)
	colorFix   = color.New(color.FgGreen)
)

// Format returns a formatted error message for terminal display.
//
// The output includes colored sections for Error (red/bold), Cause (yellow),
// and Fix (green). Color output respects the NO_COLOR environment variable
// and can be explicitly disabled with the noColor parameter.
//
// Example output:
//
//	Error: Cannot create database role
//	Cause: CREATE ROLE webgis failed
//	Fix:   Check that the configured superuser can log in: psql -U postgres
//
// Empty Cause or Fix fields are omitted from the output.
//
// Note: This method temporarily modifies the global color.NoColor state
// and restores it after formatting.
func (e *UserError) Format(noColor bool) string {
	// Save and restore global color state to avoid side effects
	originalNoColor := color.NoColor
	defer func() { color.NoColor = originalNoColor }()

	if noColor || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}

	var out strings.Builder
	out.WriteString(colorError.Sprint("Error: "))
	out.WriteString(e.Message)
	out.WriteString("\n")

	if e.Cause != "" {
		out.WriteString(colorCause.Sprint("Cause: "))
		out.WriteString(e.Cause)
		out.WriteString("\n")
	}

	if e.Fix != "" {
		out.WriteString(colorFix.Sprint("Fix:   "))
		out.WriteString(e.Fix)
		out.WriteString("\n")
	}

	return out.String()
}

// ErrorJSON represents error information in JSON format.
//
// This structure is suitable for machine consumption and integrates with
// CLI commands that support --json output mode.
type ErrorJSON struct {
	Error    string `json:"error"`
	Cause    string `json:"cause,omitempty"`
	Fix      string `json:"fix,omitempty"`
	ExitCode int    `json:"exit_code"`
}

// ToJSON converts the UserError to a JSON-serializable structure.
//
// Fields with empty values (Cause, Fix) are omitted from JSON output
// using the omitempty tag.
func (e *UserError) ToJSON() ErrorJSON {
	return ErrorJSON{
		Error:    e.Message,
		Cause:    e.Cause,
		Fix:      e.Fix,
		ExitCode: e.ExitCode,
	}
}

// FatalError prints the error and exits with the appropriate code.
//
// If the error is (or wraps) a UserError, it uses Format() for colored
// output or ToJSON() for JSON mode. For other error types, it prints a
// simple error message and exits with ExitInternal.
//
// This function never returns - it always calls os.Exit().
func FatalError(err error, jsonOutput bool) {
	if err == nil {
		return
	}

	var ue *UserError
	if stderrors.As(err, &ue) {
		if jsonOutput {
			enc := json.NewEncoder(os.Stderr)
			enc.SetIndent("", "  ")
			// Encode error is intentionally ignored since we're about to exit.
			_ = enc.Encode(ue.ToJSON())
		} else {
			fmt.Fprint(os.Stderr, ue.Format(false))
		}
		os.Exit(ue.ExitCode)
	}

	// Fallback for non-UserError
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(ExitInternal)
}
