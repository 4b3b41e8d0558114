// Package shared provides constants and types used across CLI subpackages.
package shared

import (
	"errors"
	"fmt"
)

// Command group IDs shown in the root help.
const (
	GroupGettingStarted = "getting-started"
	GroupChangelog      = "changelog"
	GroupQueries        = "queries"
	GroupConfiguration  = "configuration"
)

// Exit codes for the gitchangelog CLI.
// These codes support programmatic composition and CI/CD integration.
const (
	// ExitSuccess indicates successful command execution
	ExitSuccess = 0

	// ExitFailure indicates a failed command: a fatal git error, an
	// unparseable changelog, an outdated changelog on check
	ExitFailure = 1

	// ExitInvalidArguments indicates invalid command arguments or expressions
	ExitInvalidArguments = 3

	// ExitMissingDependency indicates git or the repository is missing
	ExitMissingDependency = 4

	// ExitTimeout indicates a git command timed out
	ExitTimeout = 5
)

// ExitError carries an exit code whose message has already been printed.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// NewExitError creates an ExitError with the given code.
func NewExitError(code int) error {
	return &ExitError{Code: code}
}

// IsExitError reports whether err carries an ExitError.
func IsExitError(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr)
}

// ExitCode extracts the exit code from err. Errors without an ExitError
// map to ExitFailure.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}
