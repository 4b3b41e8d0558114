package cli

import (
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/ariel-frischer/gitchangelog/internal/changelog"
	"github.com/ariel-frischer/gitchangelog/internal/cli/shared"
	"github.com/ariel-frischer/gitchangelog/internal/config"
	clierrors "github.com/ariel-frischer/gitchangelog/internal/errors"
	"github.com/ariel-frischer/gitchangelog/internal/git"
	"github.com/ariel-frischer/gitchangelog/internal/lock"
	"github.com/ariel-frischer/gitchangelog/internal/manifest"
	"github.com/ariel-frischer/gitchangelog/internal/refexpr"
	"github.com/spf13/cobra"
)

// Exit codes for the gitchangelog CLI
const (
	ExitSuccess           = shared.ExitSuccess
	ExitFailure           = shared.ExitFailure
	ExitInvalidArguments  = shared.ExitInvalidArguments
	ExitMissingDependency = shared.ExitMissingDependency
	ExitTimeout           = shared.ExitTimeout
)

// NewExitError creates an error that only carries an exit code.
func NewExitError(code int) error {
	return shared.NewExitError(code)
}

// gitTimeout is the timeout of the loaded configuration, reported when a
// git command times out.
var gitTimeout time.Duration

// ExitCode maps err to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	if shared.IsExitError(err) {
		return shared.ExitCode(err)
	}
	if git.IsTimeout(err) {
		return ExitTimeout
	}
	if cliErr := clierrors.AsCLIError(toCLIError(err)); cliErr != nil {
		switch cliErr.Category {
		case clierrors.Argument:
			return ExitInvalidArguments
		case clierrors.Prerequisite:
			return ExitMissingDependency
		}
	}
	return ExitFailure
}

// toCLIError turns err into a CLIError with remediation. Errors that already
// are CLIErrors are returned unchanged.
func toCLIError(err error) error {
	if err == nil || clierrors.IsCLIError(err) {
		return err
	}

	if held, ok := lock.IsHeld(err); ok {
		return clierrors.ChangelogLocked(held.Holder.Target, held.Holder.PID)
	}

	var parseErr *changelog.ParseError
	if errors.As(err, &parseErr) {
		return clierrors.ChangelogParseError("changelog", err)
	}

	var refErr *refexpr.Error
	if errors.As(err, &refErr) {
		return clierrors.InvalidRefExpression(refErr.Input, errors.New(refErr.Message))
	}

	var notFound *changelog.VersionNotFoundError
	if errors.As(err, &notFound) {
		return clierrors.VersionNotFound(notFound.Version, notFound.AvailableVersions)
	}

	var manifestErr *manifest.Error
	if errors.As(err, &manifestErr) {
		return clierrors.ManifestError(manifestErr.Path, err)
	}

	var unknownKey config.ErrUnknownKey
	if errors.As(err, &unknownKey) {
		return clierrors.Wrap(err, clierrors.Argument, "List the known keys with: gitchangelog config keys")
	}

	if gitErr, ok := git.AsError(err); ok {
		return gitCLIError(gitErr, err)
	}

	return clierrors.Wrap(err, clierrors.Runtime)
}

func gitCLIError(gitErr *git.Error, err error) error {
	if gitErr.TimedOut {
		timeoutErr := clierrors.TimeoutError(gitTimeout.String(), gitErr.Command)
		timeoutErr.Cause = err
		return timeoutErr
	}
	if gitErr.Err != nil && (errors.Is(gitErr.Err, exec.ErrNotFound) || errors.Is(gitErr.Err, os.ErrNotExist)) {
		executable := gitErr.Command
		if fields := strings.Fields(executable); len(fields) > 0 {
			executable = fields[0]
		}
		return clierrors.GitNotFound(executable, gitErr.Err)
	}
	return clierrors.GitCommandFailed(err)
}

// changelogError attaches path to changelog parse failures.
func changelogError(path string, err error) error {
	var parseErr *changelog.ParseError
	if errors.As(err, &parseErr) {
		return clierrors.ChangelogParseError(path, err)
	}
	return err
}

// usageArgs wraps a positional argument validator so its failures are
// argument errors showing the command's usage line.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return clierrors.NewArgumentErrorWithUsage(err.Error(), cmd.UseLine(),
				"Run '"+cmd.CommandPath()+" --help' for details")
		}
		return nil
	}
}
