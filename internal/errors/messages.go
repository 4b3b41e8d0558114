package errors

import "fmt"

// Common error messages for the gitchangelog CLI.
// These templates ensure consistent, actionable error messages.

// GitNotFound creates an error when the git executable cannot be started.
func GitNotFound(executable string, err error) *CLIError {
	return WrapWithMessage(err, Prerequisite,
		fmt.Sprintf("cannot run git executable %q", executable),
		"Install git and make sure it is in your PATH",
		"Or point git_executable at it: gitchangelog config set git_executable /usr/bin/git",
	)
}

// GitNotRepository creates an error when not in a git repository.
func GitNotRepository(path string) *CLIError {
	return NewPrerequisiteError(
		fmt.Sprintf("not a git repository: %s", path),
		"Run the command from inside a git work tree",
		"Or set working_dir in .gitchangelog/config.yml",
	)
}

// GitCommandFailed creates an error for a fatal git invocation.
func GitCommandFailed(err error) *CLIError {
	return WrapWithMessage(err, Runtime,
		"git command failed",
		"Re-run with --debug to see every git command and its output",
		"Check that the referenced branch, remote and tags exist",
	)
}

// InvalidRefExpression creates an error for an unparseable ref expression.
func InvalidRefExpression(input string, err error) *CLIError {
	return &CLIError{
		Category: Argument,
		Message:  fmt.Sprintf("invalid ref expression %q: %v", input, err),
		Usage:    "!(latestTag[+N|-N]) | !(latestCommit[+N]) | !(commit:<40-hex>[+N|-N]) | <ref>",
		Remediation: []string{
			"Keywords are latestTag, latestCommit and commit",
			"Example: gitchangelog resolve '!(latestTag+1)'",
		},
		Cause: err,
	}
}

// ChangelogParseError creates an error for an existing changelog that cannot be parsed.
func ChangelogParseError(path string, err error) *CLIError {
	return WrapWithMessage(err, Runtime,
		fmt.Sprintf("cannot parse existing changelog %s", path),
		"Fix the reported line, or move the file away to regenerate it from history",
		"Or disable preservation: gitchangelog changelog generate --preserve=false",
	)
}

// VersionNotFound creates an error when a requested version has no section.
func VersionNotFound(version string, available []string) *CLIError {
	remediation := []string{"List versions with: gitchangelog changelog show --list"}
	if len(available) > 0 {
		remediation = append(remediation, fmt.Sprintf("Available: %v", available))
	}
	return NewArgumentError(fmt.Sprintf("version not found: %s", version), remediation...)
}

// ChangelogOutdated creates an error for `changelog check` when the file on
// disk differs from what generation would write.
func ChangelogOutdated(path string) *CLIError {
	return NewRuntimeError(
		fmt.Sprintf("%s is out of date", path),
		"Regenerate it with: gitchangelog changelog generate",
		"Preview the change with: gitchangelog changelog generate --dry-run --diff",
	)
}

// ChangelogLocked creates an error when another run holds the changelog lock.
func ChangelogLocked(path string, pid int) *CLIError {
	return NewRuntimeError(
		fmt.Sprintf("%s is being generated by another process (PID %d)", path, pid),
		"Wait for the other run to finish",
		"If no other run is active, remove the stale lock with: gitchangelog changelog unlock",
	)
}

// ManifestError creates an error for a manifest edit that failed.
func ManifestError(path string, err error) *CLIError {
	return WrapWithMessage(err, Runtime,
		fmt.Sprintf("cannot update manifest %s", path),
		"Check that the file is a well-formed .nuspec document",
		"Check the configured section: nuspec_section",
	)
}

// ConfigParseError creates an error for invalid config file format.
func ConfigParseError(path string, err error) *CLIError {
	return WrapWithMessage(err, Configuration,
		fmt.Sprintf("failed to load configuration: %s", path),
		"Check the file for YAML syntax errors",
		"Show the effective configuration with: gitchangelog config show",
	)
}

// InvalidFlagCombination creates an error for incompatible flag combinations.
func InvalidFlagCombination(flags string, reason string) *CLIError {
	return NewArgumentError(
		fmt.Sprintf("invalid flag combination: %s", flags),
		reason,
		"Use 'gitchangelog <command> --help' to see valid options",
	)
}

// TimeoutError creates an error when a git command times out.
func TimeoutError(duration string, command string) *CLIError {
	return NewRuntimeError(
		fmt.Sprintf("command timed out after %s: %s", duration, command),
		"Increase the timeout: GITCHANGELOG_TIMEOUT=2m",
		"Or edit .gitchangelog/config.yml and set \"timeout: 2m\"",
		"Set timeout to 0s to disable the limit",
	)
}

// FileNotWritable creates an error when a file cannot be written.
func FileNotWritable(path string) *CLIError {
	return NewRuntimeError(
		fmt.Sprintf("cannot write to file: %s", path),
		"Check file permissions: ls -la "+path,
		"Ensure parent directory exists and is writable",
	)
}
