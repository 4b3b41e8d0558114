// Package config provides the configuration commands: config and init.
// path.go resolves the directory argument of init, so a project can be
// initialized without changing into it first.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ResolvePath converts a raw path argument to an absolute path.
//   - Empty string or ".": the current working directory
//   - "~" or "~/...": expanded to the user's home directory
//   - Relative path: resolved against the current working directory
//   - Absolute path: cleaned and returned
func ResolvePath(rawPath string) (string, error) {
	if rawPath == "" || rawPath == "." {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
		return cwd, nil
	}

	if rawPath == "~" || strings.HasPrefix(rawPath, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding tilde in path: %w", err)
		}
		rawPath = filepath.Join(home, strings.TrimPrefix(rawPath[1:], "/"))
	}

	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return "", fmt.Errorf("resolving absolute path: %w", err)
	}
	return absPath, nil
}

// EnsureDirectory creates path (and parents) when missing. It fails when
// path exists and is not a directory.
func EnsureDirectory(path string) error {
	info, err := os.Stat(path)
	switch {
	case err == nil && !info.IsDir():
		return fmt.Errorf("path exists and is not a directory: %s", path)
	case err == nil:
		return nil
	case os.IsNotExist(err):
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", path, err)
		}
		return nil
	default:
		return fmt.Errorf("checking path %s: %w", path, err)
	}
}

// resolveTargetDirectory returns the absolute directory init acts on: the
// path argument when given, the current directory otherwise.
func resolveTargetDirectory(args []string) (string, error) {
	rawPath := ""
	if len(args) > 0 {
		rawPath = args[0]
	}
	return ResolvePath(rawPath)
}
