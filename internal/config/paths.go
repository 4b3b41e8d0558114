package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	appName    = "gitchangelog"
	projectDir = ".gitchangelog"
	configName = "config.yml"
)

// DotEnvPath is the .env file read before environment overrides are applied.
const DotEnvPath = ".env"

// UserConfigPath returns the path to the user-level config file.
// This follows the XDG Base Directory Specification:
// - Linux: ~/.config/gitchangelog/config.yml
// - macOS: ~/Library/Application Support/gitchangelog/config.yml
// - Windows: %APPDATA%\gitchangelog\config.yml
//
// If XDG_CONFIG_HOME is set, it will be respected on Linux.
func UserConfigPath() (string, error) {
	dir, err := UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configName), nil
}

// UserConfigDir returns the path to the user-level config directory.
func UserConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, appName), nil
}

// ProjectConfigPath returns the path to the project-level config file.
// This is always .gitchangelog/config.yml relative to the current directory.
func ProjectConfigPath() string {
	return filepath.Join(projectDir, configName)
}

// ProjectConfigDir returns the path to the project-level config directory.
func ProjectConfigDir() string {
	return projectDir
}

// JSONSibling returns the JSON form of a YAML config path, e.g.
// .gitchangelog/config.json for .gitchangelog/config.yml.
func JSONSibling(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".json"
}
