// Package config provides hierarchical configuration management for gitchangelog using koanf.
// Configuration is loaded with priority: environment variables > project config (.gitchangelog/config.yml)
// > user config (~/.config/gitchangelog/config.yml) > defaults. Every config file may also be written
// as JSON (config.json, or a --config path ending in .json), and a .env file in the working directory
// seeds the environment.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override, e.g. GITCHANGELOG_REMOTE.
const EnvPrefix = "GITCHANGELOG_"

// Configuration represents the gitchangelog CLI tool configuration
type Configuration struct {
	// GitExecutable is the git command line. It may carry leading arguments,
	// e.g. "git -c core.quotepath=off".
	GitExecutable string `koanf:"git_executable" validate:"required"`
	// WorkingDir is where git runs. Empty means the current directory.
	WorkingDir string `koanf:"working_dir"`
	// Timeout bounds every git invocation; 0 disables the limit.
	Timeout time.Duration `koanf:"timeout"`
	Debug   bool          `koanf:"debug"`

	ChangelogFile string `koanf:"changelog_file" validate:"required"`
	// PreserveChanges parses the existing changelog so manual edits survive.
	PreserveChanges bool `koanf:"preserve_changes"`

	// Ref is the tracked ref expression, e.g. "HEAD" or "!(latestTag+1)".
	Ref           string `koanf:"ref"`
	Branch        string `koanf:"branch"`
	Remote        string `koanf:"remote"`
	ExcludeMerges bool   `koanf:"exclude_merges"`

	// Categories are the ordered labels the formatter groups lines under.
	// A single "Fix;Add"-style entry is split on semicolons.
	Categories []string `koanf:"categories"`

	NuspecFile    string `koanf:"nuspec_file"`
	NuspecSection string `koanf:"nuspec_section"`

	StateDir string `koanf:"state_dir"`
	// MaxHistoryEntries sets the maximum number of command history entries to retain.
	// Oldest entries are pruned when this limit is exceeded.
	MaxHistoryEntries int `koanf:"max_history_entries" validate:"min=1"`

	// WatchDebounce delays regeneration after a burst of repository events.
	WatchDebounce time.Duration `koanf:"watch_debounce"`
}

// LoadOptions configures how configuration is loaded
type LoadOptions struct {
	// ProjectConfigPath overrides the project config path (default: .gitchangelog/config.yml)
	ProjectConfigPath string
	// UserConfigPath overrides the user config path. Set to "-" to skip the user layer.
	UserConfigPath string
	// DotEnvPath overrides the .env file location (default: .env)
	DotEnvPath string
	// WarningWriter receives config warnings (default: os.Stderr)
	WarningWriter io.Writer
	// SkipWarnings suppresses config warnings
	SkipWarnings bool
}

// Load loads configuration from user, project, and environment sources.
// Priority: Environment variables > Project config > User config > Defaults
//
// Config paths:
//   - User config: ~/.config/gitchangelog/config.yml (XDG compliant)
//   - Project config: .gitchangelog/config.yml
//
// Either file may be config.json instead; when both forms exist the YAML one is used.
func Load(projectConfigPath string) (*Configuration, error) {
	return LoadWithOptions(LoadOptions{ProjectConfigPath: projectConfigPath})
}

// LoadWithOptions loads configuration with custom options
func LoadWithOptions(opts LoadOptions) (*Configuration, error) {
	k := koanf.New(".")
	warningWriter := getWarningWriter(opts.WarningWriter)

	loadDefaults(k)

	if err := loadUserConfig(k, opts.UserConfigPath, warningWriter, opts.SkipWarnings); err != nil {
		return nil, err
	}

	if err := loadProjectConfig(k, opts.ProjectConfigPath, warningWriter, opts.SkipWarnings); err != nil {
		return nil, err
	}

	if err := loadDotEnv(opts.DotEnvPath); err != nil {
		return nil, err
	}

	if err := loadEnvironmentConfig(k); err != nil {
		return nil, err
	}

	return finalizeConfig(k)
}

// getWarningWriter returns the warning writer or defaults to stderr
func getWarningWriter(w io.Writer) io.Writer {
	if w == nil {
		return os.Stderr
	}
	return w
}

// loadDefaults applies default configuration values
func loadDefaults(k *koanf.Koanf) {
	for key, value := range GetDefaults() {
		k.Set(key, value)
	}
}

// loadUserConfig loads the user-level config when it exists.
func loadUserConfig(k *koanf.Koanf, customPath string, warningWriter io.Writer, skipWarnings bool) error {
	if customPath == "-" {
		return nil
	}
	userPath := customPath
	if userPath == "" {
		userPath, _ = UserConfigPath()
	}
	path := pickConfigFile(userPath, warningWriter, skipWarnings)
	if path == "" {
		return nil
	}
	if err := loadConfigFile(k, path, "user"); err != nil {
		return fmt.Errorf("loading user config: %w", err)
	}
	return nil
}

// loadProjectConfig loads the project-level config when it exists.
func loadProjectConfig(k *koanf.Koanf, customPath string, warningWriter io.Writer, skipWarnings bool) error {
	projectPath := ProjectConfigPath()
	if customPath != "" {
		projectPath = customPath
	}
	path := pickConfigFile(projectPath, warningWriter, skipWarnings)
	if path == "" {
		return nil
	}
	if err := loadConfigFile(k, path, "project"); err != nil {
		return fmt.Errorf("loading project config: %w", err)
	}
	return nil
}

// pickConfigFile returns the file to load for path: path itself, or its
// .json sibling when only that exists. A path ending in .json is used as
// is. It returns "" when neither exists.
func pickConfigFile(path string, warningWriter io.Writer, skipWarnings bool) string {
	if isJSONConfig(path) {
		if fileExists(path) {
			return path
		}
		return ""
	}

	jsonPath := JSONSibling(path)
	yamlExists, jsonExists := fileExists(path), fileExists(jsonPath)
	switch {
	case yamlExists && jsonExists:
		if !skipWarnings {
			fmt.Fprintf(warningWriter, "Warning: both %s and %s exist; using %s\n", path, jsonPath, path)
		}
		return path
	case yamlExists:
		return path
	case jsonExists:
		return jsonPath
	}
	return ""
}

// loadConfigFile loads a YAML or JSON config file, chosen by extension.
func loadConfigFile(k *koanf.Koanf, path, layer string) error {
	if isJSONConfig(path) {
		if err := k.Load(file.Provider(path), json.Parser()); err != nil {
			return fmt.Errorf("failed to load %s config %s: %w", layer, path, err)
		}
		return nil
	}
	if err := ValidateYAMLSyntax(path); err != nil {
		return fmt.Errorf("validating YAML syntax for %s config: %w", layer, err)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("failed to load %s config %s: %w", layer, path, err)
	}
	return nil
}

func isJSONConfig(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// loadDotEnv exports the variables of a .env file into the process
// environment. Variables that are already set win.
func loadDotEnv(path string) error {
	if path == "" {
		path = DotEnvPath
	}
	if !fileExists(path) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// loadEnvironmentConfig loads environment variable overrides
func loadEnvironmentConfig(k *koanf.Koanf) error {
	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return fmt.Errorf("failed to load environment config: %w", err)
	}
	return nil
}

// finalizeConfig unmarshals, validates, and applies final transformations
func finalizeConfig(k *koanf.Koanf) (*Configuration, error) {
	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Categories = normalizeCategories(cfg.Categories)

	if err := ValidateConfigValues(&cfg, "config"); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg.StateDir = expandHomePath(cfg.StateDir)
	cfg.ChangelogFile = expandHomePath(cfg.ChangelogFile)
	cfg.NuspecFile = expandHomePath(cfg.NuspecFile)

	return &cfg, nil
}

// normalizeCategories splits ";"-joined entries and drops blanks and repeats.
func normalizeCategories(in []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, entry := range in {
		for _, c := range strings.Split(entry, ";") {
			c = strings.TrimSpace(c)
			if c == "" || seen[c] {
				continue
			}
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// fileExists returns true if the file exists and is readable
func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// envTransform converts environment variable names to config keys
// Example: GITCHANGELOG_EXCLUDE_MERGES -> exclude_merges
func envTransform(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
}

// expandHomePath expands ~ to the user's home directory
func expandHomePath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(homeDir, path[2:])
		}
	}
	return path
}

// CategoryList renders the categories in the ";"-separated form accepted
// by the formatter.
func (c *Configuration) CategoryList() string {
	return strings.Join(c.Categories, ";")
}

// Values returns the configuration keyed by config key, with durations in
// their string form. Used for display.
func (c *Configuration) Values() map[string]interface{} {
	categories := c.Categories
	if categories == nil {
		categories = []string{}
	}
	return map[string]interface{}{
		"git_executable":      c.GitExecutable,
		"working_dir":         c.WorkingDir,
		"timeout":             c.Timeout.String(),
		"debug":               c.Debug,
		"changelog_file":      c.ChangelogFile,
		"preserve_changes":    c.PreserveChanges,
		"ref":                 c.Ref,
		"branch":              c.Branch,
		"remote":              c.Remote,
		"exclude_merges":      c.ExcludeMerges,
		"categories":          categories,
		"nuspec_file":         c.NuspecFile,
		"nuspec_section":      c.NuspecSection,
		"state_dir":           c.StateDir,
		"max_history_entries": c.MaxHistoryEntries,
		"watch_debounce":      c.WatchDebounce.String(),
	}
}
