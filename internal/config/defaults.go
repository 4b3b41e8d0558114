package config

// GetDefaultConfigTemplate returns a fully commented config template
// that helps users understand all available options
func GetDefaultConfigTemplate() string {
	return `# gitchangelog configuration
# See 'gitchangelog config -h' for commands, 'gitchangelog config keys' for all options

# Git settings
git_executable: git                   # Git command, may include leading args
working_dir: ""                       # Directory git runs in (empty = current directory)
timeout: 0s                           # Per-command timeout (0s = no timeout)
debug: false                          # Log every git command with its output

# Changelog settings
changelog_file: CHANGELOG.txt         # Changelog path
preserve_changes: true                # Keep manual edits made to the existing changelog
ref: HEAD                             # Tracked ref, e.g. HEAD or !(latestTag+1)
branch: HEAD                          # Branch used for look-ahead expressions
remote: origin                        # Remote used for look-ahead expressions
exclude_merges: true                  # Skip merge commits when reading history
categories: []                        # Ordered category labels, e.g. [Fix, Add, Change]

# NuSpec manifest
nuspec_file: ""                       # Manifest receiving the release notes (empty = disabled)
nuspec_section: metadata              # Section holding the releaseNotes element

# State and history
state_dir: ~/.gitchangelog/state      # History and lock files
max_history_entries: 500              # Max command history entries to retain

# Watch mode
watch_debounce: 500ms                 # Quiet period before regenerating
`
}

// GetDefaults returns the default configuration values
func GetDefaults() map[string]interface{} {
	return map[string]interface{}{
		"git_executable": "git",
		"working_dir":    "",
		"timeout":        "0s",
		"debug":          false,
		"changelog_file": "CHANGELOG.txt",
		// preserve_changes: parse the existing file so edits made by hand
		// are carried into the regenerated one.
		"preserve_changes": true,
		"ref":              "HEAD",
		"branch":           "HEAD",
		"remote":           "origin",
		"exclude_merges":   true,
		"categories":       []string{},
		"nuspec_file":      "",
		"nuspec_section":   "metadata",
		"state_dir":        "~/.gitchangelog/state",
		// max_history_entries: Oldest entries are pruned when this limit is exceeded.
		"max_history_entries": 500,
		"watch_debounce":      "500ms",
	}
}
