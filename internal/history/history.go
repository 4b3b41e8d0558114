// Package history records every gitchangelog command run in a YAML file
// under the state directory, so past generations can be listed and audited.
package history

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// HistoryFileName is the name of the history file inside the state directory.
const HistoryFileName = "history.yaml"

// HistoryEntry is one recorded command execution.
type HistoryEntry struct {
	// ID identifies the run; it is assigned by the Writer when empty.
	ID        string    `yaml:"id"`
	Timestamp time.Time `yaml:"timestamp"`
	Command   string    `yaml:"command"`
	// Target is the file or version the command acted on, e.g. CHANGELOG.txt.
	Target   string `yaml:"target,omitempty"`
	ExitCode int    `yaml:"exit_code"`
	Duration string `yaml:"duration"`
	// Summary is a one-line outcome, e.g. "3 versions, 1 synthesized".
	Summary string `yaml:"summary,omitempty"`
}

// HistoryFile is the on-disk document.
type HistoryFile struct {
	Entries []HistoryEntry `yaml:"entries"`
}

// HistoryPath returns the history file location for stateDir.
func HistoryPath(stateDir string) string {
	return filepath.Join(stateDir, HistoryFileName)
}

// LoadHistory reads the history file. A missing file yields an empty history.
func LoadHistory(stateDir string) (*HistoryFile, error) {
	data, err := os.ReadFile(HistoryPath(stateDir))
	if err != nil {
		if os.IsNotExist(err) {
			return &HistoryFile{}, nil
		}
		return nil, fmt.Errorf("reading history file: %w", err)
	}

	var history HistoryFile
	if err := yaml.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("parsing history file: %w", err)
	}
	return &history, nil
}

// SaveHistory writes history atomically (temp file + rename).
func SaveHistory(stateDir string, history *HistoryFile) error {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	data, err := yaml.Marshal(history)
	if err != nil {
		return fmt.Errorf("marshaling history: %w", err)
	}

	path := HistoryPath(stateDir)
	tmp, err := os.CreateTemp(stateDir, HistoryFileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp history file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp history file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp history file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming history file: %w", err)
	}
	return nil
}

// ClearHistory removes every entry. A missing file is not an error.
func ClearHistory(stateDir string) error {
	if err := os.Remove(HistoryPath(stateDir)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing history file: %w", err)
	}
	return nil
}

// Filter returns the entries whose command matches (all when empty),
// keeping only the most recent limit entries when limit is positive.
func Filter(entries []HistoryEntry, command string, limit int) []HistoryEntry {
	var result []HistoryEntry
	for _, entry := range entries {
		if command == "" || entry.Command == command {
			result = append(result, entry)
		}
	}
	if limit > 0 && len(result) > limit {
		result = result[len(result)-limit:]
	}
	return result
}
