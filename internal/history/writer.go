package history

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Writer provides thread-safe history logging with automatic pruning.
type Writer struct {
	// StateDir is the directory containing the history file.
	StateDir string
	// MaxEntries is the maximum number of entries to retain; 0 keeps all.
	MaxEntries int
	// Warnings receives non-fatal logging failures (default: os.Stderr).
	Warnings io.Writer

	mu sync.Mutex
}

// NewWriter creates a new history writer.
func NewWriter(stateDir string, maxEntries int) *Writer {
	return &Writer{
		StateDir:   stateDir,
		MaxEntries: maxEntries,
	}
}

// LogEntry adds a new entry to the history file.
// It loads the existing history, appends the new entry, prunes if needed, and saves.
// Errors are non-fatal: they are written as warnings and don't cause command failures.
func (w *Writer) LogEntry(entry HistoryEntry) {
	if err := w.logEntryInternal(entry); err != nil {
		out := w.Warnings
		if out == nil {
			out = os.Stderr
		}
		fmt.Fprintf(out, "Warning: failed to log history: %v\n", err)
	}
}

// logEntryInternal handles the actual logging logic.
func (w *Writer) logEntryInternal(entry HistoryEntry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	history, err := LoadHistory(w.StateDir)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}

	history.Entries = append(history.Entries, entry)

	// Prune oldest entries if over limit
	if w.MaxEntries > 0 && len(history.Entries) > w.MaxEntries {
		excess := len(history.Entries) - w.MaxEntries
		history.Entries = history.Entries[excess:]
	}

	if err := SaveHistory(w.StateDir, history); err != nil {
		return fmt.Errorf("saving history: %w", err)
	}

	return nil
}

// LogCommand is a convenience method to log a command execution.
func (w *Writer) LogCommand(command, target, summary string, exitCode int, duration time.Duration) {
	w.LogEntry(HistoryEntry{
		Timestamp: time.Now(),
		Command:   command,
		Target:    target,
		Summary:   summary,
		ExitCode:  exitCode,
		Duration:  duration.Round(time.Millisecond).String(),
	})
}
