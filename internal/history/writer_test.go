package history

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryWriter_LogEntry(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		setupStore  func(t *testing.T, stateDir string)
		maxEntries  int
		wantEntries int
	}{
		"log entry to empty history": {
			setupStore:  func(t *testing.T, stateDir string) {},
			maxEntries:  500,
			wantEntries: 1,
		},
		"log entry to existing history": {
			setupStore: func(t *testing.T, stateDir string) {
				history := &HistoryFile{
					Entries: []HistoryEntry{
						{Timestamp: time.Now(), Command: "existing", ExitCode: 0, Duration: "1m"},
					},
				}
				require.NoError(t, SaveHistory(stateDir, history))
			},
			maxEntries:  500,
			wantEntries: 2,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			stateDir := t.TempDir()
			tc.setupStore(t, stateDir)

			writer := NewWriter(stateDir, tc.maxEntries)
			entry := HistoryEntry{
				Timestamp: time.Now(),
				Command:   "test",
				Target:    "CHANGELOG.txt",
				ExitCode:  0,
				Duration:  "30s",
			}
			writer.LogEntry(entry)

			// Verify entry was logged
			history, err := LoadHistory(stateDir)
			require.NoError(t, err)
			assert.Len(t, history.Entries, tc.wantEntries)
		})
	}
}

func TestHistoryWriter_Pruning(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		existingEntries int
		maxEntries      int
		wantEntries     int
		wantOldest      string // Command name of oldest remaining entry
	}{
		"no pruning needed": {
			existingEntries: 5,
			maxEntries:      10,
			wantEntries:     6, // 5 existing + 1 new
			wantOldest:      "cmd-a",
		},
		"prune oldest when max exceeded": {
			existingEntries: 10,
			maxEntries:      10,
			wantEntries:     10, // oldest removed, new added
			wantOldest:      "cmd-b",
		},
		"prune multiple when well over max": {
			existingEntries: 12,
			maxEntries:      10,
			wantEntries:     10,
			wantOldest:      "cmd-d",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			stateDir := t.TempDir()

			// Create existing entries
			entries := make([]HistoryEntry, tc.existingEntries)
			for i := 0; i < tc.existingEntries; i++ {
				entries[i] = HistoryEntry{
					Timestamp: time.Now().Add(time.Duration(i) * time.Minute),
					Command:   "cmd-" + string(rune('a'+i)),
					ExitCode:  0,
					Duration:  "1m",
				}
			}
			history := &HistoryFile{Entries: entries}
			require.NoError(t, SaveHistory(stateDir, history))

			// Log new entry
			writer := NewWriter(stateDir, tc.maxEntries)
			writer.LogEntry(HistoryEntry{
				Timestamp: time.Now().Add(time.Hour),
				Command:   "new-cmd",
				ExitCode:  0,
				Duration:  "30s",
			})

			// Verify
			loaded, err := LoadHistory(stateDir)
			require.NoError(t, err)
			assert.Len(t, loaded.Entries, tc.wantEntries)

			// Verify oldest entry
			if len(loaded.Entries) > 0 {
				assert.Equal(t, tc.wantOldest, loaded.Entries[0].Command)
			}

			// Verify newest entry is our new one
			assert.Equal(t, "new-cmd", loaded.Entries[len(loaded.Entries)-1].Command)
		})
	}
}

func TestHistoryWriter_LogCommand(t *testing.T) {
	t.Parallel()

	stateDir := t.TempDir()
	writer := NewWriter(stateDir, 500)

	writer.LogCommand("changelog generate", "CHANGELOG.txt", "3 versions", 0, 2*time.Minute+30*time.Second)

	history, err := LoadHistory(stateDir)
	require.NoError(t, err)
	require.Len(t, history.Entries, 1)

	entry := history.Entries[0]
	assert.Equal(t, "changelog generate", entry.Command)
	assert.Equal(t, "CHANGELOG.txt", entry.Target)
	assert.Equal(t, "3 versions", entry.Summary)
	assert.Equal(t, 0, entry.ExitCode)
	assert.Equal(t, "2m30s", entry.Duration)
	assert.False(t, entry.Timestamp.IsZero())
	assert.Len(t, entry.ID, 36)
}

func TestHistoryWriter_KeepsExplicitID(t *testing.T) {
	t.Parallel()

	stateDir := t.TempDir()
	writer := NewWriter(stateDir, 0)
	writer.LogEntry(HistoryEntry{ID: "run-1", Command: "watch"})
	writer.LogEntry(HistoryEntry{Command: "watch"})

	history, err := LoadHistory(stateDir)
	require.NoError(t, err)
	require.Len(t, history.Entries, 2)
	assert.Equal(t, "run-1", history.Entries[0].ID)
	assert.NotEqual(t, history.Entries[0].ID, history.Entries[1].ID)
}

func TestHistoryWriter_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	stateDir := t.TempDir()
	writer := NewWriter(stateDir, 100)

	var wg sync.WaitGroup
	numWriters := 10
	entriesPerWriter := 5

	for i := 0; i < numWriters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < entriesPerWriter; j++ {
				writer.LogEntry(HistoryEntry{
					Timestamp: time.Now(),
					Command:   "test",
					Target:    "concurrent-test",
					Duration:  "1s",
				})
			}
		}()
	}

	wg.Wait()

	history, err := LoadHistory(stateDir)
	require.NoError(t, err)
	assert.Len(t, history.Entries, numWriters*entriesPerWriter)
}

func TestHistoryWriter_NonFatalErrors(t *testing.T) {
	t.Parallel()

	// A regular file where the state directory should be cannot be created.
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	var warnings bytes.Buffer
	writer := NewWriter(filepath.Join(blocker, "state"), 500)
	writer.Warnings = &warnings

	writer.LogEntry(HistoryEntry{
		Timestamp: time.Now(),
		Command:   "test",
		Duration:  "1s",
	})

	assert.Contains(t, warnings.String(), "Warning: failed to log history")
}

func TestNewWriter(t *testing.T) {
	t.Parallel()

	writer := NewWriter("/test/path", 100)

	assert.Equal(t, "/test/path", writer.StateDir)
	assert.Equal(t, 100, writer.MaxEntries)
}

func TestHistoryWriter_ZeroMaxEntries(t *testing.T) {
	t.Parallel()

	stateDir := t.TempDir()

	// Zero max entries means unlimited
	writer := NewWriter(stateDir, 0)

	for i := 0; i < 5; i++ {
		writer.LogEntry(HistoryEntry{
			Timestamp: time.Now(),
			Command:   "test",
			Duration:  "1s",
		})
	}

	history, err := LoadHistory(stateDir)
	require.NoError(t, err)
	assert.Len(t, history.Entries, 5)
}

func TestLoadHistory_Errors(t *testing.T) {
	t.Parallel()

	stateDir := t.TempDir()
	require.NoError(t, os.WriteFile(HistoryPath(stateDir), []byte("entries: [unclosed"), 0o644))

	_, err := LoadHistory(stateDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing history file")
}

func TestClearHistory(t *testing.T) {
	t.Parallel()

	stateDir := t.TempDir()
	require.NoError(t, ClearHistory(stateDir), "missing file is not an error")

	NewWriter(stateDir, 0).LogEntry(HistoryEntry{Command: "tags"})
	require.FileExists(t, HistoryPath(stateDir))

	require.NoError(t, ClearHistory(stateDir))
	history, err := LoadHistory(stateDir)
	require.NoError(t, err)
	assert.Empty(t, history.Entries)
}

func TestFilter(t *testing.T) {
	t.Parallel()

	entries := []HistoryEntry{
		{Command: "tags"},
		{Command: "changelog generate", Target: "a"},
		{Command: "tags"},
		{Command: "changelog generate", Target: "b"},
		{Command: "changelog generate", Target: "c"},
	}

	tests := map[string]struct {
		command     string
		limit       int
		wantTargets []string
		wantLen     int
	}{
		"no filter":          {wantLen: 5},
		"by command":         {command: "changelog generate", wantTargets: []string{"a", "b", "c"}, wantLen: 3},
		"limit keeps latest": {command: "changelog generate", limit: 2, wantTargets: []string{"b", "c"}, wantLen: 2},
		"no match":           {command: "watch", wantLen: 0},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got := Filter(entries, tt.command, tt.limit)
			assert.Len(t, got, tt.wantLen)
			if tt.wantTargets != nil {
				var targets []string
				for _, e := range got {
					targets = append(targets, e.Target)
				}
				assert.Equal(t, tt.wantTargets, targets)
			}
		})
	}
}
