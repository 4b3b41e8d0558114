package testutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// CallLogEntry records a single helper process invocation.
type CallLogEntry struct {
	Args      []string `yaml:"args"`
	Timestamp string   `yaml:"timestamp"`
	ExitCode  int      `yaml:"exit_code"`
}

// Line returns the arguments joined the same way scripts are keyed.
func (e CallLogEntry) Line() string {
	return strings.Join(e.Args, " ")
}

// AppendCall appends one YAML document to the call log at path.
// Each invocation is a separate process, so entries are appended rather
// than rewritten.
func AppendCall(path string, args []string, exitCode int) error {
	entry := CallLogEntry{
		Args:      args,
		Timestamp: time.Now().Format(time.RFC3339Nano),
		ExitCode:  exitCode,
	}

	data, err := yaml.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling call log entry: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening call log %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(append([]byte("---\n"), data...)); err != nil {
		return fmt.Errorf("writing call log %s: %w", path, err)
	}
	return nil
}

// ReadCallLog reads every entry written by AppendCall.
// A missing file means no calls were made.
func ReadCallLog(path string) ([]CallLogEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading call log from %s: %w", path, err)
	}
	defer f.Close()

	var entries []CallLogEntry
	dec := yaml.NewDecoder(f)
	for {
		var entry CallLogEntry
		if err := dec.Decode(&entry); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("decoding call log: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// CallLines is ReadCallLog reduced to the joined argument lines.
func CallLines(path string) ([]string, error) {
	entries, err := ReadCallLog(path)
	if err != nil {
		return nil, err
	}
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.Line()
	}
	return lines, nil
}
