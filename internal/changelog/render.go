package changelog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileHeader opens every rendered changelog.
const FileHeader = "# THIS IS AN AUTOGENERATED FILE. DO NOT EDIT UNLESS YOU KNOW WHAT YOU ARE DOING.\n# CHANGE LOG\n\n"

// SortRecords orders records newest first (descending sequence). Ties keep
// their relative order.
func SortRecords(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Sequence > records[j].Sequence
	})
}

// Render writes the changelog file: the fixed header, then every record
// newest first with its body run through Format, each block followed by two
// blank lines.
//
// The function is idempotent - given the same input, it produces identical output.
func Render(w io.Writer, records []Record, categories []string) error {
	sorted := make([]Record, len(records))
	copy(sorted, records)
	SortRecords(sorted)

	if _, err := io.WriteString(w, FileHeader); err != nil {
		return fmt.Errorf("rendering header: %w", err)
	}

	for _, r := range sorted {
		if err := renderRecord(w, r, categories); err != nil {
			return fmt.Errorf("rendering version %s: %w", r.Name, err)
		}
	}
	return nil
}

func renderRecord(w io.Writer, r Record, categories []string) error {
	var sb strings.Builder
	sb.WriteString(r.Header())
	sb.WriteString("\n")
	for _, line := range Format(r.Body, categories) {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString("\n\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

// RenderString is a convenience function that renders to a string.
func RenderString(records []Record, categories []string) (string, error) {
	var b strings.Builder
	if err := Render(&b, records, categories); err != nil {
		return "", err
	}
	return b.String(), nil
}

// WriteFile replaces path with content. The text is written to a temporary
// file in the same directory and renamed over path, so readers never see a
// partial changelog.
func WriteFile(path, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}

	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("setting permissions: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
