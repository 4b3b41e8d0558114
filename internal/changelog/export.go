package changelog

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// ExportFormat selects the serialization of Export.
type ExportFormat string

const (
	ExportYAML ExportFormat = "yaml"
	ExportJSON ExportFormat = "json"
)

// ParseExportFormat accepts yaml, yml and json (case-insensitive).
func ParseExportFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yaml", "yml", "":
		return ExportYAML, nil
	case "json":
		return ExportJSON, nil
	}
	return "", fmt.Errorf("unsupported export format %q (expected: yaml, json)", s)
}

// ExportDocument is the machine-readable form of a changelog.
type ExportDocument struct {
	Versions []ExportVersion `yaml:"versions" json:"versions"`
}

// ExportVersion is one section of an ExportDocument.
type ExportVersion struct {
	Name     string   `yaml:"name" json:"name"`
	Sequence int      `yaml:"sequence" json:"sequence"`
	Commit   string   `yaml:"commit,omitempty" json:"commit,omitempty"`
	Pending  bool     `yaml:"pending,omitempty" json:"pending,omitempty"`
	Lines    []string `yaml:"lines" json:"lines"`
}

// NewExportDocument builds the export form of records, newest first, with
// bodies formatted.
func NewExportDocument(records []Record, categories []string) ExportDocument {
	sorted := make([]Record, len(records))
	copy(sorted, records)
	SortRecords(sorted)

	doc := ExportDocument{Versions: make([]ExportVersion, 0, len(sorted))}
	for _, r := range sorted {
		lines := Format(r.Body, categories)
		for i, l := range lines {
			lines[i] = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(l), "-"))
		}
		doc.Versions = append(doc.Versions, ExportVersion{
			Name:     r.Name,
			Sequence: r.Sequence,
			Commit:   r.Commit,
			Pending:  r.IsPending(),
			Lines:    lines,
		})
	}
	return doc
}

// Export writes records as YAML or JSON.
func Export(w io.Writer, records []Record, categories []string, format ExportFormat) error {
	doc := NewExportDocument(records, categories)

	switch format {
	case ExportJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding changelog JSON: %w", err)
		}
		return nil
	case ExportYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding changelog YAML: %w", err)
		}
		return enc.Close()
	}
	return fmt.Errorf("unsupported export format %q", format)
}
