// Package manifest edits string properties of a NuSpec-like package
// manifest: an XML document whose root <package> element holds named
// sections (by default <metadata>) of property elements.
package manifest

import (
	"fmt"
	"strings"
)

// EditMode says how a new value combines with the current one.
type EditMode int

const (
	// Replace overwrites the current value. It is the default.
	Replace EditMode = iota
	Append
	AppendLine
	Insert
	InsertLine
)

var editModeNames = map[EditMode]string{
	Replace:    "Replace",
	Append:     "Append",
	AppendLine: "AppendLine",
	Insert:     "Insert",
	InsertLine: "InsertLine",
}

func (m EditMode) String() string {
	if name, ok := editModeNames[m]; ok {
		return name
	}
	return editModeNames[Replace]
}

// ParseEditMode maps a mode name (case-insensitive) to its EditMode.
// Empty and unknown names mean Replace.
func ParseEditMode(s string) EditMode {
	mode, _ := modeByName(strings.TrimSpace(s))
	return mode
}

// Apply combines current with value.
func (m EditMode) Apply(current, value string) string {
	switch m {
	case Append:
		return current + value
	case AppendLine:
		return current + "\n" + value
	case Insert:
		return value + current
	case InsertLine:
		return value + "\n" + current
	default:
		return value
	}
}

// PropertyEdit sets one property.
type PropertyEdit struct {
	Property string
	Value    string
	Mode     EditMode
}

func (e PropertyEdit) String() string {
	return fmt.Sprintf("%s=%q (%s)", e.Property, e.Value, e.Mode)
}

// Request is either a single property edit or a bulk list of edits. The
// zero Request holds no edits.
type Request struct {
	bulk  bool
	edits []PropertyEdit
}

// Single builds a request setting one property. The value may be empty.
func Single(property, value string, mode EditMode) (Request, error) {
	if strings.TrimSpace(property) == "" {
		return Request{}, fmt.Errorf("property name cannot be empty")
	}
	return Request{edits: []PropertyEdit{{Property: property, Value: value, Mode: mode}}}, nil
}

// Bulk builds a request from a list of edits. Every edit needs a property
// and a non-blank value. A property listed twice keeps its first position
// and its last value.
func Bulk(edits ...PropertyEdit) (Request, error) {
	if len(edits) == 0 {
		return Request{}, fmt.Errorf("bulk edit requires at least one property")
	}

	index := make(map[string]int, len(edits))
	var merged []PropertyEdit
	for i, e := range edits {
		if strings.TrimSpace(e.Property) == "" || strings.TrimSpace(e.Value) == "" {
			return Request{}, fmt.Errorf("bulk edit %d: property and value are both required", i+1)
		}
		if at, ok := index[e.Property]; ok {
			merged[at] = e
			continue
		}
		index[e.Property] = len(merged)
		merged = append(merged, e)
	}
	return Request{bulk: true, edits: merged}, nil
}

// ParseAssignment parses "Property=Value[:Mode]" as used by --set flags.
// The mode suffix is recognized only when it names a known mode.
func ParseAssignment(s string) (PropertyEdit, error) {
	prop, value, ok := strings.Cut(s, "=")
	if !ok {
		return PropertyEdit{}, fmt.Errorf("invalid assignment %q (expected Property=Value[:Mode])", s)
	}
	edit := PropertyEdit{Property: strings.TrimSpace(prop), Value: value, Mode: Replace}
	if i := strings.LastIndex(value, ":"); i >= 0 {
		suffix := value[i+1:]
		if mode, known := modeByName(suffix); known {
			edit.Value = value[:i]
			edit.Mode = mode
		}
	}
	return edit, nil
}

func modeByName(s string) (EditMode, bool) {
	for mode, name := range editModeNames {
		if strings.EqualFold(s, name) {
			return mode, true
		}
	}
	return Replace, false
}

// IsZero reports whether r holds no edits.
func (r Request) IsZero() bool {
	return len(r.edits) == 0
}

// IsBulk reports whether r was built with Bulk.
func (r Request) IsBulk() bool {
	return r.bulk
}

// Edits returns a copy of the edits in application order.
func (r Request) Edits() []PropertyEdit {
	out := make([]PropertyEdit, len(r.edits))
	copy(out, r.edits)
	return out
}
