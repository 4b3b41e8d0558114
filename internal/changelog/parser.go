package changelog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// headerPattern matches a section header. Version labels take any character
// git allows in a tag name, so every rendered header parses back.
var headerPattern = regexp.MustCompile(`(?i)^\[(?P<version>Next version|[^\s\[\]\\~^:?*]+)(?: \((?P<commit>[a-f0-9]{40})\))?\]$`)

// ParseError reports a line the parser could not place.
type ParseError struct {
	Line    int
	Text    string
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s: '%s'", e.Line, e.Message, e.Text)
}

// IsParseError returns true if the error is a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// Load reads and parses the changelog file at path.
func Load(path string) (*Changelog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening changelog file: %w", err)
	}
	defer f.Close()

	c, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return c, nil
}

// ParseString parses changelog text.
func ParseString(text string) (*Changelog, error) {
	return Parse(strings.NewReader(text))
}

// Parse reads a changelog. Blank lines and lines starting with # are
// skipped. Every other line belongs to the section opened by the nearest
// header above it; a line before any header is an error.
func Parse(r io.Reader) (*Changelog, error) {
	c := &Changelog{}
	seen := make(map[string]bool)
	var current *Record
	lineNo := 0

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	// Tagged sections are appended once their body is complete.
	flush := func() {
		if current != nil && !current.IsPending() {
			c.Records = append(c.Records, *current)
		}
	}

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSuffix(scanner.Text(), "\r")

		if strings.TrimSpace(line) == "" || strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}

		if m := headerPattern.FindStringSubmatch(line); m != nil {
			version := m[headerPattern.SubexpIndex("version")]
			commit := m[headerPattern.SubexpIndex("commit")]
			flush()

			if strings.EqualFold(version, NextVersionName) {
				if commit == "" {
					return nil, &ParseError{Line: lineNo, Text: line, Message: "the [Next version] section doesn't have a valid commit hash"}
				}
				if c.Pending != nil {
					return nil, &ParseError{Line: lineNo, Text: line, Message: "duplicate [Next version] section"}
				}
				c.Pending = &Record{Kind: KindPending, Name: NextVersionName, Commit: strings.ToLower(commit)}
				current = c.Pending
				continue
			}

			if seen[version] {
				return nil, &ParseError{Line: lineNo, Text: line, Message: fmt.Sprintf("duplicate section for version %s", version)}
			}
			seen[version] = true
			current = &Record{Kind: KindTagged, Name: version, Commit: strings.ToLower(commit)}
			continue
		}

		if current == nil {
			return nil, &ParseError{Line: lineNo, Text: line, Message: "content outside of a version section"}
		}
		current.Body = append(current.Body, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading changelog: %w", err)
	}
	flush()

	return c, nil
}
