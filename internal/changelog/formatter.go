package changelog

import (
	"regexp"
	"strings"
)

// categoryPattern captures the first word after the bullet and any punctuation.
var categoryPattern = regexp.MustCompile(`^[\s\p{P}]*(?P<category>\w+)`)

// ParseCategories splits a ";"-separated category list, dropping empty items.
func ParseCategories(s string) []string {
	var out []string
	for _, c := range strings.Split(s, ";") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// Format normalizes raw body lines:
//
//  1. blank lines are dropped
//  2. lines not starting with "-" get a "- " bullet after their indentation
//  3. duplicates are dropped, compared case-insensitively, first one wins
//  4. with categories, lines are grouped by their first word in category
//     order, uncategorized lines last
//
// Formatting formatted lines returns them unchanged.
func Format(lines []string, categories []string) []string {
	order := make([]string, 0, len(categories))
	groups := make(map[string][]string, len(categories))
	for _, c := range categories {
		if c == "" {
			continue
		}
		if _, dup := groups[c]; dup {
			continue
		}
		order = append(order, c)
		groups[c] = nil
	}

	seen := make(map[string]bool)
	var uncategorized []string

	for _, raw := range lines {
		for _, line := range splitLines(raw) {
			if strings.TrimSpace(line) == "" {
				continue
			}

			line = bullet(line)
			key := strings.ToLower(line)
			if seen[key] {
				continue
			}
			seen[key] = true

			category := LineCategory(line)
			if _, ok := groups[category]; ok {
				groups[category] = append(groups[category], line)
				continue
			}
			uncategorized = append(uncategorized, line)
		}
	}

	out := make([]string, 0, len(seen))
	for _, c := range order {
		out = append(out, groups[c]...)
	}
	return append(out, uncategorized...)
}

// FormatText is Format over newline-separated text.
func FormatText(text string, categories []string) string {
	return strings.Join(Format(splitLines(text), categories), "\n")
}

// LineCategory returns the first word of a line, skipping leading
// whitespace, bullets and punctuation. It returns "" when there is none.
func LineCategory(line string) string {
	m := categoryPattern.FindStringSubmatch(line)
	if m == nil {
		return ""
	}
	return m[categoryPattern.SubexpIndex("category")]
}

// bullet ensures line starts with "-" after its indentation and drops
// trailing whitespace.
func bullet(line string) string {
	line = strings.TrimRight(line, " \t\r")
	trimmed := strings.TrimLeft(line, " \t")
	if strings.HasPrefix(trimmed, "-") {
		return line
	}
	indent := line[:len(line)-len(trimmed)]
	return indent + "- " + trimmed
}
