package changelog

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
)

// Diff returns a unified diff from the current file content to the newly
// rendered one, or "" when they are equal.
func Diff(path, current, rendered string) (string, error) {
	if current == rendered {
		return "", nil
	}
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(current),
		B:        difflib.SplitLines(rendered),
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("computing diff for %s: %w", path, err)
	}
	return text, nil
}
