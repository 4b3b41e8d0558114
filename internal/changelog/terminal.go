package changelog

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// CategoryStyle defines the color and icon for a line category.
type CategoryStyle struct {
	Color *color.Color
	Icon  string
}

// categoryStyles maps lowercased first words to their terminal styling.
var categoryStyles = map[string]CategoryStyle{
	"added":      {Color: color.New(color.FgGreen), Icon: "✓"},
	"add":        {Color: color.New(color.FgGreen), Icon: "✓"},
	"changed":    {Color: color.New(color.FgBlue), Icon: "~"},
	"deprecated": {Color: color.New(color.FgRed), Icon: "⚠"},
	"removed":    {Color: color.New(color.FgRed), Icon: "✗"},
	"fixed":      {Color: color.New(color.FgYellow), Icon: "⚡"},
	"fix":        {Color: color.New(color.FgYellow), Icon: "⚡"},
	"security":   {Color: color.New(color.FgMagenta), Icon: "🔒"},
}

var defaultStyle = CategoryStyle{Color: color.New(color.Reset), Icon: "•"}

// ViewOptions controls the terminal output formatting.
type ViewOptions struct {
	Plain      bool // Disable colors and icons
	MaxWidth   int  // Maximum line width (0 = auto-detect)
	Categories []string
}

// FormatTerminal writes records newest first with terminal styling.
func FormatTerminal(records []Record, w io.Writer, opts ViewOptions) error {
	if len(records) == 0 {
		return nil
	}

	sorted := make([]Record, len(records))
	copy(sorted, records)
	SortRecords(sorted)

	for i, r := range sorted {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if err := FormatRecord(r, w, opts); err != nil {
			return fmt.Errorf("formatting version %s: %w", r.Name, err)
		}
	}
	return nil
}

// FormatRecord writes a single record with its formatted body.
func FormatRecord(r Record, w io.Writer, opts ViewOptions) error {
	width := resolveWidth(opts.MaxWidth)

	if err := writeRecordHeader(r, w, opts); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	lines := Format(r.Body, opts.Categories)
	if len(lines) == 0 {
		_, err := fmt.Fprintln(w, "  (no changes)")
		return err
	}
	for _, line := range lines {
		if err := writeLine(line, w, opts, width); err != nil {
			return err
		}
	}
	return nil
}

// writeRecordHeader writes the version header line.
func writeRecordHeader(r Record, w io.Writer, opts ViewOptions) error {
	header := r.Name
	if r.IsPending() {
		header = fmt.Sprintf("%s (%s)", NextVersionName, shortCommit(r.Commit))
	}

	if opts.Plain {
		_, err := fmt.Fprintf(w, "## %s\n", header)
		return err
	}

	style := color.New(color.Bold)
	if r.IsPending() {
		style = color.New(color.Bold, color.FgCyan)
	}
	_, err := fmt.Fprintf(w, "## %s\n", style.Sprint(header))
	return err
}

// writeLine writes one body line, colored by its category.
func writeLine(line string, w io.Writer, opts ViewOptions, width int) error {
	trimmed := strings.TrimLeft(line, " \t")
	indent := "  " + line[:len(line)-len(trimmed)]
	text := strings.TrimSpace(strings.TrimPrefix(trimmed, "-"))

	if opts.Plain {
		_, err := fmt.Fprintf(w, "%s- %s\n", indent, text)
		return err
	}

	style := lineStyle(line)
	prefix := indent + style.Icon + " "
	wrapped := wrapText(text, width-len(prefix), strings.Repeat(" ", len(prefix)))
	_, err := fmt.Fprintf(w, "%s%s\n", indent+style.Color.Sprint(style.Icon)+" ", style.Color.Sprint(wrapped))
	return err
}

func lineStyle(line string) CategoryStyle {
	if style, ok := categoryStyles[strings.ToLower(LineCategory(line))]; ok {
		return style
	}
	return defaultStyle
}

// resolveWidth determines the terminal width to use.
func resolveWidth(maxWidth int) int {
	if maxWidth > 0 {
		return maxWidth
	}
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

// wrapText wraps text to fit within maxWidth, using indent for continuation lines.
func wrapText(text string, maxWidth int, indent string) string {
	if maxWidth <= 0 || len(text) <= maxWidth {
		return text
	}

	var lines []string
	remaining := text

	for len(remaining) > maxWidth {
		// Find the last space within maxWidth
		breakPoint := maxWidth
		for i := maxWidth - 1; i > 0; i-- {
			if remaining[i] == ' ' {
				breakPoint = i
				break
			}
		}

		lines = append(lines, remaining[:breakPoint])
		remaining = strings.TrimLeft(remaining[breakPoint:], " ")
	}

	if len(remaining) > 0 {
		lines = append(lines, remaining)
	}

	return strings.Join(lines, "\n"+indent)
}

// FormatRecordSummary returns a one-line summary of a record.
func FormatRecordSummary(r Record, opts ViewOptions) string {
	name := r.Name
	if r.IsPending() {
		name = fmt.Sprintf("%s (%s)", NextVersionName, shortCommit(r.Commit))
	}
	lines := Format(r.Body, nil)
	count := len(lines)
	first := ""
	if count > 0 {
		first = truncateText(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(lines[0]), "-")), 60)
	}

	if opts.Plain {
		return fmt.Sprintf("%-24s %3d  %s", name, count, first)
	}
	return fmt.Sprintf("%s %3d  %s", color.New(color.Bold).Sprintf("%-24s", name), count, first)
}

// truncateText truncates text to maxLen, adding ellipsis if needed.
func truncateText(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen-3] + "..."
}
