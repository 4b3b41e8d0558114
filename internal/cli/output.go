package cli

import (
	"io"
	"os"

	"github.com/ariel-frischer/gitchangelog/internal/highlight"
	"github.com/fatih/color"
	"golang.org/x/term"
)

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// writeSource writes YAML, JSON or diff text to w, colorized when w is a
// terminal and colors are enabled.
func writeSource(w io.Writer, source, language string) error {
	return highlight.Write(w, source, language, highlight.Options{
		Enabled:   !color.NoColor && isTerminal(w),
		TrueColor: os.Getenv("COLORTERM") == "truecolor",
	})
}
