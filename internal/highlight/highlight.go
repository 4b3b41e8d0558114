// Package highlight colorizes structured output (YAML, JSON and unified
// diffs) for terminals.
package highlight

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// DefaultStyle is the chroma style used when none is given.
const DefaultStyle = "github-dark"

// Options controls highlighting.
type Options struct {
	// Enabled turns highlighting on; when false the source is copied as is.
	Enabled bool
	// Style names a chroma style. Unknown names fall back to DefaultStyle.
	Style string
	// TrueColor selects 24-bit escapes instead of the 256-color palette.
	TrueColor bool
}

// Write copies source to w, colorized as language ("yaml", "json", "diff")
// when opts.Enabled is set.
func Write(w io.Writer, source, language string, opts Options) error {
	if !opts.Enabled || source == "" {
		_, err := io.WriteString(w, source)
		return err
	}

	lexer := lexerFor(language)
	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		return fmt.Errorf("tokenising %s: %w", language, err)
	}
	if err := formatterFor(opts).Format(w, styleFor(opts.Style), iterator); err != nil {
		return fmt.Errorf("highlighting %s: %w", language, err)
	}
	return nil
}

// String is Write into a string.
func String(source, language string, opts Options) (string, error) {
	var sb strings.Builder
	if err := Write(&sb, source, language, opts); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func lexerFor(language string) chroma.Lexer {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return chroma.Coalesce(lexer)
}

func styleFor(name string) *chroma.Style {
	if name == "" {
		name = DefaultStyle
	}
	if st := styles.Get(name); st != nil {
		return st
	}
	return styles.Fallback
}

func formatterFor(opts Options) chroma.Formatter {
	name := "terminal256"
	if opts.TrueColor {
		name = "terminal16m"
	}
	if f := formatters.Get(name); f != nil {
		return f
	}
	return formatters.Fallback
}
