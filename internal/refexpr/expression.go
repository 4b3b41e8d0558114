// Package refexpr parses and resolves symbolic commit references.
//
// Three shapes are accepted:
//
//	refs/heads/main, tags/v1.0, origin/HEAD   ref names, resolved with rev-parse
//	!(latestTag+2), !(commit:<40 hex>-1)       variables with an optional offset
//	anything else                             passed through as a literal commit
//
// A variable's offset moves the anchor forward toward the tracked branch tip
// (+N) or backward toward the root of history (-N).
package refexpr

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	refPattern      = regexp.MustCompile(`^((refs/)?(heads|remotes(/[\w\-.]+)?|tags)/[\w\-.]+|([\w\-.]+/)?HEAD)$`)
	variablePattern = regexp.MustCompile(`!\((?P<keyword>[\w-]+)(?::(?P<hash>\w{40}))?(?P<lookAhead>[+-]\d+)?\)`)
)

// Kind discriminates the three expression shapes.
type Kind int

const (
	// KindLiteral is passed through unchanged.
	KindLiteral Kind = iota
	// KindRef is resolved with rev-parse.
	KindRef
	// KindVariable is a !(keyword...) expression.
	KindVariable
)

func (k Kind) String() string {
	switch k {
	case KindRef:
		return "ref"
	case KindVariable:
		return "variable"
	default:
		return "literal"
	}
}

// Keyword names the anchor of a variable expression.
type Keyword string

const (
	LatestTag    Keyword = "latestTag"
	LatestCommit Keyword = "latestCommit"
	Commit       Keyword = "commit"
)

// Expression is a parsed reference expression.
type Expression struct {
	Raw  string
	Kind Kind
	// Keyword, Hash and LookAhead are set for KindVariable only.
	Keyword   Keyword
	Hash      string
	LookAhead int
}

// Error reports a malformed expression. It is always fatal.
type Error struct {
	Input   string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("reference expression %q: %s", e.Input, e.Message)
}

// Parse classifies input. Ref names take precedence over the variable
// grammar; input matching neither is a literal.
func Parse(input string) (Expression, error) {
	raw := strings.TrimSpace(input)
	expr := Expression{Raw: raw}

	if refPattern.MatchString(raw) {
		expr.Kind = KindRef
		return expr, nil
	}

	m := variablePattern.FindStringSubmatch(raw)
	if m == nil {
		expr.Kind = KindLiteral
		return expr, nil
	}

	expr.Kind = KindVariable
	expr.Keyword = Keyword(m[variablePattern.SubexpIndex("keyword")])
	expr.Hash = m[variablePattern.SubexpIndex("hash")]

	if s := m[variablePattern.SubexpIndex("lookAhead")]; s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return Expression{}, &Error{Input: raw, Message: fmt.Sprintf("invalid offset %s", s)}
		}
		expr.LookAhead = n
	}

	switch expr.Keyword {
	case LatestTag, LatestCommit:
	case Commit:
		if strings.TrimSpace(expr.Hash) == "" {
			return Expression{}, &Error{
				Input:   raw,
				Message: "you must provide a commit hash, e.g. !(commit:48e217628ba110041c923420933cb548c28ec58d)",
			}
		}
	default:
		return Expression{}, &Error{Input: raw, Message: fmt.Sprintf("unknown reference variable %q", expr.Keyword)}
	}

	return expr, nil
}

// String renders the expression in its canonical form.
func (e Expression) String() string {
	if e.Kind != KindVariable {
		return e.Raw
	}
	var sb strings.Builder
	sb.WriteString("!(")
	sb.WriteString(string(e.Keyword))
	if e.Hash != "" {
		sb.WriteString(":" + e.Hash)
	}
	if e.LookAhead != 0 {
		fmt.Fprintf(&sb, "%+d", e.LookAhead)
	}
	sb.WriteString(")")
	return sb.String()
}
