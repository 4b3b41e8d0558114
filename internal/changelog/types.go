package changelog

import (
	"fmt"
	"strings"

	"github.com/ariel-frischer/gitchangelog/internal/git"
)

// NextVersionName is the label of the pending record.
const NextVersionName = "Next version"

// Kind discriminates the two record shapes.
type Kind int

const (
	// KindTagged is a released version backed by a tag.
	KindTagged Kind = iota
	// KindPending holds the commits since the newest tag.
	KindPending
)

func (k Kind) String() string {
	if k == KindPending {
		return "pending"
	}
	return "tagged"
}

// Record is one version section of the changelog.
//
// A tagged record carries its tag's name and commit. A pending record is
// always named NextVersionName and its Commit is the resolved tip of the
// tracked ref. Sequence orders records, the highest being the newest.
type Record struct {
	Kind     Kind
	Sequence int
	Name     string
	Commit   string
	// Body holds raw lines until Format normalizes them.
	Body []string
}

// Tagged returns the record for tag.
func Tagged(tag git.Tag, body []string) Record {
	return Record{
		Kind:     KindTagged,
		Sequence: tag.Sequence,
		Name:     tag.Name,
		Commit:   tag.Commit,
		Body:     body,
	}
}

// Pending returns the "Next version" record at commit.
func Pending(sequence int, commit string, body []string) Record {
	return Record{
		Kind:     KindPending,
		Sequence: sequence,
		Name:     NextVersionName,
		Commit:   commit,
		Body:     body,
	}
}

// IsPending reports whether r is the "Next version" record.
func (r Record) IsPending() bool {
	return r.Kind == KindPending
}

// HasContent reports whether the body has any non-blank text.
func (r Record) HasContent() bool {
	return strings.TrimSpace(r.BodyText()) != ""
}

// BodyText joins the body lines with newlines.
func (r Record) BodyText() string {
	return strings.Join(r.Body, "\n")
}

// Header renders the section header line.
func (r Record) Header() string {
	if r.IsPending() {
		return fmt.Sprintf("[%s (%s)]", NextVersionName, r.Commit)
	}
	return fmt.Sprintf("[%s]", r.Name)
}

// Changelog is a parsed changelog file.
type Changelog struct {
	// Records are the tagged sections in file order.
	Records []Record
	// Pending is the "Next version" section, if the file had one.
	Pending *Record
}

// All returns the pending record (if any) followed by the tagged records.
func (c *Changelog) All() []Record {
	all := make([]Record, 0, len(c.Records)+1)
	if c.Pending != nil {
		all = append(all, *c.Pending)
	}
	return append(all, c.Records...)
}

// IsEmpty reports whether the changelog has no sections.
func (c *Changelog) IsEmpty() bool {
	return c.Pending == nil && len(c.Records) == 0
}

// splitLines splits text into lines, stripping carriage returns.
// An empty text yields no lines.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
