package git

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// tagListFormat yields "name type objectname object" for every tag. For a
// lightweight tag objecttype is "commit" and object is empty; for an
// annotated tag object is the tagged commit.
const tagListFormat = "--format=%(refname:strip=2) %(objecttype) %(objectname) %(object)"

// Tag identifies a released version.
type Tag struct {
	// Sequence is the enumeration order, 0 being the oldest tag.
	Sequence int `yaml:"sequence" json:"sequence"`
	Name     string `yaml:"name" json:"name"`
	// Commit is the tagged commit, resolved through annotated tag objects.
	Commit string `yaml:"commit" json:"commit"`
}

// TagGraph maps tag names to tags for one resolution pass. Sequences are
// dense and start at 0.
type TagGraph struct {
	byName map[string]Tag
	bySeq  []Tag
}

// NewTagGraph builds a graph from tags in ascending history order,
// assigning sequences 0..n-1. Duplicate names are rejected.
func NewTagGraph(tags ...Tag) (TagGraph, error) {
	g := TagGraph{byName: make(map[string]Tag, len(tags))}
	for i, t := range tags {
		if _, dup := g.byName[t.Name]; dup {
			return TagGraph{}, malformed("list tags", "duplicate tag %q", t.Name)
		}
		t.Sequence = i
		g.byName[t.Name] = t
		g.bySeq = append(g.bySeq, t)
	}
	return g, nil
}

// Len returns the number of tags.
func (g TagGraph) Len() int {
	return len(g.bySeq)
}

// Lookup returns the tag named name.
func (g TagGraph) Lookup(name string) (Tag, bool) {
	t, ok := g.byName[name]
	return t, ok
}

// At returns the tag with the given sequence.
func (g TagGraph) At(seq int) (Tag, bool) {
	if seq < 0 || seq >= len(g.bySeq) {
		return Tag{}, false
	}
	return g.bySeq[seq], true
}

// Newest returns the tag with the highest sequence.
func (g TagGraph) Newest() (Tag, bool) {
	return g.At(len(g.bySeq) - 1)
}

// Tags returns a copy of all tags, oldest first.
func (g TagGraph) Tags() []Tag {
	out := make([]Tag, len(g.bySeq))
	copy(out, g.bySeq)
	return out
}

// Names returns the tag names sorted alphabetically.
func (g TagGraph) Names() []string {
	names := make([]string, 0, len(g.byName))
	for name := range g.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseTagList parses the output of `git tag -l --format=<tagListFormat>`.
// Every non-empty line must have exactly four space-separated tokens.
func ParseTagList(output string) (TagGraph, error) {
	var tags []Tag
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}

		// Split on single spaces: a lightweight tag has an empty 4th token.
		fields := strings.Split(line, " ")
		if len(fields) != 4 {
			return TagGraph{}, malformed("list tags", "tag commit list line is malformatted: '%s'", line)
		}

		name, objType, objName, target := fields[0], fields[1], fields[2], fields[3]
		commit := target
		if objType == "commit" {
			commit = objName
		}
		tags = append(tags, Tag{Name: name, Commit: commit})
	}
	return NewTagGraph(tags...)
}

// MergedRef joins remote and branch into a ref suitable for --merged.
func MergedRef(remote, branch string) string {
	if remote == "" {
		return branch
	}
	if branch == "" {
		branch = "HEAD"
	}
	return remote + "/" + branch
}

// ListTags lists the tags merged into ref (all tags when ref is empty).
// A failed listing under a non-fatal policy yields an empty graph and the
// informational error.
func (c *Client) ListTags(ctx context.Context, ref string, p Policy) (TagGraph, error) {
	args := []string{"tag", "-l"}
	if strings.TrimSpace(ref) != "" {
		args = append(args, "--merged="+ref)
	}
	args = append(args, tagListFormat)

	out, err := c.Exec(ctx, p, "listing tags and their commit hash", args...)
	if err != nil {
		empty, _ := NewTagGraph()
		return empty, err
	}

	graph, err := ParseTagList(out)
	if err != nil {
		return TagGraph{}, fmt.Errorf("parsing tag list: %w", err)
	}
	logDebug("[git] ListTags(%s): %d tags", ref, graph.Len())
	return graph, nil
}
