package changelog

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ariel-frischer/gitchangelog/internal/git"
)

var commitIDPattern = regexp.MustCompile(`^[0-9a-f]{40}([0-9a-f]{24})?$`)

// History is the git access reconciliation needs.
type History interface {
	Log(ctx context.Context, opts git.LogOptions, p git.Policy) (string, error)
	RevParse(ctx context.Context, ref string, p git.Policy) (string, error)
}

// Resolver turns the tracked reference expression into a commit.
type Resolver interface {
	Resolve(ctx context.Context, input string) (string, error)
}

// Reconciler merges a previously written changelog with the current tags.
type Reconciler struct {
	History  History
	Resolver Resolver
	// ExcludeMerges passes --no-merges to every log.
	ExcludeMerges bool
	// Warn receives non-fatal notices. Optional.
	Warn func(format string, args ...any)
}

// Result is the outcome of one reconciliation.
type Result struct {
	// Records holds every section to write, newest first.
	Records []Record
	// Current is the pending record, or the newest tag's record when the
	// tracked ref has not moved past it. Nil when there is neither.
	Current *Record
	// PendingHasContent reports whether Current has non-blank text.
	PendingHasContent bool
	// TrackedCommit is the resolved tracked ref.
	TrackedCommit string
	// Dropped names prior sections whose tag is gone.
	Dropped []string
	// Synthesized names the tags whose section was built from the log.
	Synthesized []string
	// Discarded is the prior pending text dropped because no new commits
	// exist. It is not written anywhere.
	Discarded []string
}

var debugLogger func(format string, args ...any)

// SetDebugLogger configures the debug logger for reconciliation.
// Pass nil to disable debug logging.
func SetDebugLogger(logger func(format string, args ...any)) {
	debugLogger = logger
}

func logDebug(format string, args ...any) {
	if debugLogger != nil {
		debugLogger(format, args...)
	}
}

func (r *Reconciler) warn(format string, args ...any) {
	if r.Warn != nil {
		r.Warn(format, args...)
	}
}

// Reconcile builds the sections to write from prior (may be nil), the tag
// graph and the tracked ref expression. Tags are the source of truth:
// sections of vanished tags are dropped, surviving ones take their tag's
// sequence, and missing ones are built from the commit log. Commits after
// the newest section go to the "Next version" record.
func (r *Reconciler) Reconcile(ctx context.Context, prior *Changelog, tags git.TagGraph, trackedRef string) (*Result, error) {
	if prior == nil {
		prior = &Changelog{}
	}
	res := &Result{}

	byName := make(map[string]Record, tags.Len())
	for _, rec := range prior.Records {
		tag, ok := tags.Lookup(rec.Name)
		if !ok {
			res.Dropped = append(res.Dropped, rec.Name)
			continue
		}
		rec.Sequence = tag.Sequence
		rec.Commit = tag.Commit
		byName[rec.Name] = rec
	}
	if len(res.Dropped) > 0 {
		logDebug("[reconcile] dropped sections without a tag: %s", strings.Join(res.Dropped, ", "))
	}

	for _, tag := range tags.Tags() {
		if _, ok := byName[tag.Name]; ok {
			continue
		}
		from := ""
		if prev, ok := tags.At(tag.Sequence - 1); ok {
			from = prev.Commit
		}
		body, err := r.log(ctx, from, tag.Commit, trackedRef)
		if err != nil {
			return nil, fmt.Errorf("composing section %s: %w", tag.Name, err)
		}
		byName[tag.Name] = Tagged(tag, body)
		res.Synthesized = append(res.Synthesized, tag.Name)
	}

	for _, tag := range tags.Tags() {
		res.Records = append(res.Records, byName[tag.Name])
	}

	tracked, err := r.resolveTracked(ctx, trackedRef)
	if err != nil {
		return nil, err
	}
	res.TrackedCommit = tracked

	var newest *Record
	if tag, ok := tags.Newest(); ok {
		rec := byName[tag.Name]
		newest = &rec
	}

	from := ""
	switch {
	case prior.Pending != nil:
		from = prior.Pending.Commit
	case newest != nil:
		from = newest.Commit
	}

	if tracked != from {
		body, err := r.log(ctx, from, tracked, trackedRef)
		if err != nil {
			return nil, fmt.Errorf("composing next version: %w", err)
		}
		if prior.Pending != nil && prior.Pending.HasContent() {
			body = append(body, prior.Pending.Body...)
		}

		seq := 1
		if newest != nil {
			seq = newest.Sequence + 1
		}
		pending := Pending(seq, tracked, body)
		res.Records = append(res.Records, pending)
		res.Current = &pending
		logDebug("[reconcile] next version %s..%s: %d lines", from, tracked, len(body))
	} else {
		res.Current = newest
		if prior.Pending != nil && prior.Pending.HasContent() {
			res.Discarded = prior.Pending.Body
			r.warn("no commits since %s; discarding %d line(s) of the previous [%s] section", shortCommit(from), len(nonBlank(prior.Pending.Body)), NextVersionName)
		}
	}

	res.PendingHasContent = res.Current != nil && res.Current.HasContent()
	SortRecords(res.Records)
	return res, nil
}

// resolveTracked resolves the tracked expression to a full commit id.
func (r *Reconciler) resolveTracked(ctx context.Context, trackedRef string) (string, error) {
	if strings.TrimSpace(trackedRef) == "" {
		trackedRef = "HEAD"
	}
	commit, err := r.Resolver.Resolve(ctx, trackedRef)
	if err != nil {
		return "", fmt.Errorf("resolving tracked ref %s: %w", trackedRef, err)
	}
	if commit == "" || commitIDPattern.MatchString(commit) {
		return commit, nil
	}
	full, err := r.History.RevParse(ctx, commit, git.Strict)
	if err != nil {
		return "", fmt.Errorf("resolving tracked ref %s: %w", trackedRef, err)
	}
	return full, nil
}

// log returns the non-blank commit message lines of from..to.
func (r *Reconciler) log(ctx context.Context, from, to, refSpec string) ([]string, error) {
	out, err := r.History.Log(ctx, git.LogOptions{
		From:     from,
		To:       to,
		RefSpec:  refSpec,
		NoMerges: r.ExcludeMerges,
	}, git.Strict)
	if err != nil {
		return nil, err
	}
	return nonBlank(splitLines(out)), nil
}

func nonBlank(lines []string) []string {
	var out []string
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}

func shortCommit(commit string) string {
	if len(commit) > 7 {
		return commit[:7]
	}
	return commit
}
