package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/ariel-frischer/gitchangelog/internal/changelog"
	"github.com/ariel-frischer/gitchangelog/internal/git"
)

// DefaultReleaseNotesTo is the upper bound used when none is given.
const DefaultReleaseNotesTo = "refs/remotes/origin/HEAD"

// ReleaseNotes is the outcome of ReleaseNotes.
type ReleaseNotes struct {
	// From and To are the resolved commits of the two expressions.
	From  string
	To    string
	Notes string
}

// ReleaseNotesOptions selects the range and presentation of release notes.
type ReleaseNotesOptions struct {
	// From is excluded; empty means from the root of history.
	From string
	// To is included; empty means DefaultReleaseNotesTo.
	To string
	// Format is the --pretty value; empty means git.DefaultFormat.
	Format string
	// Formatted runs the notes through the category formatter.
	Formatted  bool
	Categories []string
}

// ReleaseNotes resolves both ends of the range and concatenates the commit
// messages between them, blank lines removed.
func (s *Service) ReleaseNotes(ctx context.Context, opts ReleaseNotesOptions) (*ReleaseNotes, error) {
	to := opts.To
	if strings.TrimSpace(to) == "" {
		to = DefaultReleaseNotesTo
	}

	out := &ReleaseNotes{}
	if strings.TrimSpace(opts.From) != "" {
		from, err := s.Resolver.Resolve(ctx, opts.From)
		if err != nil {
			return nil, fmt.Errorf("resolving from version %s: %w", opts.From, err)
		}
		out.From = from
	}
	resolvedTo, err := s.Resolver.Resolve(ctx, to)
	if err != nil {
		return nil, fmt.Errorf("resolving to version %s: %w", to, err)
	}
	out.To = resolvedTo

	notes, err := s.Git.Log(ctx, git.LogOptions{
		From:     out.From,
		To:       out.To,
		RefSpec:  git.MergedRef(s.Config.Remote, s.Config.Branch),
		Format:   opts.Format,
		NoMerges: s.Config.ExcludeMerges,
	}, git.Strict)
	if err != nil {
		return nil, err
	}
	if opts.Formatted {
		notes = changelog.FormatText(notes, opts.Categories)
	}
	out.Notes = notes
	return out, nil
}

// CommitInfo returns one commit formatted with format. expr may be any
// reference expression; it is resolved first.
func (s *Service) CommitInfo(ctx context.Context, expr, format string) (string, error) {
	commit, err := s.Resolver.Resolve(ctx, expr)
	if err != nil {
		return "", err
	}
	if commit == "" {
		return "", fmt.Errorf("%s does not name a commit", expr)
	}
	info, err := s.Git.CommitInfo(ctx, commit, format, git.Strict)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(info, "\n"), nil
}

// TagMessage returns the annotation of tag. With fetch set, the tag is
// first fetched from remote; fetch and lookup failures are informational
// and yield an empty message.
func (s *Service) TagMessage(ctx context.Context, tag, remote string, fetch bool) (string, error) {
	if strings.TrimSpace(tag) == "" {
		return "", fmt.Errorf("tag name is required")
	}
	if remote == "" {
		remote = s.Config.Remote
	}

	if fetch {
		s.fetchTag(ctx, remote, tag)
	}

	msg, err := s.Git.TagContents(ctx, tag, git.Lenient)
	if err != nil {
		if git.IsFatal(err) {
			return "", err
		}
		s.info("%v", err)
		return "", nil
	}
	return strings.TrimRight(msg, "\n"), nil
}

// fetchTag tries go-git first and the git executable when go-git cannot
// open the repository.
func (s *Service) fetchTag(ctx context.Context, remote, tag string) {
	dir := s.Git.Dir()
	if dir == "" {
		dir = "."
	}
	if s.Fetch != nil && git.IsRepository(dir) {
		err := s.Fetch(ctx, dir, remote, tag)
		if err == nil {
			return
		}
		s.info("%v", err)
		return
	}
	if err := s.Git.FetchTagCLI(ctx, remote, tag, git.Lenient); err != nil {
		s.info("%v", err)
	}
}
