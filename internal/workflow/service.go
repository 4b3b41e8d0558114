// Package workflow runs the top-level gitchangelog operations: generating
// the changelog, release notes between two expressions, commit info and tag
// messages. Each operation owns its transient state; the Service only holds
// configuration and collaborators.
// Related: internal/changelog/reconcile.go, internal/refexpr/resolve.go, internal/git/client.go
// Tags: workflow, orchestration
package workflow

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ariel-frischer/gitchangelog/internal/changelog"
	"github.com/ariel-frischer/gitchangelog/internal/config"
	"github.com/ariel-frischer/gitchangelog/internal/git"
	"github.com/ariel-frischer/gitchangelog/internal/history"
	"github.com/ariel-frischer/gitchangelog/internal/progress"
	"github.com/ariel-frischer/gitchangelog/internal/refexpr"
)

// Git is the history access every operation needs. *git.Client implements it.
type Git interface {
	changelog.History
	refexpr.History
	ListTags(ctx context.Context, ref string, p git.Policy) (git.TagGraph, error)
	CommitInfo(ctx context.Context, hash, format string, p git.Policy) (string, error)
	TagContents(ctx context.Context, tag string, p git.Policy) (string, error)
	FetchTagCLI(ctx context.Context, remote, tag string, p git.Policy) error
	Dir() string
}

// FetchFunc fetches one tag from a remote with go-git.
type FetchFunc func(ctx context.Context, path, remote, tag string) error

// Service runs workflow operations against one repository.
type Service struct {
	// Config holds the application configuration.
	Config *config.Configuration
	// Git runs history queries.
	Git Git
	// Resolver resolves reference expressions against Git.
	Resolver *refexpr.Resolver
	// History records each generate run. Nil disables recording.
	History *history.Writer
	// Info receives informational messages: non-fatal failures, skipped
	// steps. Nil discards them.
	Info func(format string, args ...any)
	// Fetch is the go-git tag fetch. Defaults to git.FetchTag.
	Fetch FetchFunc

	progress *ProgressController
}

// NewService creates a Service for cfg using g for history access.
func NewService(cfg *config.Configuration, g Git) *Service {
	resolver := refexpr.NewResolver(g, refexpr.Options{
		Branch:        cfg.Branch,
		Remote:        cfg.Remote,
		ExcludeMerges: cfg.ExcludeMerges,
	})
	return &Service{
		Config:   cfg,
		Git:      g,
		Resolver: resolver,
		Fetch:    git.FetchTag,
		progress: NewProgressController(nil),
	}
}

// SetDisplay routes step progress to d. Nil turns progress off.
func (s *Service) SetDisplay(d *progress.Display) {
	s.progress = NewProgressController(d)
}

// InfoWriter returns an Info sink printing "Info: ..." lines to w.
func InfoWriter(w io.Writer) func(format string, args ...any) {
	return func(format string, args ...any) {
		fmt.Fprintf(w, "Info: "+format+"\n", args...)
	}
}

func (s *Service) info(format string, args ...any) {
	if s.Info != nil {
		s.Info(format, args...)
	}
}

// Resolve resolves one reference expression to a commit id.
func (s *Service) Resolve(ctx context.Context, expr string) (string, error) {
	return s.Resolver.Resolve(ctx, expr)
}

// Tags lists the tags merged into the configured remote/branch.
func (s *Service) Tags(ctx context.Context) (git.TagGraph, error) {
	return s.Git.ListTags(ctx, git.MergedRef(s.Config.Remote, s.Config.Branch), git.Strict)
}

// mergedRef turns the tracked expression into something git tag --merged
// accepts: ref names and literals pass through, variables are resolved.
// A variable that resolves to nothing, such as !(latestTag) in a repository
// without tags, is an error rather than an unfiltered tag listing.
func (s *Service) mergedRef(ctx context.Context, tracked string) (string, error) {
	expr, err := refexpr.Parse(tracked)
	if err != nil {
		return "", err
	}
	if expr.Kind != refexpr.KindVariable {
		return expr.Raw, nil
	}
	commit, err := s.Resolver.ResolveExpression(ctx, expr)
	if err != nil {
		return "", fmt.Errorf("resolving tracked ref %s: %w", tracked, err)
	}
	if commit == "" {
		return "", fmt.Errorf("tracked ref %s does not name a commit", tracked)
	}
	return commit, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
