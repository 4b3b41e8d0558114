package workflow

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ariel-frischer/gitchangelog/internal/changelog"
	"github.com/ariel-frischer/gitchangelog/internal/git"
	"github.com/ariel-frischer/gitchangelog/internal/lock"
	"github.com/ariel-frischer/gitchangelog/internal/manifest"
)

// ReleaseNotesProperty is the manifest property receiving the current
// version's text.
const ReleaseNotesProperty = "releaseNotes"

// GenerateOptions configures one changelog generation.
type GenerateOptions struct {
	ChangelogPath string
	// NuSpecPath names a manifest to update; skipped when empty or missing.
	NuSpecPath    string
	NuSpecSection string
	// TrackedRef is the expression whose history is summarized.
	TrackedRef string
	Categories []string
	// PreserveChanges parses the existing file so hand edits survive.
	PreserveChanges bool
	// DryRun renders without writing the changelog or the manifest.
	DryRun bool
	// Diff computes a unified diff against the file on disk.
	Diff bool
	// Command names the caller in the lock and history, e.g. "watch".
	Command string
}

// GenerateResult reports what a generation produced.
type GenerateResult struct {
	// Records are the sections rendered, newest first.
	Records []changelog.Record
	// Written is false for dry runs.
	Written bool
	// PendingHasContent reports whether the current version has text.
	PendingHasContent bool
	Rendered          string
	// Diff is the unified diff from the previous file, when requested.
	Diff            string
	ManifestUpdated bool
	// Reconcile holds the full reconciliation outcome.
	Reconcile *changelog.Result
}

// GenerateOptions returns the options implied by the configuration.
func (s *Service) GenerateOptions() GenerateOptions {
	cfg := s.Config
	return GenerateOptions{
		ChangelogPath:   cfg.ChangelogFile,
		NuSpecPath:      cfg.NuspecFile,
		NuSpecSection:   cfg.NuspecSection,
		TrackedRef:      cfg.Ref,
		Categories:      cfg.Categories,
		PreserveChanges: cfg.PreserveChanges,
		Command:         "changelog generate",
	}
}

// GenerateChangelog reconciles the changelog file with the tags and commits
// of the tracked ref and rewrites it. The file is only written once the new
// content is complete in memory. Each run is recorded in the history.
func (s *Service) GenerateChangelog(ctx context.Context, opts GenerateOptions) (*GenerateResult, error) {
	if strings.TrimSpace(opts.ChangelogPath) == "" {
		return nil, fmt.Errorf("changelog path is required")
	}
	if opts.Command == "" {
		opts.Command = "changelog generate"
	}
	if strings.TrimSpace(opts.TrackedRef) == "" {
		opts.TrackedRef = "HEAD"
	}

	start := time.Now()
	res, err := s.generate(ctx, opts)
	s.record(opts, res, err, time.Since(start))
	return res, err
}

func (s *Service) generate(ctx context.Context, opts GenerateOptions) (*GenerateResult, error) {
	if !opts.DryRun {
		l, err := lock.Acquire(s.Config.StateDir, opts.ChangelogPath, opts.Command)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := l.Release(); err != nil {
				s.info("releasing lock for %s: %v", opts.ChangelogPath, err)
			}
		}()
	}

	prior, current, err := s.readPrior(opts)
	if err != nil {
		return nil, err
	}

	s.progress.StartStep("Listing tags")
	mergedRef, err := s.mergedRef(ctx, opts.TrackedRef)
	if err != nil {
		s.progress.FailStep(err)
		return nil, err
	}
	tags, err := s.Git.ListTags(ctx, mergedRef, git.Strict)
	if err != nil {
		s.progress.FailStep(err)
		return nil, err
	}
	s.progress.CompleteStep(fmt.Sprintf("Found %d tag(s) merged into %s", tags.Len(), opts.TrackedRef))

	s.progress.StartStep("Reconciling changelog")
	reconciler := &changelog.Reconciler{
		History:       s.Git,
		Resolver:      s.Resolver,
		ExcludeMerges: s.Config.ExcludeMerges,
		Warn:          s.info,
	}
	outcome, err := reconciler.Reconcile(ctx, prior, tags, opts.TrackedRef)
	if err != nil {
		s.progress.FailStep(err)
		return nil, err
	}

	rendered, err := changelog.RenderString(outcome.Records, opts.Categories)
	if err != nil {
		s.progress.FailStep(err)
		return nil, err
	}
	s.progress.CompleteStep(fmt.Sprintf("Reconciled %d section(s)", len(outcome.Records)))

	res := &GenerateResult{
		Records:           outcome.Records,
		PendingHasContent: outcome.PendingHasContent,
		Rendered:          rendered,
		Reconcile:         outcome,
	}

	if opts.Diff {
		diff, err := changelog.Diff(opts.ChangelogPath, current, rendered)
		if err != nil {
			return nil, err
		}
		res.Diff = diff
	}

	if opts.DryRun {
		return res, nil
	}

	if err := changelog.WriteFile(opts.ChangelogPath, rendered); err != nil {
		return nil, err
	}
	res.Written = true

	updated, err := s.updateManifest(opts, outcome.Current)
	if err != nil {
		return res, err
	}
	res.ManifestUpdated = updated
	return res, nil
}

// readPrior loads the existing changelog when preserving edits, and its raw
// text for diffing. A missing file is an empty changelog.
func (s *Service) readPrior(opts GenerateOptions) (*changelog.Changelog, string, error) {
	data, err := os.ReadFile(opts.ChangelogPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("reading %s: %w", opts.ChangelogPath, err)
	}
	if !opts.PreserveChanges {
		return nil, string(data), nil
	}
	prior, err := changelog.ParseString(string(data))
	if err != nil {
		return nil, "", err
	}
	return prior, string(data), nil
}

// updateManifest writes the current version's formatted text into the
// manifest's releaseNotes property.
func (s *Service) updateManifest(opts GenerateOptions, current *changelog.Record) (bool, error) {
	if strings.TrimSpace(opts.NuSpecPath) == "" {
		return false, nil
	}
	if !fileExists(opts.NuSpecPath) {
		s.info("manifest %s does not exist, skipping %s", opts.NuSpecPath, ReleaseNotesProperty)
		return false, nil
	}
	if current == nil {
		return false, nil
	}

	notes := changelog.FormatText(current.BodyText(), opts.Categories)
	req, err := manifest.Single(ReleaseNotesProperty, notes, manifest.Replace)
	if err != nil {
		return false, err
	}
	return manifest.Edit(opts.NuSpecPath, req, manifest.Options{
		Section: opts.NuSpecSection,
		Info:    s.info,
	})
}

func (s *Service) record(opts GenerateOptions, res *GenerateResult, err error, duration time.Duration) {
	if s.History == nil || opts.DryRun {
		return
	}
	exitCode := 0
	summary := ""
	switch {
	case err != nil:
		exitCode = 1
		summary = firstLine(err.Error())
	case res != nil:
		summary = fmt.Sprintf("%d section(s)", len(res.Records))
		if res.PendingHasContent {
			summary += ", pending changes"
		}
		if res.ManifestUpdated {
			summary += ", manifest updated"
		}
	}
	s.History.LogCommand(opts.Command, opts.ChangelogPath, summary, exitCode, duration)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
