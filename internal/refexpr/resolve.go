package refexpr

import (
	"context"
	"fmt"

	"github.com/ariel-frischer/gitchangelog/internal/git"
)

// History is the subset of the git client the resolver needs.
type History interface {
	RevParse(ctx context.Context, ref string, p git.Policy) (string, error)
	RevList(ctx context.Context, opts git.RevListOptions, p git.Policy) ([]string, error)
}

// Options configures a Resolver.
type Options struct {
	// Branch and Remote form the tip that look-ahead walks toward.
	// Defaults: "HEAD" and "origin".
	Branch string
	Remote string
	// ExcludeMerges skips merge commits when applying offsets.
	ExcludeMerges bool
	// Policy decides whether failed git calls are fatal.
	Policy git.Policy
}

// Resolver turns expressions into commit ids.
type Resolver struct {
	history History
	opts    Options
}

var debugLogger func(format string, args ...any)

// SetDebugLogger configures the debug logger for resolution.
// Pass nil to disable debug logging.
func SetDebugLogger(logger func(format string, args ...any)) {
	debugLogger = logger
}

func logDebug(format string, args ...any) {
	if debugLogger != nil {
		debugLogger(format, args...)
	}
}

// NewResolver creates a Resolver reading history from h.
func NewResolver(h History, opts Options) *Resolver {
	if opts.Branch == "" {
		opts.Branch = "HEAD"
	}
	if opts.Remote == "" {
		opts.Remote = "origin"
	}
	return &Resolver{history: h, opts: opts}
}

// Options returns the effective options.
func (r *Resolver) Options() Options {
	return r.opts
}

// Resolve parses input and resolves it to a commit id.
func (r *Resolver) Resolve(ctx context.Context, input string) (string, error) {
	expr, err := Parse(input)
	if err != nil {
		return "", err
	}
	commit, err := r.ResolveExpression(ctx, expr)
	if err != nil {
		return "", err
	}
	logDebug("[resolve] %s (%s) -> %s", expr.Raw, expr.Kind, commit)
	return commit, nil
}

// ResolveExpression resolves an already parsed expression.
func (r *Resolver) ResolveExpression(ctx context.Context, expr Expression) (string, error) {
	switch expr.Kind {
	case KindRef:
		return r.history.RevParse(ctx, expr.Raw, r.opts.Policy)
	case KindLiteral:
		return expr.Raw, nil
	}

	var anchor string
	switch expr.Keyword {
	case LatestTag:
		commits, err := r.history.RevList(ctx, git.RevListOptions{Tags: true, MaxCount: 1}, r.opts.Policy)
		if err != nil {
			return "", err
		}
		if len(commits) == 0 {
			logDebug("[resolve] %s: repository has no tags", expr.Raw)
			return "", nil
		}
		anchor = commits[0]

	case LatestCommit:
		depth := max(expr.LookAhead, 0)
		commits, err := r.history.RevList(ctx, git.RevListOptions{MaxCount: depth + 1, Revisions: []string{"HEAD"}}, r.opts.Policy)
		if err != nil {
			return "", err
		}
		return lastOrDefault(commits, ""), nil

	case Commit:
		anchor = expr.Hash

	default:
		return "", &Error{Input: expr.Raw, Message: fmt.Sprintf("unknown reference variable %q", expr.Keyword)}
	}

	switch {
	case expr.LookAhead > 0:
		return r.lookAhead(ctx, anchor, expr.LookAhead)
	case expr.LookAhead < 0:
		return r.lookBehind(ctx, anchor, -expr.LookAhead)
	}
	return anchor, nil
}

// lookAhead picks the n-th commit after anchor on the way to the tracked tip,
// clamped to the tip itself.
func (r *Resolver) lookAhead(ctx context.Context, anchor string, n int) (string, error) {
	tip := git.MergedRef(r.opts.Remote, r.opts.Branch)
	commits, err := r.history.RevList(ctx, git.RevListOptions{
		NoMerges:  r.opts.ExcludeMerges,
		DateOrder: true,
		Reverse:   true,
		Revisions: []string{anchor + ".." + tip},
	}, r.opts.Policy)
	if err != nil {
		return "", err
	}
	if len(commits) == 0 {
		return anchor, nil
	}
	return commits[min(n-1, len(commits)-1)], nil
}

// lookBehind walks n commits back from anchor, stopping at the root.
func (r *Resolver) lookBehind(ctx context.Context, anchor string, n int) (string, error) {
	commits, err := r.history.RevList(ctx, git.RevListOptions{
		NoMerges:  r.opts.ExcludeMerges,
		DateOrder: true,
		MaxCount:  n + 1,
		Revisions: []string{anchor},
	}, r.opts.Policy)
	if err != nil {
		return "", err
	}
	return lastOrDefault(commits, anchor), nil
}

func lastOrDefault(lines []string, def string) string {
	if len(lines) == 0 {
		return def
	}
	return lines[len(lines)-1]
}
