package git

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ariel-frischer/gitchangelog/internal/runner"
	"github.com/google/shlex"
)

// DefaultFormat is the pretty format used for commit messages (full body).
const DefaultFormat = "format:%B"

// Policy controls how a failed invocation is reported.
// The zero value is strict: any failure is fatal.
type Policy struct {
	// NonFatal marks failures as informational.
	NonFatal bool
	// AllowNonZeroExit returns stdout even when git exits non-zero.
	AllowNonZeroExit bool
}

// Strict is the default policy, spelled out for readability at call sites.
var Strict = Policy{}

// Lenient marks failures as informational.
var Lenient = Policy{NonFatal: true}

// Options configures a Client.
type Options struct {
	// Executable is the git command line, e.g. "git" or "/usr/bin/git -c core.quotepath=off".
	// It is split with shell quoting rules. Defaults to "git".
	Executable string
	// Dir is the working directory for every invocation.
	Dir string
	// Timeout bounds each invocation; zero means no limit.
	Timeout time.Duration
	// Env replaces the process environment when non-nil.
	Env []string
	// Runner executes the commands. Defaults to runner.Exec.
	Runner runner.Runner
}

// Client runs git as a subprocess. Every method blocks until its single
// invocation finishes; no two invocations run concurrently.
type Client struct {
	argv    []string
	dir     string
	timeout time.Duration
	env     []string
	runner  runner.Runner
}

// NewClient creates a Client from opts.
func NewClient(opts Options) (*Client, error) {
	executable := strings.TrimSpace(opts.Executable)
	if executable == "" {
		executable = "git"
	}

	argv, err := shlex.Split(executable)
	if err != nil {
		return nil, fmt.Errorf("parsing git executable %q: %w", opts.Executable, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("git executable %q is empty", opts.Executable)
	}

	r := opts.Runner
	if r == nil {
		r = runner.Exec{}
	}

	return &Client{
		argv:    argv,
		dir:     opts.Dir,
		timeout: opts.Timeout,
		env:     opts.Env,
		runner:  r,
	}, nil
}

// Dir returns the working directory the client runs git in.
func (c *Client) Dir() string {
	return c.dir
}

// Exec runs git with args and returns its stdout. message describes the
// operation in errors.
func (c *Client) Exec(ctx context.Context, p Policy, message string, args ...string) (string, error) {
	cmd := runner.Command{
		Name:    c.argv[0],
		Args:    append(append([]string{}, c.argv[1:]...), args...),
		Dir:     c.dir,
		Env:     c.env,
		Timeout: c.timeout,
	}

	result, err := c.runner.Run(ctx, cmd)
	if result != nil {
		logDebug("[git] ran '%s' (exit %d, timed out %v)\n%s", cmd, result.ExitCode, result.TimedOut, result.Combined)
	}
	if err != nil {
		return "", &Error{
			Op:      firstArg(args),
			Message: message,
			Command: cmd.String(),
			Fatal:   !p.NonFatal,
			Err:     err,
		}
	}

	if result.TimedOut {
		return "", &Error{
			Op:       firstArg(args),
			Message:  fmt.Sprintf("%s: timed out after %s", message, c.timeout),
			Command:  cmd.String(),
			Output:   result.Combined,
			ExitCode: result.ExitCode,
			TimedOut: true,
			Fatal:    !p.NonFatal,
		}
	}

	if result.ExitCode != 0 && !p.AllowNonZeroExit {
		return "", &Error{
			Op:       firstArg(args),
			Message:  message,
			Command:  cmd.String(),
			Output:   result.Combined,
			ExitCode: result.ExitCode,
			Fatal:    !p.NonFatal,
		}
	}

	return result.Stdout, nil
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// RevParse resolves a ref name to a commit id.
func (c *Client) RevParse(ctx context.Context, ref string, p Policy) (string, error) {
	out, err := c.Exec(ctx, p, fmt.Sprintf("parsing ref %s", ref), "rev-parse", ref)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// RevListOptions selects the commits listed by RevList.
type RevListOptions struct {
	// Tags lists commits reachable from any tag.
	Tags      bool
	NoMerges  bool
	DateOrder bool
	Reverse   bool
	// MaxCount limits the output when positive.
	MaxCount int
	// Revisions are passed last, e.g. "HEAD" or "a..origin/main".
	Revisions []string
}

// Args renders the rev-list command line.
func (o RevListOptions) Args() []string {
	args := []string{"rev-list"}
	if o.Tags {
		args = append(args, "--tags")
	}
	if o.NoMerges {
		args = append(args, "--no-merges")
	}
	if o.DateOrder {
		args = append(args, "--date-order")
	}
	if o.Reverse {
		args = append(args, "--reverse")
	}
	if o.MaxCount > 0 {
		args = append(args, "--max-count="+strconv.Itoa(o.MaxCount))
	}
	return append(args, o.Revisions...)
}

// RevList lists commit ids, one per line, dropping blank lines.
func (c *Client) RevList(ctx context.Context, opts RevListOptions, p Policy) ([]string, error) {
	args := opts.Args()
	out, err := c.Exec(ctx, p, fmt.Sprintf("listing commits (%s)", strings.Join(args[1:], " ")), args...)
	if err != nil {
		return nil, err
	}
	return nonBlankLines(out, true), nil
}

// LogOptions selects the commit range whose messages are concatenated.
type LogOptions struct {
	// From is excluded; empty means from the root of history.
	From string
	// To is included; empty means RefSpec.
	To string
	// RefSpec is the fallback for an empty To.
	RefSpec string
	// Format is the --pretty value; empty means DefaultFormat.
	Format   string
	NoMerges bool
}

// Args renders the log command line.
func (o LogOptions) Args() []string {
	format := o.Format
	if format == "" {
		format = DefaultFormat
	}
	to := o.To
	if strings.TrimSpace(to) == "" {
		to = o.RefSpec
	}
	rev := to
	if strings.TrimSpace(o.From) != "" {
		rev = o.From + ".." + to
	}

	args := []string{"log"}
	if o.NoMerges {
		args = append(args, "--no-merges")
	}
	args = append(args, "--pretty="+format)
	if rev != "" {
		args = append(args, rev)
	}
	return args
}

// Log concatenates the messages of the selected commits, newest first,
// with blank lines removed and the rest joined by "\n".
func (c *Client) Log(ctx context.Context, opts LogOptions, p Policy) (string, error) {
	out, err := c.Exec(ctx, p, "concatenating commit messages", opts.Args()...)
	if err != nil {
		return "", err
	}
	return strings.Join(nonBlankLines(out, false), "\n"), nil
}

// CommitInfo returns one commit formatted with format (DefaultFormat when empty).
func (c *Client) CommitInfo(ctx context.Context, hash, format string, p Policy) (string, error) {
	if format == "" {
		format = DefaultFormat
	}
	return c.Exec(ctx, p, fmt.Sprintf("no such commit found: %s", hash), "log", "-1", "--pretty="+format, hash)
}

// TagContents returns the annotation message of tag.
func (c *Client) TagContents(ctx context.Context, tag string, p Policy) (string, error) {
	return c.Exec(ctx, p, fmt.Sprintf("retrieving the git tag %s", tag), "tag", "-l", "--format=%(contents)", tag)
}

// FetchTagCLI fetches refs/tags/<tag> from remote with the git executable.
func (c *Client) FetchTagCLI(ctx context.Context, remote, tag string, p Policy) error {
	refspec := fmt.Sprintf("refs/tags/%s:refs/tags/%s", tag, tag)
	_, err := c.Exec(ctx, p, fmt.Sprintf("no git tag found for version %s", tag), "fetch", remote, refspec)
	return err
}

// nonBlankLines splits s into lines, dropping whitespace-only ones.
// Carriage returns are stripped; trim also strips surrounding spaces.
func nonBlankLines(s string, trim bool) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if trim {
			line = strings.TrimSpace(line)
		}
		lines = append(lines, line)
	}
	return lines
}

// AsError returns err as *Error when it is one.
func AsError(err error) (*Error, bool) {
	var gitErr *Error
	ok := errors.As(err, &gitErr)
	return gitErr, ok
}
