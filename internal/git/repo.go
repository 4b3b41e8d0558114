// Package git talks to the version-control history. Commit listings, logs
// and tag enumeration go through the git executable (see Client) because
// their output format is the contract the changelog is built on. Repository
// discovery and the best-effort tag fetch use the go-git library.
package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

// DefaultFetchTimeout bounds a tag fetch when the caller has no deadline.
const DefaultFetchTimeout = 60 * time.Second

// debugLogger is a function that logs debug messages when debug mode is enabled.
// By default, it's a no-op. Set it via SetDebugLogger to enable debug output.
var debugLogger func(format string, args ...any)

// SetDebugLogger configures the debug logger for git operations.
// Pass nil to disable debug logging.
func SetDebugLogger(logger func(format string, args ...any)) {
	debugLogger = logger
}

// logDebug logs a debug message if the debug logger is set.
func logDebug(format string, args ...any) {
	if debugLogger != nil {
		debugLogger(format, args...)
	}
}

// openRepo opens the repository containing path, walking up to find .git.
// If path is empty, the current working directory is used.
func openRepo(path string) (*git.Repository, error) {
	if path == "" {
		var err error
		path, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting current directory: %w", err)
		}
	}

	logDebug("[git] opening repository at %s", path)

	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", path, err)
	}
	return repo, nil
}

// RepositoryRoot returns the absolute worktree root of the repository containing path.
func RepositoryRoot(path string) (string, error) {
	repo, err := openRepo(path)
	if err != nil {
		return "", err
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("getting worktree: %w", err)
	}

	root := worktree.Filesystem.Root()
	logDebug("[git] RepositoryRoot: %s", root)
	return root, nil
}

// GitDir returns the .git directory of the repository containing path.
func GitDir(path string) (string, error) {
	repo, err := openRepo(path)
	if err != nil {
		return "", err
	}

	if storage, ok := repo.Storer.(*filesystem.Storage); ok {
		return storage.Filesystem().Root(), nil
	}

	root, err := RepositoryRoot(path)
	if err != nil {
		return "", err
	}
	return filepath.Join(root, ".git"), nil
}

// IsRepository reports whether path is inside a git repository.
func IsRepository(path string) bool {
	_, err := openRepo(path)
	return err == nil
}

// FetchTag fetches refs/tags/<tag> from remote into the local repository at
// path. The fetch is best effort: every failure is returned as a non-fatal
// *Error, and an up-to-date tag is success.
func FetchTag(ctx context.Context, path, remoteName, tag string) error {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultFetchTimeout)
		defer cancel()
	}

	nonFatal := func(err error) error {
		return &Error{
			Op:      "fetch",
			Message: fmt.Sprintf("no git tag found for version %s, release note will be empty", tag),
			Fatal:   false,
			Err:     err,
		}
	}

	repo, err := openRepo(path)
	if err != nil {
		return nonFatal(err)
	}

	remote, err := repo.Remote(remoteName)
	if err != nil {
		return nonFatal(fmt.Errorf("looking up remote %q: %w", remoteName, err))
	}

	var auth transport.AuthMethod
	if urls := remote.Config().URLs; len(urls) > 0 {
		url := urls[0]
		if isSSHURL(url) && !isSSHAgentAvailable() {
			logDebug("[git] fetching %s from '%s' without SSH agent", tag, remoteName)
		}
		auth = getAuthForURL(url)
	}

	refSpec := config.RefSpec(fmt.Sprintf("refs/tags/%s:refs/tags/%s", tag, tag))
	logDebug("[git] fetching %s from remote '%s'", refSpec, remoteName)

	err = repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: remoteName,
		Auth:       auth,
		RefSpecs:   []config.RefSpec{refSpec},
		Tags:       git.NoTags,
	})
	if err == nil || err == git.NoErrAlreadyUpToDate {
		return nil
	}
	if ctx.Err() != nil {
		return nonFatal(fmt.Errorf("fetch timed out or was cancelled: %w", ctx.Err()))
	}
	return nonFatal(err)
}

// getAuthForURL returns the appropriate authentication method for a remote URL.
// SSH URLs use SSH agent auth, HTTPS URLs use environment credentials.
func getAuthForURL(url string) transport.AuthMethod {
	if isSSHURL(url) {
		auth, err := ssh.NewSSHAgentAuth("git")
		if err != nil {
			logDebug("[git] SSH agent auth failed: %v", err)
			return nil
		}
		return auth
	}

	username := os.Getenv("GIT_USERNAME")
	password := os.Getenv("GIT_PASSWORD")
	if username == "" {
		username = os.Getenv("GITHUB_TOKEN")
		if username != "" {
			password = "" // a token works as username with an empty password
		}
	}

	if username != "" {
		return &http.BasicAuth{
			Username: username,
			Password: password,
		}
	}

	return nil
}

// isSSHURL detects git@ (SCP-style), ssh:// and git+ssh:// URLs.
func isSSHURL(url string) bool {
	return strings.HasPrefix(url, "git@") ||
		strings.HasPrefix(url, "ssh://") ||
		strings.HasPrefix(url, "git+ssh://")
}

// isSSHAgentAvailable reports whether SSH_AUTH_SOCK is set.
func isSSHAgentAvailable() bool {
	return strings.TrimSpace(os.Getenv("SSH_AUTH_SOCK")) != ""
}
