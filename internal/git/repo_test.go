package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initRepo creates a repository with a single commit and returns its root.
func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# test\n"), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("README.md")
	require.NoError(t, err)
	_, err = wt.Commit("Initial commit", &gogit.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	// Resolve symlinks (macOS /var -> /private/var)
	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	return resolved
}

func TestRepositoryRoot(t *testing.T) {
	t.Parallel()
	root := initRepo(t)
	sub := filepath.Join(root, "nested", "dir")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	got, err := RepositoryRoot(sub)
	require.NoError(t, err)
	gotResolved, err := filepath.EvalSymlinks(got)
	require.NoError(t, err)
	assert.Equal(t, root, gotResolved)

	gitDir, err := GitDir(sub)
	require.NoError(t, err)
	gitDirResolved, err := filepath.EvalSymlinks(gitDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, ".git"), gitDirResolved)
}

func TestIsRepository(t *testing.T) {
	t.Parallel()
	assert.True(t, IsRepository(initRepo(t)))
	assert.False(t, IsRepository(t.TempDir()))
}

func TestFetchTag_FailuresAreNonFatal(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		path func(t *testing.T) string
	}{
		"not a repository": {
			path: func(t *testing.T) string { return t.TempDir() },
		},
		"unknown remote": {
			path: initRepo,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			err := FetchTag(context.Background(), tt.path(t), "origin", "v1.0.0")
			require.Error(t, err)
			assert.False(t, IsFatal(err))
			assert.Contains(t, err.Error(), "v1.0.0")
		})
	}
}

func TestIsSSHURL(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		url  string
		want bool
	}{
		"scp style":  {url: "git@github.com:owner/repo.git", want: true},
		"ssh scheme": {url: "ssh://git@github.com/owner/repo.git", want: true},
		"git+ssh":    {url: "git+ssh://git@github.com/owner/repo.git", want: true},
		"https":      {url: "https://github.com/owner/repo.git", want: false},
		"local path": {url: "/srv/git/repo.git", want: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, isSSHURL(tt.url))
		})
	}
}

func TestSetDebugLogger(t *testing.T) {
	var got []string
	SetDebugLogger(func(format string, args ...any) {
		got = append(got, format)
	})
	defer SetDebugLogger(nil)

	logDebug("[git] hello %s", "world")
	assert.Equal(t, []string{"[git] hello %s"}, got)
}
