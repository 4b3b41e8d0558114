// Package cli tests the changelog commands end to end through the root
// command, with git replaced by a scripted helper process.
// Related: internal/cli/changelog.go, internal/cli/changelog_show.go, internal/cli/changelog_check.go
// Tags: cli, changelog, helper-process
package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ariel-frischer/gitchangelog/internal/changelog"
	"github.com/ariel-frischer/gitchangelog/internal/lock"
	"github.com/ariel-frischer/gitchangelog/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const (
	commitA = "1111111111111111111111111111111111111111"
	commitB = "2222222222222222222222222222222222222222"
	commitC = "3333333333333333333333333333333333333333"
	tagObj  = "4444444444444444444444444444444444444444"

	tagListFormat = "--format=%(refname:strip=2) %(objecttype) %(objectname) %(object)"
	logArgs       = "log --no-merges --pretty=format:%B "
)

// repoScript answers the git calls of a generation over two tags and one
// commit after the newest tag.
func repoScript() map[string]testutil.HelperResponse {
	return map[string]testutil.HelperResponse{
		"rev-parse HEAD":                        testutil.Respond(commitC + "\n"),
		"tag -l --merged=HEAD " + tagListFormat: testutil.Respond("v1 commit " + commitA + " \nv2 tag " + tagObj + " " + commitB + "\n"),
		logArgs + commitA:                       testutil.Respond("Initial release\n\n"),
		logArgs + commitA + ".." + commitB:      testutil.Respond("Added feature\n"),
		logArgs + commitB + ".." + commitC:      testutil.Respond("Fix bug\n"),
	}
}

// releasedScript is repoScript with HEAD at the newest tag.
func releasedScript() map[string]testutil.HelperResponse {
	script := repoScript()
	script["rev-parse HEAD"] = testutil.Respond(commitB + "\n")
	delete(script, logArgs+commitB+".."+commitC)
	return script
}

const released = changelog.FileHeader +
	"[v2]\n- Added feature\n\n\n" +
	"[v1]\n- Initial release\n\n\n"

const generated = changelog.FileHeader +
	"[Next version (" + commitC + ")]\n- Fix bug\n\n\n" +
	"[v2]\n- Added feature\n\n\n" +
	"[v1]\n- Initial release\n\n\n"

func writeChangelog(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "CHANGELOG.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// IMPORTANT: NO t.Parallel() in this file - the tests change the working
// directory and share the global command tree.
func TestChangelogGenerate(t *testing.T) {
	dir := setupWorkspace(t)
	useFakeGit(t, testutil.HelperProcessConfig{Script: repoScript()})

	stdout, _, err := executeCommand(t, "changelog", "generate", "--verbose")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Wrote 3 section(s) to CHANGELOG.txt")

	data, err := os.ReadFile(filepath.Join(dir, "CHANGELOG.txt"))
	require.NoError(t, err)
	assert.Equal(t, generated, string(data))

	// The run is recorded in the history.
	stdout, _, err = executeCommand(t, "history")
	require.NoError(t, err)
	assert.Contains(t, stdout, "changelog generate")
	assert.Contains(t, stdout, "3 section(s), pending changes")
}

func TestChangelogGenerate_VerboseReportsNewSections(t *testing.T) {
	setupWorkspace(t)
	useFakeGit(t, testutil.HelperProcessConfig{Script: repoScript()})

	_, stderr, err := executeCommand(t, "changelog", "generate", "-v")
	require.NoError(t, err)
	assert.Contains(t, stderr, "New sections: v1, v2")
}

func TestChangelogGenerate_DryRun(t *testing.T) {
	tests := map[string]struct {
		script     map[string]testutil.HelperResponse
		existing   string
		args       []string
		wantOutput []string
	}{
		"prints the rendered changelog": {
			script:     repoScript(),
			args:       []string{"changelog", "generate", "--dry-run"},
			wantOutput: []string{"[Next version (" + commitC + ")]", "[v1]\n- Initial release"},
		},
		"diff against a missing file": {
			script:     repoScript(),
			args:       []string{"changelog", "generate", "-n", "--diff"},
			wantOutput: []string{"+[v2]", "+- Added feature"},
		},
		"diff of an up to date file": {
			script:     releasedScript(),
			existing:   released,
			args:       []string{"cl", "gen", "-n", "--diff"},
			wantOutput: []string{"CHANGELOG.txt is up to date"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			dir := setupWorkspace(t)
			useFakeGit(t, testutil.HelperProcessConfig{Script: tt.script})
			if tt.existing != "" {
				writeChangelog(t, dir, tt.existing)
			}

			stdout, _, err := executeCommand(t, tt.args...)
			require.NoError(t, err)
			for _, want := range tt.wantOutput {
				assert.Contains(t, stdout, want)
			}
			assert.NotContains(t, stdout, "Wrote")

			data, err := os.ReadFile(filepath.Join(dir, "CHANGELOG.txt"))
			if tt.existing == "" {
				assert.True(t, os.IsNotExist(err), "dry run must not create the file")
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.existing, string(data))
			}
		})
	}
}

func TestChangelogGenerate_KeepsManualEdits(t *testing.T) {
	dir := setupWorkspace(t)
	useFakeGit(t, testutil.HelperProcessConfig{Script: repoScript()})
	edited := strings.Replace(generated, "- Initial release", "- Initial public release", 1)
	path := writeChangelog(t, dir, edited)

	_, _, err := executeCommand(t, "changelog", "generate")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "- Initial public release")

	_, _, err = executeCommand(t, "changelog", "generate", "--preserve=false")
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, generated, string(data))
}

func TestChangelogGenerate_Output(t *testing.T) {
	dir := setupWorkspace(t)
	useFakeGit(t, testutil.HelperProcessConfig{Script: repoScript()})
	out := filepath.Join(dir, "docs", "CHANGES.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(out), 0o755))

	stdout, _, err := executeCommand(t, "changelog", "generate", "--output", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Wrote 3 section(s) to "+out)
	_, err = os.Stat(out)
	assert.NoError(t, err)
}

func TestChangelogGenerate_UpdatesManifest(t *testing.T) {
	dir := setupWorkspace(t)
	useFakeGit(t, testutil.HelperProcessConfig{Script: repoScript()})
	nuspec := filepath.Join(dir, "pkg.nuspec")
	require.NoError(t, os.WriteFile(nuspec, []byte(`<?xml version="1.0"?>
<package>
  <metadata>
    <id>pkg</id>
  </metadata>
</package>
`), 0o644))

	stdout, _, err := executeCommand(t, "changelog", "generate", "--nuspec", nuspec)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Updated releaseNotes in "+nuspec)

	data, err := os.ReadFile(nuspec)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<releaseNotes>")
	assert.Contains(t, string(data), "Fix bug")
}

func TestChangelogGenerate_Failures(t *testing.T) {
	tests := map[string]struct {
		existing      string
		script        map[string]testutil.HelperResponse
		wantExit      int
		wantStderr    string
		wantUnchanged bool
	}{
		"unparseable changelog": {
			existing:      changelog.FileHeader + "stray line\n",
			script:        repoScript(),
			wantExit:      ExitFailure,
			wantStderr:    "cannot parse existing changelog CHANGELOG.txt",
			wantUnchanged: true,
		},
		"git failure": {
			script: map[string]testutil.HelperResponse{
				"tag -l --merged=HEAD " + tagListFormat: testutil.Fail(128, "fatal: not a git repository"),
			},
			wantExit:   ExitFailure,
			wantStderr: "git command failed",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			dir := setupWorkspace(t)
			useFakeGit(t, testutil.HelperProcessConfig{Script: tt.script})
			if tt.existing != "" {
				writeChangelog(t, dir, tt.existing)
			}

			_, stderr, err := executeCommand(t, "changelog", "generate")
			require.Error(t, err)
			assert.Equal(t, tt.wantExit, ExitCode(err))
			assert.Contains(t, stderr, tt.wantStderr)

			if tt.wantUnchanged {
				data, err := os.ReadFile(filepath.Join(dir, "CHANGELOG.txt"))
				require.NoError(t, err)
				assert.Equal(t, tt.existing, string(data))
			}
		})
	}
}

func TestChangelogGenerate_Locked(t *testing.T) {
	dir := setupWorkspace(t)
	useFakeGit(t, testutil.HelperProcessConfig{Script: repoScript()})

	held, err := lock.Acquire(filepath.Join(dir, "state"), "CHANGELOG.txt", "watch")
	require.NoError(t, err)
	defer held.Release()

	_, stderr, err := executeCommand(t, "changelog", "generate")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, ExitCode(err))
	assert.Contains(t, stderr, "is being generated by another process")
}

func TestChangelogShow(t *testing.T) {
	tests := map[string]struct {
		args    []string
		want    []string
		notWant []string
	}{
		"all sections": {
			args: []string{"changelog", "show", "--plain"},
			want: []string{"## Next version (3333333)", "## v2", "  - Added feature", "## v1"},
		},
		"one version without prefix": {
			args:    []string{"changelog", "show", "2"},
			want:    []string{"## v2", "- Added feature"},
			notWant: []string{"## v1"},
		},
		"pending alias": {
			args:    []string{"changelog", "show", "next"},
			want:    []string{"## Next version (3333333)", "- Fix bug"},
			notWant: []string{"## v2"},
		},
		"list": {
			args: []string{"changelog", "show", "--list"},
			want: []string{"Next version\nv2\nv1\n"},
		},
		"last": {
			args:    []string{"changelog", "show", "--last", "1"},
			want:    []string{"## Next version", "(1 of 3 sections shown. Use --last 3 to see all)"},
			notWant: []string{"## v1"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			dir := setupWorkspace(t)
			writeChangelog(t, dir, generated)

			stdout, _, err := executeCommand(t, tt.args...)
			require.NoError(t, err)
			for _, want := range tt.want {
				assert.Contains(t, stdout, want)
			}
			for _, notWant := range tt.notWant {
				assert.NotContains(t, stdout, notWant)
			}
		})
	}
}

func TestChangelogShow_Errors(t *testing.T) {
	tests := map[string]struct {
		content  *string
		args     []string
		wantExit int
		wantErr  string
	}{
		"missing file": {
			args:     []string{"changelog", "show"},
			wantExit: ExitMissingDependency,
			wantErr:  "changelog file not found",
		},
		"unknown version": {
			content:  ptr(generated),
			args:     []string{"changelog", "show", "v9"},
			wantExit: ExitInvalidArguments,
			wantErr:  "version not found: v9",
		},
		"negative last": {
			content:  ptr(generated),
			args:     []string{"changelog", "show", "--last", "-1"},
			wantExit: ExitInvalidArguments,
			wantErr:  "--last must be positive",
		},
		"too many arguments": {
			content:  ptr(generated),
			args:     []string{"changelog", "show", "v1", "v2"},
			wantExit: ExitInvalidArguments,
			wantErr:  "accepts at most 1 arg",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			dir := setupWorkspace(t)
			if tt.content != nil {
				writeChangelog(t, dir, *tt.content)
			}

			_, stderr, err := executeCommand(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.wantExit, ExitCode(err))
			assert.Contains(t, stderr, tt.wantErr)
		})
	}
}

func TestChangelogShow_Empty(t *testing.T) {
	dir := setupWorkspace(t)
	writeChangelog(t, dir, changelog.FileHeader)

	stdout, _, err := executeCommand(t, "changelog", "show")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No changelog sections found.")
}

func TestChangelogExport(t *testing.T) {
	t.Run("yaml to stdout", func(t *testing.T) {
		dir := setupWorkspace(t)
		writeChangelog(t, dir, generated)

		stdout, _, err := executeCommand(t, "changelog", "export")
		require.NoError(t, err)

		var doc changelog.ExportDocument
		require.NoError(t, yaml.Unmarshal([]byte(stdout), &doc))
		require.Len(t, doc.Versions, 3)
		assert.True(t, doc.Versions[0].Pending)
		assert.Equal(t, commitC, doc.Versions[0].Commit)
		assert.Equal(t, []string{"Added feature"}, doc.Versions[1].Lines)
	})

	t.Run("json to file", func(t *testing.T) {
		dir := setupWorkspace(t)
		writeChangelog(t, dir, generated)
		out := filepath.Join(dir, "changelog.json")

		stdout, _, err := executeCommand(t, "changelog", "export", "-f", "json", "-o", out)
		require.NoError(t, err)
		assert.Contains(t, stdout, "Exported 3 section(s) to "+out)

		data, err := os.ReadFile(out)
		require.NoError(t, err)
		var doc changelog.ExportDocument
		require.NoError(t, json.Unmarshal(data, &doc))
		assert.Equal(t, "v1", doc.Versions[2].Name)
	})

	t.Run("unknown format", func(t *testing.T) {
		dir := setupWorkspace(t)
		writeChangelog(t, dir, generated)

		_, _, err := executeCommand(t, "changelog", "export", "--format", "xml")
		require.Error(t, err)
		assert.Equal(t, ExitInvalidArguments, ExitCode(err))
	})
}

func TestChangelogCheck(t *testing.T) {
	tests := map[string]struct {
		script     map[string]testutil.HelperResponse
		content    string
		args       []string
		wantErr    bool
		wantExit   int
		wantOutput []string
	}{
		"valid file": {
			content:    generated,
			args:       []string{"changelog", "check"},
			wantOutput: []string{"CHANGELOG.txt: 3 section(s), 3 line(s)"},
		},
		"unparseable file": {
			content:  changelog.FileHeader + "stray line\n",
			args:     []string{"changelog", "check"},
			wantErr:  true,
			wantExit: ExitFailure,
		},
		"up to date": {
			script:     releasedScript(),
			content:    released,
			args:       []string{"changelog", "check", "--up-to-date"},
			wantOutput: []string{"CHANGELOG.txt: 2 section(s), 2 line(s)", "CHANGELOG.txt is up to date"},
		},
		"outdated": {
			script:     repoScript(),
			content:    released,
			args:       []string{"changelog", "check", "-u"},
			wantErr:    true,
			wantExit:   ExitFailure,
			wantOutput: []string{"+[Next version (" + commitC + ")]", "+- Fix bug"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			dir := setupWorkspace(t)
			useFakeGit(t, testutil.HelperProcessConfig{Script: tt.script})
			writeChangelog(t, dir, tt.content)

			stdout, _, err := executeCommand(t, tt.args...)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.wantExit, ExitCode(err))
			} else {
				require.NoError(t, err)
			}
			for _, want := range tt.wantOutput {
				assert.Contains(t, stdout, want)
			}
		})
	}
}

func TestChangelogUnlock(t *testing.T) {
	t.Run("no lock", func(t *testing.T) {
		setupWorkspace(t)

		stdout, _, err := executeCommand(t, "changelog", "unlock")
		require.NoError(t, err)
		assert.Contains(t, stdout, "No lock held for CHANGELOG.txt")
	})

	t.Run("live lock needs force", func(t *testing.T) {
		dir := setupWorkspace(t)
		stateDir := filepath.Join(dir, "state")
		held, err := lock.Acquire(stateDir, "CHANGELOG.txt", "watch")
		require.NoError(t, err)
		defer held.Release()

		_, stderr, err := executeCommand(t, "changelog", "unlock")
		require.Error(t, err)
		assert.Contains(t, stderr, "is being generated by another process")

		stdout, _, err := executeCommand(t, "changelog", "unlock", "--force")
		require.NoError(t, err)
		assert.Contains(t, stdout, "Removed lock of run "+held.RunID)

		remaining, err := lock.LoadLock(stateDir, "CHANGELOG.txt")
		require.NoError(t, err)
		assert.Nil(t, remaining)
	})

	t.Run("stale lock", func(t *testing.T) {
		dir := setupWorkspace(t)
		stateDir := filepath.Join(dir, "state")
		lockPath := lock.GetLockPath(stateDir, "CHANGELOG.txt")
		require.NoError(t, os.MkdirAll(filepath.Dir(lockPath), 0o755))
		require.NoError(t, os.WriteFile(lockPath, []byte("run_id: dead-run\npid: 0\ntarget: CHANGELOG.txt\ncommand: watch\n"), 0o644))

		stdout, _, err := executeCommand(t, "changelog", "unlock")
		require.NoError(t, err)
		assert.Contains(t, stdout, "Removed lock of run dead-run (PID 0, watch)")
	})

	t.Run("unreadable lock", func(t *testing.T) {
		dir := setupWorkspace(t)
		lockPath := lock.GetLockPath(filepath.Join(dir, "state"), "CHANGELOG.txt")
		require.NoError(t, os.MkdirAll(filepath.Dir(lockPath), 0o755))
		require.NoError(t, os.WriteFile(lockPath, []byte("pid: [truncated"), 0o644))

		stdout, _, err := executeCommand(t, "changelog", "unlock")
		require.NoError(t, err)
		assert.Contains(t, stdout, "Removed unreadable lock file for CHANGELOG.txt")
		assert.NoFileExists(t, lockPath)
	})
}

func ptr(s string) *string {
	return &s
}
