package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nuspecDoc = `<?xml version="1.0" encoding="utf-8"?>
<package>
  <metadata>
    <id>Tool</id>
    <version>1.0.0</version>
    <releaseNotes>- Old</releaseNotes>
  </metadata>
</package>
`

func writeNuspec(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "tool.nuspec")
	require.NoError(t, os.WriteFile(path, []byte(nuspecDoc), 0o644))
	return path
}

func TestNuspecSet(t *testing.T) {
	tests := map[string]struct {
		args        []string
		wantOut     []string
		wantContent []string
	}{
		"single property": {
			args:        []string{"--property", "version", "--value", "1.2.0"},
			wantOut:     []string{"Set version (Replace) in "},
			wantContent: []string{"<version>1.2.0</version>"},
		},
		"single property with mode": {
			args:        []string{"-p", "releaseNotes", "--value", "- New", "-m", "AppendLine"},
			wantOut:     []string{"Set releaseNotes (AppendLine) in "},
			wantContent: []string{"<releaseNotes>- Old\n- New</releaseNotes>"},
		},
		"missing property is created": {
			args:        []string{"--property", "authors", "--value", "Jane"},
			wantContent: []string{"<authors>Jane</authors>", "<version>1.0.0</version>"},
		},
		"bulk assignments": {
			args:        []string{"--set", "version=2.0.0", "--set", "tags=cli:Append", "--set", "version=2.1.0"},
			wantOut:     []string{"Set version (Replace) in ", "Set tags (Append) in "},
			wantContent: []string{"<version>2.1.0</version>", "<tags>cli</tags>"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			dir := setupWorkspace(t)
			path := writeNuspec(t, dir)

			stdout, _, err := executeCommand(t, append([]string{"nuspec", "set", path}, tt.args...)...)
			require.NoError(t, err)
			for _, want := range tt.wantOut {
				assert.Contains(t, stdout, want+path)
			}

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			for _, want := range tt.wantContent {
				assert.Contains(t, string(data), want)
			}
		})
	}
}

func TestNuspecSet_NoEdits(t *testing.T) {
	t.Run("informational without --require", func(t *testing.T) {
		dir := setupWorkspace(t)
		path := writeNuspec(t, dir)

		stdout, stderr, err := executeCommand(t, "nuspec", "set", path)
		require.NoError(t, err)
		assert.Empty(t, stdout)
		assert.Contains(t, stderr, "Info: No content provided to write to "+path)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, nuspecDoc, string(data))
	})

	t.Run("argument error with --require", func(t *testing.T) {
		dir := setupWorkspace(t)
		path := writeNuspec(t, dir)

		_, stderr, err := executeCommand(t, "nuspec", "set", path, "--require")
		require.Error(t, err)
		assert.Equal(t, ExitInvalidArguments, ExitCode(err))
		assert.Contains(t, stderr, "Give --property and --value")
	})
}

func TestNuspecSet_Errors(t *testing.T) {
	tests := map[string]struct {
		args       []string
		missing    bool
		wantExit   int
		wantStderr string
	}{
		"property and set together": {
			args:       []string{"--property", "version", "--set", "version=1.0.1"},
			wantExit:   ExitFailure,
			wantStderr: "none of the others can be",
		},
		"value with set": {
			args:       []string{"--set", "version=1.0.1", "--value", "x"},
			wantExit:   ExitInvalidArguments,
			wantStderr: "invalid flag combination: --value, --set",
		},
		"value without property": {
			args:       []string{"--value", "1.0.1"},
			wantExit:   ExitInvalidArguments,
			wantStderr: "--value requires --property",
		},
		"malformed assignment": {
			args:       []string{"--set", "version"},
			wantExit:   ExitInvalidArguments,
			wantStderr: "expected Property=Value[:Mode]",
		},
		"blank bulk value": {
			args:       []string{"--set", "version= "},
			wantExit:   ExitInvalidArguments,
			wantStderr: "property and value are both required",
		},
		"unknown section": {
			args:       []string{"--property", "version", "--value", "1.0.1", "--section", "files"},
			wantExit:   ExitFailure,
			wantStderr: "cannot update manifest",
		},
		"missing file": {
			args:       []string{"--property", "version", "--value", "1.0.1"},
			missing:    true,
			wantExit:   ExitFailure,
			wantStderr: "cannot update manifest",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			dir := setupWorkspace(t)
			path := filepath.Join(dir, "absent.nuspec")
			if !tt.missing {
				path = writeNuspec(t, dir)
			}

			_, stderr, err := executeCommand(t, append([]string{"nuspec", "set", path}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, tt.wantExit, ExitCode(err))
			assert.Contains(t, stderr, tt.wantStderr)

			if !tt.missing {
				data, err := os.ReadFile(path)
				require.NoError(t, err)
				assert.Equal(t, nuspecDoc, string(data))
			}
		})
	}
}
