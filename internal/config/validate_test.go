package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateYAMLSyntax(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		content  string
		missing  bool
		wantErr  bool
		wantLine int
	}{
		"valid": {
			content: "remote: origin\ncategories: [Fix]\n",
		},
		"empty file": {
			content: "  \n",
		},
		"missing file": {
			missing: true,
		},
		"mapping in scalar context": {
			content:  "remote: origin\nbranch: main: extra\n",
			wantErr:  true,
			wantLine: 2,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			path := filepath.Join(t.TempDir(), "config.yml")
			if !tt.missing {
				require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			}

			err := ValidateYAMLSyntax(path)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, path, vErr.FilePath)
			assert.Equal(t, tt.wantLine, vErr.Line)
		})
	}
}

func TestValidateConfigValues(t *testing.T) {
	t.Parallel()

	valid := func() *Configuration {
		return &Configuration{
			GitExecutable:     "git",
			ChangelogFile:     "CHANGELOG.txt",
			MaxHistoryEntries: 10,
		}
	}

	tests := map[string]struct {
		mutate    func(*Configuration)
		wantField string
	}{
		"valid": {
			mutate: func(*Configuration) {},
		},
		"missing git executable": {
			mutate:    func(c *Configuration) { c.GitExecutable = "" },
			wantField: "git_executable",
		},
		"nuspec without section": {
			mutate:    func(c *Configuration) { c.NuspecFile = "pkg.nuspec" },
			wantField: "nuspec_section",
		},
		"history limit below minimum": {
			mutate:    func(c *Configuration) { c.MaxHistoryEntries = 0 },
			wantField: "max_history_entries",
		},
		"negative timeout": {
			mutate:    func(c *Configuration) { c.Timeout = -time.Second },
			wantField: "timeout",
		},
		"negative debounce": {
			mutate:    func(c *Configuration) { c.WatchDebounce = -1 },
			wantField: "watch_debounce",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			cfg := valid()
			tt.mutate(cfg)

			err := ValidateConfigValues(cfg, "config.yml")
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.wantField, vErr.Field)
			assert.Contains(t, vErr.Error(), "field '"+tt.wantField+"'")
		})
	}
}

func TestYAMLPosition(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		msg        string
		wantLine   int
		wantColumn int
		wantMsg    string
	}{
		"line only": {
			msg:        "yaml: line 5: could not find expected ':'",
			wantLine:   5,
			wantColumn: 1,
			wantMsg:    "could not find expected ':'",
		},
		"line and column": {
			msg:        "yaml: line 3: column 7: did not find expected key",
			wantLine:   3,
			wantColumn: 7,
			wantMsg:    "did not find expected key",
		},
		"no position": {
			msg:     "yaml: control characters are not allowed",
			wantMsg: "control characters are not allowed",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			line, column, msg := yamlPosition(tt.msg)
			assert.Equal(t, tt.wantLine, line)
			assert.Equal(t, tt.wantColumn, column)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}

func TestValidateValue(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		key     string
		value   string
		want    interface{}
		wantErr bool
	}{
		"bool":         {key: "debug", value: "TRUE", want: true},
		"int":          {key: "max_history_entries", value: "20", want: 20},
		"duration":     {key: "watch_debounce", value: "2s", want: "2s"},
		"list":         {key: "categories", value: "Fix, Add;Change", want: []string{"Fix", "Add", "Change"}},
		"string":       {key: "ref", value: "!(latestTag)", want: "!(latestTag)"},
		"bad bool":     {key: "debug", value: "yes", wantErr: true},
		"bad duration": {key: "timeout", value: "soon", wantErr: true},
		"unknown key":  {key: "nope", value: "x", wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got, err := ValidateValue(tt.key, tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Parsed)
		})
	}
}

func TestKnownKeysMatchDefaults(t *testing.T) {
	t.Parallel()
	defaults := GetDefaults()
	assert.Len(t, KnownKeys, len(defaults))
	for _, key := range SortedKeys() {
		_, ok := defaults[key]
		assert.True(t, ok, "key %s has no default", key)
	}
}
