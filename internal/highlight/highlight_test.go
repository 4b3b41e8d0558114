package highlight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		source     string
		language   string
		opts       Options
		wantPlain  bool
		noEscapeOK bool
	}{
		"disabled copies input": {
			source:    "versions:\n  - name: 1.0.0\n",
			language:  "yaml",
			wantPlain: true,
		},
		"empty source": {
			language:  "json",
			opts:      Options{Enabled: true},
			wantPlain: true,
		},
		"yaml": {
			source:   "versions:\n  - name: 1.0.0\n",
			language: "yaml",
			opts:     Options{Enabled: true},
		},
		"json true color": {
			source:   `{"versions": [{"name": "1.0.0"}]}`,
			language: "json",
			opts:     Options{Enabled: true, TrueColor: true},
		},
		"diff with unknown style": {
			source:   "--- a/CHANGELOG.txt\n+++ b/CHANGELOG.txt\n@@ -1 +1 @@\n-old\n+new\n",
			language: "diff",
			opts:     Options{Enabled: true, Style: "no-such-style"},
		},
		"unknown language": {
			source:     "plain text",
			language:   "no-such-language",
			opts:       Options{Enabled: true},
			noEscapeOK: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got, err := String(tt.source, tt.language, tt.opts)
			require.NoError(t, err)
			if tt.wantPlain {
				assert.Equal(t, tt.source, got)
				return
			}
			if tt.noEscapeOK {
				assert.Contains(t, got, "plain text")
				return
			}
			assert.Contains(t, got, "\x1b[")
		})
	}
}
