package changelog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		lines      []string
		categories []string
		want       []string
	}{
		"empty": {
			lines: nil,
			want:  []string{},
		},
		"blank lines dropped": {
			lines: []string{"", "   ", "\t", "Fix bug", ""},
			want:  []string{"- Fix bug"},
		},
		"existing bullets kept": {
			lines: []string{"- one", "-two", "  - indented"},
			want:  []string{"- one", "-two", "  - indented"},
		},
		"bullet goes after indentation": {
			lines: []string{"Parent", "    child detail", "\tTabbed"},
			want:  []string{"- Parent", "    - child detail", "\t- Tabbed"},
		},
		"trailing whitespace trimmed": {
			lines: []string{"Fix bug   ", "- Added x\r"},
			want:  []string{"- Fix bug", "- Added x"},
		},
		"case-insensitive dedupe keeps first": {
			lines: []string{"Fix Bug", "- fix bug", "Other", "FIX BUG"},
			want:  []string{"- Fix Bug", "- Other"},
		},
		"multi-line entries are split": {
			lines: []string{"first\nsecond\n\nthird"},
			want:  []string{"- first", "- second", "- third"},
		},
		"categories group in configured order": {
			lines:      []string{"- Misc Z", "- Fixed Y", "- Added X"},
			categories: []string{"Added", "Fixed"},
			want:       []string{"- Added X", "- Fixed Y", "- Misc Z"},
		},
		"category order preserved within group": {
			lines:      []string{"Fixed b", "Added a", "Fixed c", "chore d", "Added e"},
			categories: []string{"Added", "Fixed"},
			want:       []string{"- Added a", "- Added e", "- Fixed b", "- Fixed c", "- chore d"},
		},
		"category match is case-sensitive": {
			lines:      []string{"added lower", "Added upper"},
			categories: []string{"Added"},
			want:       []string{"- Added upper", "- added lower"},
		},
		"punctuation before category is skipped": {
			lines:      []string{"* [Fixed] crash", "Added: thing"},
			categories: []string{"Added", "Fixed"},
			want:       []string{"- Added: thing", "- * [Fixed] crash"},
		},
		"empty and duplicate categories ignored": {
			lines:      []string{"Fixed a", "Added b"},
			categories: []string{"", "Fixed", "Fixed", "Added"},
			want:       []string{"- Fixed a", "- Added b"},
		},
		"category word alone": {
			lines:      []string{"Added"},
			categories: []string{"Added"},
			want:       []string{"- Added"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Format(tt.lines, tt.categories))
		})
	}
}

func TestFormat_Idempotent(t *testing.T) {
	t.Parallel()
	lines := []string{"Fix bug", "  nested", "- Added thing", "fix BUG", "", "Fixed other", "Misc"}
	categories := []string{"Fixed", "Added"}

	once := Format(lines, categories)
	twice := Format(once, categories)
	assert.Equal(t, once, twice)
}

func TestLineCategory(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		line string
		want string
	}{
		"bulleted":         {line: "- Added feature", want: "Added"},
		"indented":         {line: "    - Fixed crash", want: "Fixed"},
		"punctuation":      {line: "- [Security] patch", want: "Security"},
		"no bullet":        {line: "Changed: api", want: "Changed"},
		"only punctuation": {line: "- ---", want: ""},
		"underscore word":  {line: "- snake_case thing", want: "snake_case"},
		"unicode letters":  {line: "- Añadido algo", want: "A"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, LineCategory(tt.line))
		})
	}
}

func TestParseCategories(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"Added", "Fixed", "Misc"}, ParseCategories("Added; Fixed;;Misc;"))
	assert.Nil(t, ParseCategories(""))
}

func TestFormatText(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "- Added a\n- b", FormatText("b\n\nAdded a\nB", []string{"Added"}))
}
