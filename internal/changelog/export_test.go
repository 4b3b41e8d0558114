package changelog

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/ariel-frischer/gitchangelog/internal/git"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func exportRecords() []Record {
	return []Record{
		Tagged(git.Tag{Sequence: 0, Name: "v1", Commit: commitA}, []string{"Initial"}),
		Pending(1, commitC, []string{"Fixed crash", "Added thing"}),
	}
}

func TestParseExportFormat(t *testing.T) {
	tests := map[string]struct {
		input   string
		want    ExportFormat
		wantErr bool
	}{
		"yaml":    {input: "yaml", want: ExportYAML},
		"yml":     {input: "YML", want: ExportYAML},
		"default": {input: "", want: ExportYAML},
		"json":    {input: "json", want: ExportJSON},
		"toml":    {input: "toml", wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := ParseExportFormat(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExport_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, exportRecords(), []string{"Added"}, ExportYAML))

	var doc ExportDocument
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.Versions, 2)
	assert.Equal(t, ExportVersion{
		Name:     NextVersionName,
		Sequence: 1,
		Commit:   commitC,
		Pending:  true,
		Lines:    []string{"Added thing", "Fixed crash"},
	}, doc.Versions[0])
	assert.Equal(t, "v1", doc.Versions[1].Name)
	assert.False(t, doc.Versions[1].Pending)
}

func TestExport_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, exportRecords(), nil, ExportJSON))
	assert.True(t, strings.HasPrefix(buf.String(), "{\n  \"versions\""))

	var doc ExportDocument
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.Versions, 2)
	assert.Equal(t, []string{"Fixed crash", "Added thing"}, doc.Versions[0].Lines)
}

func TestExport_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	require.Error(t, Export(&buf, exportRecords(), nil, ExportFormat("xml")))
}

func TestDiff(t *testing.T) {
	t.Run("equal content", func(t *testing.T) {
		got, err := Diff("CHANGELOG.txt", "same\n", "same\n")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("changed line", func(t *testing.T) {
		got, err := Diff("CHANGELOG.txt", "[v1]\n- old\n", "[v1]\n- new\n")
		require.NoError(t, err)
		assert.Contains(t, got, "--- a/CHANGELOG.txt")
		assert.Contains(t, got, "+++ b/CHANGELOG.txt")
		assert.Contains(t, got, "-- old")
		assert.Contains(t, got, "+- new")
	})
}
