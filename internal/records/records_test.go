// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package records

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/bibclean/pkg/types"
)

const sampleExport = `[
  {
    "Previous File": "raw/2018/abc.json",
    "Title": "Graph Theory",
    "Authors": ["Alice Smith", "Bob Jones"],
    "Institution": ["MIT", "Not Available"],
    "City": ["Cambridge"],
    "Country": ["United States"],
    "Keywords": ["graphs"],
    "Date": "2018-01-01"
  },
  {
    "Title": null,
    "Authors": "Carol",
    "Institution": [],
    "Keywords": ["a", null],
    "Date": 2018
  }
]`

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// --- loading ---

func TestLoadFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "2018.json", []byte(sampleExport))

	recs, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, types.Text("Graph Theory"), recs[0].Title)
	assert.Equal(t, []string{"Alice Smith", "Bob Jones"}, recs[0].Authors.Items)
	assert.Equal(t, []string{"MIT", "Not Available"}, recs[0].Institution.Items)

	assert.True(t, recs[1].Title.IsMissing())
	assert.Equal(t, types.Text("Carol"), recs[1].Authors)
	assert.True(t, recs[1].Institution.IsList())
	assert.Empty(t, recs[1].Institution.Items)
	assert.True(t, recs[1].City.IsMissing(), "absent key decodes as missing")
	assert.Equal(t, []string{"a", ""}, recs[1].Keywords.Items)
	assert.Equal(t, types.FieldOther, recs[1].Date.Kind)
}

func TestLoadFileGzip(t *testing.T) {
	var buf bytes.Buffer
	zw := pgzip.NewWriter(&buf)
	_, err := zw.Write([]byte(sampleExport))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	path := writeFile(t, t.TempDir(), "2018.json.gz", buf.Bytes())
	recs, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := writeFile(t, dir, "bad.json", []byte(`{"Title": `))
	_, err = LoadFile(bad)
	assert.Error(t, err)

	notArray := writeFile(t, dir, "object.json", []byte(`{"Title": "x"}`))
	_, err = LoadFile(notArray)
	assert.Error(t, err)
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "2018", BaseName("/data/raw/2018.json"))
	assert.Equal(t, "2019", BaseName("2019.json.gz"))
	assert.True(t, IsInput("2018.json"))
	assert.True(t, IsInput("2018.json.gz"))
	assert.False(t, IsInput("2018.csv"))
}

// --- list literals ---

func TestFormatList(t *testing.T) {
	tests := []struct {
		name  string
		items []string
		want  string
	}{
		{"empty", []string{}, "[]"},
		{"single", []string{"MIT"}, "['MIT']"},
		{"several", []string{"MIT", "Stanford University"}, "['MIT', 'Stanford University']"},
		{"apostrophe switches quotes", []string{"King's College"}, `["King's College"]`},
		{"both quotes escapes single", []string{`a'b"c`}, `['a\'b"c']`},
		{"backslash and control", []string{"a\\b\tc\nd"}, `['a\\b\tc\nd']`},
		{"non-ascii printable kept", []string{"Universität Zürich"}, "['Universität Zürich']"},
		{"non-breaking space escaped", []string{"a\u00a0b"}, `['a\xa0b']`},
		{"zero width space escaped", []string{"a\u200bb"}, `['a\u200bb']`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatList(tt.items))
		})
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"bool", `true`, "True"},
		{"null", `null`, "None"},
		{"integer", `2018`, "2018"},
		{"float", `1.5`, "1.5"},
		{"whole float", `2.0`, "2.0"},
		{"exponent", `1e5`, "100000.0"},
		{"small float", `0.00001`, "1e-05"},
		{"large float", `1e16`, "1e+16"},
		{"string", `"King's"`, `"King's"`},
		{"object", `{"a": 1}`, "{'a': 1}"},
		{"object keeps key order", `{"z":1,"a":[true,null]}`, "{'z': 1, 'a': [True, None]}"},
		{"nested list", `[["a"]]`, "[['a']]"},
		{"separators inside strings", `["a,b", {"k:v": "}"}]`, "['a,b', {'k:v': '}'}]"},
		{"empty containers", `[[], {}]`, "[[], {}]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatValue([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := FormatValue([]byte(`{"a":`))
	assert.Error(t, err)
}

func TestCellWritesOtherShapesAsLiterals(t *testing.T) {
	assert.Equal(t, "{'a': 1}", Cell(types.Field{Kind: types.FieldOther, Raw: []byte(`{"a": 1}`)}))
	assert.Equal(t, "[['a']]", Cell(types.Field{Kind: types.FieldOther, Raw: []byte(`[["a"]]`)}))
	assert.Equal(t, "False", Cell(types.Field{Kind: types.FieldOther, Raw: []byte(`false`)}))
}

func TestParseListReadsFormatList(t *testing.T) {
	items := []string{"MIT", "King's College", `a'b"c`, "tab\there", "Zürich", "a\u00a0b", ""}
	got, err := ParseList(FormatList(items))
	require.NoError(t, err)
	assert.Equal(t, items, got)
}

func TestParseList(t *testing.T) {
	got, err := ParseList(` [ 'a' ,"b", ] `)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)

	got, err = ParseList("[]")
	require.NoError(t, err)
	assert.Empty(t, got)

	for _, bad := range []string{"", "MIT", "['a'", "['a' 'b']", "[1, 2]", "['a'] x", `['a\`} {
		_, err := ParseList(bad)
		assert.ErrorIs(t, err, ErrNotList, "input %q", bad)
	}
}

// --- CSV ---

func sampleRecords() []types.Record {
	return []types.Record{
		{
			Title:       types.Text("Graph Theory, Revisited"),
			Authors:     types.List("Alice", "Bob"),
			Institution: types.List("MIT"),
			City:        types.Missing(),
			Country:     types.List("United States"),
			Keywords:    types.List("graphs"),
			Date:        types.Text("2018-01-01"),
		},
		{
			Title:       types.Text("King's Notes"),
			Authors:     types.List("Carol"),
			Institution: types.List("King's College"),
			Country:     types.List(),
			Keywords:    types.List("history"),
			Date:        types.Field{Kind: types.FieldOther, Raw: []byte("true")},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRecords()))

	want := strings.Join([]string{
		"Title,Authors,Institution,City,Country,Keywords,Date",
		`"Graph Theory, Revisited","['Alice', 'Bob']",['MIT'],,['United States'],['graphs'],2018-01-01`,
		`King's Notes,['Carol'],"[""King's College""]",,[],['history'],True`,
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestReadCSVFileReadsWriteCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "2018_cleaned.csv")
	require.NoError(t, WriteCSVFile(path, sampleRecords()))

	recs, err := ReadCSVFile(path)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, types.Text("Graph Theory, Revisited"), recs[0].Title)
	assert.Equal(t, types.List("Alice", "Bob"), recs[0].Authors)
	assert.True(t, recs[0].City.IsMissing())
	assert.Equal(t, types.List("King's College"), recs[1].Institution)
	assert.Equal(t, types.List(), recs[1].Country)
	assert.Equal(t, types.Text("True"), recs[1].Date)
}

func TestReadCSVMatchesColumnsByName(t *testing.T) {
	in := "\ufeffKeywords,Extra,Title\n['x'],ignored,[Draft] Notes\n"
	recs, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, types.List("x"), recs[0].Keywords)
	assert.Equal(t, types.Text("[Draft] Notes"), recs[0].Title)
	assert.True(t, recs[0].Authors.IsMissing())
}

func TestReadCSVEmpty(t *testing.T) {
	recs, err := ReadCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, recs)
}

// --- XLSX ---

func TestWriteXLSXFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "2018_cleaned.xlsx")
	require.NoError(t, WriteXLSXFile(path, sampleRecords()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue(SheetName, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Title", header)

	authors, err := f.GetCellValue(SheetName, "B2")
	require.NoError(t, err)
	assert.Equal(t, "['Alice', 'Bob']", authors)

	inst, err := f.GetCellValue(SheetName, "C3")
	require.NoError(t, err)
	assert.Equal(t, `["King's College"]`, inst)
}
