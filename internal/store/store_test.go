// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/encoding/json"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/bibclean/internal/records"
	"github.com/pdiddy/bibclean/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(types.StoreConfig{
		DBPath:     filepath.Join(t.TempDir(), "index", "records.db"),
		MaxResults: 20,
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRecords() []types.Record {
	return []types.Record{
		{
			Title:       types.Text("Deep Learning for Vision"),
			Authors:     types.List("Alice"),
			Institution: types.List("MIT"),
			City:        types.List("Cambridge"),
			Country:     types.List("United States"),
			Keywords:    types.List("deep learning", "vision"),
			Date:        types.Text("2018-03-01"),
		},
		{
			Title:       types.Text("Graph Theory 100%"),
			Authors:     types.List("Bob", "Carol"),
			Institution: types.List("MIT", "ETH Zurich"),
			City:        types.List("Cambridge", "Zurich"),
			Country:     types.List("United States", "Switzerland"),
			Keywords:    types.List("graphs", "deep learning"),
			Date:        types.Text("2019-01-15"),
		},
		{
			Title:       types.Text("Quantum Optics"),
			Authors:     types.List("Dave"),
			Institution: types.List("ETH Zurich"),
			Keywords:    types.List("optics"),
		},
	}
}

func writeCSV(t *testing.T, dir, name string, recs []types.Record) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, records.WriteCSVFile(path, recs))
	return path
}

func ingestSample(t *testing.T, s *Store) string {
	t.Helper()
	path := writeCSV(t, t.TempDir(), "2018_cleaned.csv", sampleRecords())
	log, _ := logtest.NewNullLogger()
	summary, err := s.Ingest(context.Background(), []string{path}, log)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Ingested)
	return path
}

// --- tests ---

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(types.StoreConfig{})
	assert.Error(t, err)
}

func TestIngest(t *testing.T) {
	s := testStore(t)
	path := ingestSample(t, s)

	runs, err := s.Runs(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)

	abs, _ := filepath.Abs(path)
	assert.Equal(t, abs, runs[0].Source)
	assert.Equal(t, 3, runs[0].Records)
	_, err = uuid.Parse(runs[0].RunID)
	assert.NoError(t, err)
}

func TestIngestSkipsUnchanged(t *testing.T) {
	s := testStore(t)
	path := ingestSample(t, s)
	log, _ := logtest.NewNullLogger()

	summary, err := s.Ingest(context.Background(), []string{path}, log)
	require.NoError(t, err)
	assert.Equal(t, IngestSummary{Skipped: 1}, summary)
}

func TestIngestReplacesChanged(t *testing.T) {
	s := testStore(t)
	path := ingestSample(t, s)
	log, _ := logtest.NewNullLogger()

	before, err := s.Runs(context.Background())
	require.NoError(t, err)

	require.NoError(t, records.WriteCSVFile(path, sampleRecords()[:1]))
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	summary, err := s.Ingest(context.Background(), []string{path}, log)
	require.NoError(t, err)
	assert.Equal(t, IngestSummary{Updated: 1, Records: 1}, summary)

	entries, err := s.Query(context.Background(), QueryOptions{})
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	after, err := s.Runs(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, before[0].RunID, after[0].RunID)
}

func TestIngestCountsFailures(t *testing.T) {
	s := testStore(t)
	log, hook := logtest.NewNullLogger()

	summary, err := s.Ingest(context.Background(), []string{filepath.Join(t.TempDir(), "missing.csv")}, log)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Total())
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "missing.csv", hook.LastEntry().Data["file"])
}

func TestIngestStopsOnCancel(t *testing.T) {
	s := testStore(t)
	log, _ := logtest.NewNullLogger()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Ingest(ctx, []string{"a.csv"}, log)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestQuery(t *testing.T) {
	s := testStore(t)
	ingestSample(t, s)

	tests := []struct {
		name   string
		opts   QueryOptions
		titles []string
	}{
		{"no filters", QueryOptions{}, []string{"Deep Learning for Vision", "Graph Theory 100%", "Quantum Optics"}},
		{"title substring", QueryOptions{Title: "GRAPH"}, []string{"Graph Theory 100%"}},
		{"title wildcard is literal", QueryOptions{Title: "100%"}, []string{"Graph Theory 100%"}},
		{"title underscore is literal", QueryOptions{Title: "_"}, nil},
		{"institution", QueryOptions{Institution: "eth zurich"}, []string{"Graph Theory 100%", "Quantum Optics"}},
		{"keyword", QueryOptions{Keyword: "Deep Learning"}, []string{"Deep Learning for Vision", "Graph Theory 100%"}},
		{"country", QueryOptions{Country: "Switzerland"}, []string{"Graph Theory 100%"}},
		{"date prefix", QueryOptions{DatePrefix: "2019"}, []string{"Graph Theory 100%"}},
		{"combined", QueryOptions{Institution: "MIT", DatePrefix: "2018"}, []string{"Deep Learning for Vision"}},
		{"max results", QueryOptions{MaxResults: 1}, []string{"Deep Learning for Vision"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := s.Query(context.Background(), tt.opts)
			require.NoError(t, err)
			var titles []string
			for _, e := range entries {
				titles = append(titles, e.Title)
			}
			assert.Equal(t, tt.titles, titles)
		})
	}
}

func TestQueryDecodesLists(t *testing.T) {
	s := testStore(t)
	ingestSample(t, s)

	entries, err := s.Query(context.Background(), QueryOptions{Title: "quantum"})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, 2, e.Row)
	assert.Equal(t, []string{"Dave"}, e.Authors)
	assert.Equal(t, []string{"ETH Zurich"}, e.Institution)
	assert.Nil(t, e.City)
	assert.Empty(t, e.Date)
}

func TestQueryOptionsIsEmpty(t *testing.T) {
	assert.True(t, QueryOptions{MaxResults: 5}.IsEmpty())
	assert.False(t, QueryOptions{Keyword: "x"}.IsEmpty())
}

func TestTopics(t *testing.T) {
	s := testStore(t)
	ingestSample(t, s)

	topics, err := s.Topics(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Equal(t, []Topic{
		{Institution: "ETH Zurich", Keyword: "deep learning", Count: 1},
		{Institution: "ETH Zurich", Keyword: "graphs", Count: 1},
		{Institution: "ETH Zurich", Keyword: "optics", Count: 1},
		{Institution: "MIT", Keyword: "deep learning", Count: 2},
		{Institution: "MIT", Keyword: "graphs", Count: 1},
		{Institution: "MIT", Keyword: "vision", Count: 1},
	}, topics)

	topics, err = s.Topics(context.Background(), "mit", 1)
	require.NoError(t, err)
	assert.Equal(t, []Topic{{Institution: "MIT", Keyword: "deep learning", Count: 2}}, topics)
}

func TestExport(t *testing.T) {
	s := testStore(t)
	ingestSample(t, s)
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "out", "export.yaml")
	require.NoError(t, s.ExportYAML(context.Background(), yamlPath, QueryOptions{Institution: "MIT"}))
	data, err := os.ReadFile(yamlPath)
	require.NoError(t, err)
	var fromYAML []Entry
	require.NoError(t, yaml.Unmarshal(data, &fromYAML))
	require.Len(t, fromYAML, 2)
	assert.Equal(t, []string{"Bob", "Carol"}, fromYAML[1].Authors)

	jsonPath := filepath.Join(dir, "export.json")
	require.NoError(t, s.ExportJSON(context.Background(), jsonPath, QueryOptions{Keyword: "none"}))
	data, err = os.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))

	require.NoError(t, s.ExportJSON(context.Background(), jsonPath, QueryOptions{Country: "switzerland"}))
	data, err = os.ReadFile(jsonPath)
	require.NoError(t, err)
	var fromJSON []Entry
	require.NoError(t, json.Unmarshal(data, &fromJSON))
	require.Len(t, fromJSON, 1)
	assert.Equal(t, "Graph Theory 100%", fromJSON[0].Title)
}
