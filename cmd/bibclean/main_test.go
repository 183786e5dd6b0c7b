// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/bibclean/pkg/types"
)

func TestNewLogger(t *testing.T) {
	l, err := newLogger(types.LogConfig{})
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, l.Formatter)

	l, err = newLogger(types.LogConfig{Level: "debug", Format: "json"})
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, l.Formatter)

	_, err = newLogger(types.LogConfig{Level: "loud"})
	assert.Error(t, err)
	_, err = newLogger(types.LogConfig{Format: "xml"})
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, loadDotEnv(filepath.Join(dir, "missing.env")))

	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("BIBCLEAN_TEST_DOTENV=from-file\n"), 0o644))
	t.Setenv("BIBCLEAN_TEST_DOTENV", "")
	os.Unsetenv("BIBCLEAN_TEST_DOTENV")

	require.NoError(t, loadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("BIBCLEAN_TEST_DOTENV"))
}

func TestCSVPaths(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.csv", "a.csv", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	paths, err := csvPaths([]string{dir, "extra.csv"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.csv"),
		filepath.Join(dir, "b.csv"),
		"extra.csv",
	}, paths)

	_, err = csvPaths([]string{t.TempDir()})
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd...", truncate("abcdefghij", 7))
}
