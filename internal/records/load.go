// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package records reads per-year JSON exports and reads and writes the
// cleaned CSV files consumed by the dashboard.
package records

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/pgzip"
	"github.com/segmentio/encoding/json"

	"github.com/pdiddy/bibclean/pkg/types"
)

// Input file suffixes accepted by LoadFile.
const (
	JSONExt   = ".json"
	GzipExt   = ".gz"
	JSONGzExt = JSONExt + GzipExt
)

// IsInput reports whether name is a JSON export (plain or gzip-compressed).
func IsInput(name string) bool {
	return strings.HasSuffix(name, JSONExt) || strings.HasSuffix(name, JSONGzExt)
}

// BaseName strips the directory and the .json or .json.gz suffix.
func BaseName(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, GzipExt)
	return strings.TrimSuffix(name, JSONExt)
}

// LoadFile reads a JSON array of records from path, decompressing files
// ending in .gz.
func LoadFile(path string) ([]types.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, GzipExt) {
		zr, err := pgzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("opening gzip stream %s: %w", path, err)
		}
		defer zr.Close()
		r = zr
	}

	recs, err := Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return recs, nil
}

// Decode reads a JSON array of records.
func Decode(r io.Reader) ([]types.Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var recs []types.Record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}
