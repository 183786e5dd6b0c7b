// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package combine concatenates the cleaned per-year CSV files into one
// table and drops records with duplicate titles.
package combine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/bibclean/internal/normalize"
	"github.com/pdiddy/bibclean/internal/records"
	"github.com/pdiddy/bibclean/pkg/types"
)

// Summary holds counts from a combine run.
type Summary struct {
	Files      int
	Failed     int
	Records    int
	Duplicates int
	Written    int
}

// HasFailures reports whether any input file could not be read.
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}

// Combine reads every CSV in cfg.InputDir in name order, concatenates the
// records, removes duplicate titles, and writes cfg.OutputFile. Unreadable
// files are logged and skipped.
func Combine(ctx context.Context, cfg types.CombineConfig, log logrus.FieldLogger) (Summary, error) {
	entries, err := os.ReadDir(cfg.InputDir)
	if err != nil {
		return Summary{}, fmt.Errorf("reading input directory %s: %w", cfg.InputDir, err)
	}
	outAbs, _ := filepath.Abs(cfg.OutputFile)

	var (
		summary Summary
		all     []types.Record
	)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".csv") {
			continue
		}
		path := filepath.Join(cfg.InputDir, e.Name())
		if abs, _ := filepath.Abs(path); abs == outAbs {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		recs, err := records.ReadCSVFile(path)
		if err != nil {
			log.WithField("file", e.Name()).WithError(err).Error("skipping file")
			summary.Failed++
			continue
		}
		summary.Files++
		summary.Records += len(recs)
		all = append(all, recs...)
	}

	if summary.Files == 0 && summary.Failed == 0 {
		return summary, fmt.Errorf("no .csv files found in %s", cfg.InputDir)
	}

	deduped, removed := Deduplicate(all, cfg.NormalizeTitles)
	summary.Duplicates = removed
	summary.Written = len(deduped)

	if err := records.WriteCSVFile(cfg.OutputFile, deduped); err != nil {
		return summary, err
	}

	log.WithFields(logrus.Fields{
		"files":      summary.Files,
		"records":    summary.Records,
		"duplicates": summary.Duplicates,
		"output":     cfg.OutputFile,
	}).Info("combined files")
	return summary, nil
}

// Deduplicate keeps the first record for each title and returns the
// survivors with the number removed. Records without a title are always
// kept. With normalizeTitles, titles are compared lowercased with
// punctuation stripped.
func Deduplicate(recs []types.Record, normalizeTitles bool) ([]types.Record, int) {
	seen := make(map[string]struct{}, len(recs))
	out := make([]types.Record, 0, len(recs))
	removed := 0

	for _, r := range recs {
		key, ok := titleKey(r, normalizeTitles)
		if !ok {
			out = append(out, r)
			continue
		}
		if _, dup := seen[key]; dup {
			removed++
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out, removed
}

func titleKey(r types.Record, normalizeTitles bool) (string, bool) {
	if r.Title.Kind != types.FieldText || r.Title.Text == "" {
		return "", false
	}
	if !normalizeTitles {
		return r.Title.Text, true
	}
	key := normalize.Title(r.Title.Text)
	return key, key != ""
}
