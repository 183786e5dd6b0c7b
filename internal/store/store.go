// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists cleaned records in SQLite so they can be
// filtered, summarized by institution, and exported without re-reading
// the CSV files.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/segmentio/encoding/json"
	"github.com/sirupsen/logrus"

	"github.com/pdiddy/bibclean/internal/records"
	"github.com/pdiddy/bibclean/pkg/types"
)

const defaultMaxResults = 20

// Store manages the record database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// Open opens or creates the database at cfg.DBPath and creates the schema
// if it does not exist.
func Open(cfg types.StoreConfig) (*Store, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("store: database path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS ingest_runs (
			source TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			file_mod_time TEXT NOT NULL,
			records INTEGER NOT NULL,
			ingested_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source TEXT NOT NULL REFERENCES ingest_runs(source) ON DELETE CASCADE,
			row INTEGER NOT NULL,
			title TEXT,
			authors TEXT,
			institution TEXT,
			city TEXT,
			country TEXT,
			keywords TEXT,
			date TEXT,
			UNIQUE(source, row)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_source ON records(source)`,
		`CREATE INDEX IF NOT EXISTS idx_records_date ON records(date)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// IngestSummary holds counts from an ingest run.
type IngestSummary struct {
	Ingested int
	Updated  int
	Skipped  int
	Failed   int
	Records  int
}

// Total returns the number of files processed.
func (s IngestSummary) Total() int {
	return s.Ingested + s.Updated + s.Skipped + s.Failed
}

// Run describes the last ingest of one source file.
type Run struct {
	Source     string `json:"source" yaml:"source"`
	RunID      string `json:"run_id" yaml:"run_id"`
	ModTime    string `json:"file_mod_time" yaml:"file_mod_time"`
	Records    int    `json:"records" yaml:"records"`
	IngestedAt string `json:"ingested_at" yaml:"ingested_at"`
}

// Ingest loads each cleaned or combined CSV into the database. A file whose
// modification time matches its last ingest is skipped; a changed file
// replaces the rows it contributed before. Unreadable files are logged and
// counted as failed.
func (s *Store) Ingest(ctx context.Context, paths []string, log logrus.FieldLogger) (IngestSummary, error) {
	var summary IngestSummary

	for _, path := range paths {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		flog := log.WithField("file", filepath.Base(path))

		source, err := filepath.Abs(path)
		if err != nil {
			flog.WithError(err).Error("ingest failed")
			summary.Failed++
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			flog.WithError(err).Error("ingest failed")
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM ingest_runs WHERE source = ?`, source,
		).Scan(&storedModTime)
		if err == nil && storedModTime == modTime {
			flog.Debug("unchanged, skipping")
			summary.Skipped++
			continue
		}
		isUpdate := err == nil

		recs, err := records.ReadCSVFile(path)
		if err != nil {
			flog.WithError(err).Error("ingest failed")
			summary.Failed++
			continue
		}

		runID := uuid.NewString()
		if err := s.ingestFile(ctx, source, runID, modTime, recs); err != nil {
			flog.WithError(err).Error("ingest failed")
			summary.Failed++
			continue
		}

		flog.WithFields(logrus.Fields{
			"records": len(recs),
			"run_id":  runID,
			"update":  isUpdate,
		}).Info("ingested file")
		summary.Records += len(recs)
		if isUpdate {
			summary.Updated++
		} else {
			summary.Ingested++
		}
	}

	return summary, nil
}

func (s *Store) ingestFile(ctx context.Context, source, runID, modTime string, recs []types.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO ingest_runs (source, run_id, file_mod_time, records, ingested_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(source) DO UPDATE SET
			run_id=excluded.run_id, file_mod_time=excluded.file_mod_time,
			records=excluded.records, ingested_at=excluded.ingested_at`,
		source, runID, modTime, len(recs), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording ingest run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE source = ?`, source); err != nil {
		return fmt.Errorf("deleting old records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (source, row, title, authors, institution, city, country, keywords, date)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range recs {
		args := []any{source, i, scalarValue(r.Title)}
		for _, f := range []types.Field{r.Authors, r.Institution, r.City, r.Country, r.Keywords} {
			v, err := listValue(f)
			if err != nil {
				return fmt.Errorf("encoding row %d: %w", i, err)
			}
			args = append(args, v)
		}
		args = append(args, scalarValue(r.Date))

		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("inserting row %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// Runs lists the most recent ingest of every source, ordered by source.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source, run_id, file_mod_time, records, ingested_at
		 FROM ingest_runs ORDER BY source`)
	if err != nil {
		return nil, fmt.Errorf("listing ingest runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.Source, &r.RunID, &r.ModTime, &r.Records, &r.IngestedAt); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// scalarValue stores a title or date as its CSV cell text, NULL when missing.
func scalarValue(f types.Field) any {
	if f.IsMissing() {
		return nil
	}
	return records.Cell(f)
}

// listValue stores a list column as JSON so json_each can filter on it.
// Text values become a JSON string; missing values become NULL.
func listValue(f types.Field) (any, error) {
	switch f.Kind {
	case types.FieldMissing:
		return nil, nil
	case types.FieldText:
		if f.Text == "" {
			return nil, nil
		}
	}
	data, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}
