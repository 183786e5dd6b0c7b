// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package batch runs the imputation stage over a directory of per-year
// JSON exports, one file at a time.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/bibclean/internal/impute"
	"github.com/pdiddy/bibclean/internal/records"
	"github.com/pdiddy/bibclean/pkg/types"
)

// Output file suffixes appended to the input base name.
const (
	CleanedCSVSuffix  = "_cleaned.csv"
	CleanedXLSXSuffix = "_cleaned.xlsx"
	ReportSuffix      = "_report.yaml"
)

// ErrNoInputs is returned when the input directory holds no JSON exports.
var ErrNoInputs = errors.New("no .json files found")

// Result holds the outcome of a batch run.
type Result struct {
	Processed int
	Failed    int
	Files     []FileResult
}

// FileResult records what happened to one input file.
type FileResult struct {
	Input  string
	Output string
	Report impute.Report
	Err    error
}

// Total returns the number of files attempted.
func (r Result) Total() int {
	return r.Processed + r.Failed
}

// HasFailures reports whether any file failed.
func (r Result) HasFailures() bool {
	return r.Failed > 0
}

// FileReport is the YAML document written next to each cleaned CSV.
type FileReport struct {
	Source      string        `yaml:"source"`
	Output      string        `yaml:"output"`
	GeneratedAt time.Time     `yaml:"generated_at"`
	Imputation  impute.Report `yaml:"imputation"`
}

// Inputs lists the JSON exports in dir in name order.
func Inputs(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("input directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("input path %s is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading input directory %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !records.IsInput(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoInputs, dir)
	}
	return paths, nil
}

// Run imputes every JSON export in cfg.InputDir and writes the cleaned
// files to cfg.OutputDir. A file that cannot be read, parsed, or written is
// logged and counted as failed; the run continues with the next file.
func Run(ctx context.Context, cfg types.ImputeConfig, log logrus.FieldLogger) (Result, error) {
	inputs, err := Inputs(cfg.InputDir)
	if err != nil {
		return Result{}, err
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("creating output directory: %w", err)
	}

	var result Result
	for _, path := range inputs {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		flog := log.WithField("file", filepath.Base(path))
		flog.Info("processing file")

		fr := ProcessFile(path, cfg, flog)
		result.Files = append(result.Files, fr)
		if fr.Err != nil {
			flog.WithError(fr.Err).Error("skipping file")
			result.Failed++
			continue
		}
		flog.WithField("output", fr.Output).Info("cleaned data saved")
		result.Processed++
	}

	log.WithFields(logrus.Fields{
		"processed": result.Processed,
		"failed":    result.Failed,
		"output":    cfg.OutputDir,
	}).Info("all files processed")
	return result, nil
}

// ProcessFile imputes one export and writes its outputs.
func ProcessFile(path string, cfg types.ImputeConfig, log logrus.FieldLogger) FileResult {
	fr := FileResult{Input: path}

	recs, err := records.LoadFile(path)
	if err != nil {
		fr.Err = err
		return fr
	}

	cleaned, report := impute.Run(recs, impute.OptionsFromConfig(cfg), log)
	fr.Report = report

	base := records.BaseName(path)
	fr.Output = filepath.Join(cfg.OutputDir, base+CleanedCSVSuffix)
	if err := records.WriteCSVFile(fr.Output, cleaned); err != nil {
		fr.Err = err
		return fr
	}

	if cfg.WriteXLSX {
		if err := records.WriteXLSXFile(filepath.Join(cfg.OutputDir, base+CleanedXLSXSuffix), cleaned); err != nil {
			fr.Err = err
			return fr
		}
	}

	if cfg.WriteReport {
		if err := writeReport(filepath.Join(cfg.OutputDir, base+ReportSuffix), FileReport{
			Source:      path,
			Output:      fr.Output,
			GeneratedAt: time.Now().UTC(),
			Imputation:  report,
		}); err != nil {
			fr.Err = err
			return fr
		}
	}
	return fr
}

func writeReport(path string, rep FileReport) error {
	data, err := yaml.Marshal(&rep)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report %s: %w", path, err)
	}
	return nil
}
