//go:build mage

package main

import (
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	dataRaw      = "data/raw"
	dataCleaned  = "data/cleaned"
	dataCombined = "data/combined"
	dataIndex    = "data/index"
)

var combinedCSV = filepath.Join(dataCombined, "no_dupes.csv")

func bibclean(args ...string) error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), args...)
}

// Impute cleans every export in data/raw into data/cleaned with a report per file.
func Impute() error {
	return bibclean("impute", "--input-dir", dataRaw, "--output-dir", dataCleaned, "--report")
}

// Combine merges data/cleaned into data/combined/no_dupes.csv.
func Combine() error {
	mg.Deps(Impute)
	return bibclean("combine", "--input-dir", dataCleaned, "--output", combinedCSV)
}

// Ingest loads the combined CSV into the record store in data/index.
func Ingest() error {
	mg.Deps(Combine)
	return bibclean("store", "ingest", "--db", filepath.Join(dataIndex, "records.db"), combinedCSV)
}
