// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package impute fills missing institutions, keywords, dates, and
// locations in a file of bibliographic records using cross-record
// inference.
//
// Imputation is two-phase. The author and location indexes, the title
// similarity matrix, and the fallback modes are all derived from the
// normalized input before any record is changed, and every pass reads only
// that frozen state. The result therefore does not depend on record order.
package impute

import (
	"time"

	"github.com/araddon/dateparse"
	"github.com/sirupsen/logrus"

	"github.com/pdiddy/bibclean/internal/normalize"
	"github.com/pdiddy/bibclean/pkg/types"
)

// Source records how a field got its value.
type Source int

const (
	// SourceOriginal means the field already had a value.
	SourceOriginal Source = iota
	// SourceIndex means the value came from the author or location index.
	SourceIndex
	// SourceDonor means keywords were copied from the most similar record.
	SourceDonor
	// SourceFallback means the dataset-wide mode was used.
	SourceFallback
	// SourceNone means nothing could be inferred.
	SourceNone
)

// Options controls the imputation passes.
type Options struct {
	// MaxFeatures limits the title vocabulary (0 = unlimited).
	MaxFeatures int

	// KeywordMinSimilarity skips donors scoring below it.
	KeywordMinSimilarity float64

	// FoldCase lowercases and trims institutions and keywords.
	FoldCase bool

	// ImputeLocations enables the City and Country passes.
	ImputeLocations bool

	// DateLayout rewrites parseable dates in this layout when set.
	DateLayout string
}

// OptionsFromConfig maps the stage configuration onto imputation options.
func OptionsFromConfig(cfg types.ImputeConfig) Options {
	return Options{
		MaxFeatures:          cfg.MaxFeatures,
		KeywordMinSimilarity: cfg.KeywordMinSimilarity,
		FoldCase:             cfg.FoldCase,
		ImputeLocations:      cfg.ImputeLocations,
		DateLayout:           cfg.DateLayout,
	}
}

// Fallbacks holds the dataset-wide modes used by a run.
type Fallbacks struct {
	Institution Fallback `yaml:"institution"`
	Keyword     Fallback `yaml:"keyword"`
	Date        Fallback `yaml:"date"`
	City        Fallback `yaml:"city"`
	Country     Fallback `yaml:"country"`
}

// Report counts what each pass changed.
type Report struct {
	Records                  int       `yaml:"records"`
	InstitutionsFromAuthors  int       `yaml:"institutions_from_authors"`
	InstitutionsFromFallback int       `yaml:"institutions_from_fallback"`
	KeywordsFromDonors       int       `yaml:"keywords_from_donors"`
	KeywordsFromFallback     int       `yaml:"keywords_from_fallback"`
	DatesFilled              int       `yaml:"dates_filled"`
	CitiesFilled             int       `yaml:"cities_filled"`
	CountriesFilled          int       `yaml:"countries_filled"`
	Fallbacks                Fallbacks `yaml:"fallbacks"`
}

// ImputeInstitution returns the record's institutions unchanged when it has
// any. Otherwise it returns the union of the indexed institutions of its
// authors, then the fallback. With neither, the empty list is returned.
// A non-list institution value counts as missing.
func ImputeInstitution(r types.Record, authors *Index, fallback Fallback) (types.Field, Source) {
	if r.Institution.HasItems() {
		return r.Institution.Clone(), SourceOriginal
	}
	if r.Authors.HasItems() {
		if insts := authors.Lookup(r.Authors.Items...); len(insts) > 0 {
			return types.List(insts...), SourceIndex
		}
	}
	if fallback.OK {
		return types.List(fallback.Value), SourceFallback
	}
	return types.List(), SourceNone
}

// ImputeLocation fills a City or Country field from the institution to
// location index, then the fallback. It mirrors ImputeInstitution.
func ImputeLocation(location, institutions types.Field, index *Index, fallback Fallback) (types.Field, Source) {
	if location.HasItems() {
		return location.Clone(), SourceOriginal
	}
	if institutions.HasItems() {
		if locs := index.Lookup(institutions.Items...); len(locs) > 0 {
			return types.List(locs...), SourceIndex
		}
	}
	if fallback.OK {
		return types.List(fallback.Value), SourceFallback
	}
	return types.List(), SourceNone
}

// ImputeDates sets every missing date to the fallback and returns the
// number of records changed. When the fallback is unavailable (no record
// had a date) the dates stay missing.
func ImputeDates(records []types.Record, fallback Fallback) int {
	if !fallback.OK {
		return 0
	}
	filled := 0
	for i := range records {
		if records[i].Date.IsMissing() {
			records[i].Date = types.Text(fallback.Value)
			filled++
		}
	}
	return filled
}

// InferKeywords returns record i's keywords unchanged when populated.
// Otherwise it walks the other records from most to least similar title
// and copies the first populated keyword field with a similarity of at
// least minSimilarity. With no donor the fallback keyword is returned as a
// one-element list.
func InferKeywords(i int, records []types.Record, sim *SimilarityMatrix, minSimilarity float64, fallback Fallback) (types.Field, Source) {
	if records[i].Keywords.Populated() {
		return records[i].Keywords.Clone(), SourceOriginal
	}

	row := sim.Row(i)
	for _, j := range sim.Ranked(i) {
		if row[j] < minSimilarity {
			break
		}
		if records[j].Keywords.Populated() {
			return records[j].Keywords.Clone(), SourceDonor
		}
	}

	if fallback.OK {
		return types.List(fallback.Value), SourceFallback
	}
	return records[i].Keywords.Clone(), SourceNone
}

// CanonicalDates rewrites every parseable text date in layout. Dates that
// do not parse, or whose day and month order is ambiguous, are left alone.
func CanonicalDates(records []types.Record, layout string) {
	if layout == "" {
		return
	}
	for i := range records {
		d := records[i].Date
		if d.Kind != types.FieldText {
			continue
		}
		t, err := dateparse.ParseStrict(d.Text)
		if err != nil {
			continue
		}
		records[i].Date = types.Text(t.Format(layout))
	}
}

// Run normalizes records and applies every imputation pass. The input
// slice is not modified.
func Run(records []types.Record, opts Options, log logrus.FieldLogger) ([]types.Record, Report) {
	start := time.Now()
	base := normalize.Records(records, normalize.Options{FoldCase: opts.FoldCase})
	CanonicalDates(base, opts.DateLayout)

	authors := BuildAuthorIndex(base)
	report := Report{
		Records: len(base),
		Fallbacks: Fallbacks{
			Institution: ListFallback(base, types.ColumnInstitution),
			Keyword:     ListFallback(base, types.ColumnKeywords),
			Date:        DateFallback(base),
			City:        ListFallback(base, types.ColumnCity),
			Country:     ListFallback(base, types.ColumnCountry),
		},
	}
	log.WithFields(logrus.Fields{
		"records": len(base),
		"authors": authors.Len(),
	}).Debug("built author index")

	out := make([]types.Record, len(base))
	for i, r := range base {
		out[i] = r.Clone()
	}

	report.DatesFilled = ImputeDates(out, report.Fallbacks.Date)
	if !report.Fallbacks.Date.OK && len(out) > 0 {
		log.Warn("no record has a date; dates left missing")
	}

	for i := range out {
		field, src := ImputeInstitution(base[i], authors, report.Fallbacks.Institution)
		out[i].Institution = field
		switch src {
		case SourceIndex:
			report.InstitutionsFromAuthors++
		case SourceFallback:
			report.InstitutionsFromFallback++
		}
	}

	titles := make([]string, len(base))
	for i, r := range base {
		titles[i] = TitleText(r)
	}
	sim := NewSimilarityMatrix(titles, opts.MaxFeatures)
	for i := range out {
		field, src := InferKeywords(i, base, sim, opts.KeywordMinSimilarity, report.Fallbacks.Keyword)
		out[i].Keywords = field
		switch src {
		case SourceDonor:
			report.KeywordsFromDonors++
		case SourceFallback:
			report.KeywordsFromFallback++
		}
	}

	if opts.ImputeLocations {
		report.CitiesFilled = imputeLocations(out, base, types.ColumnCity, report.Fallbacks.City)
		report.CountriesFilled = imputeLocations(out, base, types.ColumnCountry, report.Fallbacks.Country)
	}

	log.WithFields(logrus.Fields{
		"records":                    report.Records,
		"institutions_from_authors":  report.InstitutionsFromAuthors,
		"institutions_from_fallback": report.InstitutionsFromFallback,
		"keywords_from_donors":       report.KeywordsFromDonors,
		"keywords_from_fallback":     report.KeywordsFromFallback,
		"dates_filled":               report.DatesFilled,
		"elapsed":                    time.Since(start).Round(time.Millisecond),
	}).Info("imputed records")

	return out, report
}

// imputeLocations fills one location column of out. The index is built
// from base; lookups use the institutions already imputed into out.
func imputeLocations(out, base []types.Record, column string, fallback Fallback) int {
	index := BuildLocationIndex(base, column)
	filled := 0
	for i := range out {
		field, src := ImputeLocation(*out[i].Column(column), out[i].Institution, index, fallback)
		*out[i].Column(column) = field
		if src == SourceIndex || src == SourceFallback {
			filled++
		}
	}
	return filled
}
