// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize strips the placeholder values upstream extraction
// writes for absent data and deduplicates list fields.
package normalize

import (
	"strings"
	"unicode"

	"github.com/pdiddy/bibclean/pkg/types"
)

// Placeholders are the tokens that stand in for a missing value. They are
// compared case-insensitively after trimming.
var Placeholders = []string{"not available", "unknown"}

// Options controls optional rewriting applied during normalization.
type Options struct {
	// FoldCase lowercases and trims institutions and keywords.
	FoldCase bool
}

// IsPlaceholder reports whether s is one of the placeholder tokens.
func IsPlaceholder(s string) bool {
	s = strings.TrimSpace(s)
	for _, p := range Placeholders {
		if strings.EqualFold(s, p) {
			return true
		}
	}
	return false
}

// Record returns a normalized copy of r. List fields lose placeholder and
// empty entries and are deduplicated in first-seen order. A title or date
// holding a placeholder becomes missing. Fields of any other shape are
// returned unchanged.
func Record(r types.Record, opts Options) types.Record {
	return types.Record{
		Title:       scalar(r.Title),
		Authors:     List(r.Authors, false),
		Institution: List(r.Institution, opts.FoldCase),
		City:        List(r.City, false),
		Country:     List(r.Country, false),
		Keywords:    List(r.Keywords, opts.FoldCase),
		Date:        scalar(r.Date),
	}
}

// Records normalizes every record.
func Records(records []types.Record, opts Options) []types.Record {
	out := make([]types.Record, len(records))
	for i, r := range records {
		out[i] = Record(r, opts)
	}
	return out
}

// List cleans a list field. Non-list fields are returned as a copy.
func List(f types.Field, foldCase bool) types.Field {
	if !f.IsList() {
		return f.Clone()
	}

	seen := make(map[string]struct{}, len(f.Items))
	items := make([]string, 0, len(f.Items))
	for _, item := range f.Items {
		if foldCase {
			item = strings.ToLower(strings.TrimSpace(item))
		}
		if strings.TrimSpace(item) == "" || IsPlaceholder(item) {
			continue
		}
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		items = append(items, item)
	}
	return types.List(items...)
}

func scalar(f types.Field) types.Field {
	if f.Kind == types.FieldText && (strings.TrimSpace(f.Text) == "" || IsPlaceholder(f.Text)) {
		return types.Missing()
	}
	return f.Clone()
}

// Title returns a lowercased, punctuation-stripped version of a title with
// whitespace collapsed, for duplicate detection.
func Title(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
