// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package impute

import "github.com/pdiddy/bibclean/pkg/types"

// Fallback is a dataset-wide mode used when no targeted inference is
// possible. OK is false when the dataset had no value to take a mode of.
type Fallback struct {
	Value string `yaml:"value,omitempty"`
	OK    bool   `yaml:"available"`
}

// MostCommon returns the most frequent value. On a tie the value whose
// first occurrence comes earliest wins. The boolean is false for an empty
// input.
func MostCommon[T comparable](values []T) (T, bool) {
	var zero T
	if len(values) == 0 {
		return zero, false
	}

	counts := make(map[T]int, len(values))
	order := make([]T, 0, len(values))
	for _, v := range values {
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}

	best := order[0]
	for _, v := range order[1:] {
		if counts[v] > counts[best] {
			best = v
		}
	}
	return best, true
}

// ListFallback returns the mode over every item of the named list column.
func ListFallback(records []types.Record, column string) Fallback {
	var values []string
	for i := range records {
		f := records[i].Column(column)
		if f == nil || !f.IsList() {
			continue
		}
		values = append(values, f.Items...)
	}
	v, ok := MostCommon(values)
	return Fallback{Value: v, OK: ok}
}

// DateFallback returns the mode over every non-missing text date.
func DateFallback(records []types.Record) Fallback {
	var values []string
	for _, r := range records {
		if r.Date.Kind == types.FieldText && r.Date.Text != "" {
			values = append(values, r.Date.Text)
		}
	}
	v, ok := MostCommon(values)
	return Fallback{Value: v, OK: ok}
}
