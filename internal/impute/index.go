// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package impute

import (
	"sort"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/pdiddy/bibclean/pkg/types"
)

// Index maps a key (an author or an institution) to the set of values
// observed alongside it. It is built once from the normalized input and
// only read during imputation.
type Index struct {
	entries map[string]mapset.Set[string]
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{entries: make(map[string]mapset.Set[string])}
}

// Add records values under key.
func (x *Index) Add(key string, values ...string) {
	if len(values) == 0 {
		return
	}
	set, ok := x.entries[key]
	if !ok {
		set = mapset.NewThreadUnsafeSet[string]()
		x.entries[key] = set
	}
	set.Append(values...)
}

// Len returns the number of keys.
func (x *Index) Len() int { return len(x.entries) }

// Lookup returns the sorted union of the values of every known key.
// Unknown keys are ignored.
func (x *Index) Lookup(keys ...string) []string {
	union := mapset.NewThreadUnsafeSet[string]()
	for _, k := range keys {
		if set, ok := x.entries[k]; ok {
			union = union.Union(set)
		}
	}
	values := union.ToSlice()
	sort.Strings(values)
	return values
}

// BuildAuthorIndex maps each author to the institutions of every record
// listing both that author and at least one institution.
func BuildAuthorIndex(records []types.Record) *Index {
	idx := NewIndex()
	for _, r := range records {
		if !r.Authors.HasItems() || !r.Institution.HasItems() {
			continue
		}
		for _, author := range r.Authors.Items {
			idx.Add(author, r.Institution.Items...)
		}
	}
	return idx
}

// BuildLocationIndex maps each institution to the values of the named
// location column (City or Country). Institutions and locations are paired
// by list position, which is only meaningful when the lists have equal
// length. A single location is paired with every institution. Records with
// any other length mismatch contribute nothing.
func BuildLocationIndex(records []types.Record, column string) *Index {
	idx := NewIndex()
	for i := range records {
		insts := records[i].Institution
		locs := records[i].Column(column)
		if locs == nil || !insts.HasItems() || !locs.HasItems() {
			continue
		}
		switch {
		case len(locs.Items) == 1:
			for _, inst := range insts.Items {
				idx.Add(inst, locs.Items[0])
			}
		case len(locs.Items) == len(insts.Items):
			for j, inst := range insts.Items {
				idx.Add(inst, locs.Items[j])
			}
		}
	}
	return idx
}
