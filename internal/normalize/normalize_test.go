// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/bibclean/pkg/types"
)

func TestIsPlaceholder(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"Not Available", true},
		{"not available", true},
		{"  UNKNOWN ", true},
		{"Unknown University", false},
		{"MIT", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPlaceholder(tt.in))
		})
	}
}

func TestList(t *testing.T) {
	tests := []struct {
		name     string
		in       types.Field
		foldCase bool
		want     types.Field
	}{
		{
			name: "drops placeholders and empties",
			in:   types.List("MIT", "Not Available", "", "unknown", "  "),
			want: types.List("MIT"),
		},
		{
			name: "dedupes in first-seen order",
			in:   types.List("B", "A", "B", "C", "A"),
			want: types.List("B", "A", "C"),
		},
		{
			name: "all placeholders leaves empty list",
			in:   types.List("Not Available"),
			want: types.List(),
		},
		{
			name:     "fold case merges spellings",
			in:       types.List(" MIT", "mit ", "Stanford"),
			foldCase: true,
			want:     types.List("mit", "stanford"),
		},
		{
			name: "text passes through",
			in:   types.Text("Not Available"),
			want: types.Text("Not Available"),
		},
		{
			name: "missing passes through",
			in:   types.Missing(),
			want: types.Missing(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, List(tt.in, tt.foldCase))
		})
	}
}

func TestRecordRemovesEveryPlaceholder(t *testing.T) {
	r := types.Record{
		Title:       types.Text("Not Available"),
		Authors:     types.List("Alice Smith", "Not Available"),
		Institution: types.List("Unknown", "MIT"),
		City:        types.List("NOT AVAILABLE", "Cambridge"),
		Country:     types.List("unknown"),
		Keywords:    types.List("Not Available"),
		Date:        types.Text("Not Available"),
	}

	got := Record(r, Options{})

	assert.True(t, got.Title.IsMissing())
	assert.True(t, got.Date.IsMissing())
	for _, col := range types.Columns {
		f := got.Column(col)
		for _, item := range f.Items {
			assert.False(t, IsPlaceholder(item), "%s still holds %q", col, item)
		}
		assert.False(t, f.Kind == types.FieldText && IsPlaceholder(f.Text))
	}
	assert.Equal(t, []string{"MIT"}, got.Institution.Items)
	assert.Equal(t, []string{"Cambridge"}, got.City.Items)
	assert.Empty(t, got.Country.Items)
}

func TestRecordDoesNotAliasInput(t *testing.T) {
	r := types.Record{Keywords: types.List("graphs")}
	got := Record(r, Options{})
	got.Keywords.Items[0] = "changed"
	assert.Equal(t, "graphs", r.Keywords.Items[0])
}

func TestRecordKeepsOtherShapes(t *testing.T) {
	r := types.Record{Date: types.Field{Kind: types.FieldOther, Raw: []byte("2018")}}
	got := Record(r, Options{})
	assert.Equal(t, types.FieldOther, got.Date.Kind)
	assert.Equal(t, "2018", string(got.Date.Raw))
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "attention is all you need", Title("Attention Is All You Need!"))
	assert.Equal(t, "deep learning", Title("  Deep,   Learning. "))
	assert.Equal(t, "", Title(strings.Repeat("?", 3)))
}
