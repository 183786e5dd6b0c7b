// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the bibclean pipeline:
// the bibliographic Record as it arrives from the per-year JSON exports and
// the configuration structs for each pipeline stage.
package types

import (
	"bytes"

	"github.com/segmentio/encoding/json"
)

// Column names used by the JSON exports and the cleaned CSV header, in
// output order.
const (
	ColumnTitle       = "Title"
	ColumnAuthors     = "Authors"
	ColumnInstitution = "Institution"
	ColumnCity        = "City"
	ColumnCountry     = "Country"
	ColumnKeywords    = "Keywords"
	ColumnDate        = "Date"
)

// Columns lists every record column in CSV order.
var Columns = []string{
	ColumnTitle,
	ColumnAuthors,
	ColumnInstitution,
	ColumnCity,
	ColumnCountry,
	ColumnKeywords,
	ColumnDate,
}

// FieldKind identifies the shape a field had in the source export.
type FieldKind int

const (
	FieldMissing FieldKind = iota
	FieldText
	FieldList
	FieldOther
)

// Field is one record value. Upstream extraction emits a string, a list of
// strings, or null per column. Any other JSON shape is kept verbatim in Raw
// so later stages can pass it through untouched.
type Field struct {
	Kind  FieldKind
	Text  string
	Items []string
	Raw   []byte
}

// Missing returns an absent field.
func Missing() Field { return Field{} }

// Text returns a scalar string field.
func Text(s string) Field { return Field{Kind: FieldText, Text: s} }

// List returns a list field holding a copy of items.
func List(items ...string) Field {
	return Field{Kind: FieldList, Items: append([]string{}, items...)}
}

// IsMissing reports whether the field is absent.
func (f Field) IsMissing() bool { return f.Kind == FieldMissing }

// IsList reports whether the field is a list, empty or not.
func (f Field) IsList() bool { return f.Kind == FieldList }

// HasItems reports whether the field is a list with at least one entry.
func (f Field) HasItems() bool { return f.Kind == FieldList && len(f.Items) > 0 }

// Populated reports whether the field carries any value: a non-empty list,
// a non-empty string, or an unrecognized shape.
func (f Field) Populated() bool {
	switch f.Kind {
	case FieldList:
		return len(f.Items) > 0
	case FieldText:
		return f.Text != ""
	case FieldOther:
		return true
	}
	return false
}

// Clone returns a deep copy of the field.
func (f Field) Clone() Field {
	out := Field{Kind: f.Kind, Text: f.Text}
	if f.Items != nil {
		out.Items = append([]string{}, f.Items...)
	}
	if f.Raw != nil {
		out.Raw = append([]byte(nil), f.Raw...)
	}
	return out
}

// UnmarshalJSON decodes null, a string, or a list of strings. A list holding
// null entries keeps them as empty strings; a list holding anything else,
// and every other JSON value, becomes FieldOther.
func (f *Field) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*f = Missing()
		return nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*f = Text(s)
		return nil
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(trimmed, &elems); err != nil {
			return err
		}
		items := make([]string, 0, len(elems))
		for _, e := range elems {
			e = bytes.TrimSpace(e)
			if bytes.Equal(e, []byte("null")) {
				items = append(items, "")
				continue
			}
			var s string
			if len(e) == 0 || e[0] != '"' || json.Unmarshal(e, &s) != nil {
				*f = Field{Kind: FieldOther, Raw: append([]byte(nil), trimmed...)}
				return nil
			}
			items = append(items, s)
		}
		*f = Field{Kind: FieldList, Items: items}
		return nil
	}

	*f = Field{Kind: FieldOther, Raw: append([]byte(nil), trimmed...)}
	return nil
}

// MarshalJSON encodes the field back to the shape it was decoded from.
func (f Field) MarshalJSON() ([]byte, error) {
	switch f.Kind {
	case FieldText:
		return json.Marshal(f.Text)
	case FieldList:
		if f.Items == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(f.Items)
	case FieldOther:
		return f.Raw, nil
	}
	return []byte("null"), nil
}

// Record is one bibliographic entry from a per-year export.
type Record struct {
	Title       Field `json:"Title"`
	Authors     Field `json:"Authors"`
	Institution Field `json:"Institution"`
	City        Field `json:"City"`
	Country     Field `json:"Country"`
	Keywords    Field `json:"Keywords"`
	Date        Field `json:"Date"`
}

// Column returns a pointer to the field stored under the given column name,
// or nil for an unknown column.
func (r *Record) Column(name string) *Field {
	switch name {
	case ColumnTitle:
		return &r.Title
	case ColumnAuthors:
		return &r.Authors
	case ColumnInstitution:
		return &r.Institution
	case ColumnCity:
		return &r.City
	case ColumnCountry:
		return &r.Country
	case ColumnKeywords:
		return &r.Keywords
	case ColumnDate:
		return &r.Date
	}
	return nil
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	return Record{
		Title:       r.Title.Clone(),
		Authors:     r.Authors.Clone(),
		Institution: r.Institution.Clone(),
		City:        r.City.Clone(),
		Country:     r.Country.Clone(),
		Keywords:    r.Keywords.Clone(),
		Date:        r.Date.Clone(),
	}
}
