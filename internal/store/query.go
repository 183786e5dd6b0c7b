// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/bibclean/pkg/types"
)

// QueryOptions holds record filters. Empty fields do not filter.
type QueryOptions struct {
	// Title matches a case-insensitive substring of the title.
	Title string

	// Institution, Keyword, and Country match one list entry exactly,
	// ignoring case.
	Institution string
	Keyword     string
	Country     string

	// DatePrefix matches dates starting with the given text ("2018", "2018-03").
	DatePrefix string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Title == "" && q.Institution == "" && q.Keyword == "" &&
		q.Country == "" && q.DatePrefix == ""
}

// Entry is one stored record.
type Entry struct {
	Source      string   `json:"source" yaml:"source"`
	Row         int      `json:"row" yaml:"row"`
	Title       string   `json:"title,omitempty" yaml:"title,omitempty"`
	Authors     []string `json:"authors,omitempty" yaml:"authors,omitempty"`
	Institution []string `json:"institution,omitempty" yaml:"institution,omitempty"`
	City        []string `json:"city,omitempty" yaml:"city,omitempty"`
	Country     []string `json:"country,omitempty" yaml:"country,omitempty"`
	Keywords    []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Date        string   `json:"date,omitempty" yaml:"date,omitempty"`
}

// Query returns stored records matching every filter in opts, ordered by
// source file and row.
func (s *Store) Query(ctx context.Context, opts QueryOptions) ([]Entry, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(
		`SELECT r.source, r.row, r.title, r.authors, r.institution, r.city,
			r.country, r.keywords, r.date
		FROM records r
		WHERE 1=1`)

	if opts.Title != "" {
		qb.WriteString(` AND lower(r.title) LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(strings.ToLower(opts.Title))+"%")
	}
	for _, f := range []struct{ column, value string }{
		{"institution", opts.Institution},
		{"keywords", opts.Keyword},
		{"country", opts.Country},
	} {
		if f.value == "" {
			continue
		}
		qb.WriteString(` AND EXISTS (SELECT 1 FROM json_each(r.` + f.column + `) WHERE lower(value) = lower(?))`)
		args = append(args, f.value)
	}
	if opts.DatePrefix != "" {
		qb.WriteString(` AND r.date LIKE ? ESCAPE '\'`)
		args = append(args, escapeLike(opts.DatePrefix)+"%")
	}

	qb.WriteString(` ORDER BY r.source, r.row LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                                   Entry
			title, date                         sql.NullString
			authors, inst, city, country, kwds sql.NullString
		)
		if err := rows.Scan(&e.Source, &e.Row, &title, &authors, &inst, &city, &country, &kwds, &date); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		e.Title = title.String
		e.Date = date.String
		e.Authors = decodeList(authors)
		e.Institution = decodeList(inst)
		e.City = decodeList(city)
		e.Country = decodeList(country)
		e.Keywords = decodeList(kwds)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Topic is the number of records from one institution carrying a keyword.
type Topic struct {
	Institution string `json:"institution" yaml:"institution"`
	Keyword     string `json:"keyword" yaml:"keyword"`
	Count       int    `json:"count" yaml:"count"`
}

// Topics returns the most frequent keywords per institution, at most limit
// per institution (zero means no limit). An empty institution covers every
// institution. Results are grouped by institution; within a group keywords
// are ordered by descending count, then alphabetically.
func (s *Store) Topics(ctx context.Context, institution string, limit int) ([]Topic, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT i.value, k.value, count(*) AS n
		FROM records r, json_each(r.institution) AS i, json_each(r.keywords) AS k
		WHERE ? = '' OR lower(i.value) = lower(?)
		GROUP BY i.value, k.value`,
		institution, institution,
	)
	if err != nil {
		return nil, fmt.Errorf("querying topics: %w", err)
	}
	defer rows.Close()

	var topics []Topic
	for rows.Next() {
		var t Topic
		if err := rows.Scan(&t.Institution, &t.Keyword, &t.Count); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		topics = append(topics, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(topics, func(a, b int) bool {
		ta, tb := topics[a], topics[b]
		if ta.Institution != tb.Institution {
			return ta.Institution < tb.Institution
		}
		if ta.Count != tb.Count {
			return ta.Count > tb.Count
		}
		return ta.Keyword < tb.Keyword
	})

	if limit <= 0 {
		return topics, nil
	}
	out := topics[:0]
	perInstitution := make(map[string]int)
	for _, t := range topics {
		if perInstitution[t.Institution] >= limit {
			continue
		}
		perInstitution[t.Institution]++
		out = append(out, t)
	}
	return out, nil
}

// decodeList reads a JSON list column. A JSON string becomes a one-item list.
func decodeList(ns sql.NullString) []string {
	if !ns.Valid {
		return nil
	}
	var f types.Field
	if err := f.UnmarshalJSON([]byte(ns.String)); err != nil {
		return nil
	}
	switch f.Kind {
	case types.FieldList:
		return f.Items
	case types.FieldText:
		return []string{f.Text}
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
