// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package impute

import (
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bbalet/stopwords"

	"github.com/pdiddy/bibclean/pkg/types"
)

// DefaultMaxFeatures is the default title vocabulary size.
const DefaultMaxFeatures = 100

// noTitle stands in for a missing title so every record gets a vector.
const noTitle = "No Title"

// SimilarityMatrix holds pairwise cosine similarity between bag-of-words
// title vectors. The matrix is symmetric; rows are computed from the stored
// vectors on demand, so a file only pays for the rows keyword inference
// actually reads.
type SimilarityMatrix struct {
	vectors []termVector
}

type termVector struct {
	counts map[int]float64
	norm   float64
}

// Tokenize lowercases a title and splits it into runs of at least two
// word characters (letters, digits, underscore), so "5G" and "2020" are
// kept and "graph-based" yields "graph" and "based". English stop words are
// dropped.
func Tokenize(title string) []string {
	words := strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !isWordRune(r)
	})
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		if utf8.RuneCountInString(w) < 2 || isStopWord(w) {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}

// isStopWord reports whether w is an English stop word. Stop words are
// purely alphabetic; CleanString drops them and keeps any other letters.
func isStopWord(w string) bool {
	for _, r := range w {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return strings.TrimSpace(stopwords.CleanString(w, "en", false)) == ""
}

// TitleText returns the text a record contributes to the title vocabulary.
func TitleText(r types.Record) string {
	switch r.Title.Kind {
	case types.FieldText:
		if r.Title.Text != "" {
			return r.Title.Text
		}
	case types.FieldList:
		if len(r.Title.Items) > 0 {
			return strings.Join(r.Title.Items, " ")
		}
	}
	return noTitle
}

// NewSimilarityMatrix vectorizes titles over a vocabulary of the
// maxFeatures most frequent terms (ties broken alphabetically; zero means
// unlimited).
func NewSimilarityMatrix(titles []string, maxFeatures int) *SimilarityMatrix {
	docs := make([][]string, len(titles))
	freq := make(map[string]int)
	for i, t := range titles {
		docs[i] = Tokenize(t)
		for _, tok := range docs[i] {
			freq[tok]++
		}
	}

	terms := make([]string, 0, len(freq))
	for term := range freq {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if freq[terms[i]] != freq[terms[j]] {
			return freq[terms[i]] > freq[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if maxFeatures > 0 && len(terms) > maxFeatures {
		terms = terms[:maxFeatures]
	}
	vocab := make(map[string]int, len(terms))
	for i, term := range terms {
		vocab[term] = i
	}

	m := &SimilarityMatrix{
		vectors: make([]termVector, len(docs)),
	}
	for i, doc := range docs {
		v := termVector{counts: make(map[int]float64)}
		for _, tok := range doc {
			if col, ok := vocab[tok]; ok {
				v.counts[col]++
			}
		}
		for _, c := range v.counts {
			v.norm += c * c
		}
		v.norm = math.Sqrt(v.norm)
		m.vectors[i] = v
	}
	return m
}

// Len returns the number of records in the matrix.
func (m *SimilarityMatrix) Len() int { return len(m.vectors) }

// At returns the cosine similarity of records i and j. Records whose
// titles share no vocabulary term score 0.
func (m *SimilarityMatrix) At(i, j int) float64 {
	a, b := m.vectors[i], m.vectors[j]
	if a.norm == 0 || b.norm == 0 {
		return 0
	}
	if len(b.counts) < len(a.counts) {
		a, b = b, a
	}
	var dot float64
	for col, c := range a.counts {
		dot += c * b.counts[col]
	}
	return dot / (a.norm * b.norm)
}

// Row returns the similarity of record i to every record.
func (m *SimilarityMatrix) Row(i int) []float64 {
	row := make([]float64, len(m.vectors))
	for j := range m.vectors {
		row[j] = m.At(i, j)
	}
	return row
}

// Ranked returns every record index except i, ordered by descending
// similarity to i with ties broken by ascending index.
func (m *SimilarityMatrix) Ranked(i int) []int {
	row := m.Row(i)
	order := make([]int, 0, len(row))
	for j := range row {
		if j != i {
			order = append(order, j)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		return row[order[a]] > row[order[b]]
	})
	return order
}
