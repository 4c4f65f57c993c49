// Package search filters the catalog for the search page and the
// suggestion dropdown. The catalog is small, so every query is a linear
// scan.
package search

import (
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"

	"github.com/example/brownie-shop/internal/domain/product"
)

const (
	// MinSuggestLength is the shortest query that produces suggestions.
	MinSuggestLength = 2
	// MaxSuggestions caps the suggestion list.
	MaxSuggestions = 5
)

// matcher folds text for case-insensitive comparison. A cases.Caser keeps
// state, so each query gets its own.
type matcher struct {
	fold  cases.Caser
	query string
}

func newMatcher(query string) *matcher {
	m := &matcher{fold: cases.Fold()}
	m.query = m.fold.String(strings.TrimSpace(query))
	return m
}

func (m *matcher) contains(s string) bool {
	if s == "" {
		return false
	}
	return strings.Contains(m.fold.String(s), m.query)
}

// matches is true when any searchable field contains the query.
func (m *matcher) matches(p product.Product) bool {
	if m.contains(p.Name) || m.contains(p.Description) || m.contains(p.Tag) || m.contains(p.Category) {
		return true
	}
	for _, ing := range p.Ingredients {
		if m.contains(ing) {
			return true
		}
	}
	return false
}

// Filter returns the products whose name, description, tag, category or
// any ingredient contains query, ignoring case. Input order is kept. A
// blank query returns every product.
func Filter(products []product.Product, query string) []product.Product {
	if strings.TrimSpace(query) == "" {
		return append([]product.Product{}, products...)
	}
	m := newMatcher(query)
	out := []product.Product{}
	for _, p := range products {
		if m.matches(p) {
			out = append(out, p)
		}
	}
	return out
}

// Suggest filters like Filter, moves products whose name matches ahead of
// the rest and keeps at most MaxSuggestions. Queries shorter than
// MinSuggestLength give no suggestions.
func Suggest(products []product.Product, query string) []product.Product {
	if utf8.RuneCountInString(strings.TrimSpace(query)) < MinSuggestLength {
		return []product.Product{}
	}
	out := Filter(products, query)
	m := newMatcher(query)
	sort.SliceStable(out, func(i, j int) bool {
		return m.contains(out[i].Name) && !m.contains(out[j].Name)
	})
	if len(out) > MaxSuggestions {
		out = out[:MaxSuggestions]
	}
	return out
}

// Segment is a run of text that either matches the query or does not.
type Segment struct {
	Text  string `json:"text"`
	Match bool   `json:"match"`
}

// Highlight splits text into segments, marking every run whose folded
// form equals the folded query. Folding is the same as in Filter, so a
// product found by Filter always has a match segment.
func Highlight(text, query string) []Segment {
	m := newMatcher(query)
	if m.query == "" || text == "" {
		return []Segment{{Text: text}}
	}

	var out []Segment
	plainStart := 0
	for i := 0; i < len(text); {
		if end := m.matchAt(text, i); end > 0 {
			if i > plainStart {
				out = append(out, Segment{Text: text[plainStart:i]})
			}
			out = append(out, Segment{Text: text[i:end], Match: true})
			i, plainStart = end, end
			continue
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
	}
	if plainStart < len(text) {
		out = append(out, Segment{Text: text[plainStart:]})
	}
	return out
}

// matchAt returns the byte offset where a match starting at start ends, or
// -1. The run grows a rune at a time while its folded form is still a
// prefix of the query.
func (m *matcher) matchAt(text string, start int) int {
	for end := start; end < len(text); {
		_, size := utf8.DecodeRuneInString(text[end:])
		end += size
		folded := m.fold.String(text[start:end])
		if folded == m.query {
			return end
		}
		if !strings.HasPrefix(m.query, folded) {
			return -1
		}
	}
	return -1
}
