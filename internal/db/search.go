package db

import (
	"math"
	"strings"
	"unicode"
)

// ConditionKind distinguishes filter condition shapes.
type ConditionKind int

const (
	// ConditionTag matches a TAG field against one of several values.
	ConditionTag ConditionKind = iota
	// ConditionRange matches a NUMERIC field within inclusive bounds.
	ConditionRange
)

// Condition is a single pre-filter clause of a Query. All conditions of a query must hold.
type Condition struct {
	Kind   ConditionKind
	Field  string
	Values []string
	Min    float64
	Max    float64
}

// TagIn matches documents whose tag field equals any of values.
func TagIn(field string, values ...string) Condition {
	return Condition{Kind: ConditionTag, Field: field, Values: values}
}

// Between matches documents whose numeric field lies in [lo, hi].
func Between(field string, lo, hi float64) Condition {
	return Condition{Kind: ConditionRange, Field: field, Min: lo, Max: hi}
}

// AtLeast matches documents whose numeric field is >= lo.
func AtLeast(field string, lo float64) Condition {
	return Between(field, lo, math.Inf(1))
}

// Terms splits text the way the index tokenizes documents: on everything but
// letters and digits, lowercased. Text made only of separators has no terms.
func Terms(text string) []string {
	terms := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for i, t := range terms {
		terms[i] = strings.ToLower(t)
	}
	return terms
}

// Query is the input for a keyword search over an FT index.
type Query struct {
	IndexName string
	// Text is raw user input; the store tokenizes and escapes it. Empty matches
	// all; text without Terms matches nothing.
	Text string
	// TextFields scopes Text to these TEXT fields; empty means every TEXT field.
	TextFields []string
	Conditions []Condition
	// SortBy orders hits by a SORTABLE field; empty keeps relevance order.
	SortBy   string
	SortDesc bool
	// Offset and Limit select one page of hits.
	Offset int
	Limit  int
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Fields map[string]string
}
