package redis

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/bitsync/internal/db"
)

// defaultLimit mirrors the FT.SEARCH server default.
const defaultLimit = 10

// minPrefixLen is the shortest term expanded to a prefix query (server MINPREFIX).
const minPrefixLen = 2

// Search runs a keyword + filter query via FT.SEARCH.
// Text is ignored on backends without text search; callers match it client-side.
func (s *Store) Search(ctx context.Context, q *db.Query) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if q.Offset < 0 {
		return nil, fmt.Errorf("offset must not be negative")
	}

	text := q.Text
	if !s.textSearch {
		text = ""
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	query, ok := buildQuery(text, q.TextFields, q.Conditions)
	if !ok {
		return &db.SearchResult{}, nil
	}
	args := []string{q.IndexName, query}

	if q.SortBy != "" {
		dir := "ASC"
		if q.SortDesc {
			dir = "DESC"
		}
		args = append(args, "SORTBY", q.SortBy, dir)
	}

	args = append(args,
		"LIMIT", strconv.Itoa(q.Offset), strconv.Itoa(limit),
		"DIALECT", "2",
	)

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if unknownIndex(err) {
			return nil, db.ErrIndexNotFound
		}
		return nil, &db.Error{Op: db.OpSearch, Target: q.IndexName, Err: err}
	}

	return parseSearchResult(raw)
}

// --- Result parsing ---

func parseSearchResult(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &db.SearchResult{}, nil
	}

	entries := make([]db.SearchEntry, 0, min(int(total), len(raw)/2))
	// 2-stride: [total, key1, fields1, key2, fields2, ...]
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		entries = append(entries, db.SearchEntry{
			Key:    key,
			Fields: parseFieldPairs(fields),
		})
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

// --- Query building ---

// buildQuery joins filter conditions and the text clause with implicit AND.
// It reports false when text is non-blank but has no searchable terms: such
// a query matches nothing and must not widen to "*".
func buildQuery(text string, textFields []string, conds []db.Condition) (string, bool) {
	parts := make([]string, 0, len(conds)+1)
	for _, c := range conds {
		if p := buildCondition(c); p != "" {
			parts = append(parts, p)
		}
	}
	if strings.TrimSpace(text) != "" {
		t := buildText(text, textFields)
		if t == "" {
			return "", false
		}
		parts = append(parts, t)
	}
	if len(parts) == 0 {
		return "*", true
	}
	return strings.Join(parts, " "), true
}

func buildCondition(c db.Condition) string {
	switch c.Kind {
	case db.ConditionTag:
		return buildTagFilter(c.Field, c.Values)
	case db.ConditionRange:
		return fmt.Sprintf("@%s:[%s %s]", c.Field, formatBound(c.Min), formatBound(c.Max))
	default:
		return ""
	}
}

func buildTagFilter(key string, values []string) string {
	if len(values) == 0 {
		return ""
	}
	escaped := make([]string, len(values))
	for i, v := range values {
		escaped[i] = tagEscaper.Replace(v)
	}
	return fmt.Sprintf("@%s:{%s}", key, strings.Join(escaped, " | "))
}

func formatBound(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "+inf"
	case math.IsInf(v, -1):
		return "-inf"
	default:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
}

// buildText tokenizes text the way the server tokenizes documents and ANDs the
// terms, each expanded to a prefix query when long enough.
func buildText(text string, fields []string) string {
	terms := db.Terms(text)
	if len(terms) == 0 {
		return ""
	}
	for i, t := range terms {
		if len([]rune(t)) >= minPrefixLen {
			terms[i] = t + "*"
		}
	}
	clause := strings.Join(terms, " ")
	if len(fields) == 0 {
		return clause
	}
	return fmt.Sprintf("@%s:(%s)", strings.Join(fields, "|"), clause)
}

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	"|", "\\|",
	" ", "\\ ",
)
