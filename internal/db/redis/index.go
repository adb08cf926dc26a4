package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/bitsync/internal/db"
)

// CreateIndex issues FT.CREATE for def. On backends without text search the
// TEXT fields are dropped and the remaining tags and numerics still filter.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if !s.textSearch {
		def = def.WithoutText()
	}
	args, err := buildCreateArgs(def)
	if err != nil {
		return err
	}

	if err := s.do(ctx, s.b().Arbitrary("FT.CREATE").Args(args...).Build()).Error(); err != nil {
		if isRedisErr(err, "already exists") {
			return db.ErrIndexExists
		}
		return &db.Error{Op: db.OpCreateIndex, Target: def.Name, Err: err}
	}
	return nil
}

// IndexExists looks the index up with FT.INFO.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	err := s.do(ctx, s.b().Arbitrary("FT.INFO").Args(name).Build()).Error()
	switch {
	case err == nil:
		return true, nil
	case unknownIndex(err):
		return false, nil
	default:
		return false, &db.Error{Op: db.OpIndexInfo, Target: name, Err: err}
	}
}

// SupportsTextSearch is true for Redis 8+ and false for valkey-search.
func (s *Store) SupportsTextSearch(context.Context) bool {
	return s.textSearch
}

// buildCreateArgs renders FT.CREATE arguments, always over hashes:
//
//	name ON HASH [PREFIX n p...] [STOPWORDS 0] SCHEMA field type [options]...
func buildCreateArgs(def *db.IndexDefinition) ([]string, error) {
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("index %q: %w", def.Name, err)
	}

	args := make([]string, 0, 8+4*len(def.Fields))
	args = append(args, def.Name, "ON", "HASH")
	if n := len(def.Prefixes); n > 0 {
		args = append(args, "PREFIX", strconv.Itoa(n))
		args = append(args, def.Prefixes...)
	}
	// valkey-search rejects STOPWORDS on indexes without TEXT fields.
	if def.KeepStopwords && def.HasText() {
		args = append(args, "STOPWORDS", "0")
	}

	args = append(args, "SCHEMA")
	for _, f := range def.Fields {
		args = appendField(args, f)
	}
	return args, nil
}

// appendField renders one validated schema entry.
func appendField(args []string, f db.Field) []string {
	args = append(args, f.Name, f.Type.String())
	switch f.Type {
	case db.FieldText:
		if f.Weight > 0 {
			args = append(args, "WEIGHT", strconv.FormatFloat(f.Weight, 'f', -1, 64))
		}
		if f.NoStem {
			args = append(args, "NOSTEM")
		}
	case db.FieldTag:
		if f.CaseSensitive {
			args = append(args, "CASESENSITIVE")
		}
	}
	if f.Sortable {
		args = append(args, "SORTABLE")
	}
	return args
}
