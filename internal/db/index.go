package db

import (
	"errors"
	"fmt"
)

// FieldType is the FT schema type of an indexed hash field.
type FieldType int

const (
	FieldText FieldType = iota
	FieldTag
	FieldNumeric
)

// String returns the FT.CREATE keyword for the type.
func (t FieldType) String() string {
	switch t {
	case FieldText:
		return "TEXT"
	case FieldTag:
		return "TAG"
	case FieldNumeric:
		return "NUMERIC"
	default:
		return fmt.Sprintf("FieldType(%d)", int(t))
	}
}

// Field is one indexed hash field.
type Field struct {
	Name string
	Type FieldType

	Weight        float64 // TEXT relevance weight, 0 = server default
	NoStem        bool    // TEXT: match exact words only
	CaseSensitive bool    // TAG
	Sortable      bool    // NUMERIC and TAG
}

// FieldOption adjusts a Field.
type FieldOption func(*Field)

// Weight scales the relevance of matches in a TEXT field.
func Weight(w float64) FieldOption { return func(f *Field) { f.Weight = w } }

// NoStem disables stemming, so "syncing" no longer matches "sync".
func NoStem() FieldOption { return func(f *Field) { f.NoStem = true } }

// CaseSensitive keeps TAG values as written.
func CaseSensitive() FieldOption { return func(f *Field) { f.CaseSensitive = true } }

// Sortable keeps a copy of the value for SORTBY.
func Sortable() FieldOption { return func(f *Field) { f.Sortable = true } }

// Text declares a full-text field.
func Text(name string, opts ...FieldOption) Field { return newField(name, FieldText, opts) }

// Tag declares an exact-match field.
func Tag(name string, opts ...FieldOption) Field { return newField(name, FieldTag, opts) }

// Numeric declares a range-filterable field.
func Numeric(name string, opts ...FieldOption) Field { return newField(name, FieldNumeric, opts) }

func newField(name string, t FieldType, opts []FieldOption) Field {
	f := Field{Name: name, Type: t}
	for _, o := range opts {
		o(&f)
	}
	return f
}

// IndexDefinition describes an FT index over hashes sharing a key prefix.
type IndexDefinition struct {
	Name     string
	Prefixes []string
	Fields   []Field

	// KeepStopwords indexes every token, including "if", "for" and "the",
	// which source code search needs.
	KeepStopwords bool
}

// NewIndex builds and validates a definition over keys starting with prefix.
func NewIndex(name, prefix string, fields ...Field) (*IndexDefinition, error) {
	def := &IndexDefinition{Name: name, Fields: fields}
	if prefix != "" {
		def.Prefixes = []string{prefix}
	}
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("index %q: %w", name, err)
	}
	return def, nil
}

// MustIndex is NewIndex for definitions fixed at compile time.
func MustIndex(name, prefix string, fields ...Field) *IndexDefinition {
	def, err := NewIndex(name, prefix, fields...)
	if err != nil {
		panic(err)
	}
	return def
}

// Validate checks names, duplicates and per-type options.
func (idx *IndexDefinition) Validate() error {
	if idx.Name == "" {
		return errors.New("index name is required")
	}
	if !validIdentifier(idx.Name) {
		return errors.New("index name contains invalid characters")
	}
	if len(idx.Fields) == 0 {
		return errors.New("at least one field is required")
	}

	seen := make(map[string]struct{}, len(idx.Fields))
	for i, f := range idx.Fields {
		if f.Name == "" {
			return fmt.Errorf("field %d: name is required", i)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("duplicate field name: %s", f.Name)
		}
		seen[f.Name] = struct{}{}

		switch f.Type {
		case FieldText:
			if f.Weight < 0 {
				return fmt.Errorf("field %s: weight must not be negative", f.Name)
			}
			if f.Sortable || f.CaseSensitive {
				return fmt.Errorf("field %s: TEXT supports weight and nostem only", f.Name)
			}
		case FieldTag, FieldNumeric:
			if f.Weight != 0 || f.NoStem {
				return fmt.Errorf("field %s: weight and nostem apply to TEXT only", f.Name)
			}
			if f.Type == FieldNumeric && f.CaseSensitive {
				return fmt.Errorf("field %s: NUMERIC cannot be case sensitive", f.Name)
			}
		default:
			return fmt.Errorf("field %s: unknown type %s", f.Name, f.Type)
		}
	}
	return nil
}

// HasText reports whether the definition declares any TEXT field.
func (idx *IndexDefinition) HasText() bool {
	for _, f := range idx.Fields {
		if f.Type == FieldText {
			return true
		}
	}
	return false
}

// WithoutText returns a copy with TEXT fields removed, for backends lacking
// full-text support.
func (idx *IndexDefinition) WithoutText() *IndexDefinition {
	out := *idx
	out.Fields = make([]Field, 0, len(idx.Fields))
	for _, f := range idx.Fields {
		if f.Type != FieldText {
			out.Fields = append(out.Fields, f)
		}
	}
	return &out
}

// validIdentifier accepts [a-zA-Z0-9_:-]+.
func validIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_' || r == ':' || r == '-':
		default:
			return false
		}
	}
	return true
}
