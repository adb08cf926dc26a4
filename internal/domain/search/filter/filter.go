package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/bitsync/internal/domain"
)

// MaxLanguageLength is the maximum accepted language filter length.
const MaxLanguageLength = 64

// Visibility restricts repositories by their public flag.
type Visibility string

// Visibility constants.
const (
	VisibilityAll     Visibility = "all"
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// IsValid checks if the visibility is one of the supported values.
func (v Visibility) IsValid() bool {
	return v == VisibilityAll || v == VisibilityPublic || v == VisibilityPrivate
}

// Admits reports whether a repository with the given public flag passes.
func (v Visibility) Admits(isPublic bool) bool {
	switch v {
	case VisibilityPublic:
		return isPublic
	case VisibilityPrivate:
		return !isPublic
	default:
		return true
	}
}

// DateRange restricts results by their last update time.
type DateRange string

// DateRange constants. Windows are calendar based in the clock's location:
// today starts at midnight, a week starts on Monday.
const (
	Anytime   DateRange = "anytime"
	Today     DateRange = "today"
	ThisWeek  DateRange = "this-week"
	ThisMonth DateRange = "this-month"
	ThisYear  DateRange = "this-year"
)

// IsValid checks if the date range is one of the supported values.
func (d DateRange) IsValid() bool {
	switch d {
	case Anytime, Today, ThisWeek, ThisMonth, ThisYear:
		return true
	}
	return false
}

// Since returns the earliest admitted update time relative to now.
// The zero time means unbounded.
func (d DateRange) Since(now time.Time) time.Time {
	y, m, day := now.Date()
	midnight := time.Date(y, m, day, 0, 0, 0, 0, now.Location())
	switch d {
	case Today:
		return midnight
	case ThisWeek:
		offset := (int(midnight.Weekday()) + 6) % 7 // Monday = 0
		return midnight.AddDate(0, 0, -offset)
	case ThisMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, now.Location())
	case ThisYear:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, now.Location())
	default:
		return time.Time{}
	}
}

// Admits reports whether updatedAt falls inside the range ending at now.
func (d DateRange) Admits(updatedAt, now time.Time) bool {
	since := d.Since(now)
	return since.IsZero() || !updatedAt.Before(since)
}

// Filters is the validated filter selection of a query.
type Filters struct {
	language   string
	visibility Visibility
	dateRange  DateRange
}

// New validates and normalizes filters.
// Defaults: visibility=all, dateRange=anytime. A language of "all" means no language filter.
func New(language string, v Visibility, d DateRange) (Filters, error) {
	language = strings.TrimSpace(language)
	if strings.EqualFold(language, "all") {
		language = ""
	}
	if len(language) > MaxLanguageLength {
		return Filters{}, fmt.Errorf("%w: language too long (max %d chars)", domain.ErrInvalidQuery, MaxLanguageLength)
	}
	if v == "" {
		v = VisibilityAll
	}
	if !v.IsValid() {
		return Filters{}, fmt.Errorf("%w: invalid visibility %q", domain.ErrInvalidQuery, v)
	}
	if d == "" {
		d = Anytime
	}
	if !d.IsValid() {
		return Filters{}, fmt.Errorf("%w: invalid date range %q", domain.ErrInvalidQuery, d)
	}
	return Filters{language: language, visibility: v, dateRange: d}, nil
}

// None returns filters that admit everything.
func None() Filters {
	return Filters{visibility: VisibilityAll, dateRange: Anytime}
}

// Language returns the language filter ("" when unset).
func (f Filters) Language() string { return f.language }

// Visibility returns the visibility filter.
func (f Filters) Visibility() Visibility {
	if f.visibility == "" {
		return VisibilityAll
	}
	return f.visibility
}

// DateRange returns the date range filter.
func (f Filters) DateRange() DateRange {
	if f.dateRange == "" {
		return Anytime
	}
	return f.dateRange
}

// IsEmpty reports whether the filters admit everything.
func (f Filters) IsEmpty() bool {
	return f.language == "" && f.Visibility() == VisibilityAll && f.DateRange() == Anytime
}

// AdmitsLanguage compares case-insensitively; an unset filter admits all.
func (f Filters) AdmitsLanguage(language string) bool {
	return f.language == "" || strings.EqualFold(f.language, language)
}

// AdmitsRepository applies all three filters to a repository's attributes.
func (f Filters) AdmitsRepository(language string, isPublic bool, updatedAt, now time.Time) bool {
	return f.AdmitsLanguage(language) &&
		f.Visibility().Admits(isPublic) &&
		f.DateRange().Admits(updatedAt, now)
}
