package repo

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kailas-cloud/bitsync/internal/domain"
	"github.com/kailas-cloud/bitsync/internal/domain/search/filter"
	"github.com/kailas-cloud/bitsync/internal/domain/search/result"
)

// Sort orders an owner's repository list.
type Sort string

// Sort constants.
const (
	SortUpdated Sort = "updated"
	SortName    Sort = "name"
	SortStars   Sort = "stars"
)

// IsValid checks if the sort is supported.
func (s Sort) IsValid() bool {
	return s == SortUpdated || s == SortName || s == SortStars
}

// ListOptions narrows and orders an owner's repositories.
type ListOptions struct {
	Query      string
	Visibility filter.Visibility
	Sort       Sort
}

// NewListOptions validates listing parameters and applies defaults.
func NewListOptions(query string, v filter.Visibility, s Sort) (ListOptions, error) {
	if v == "" {
		v = filter.VisibilityAll
	}
	if !v.IsValid() {
		return ListOptions{}, fmt.Errorf("%w: invalid visibility %q", domain.ErrInvalidQuery, v)
	}
	if s == "" {
		s = SortUpdated
	}
	if !s.IsValid() {
		return ListOptions{}, fmt.Errorf("%w: invalid sort %q", domain.ErrInvalidQuery, s)
	}
	return ListOptions{Query: strings.TrimSpace(query), Visibility: v, Sort: s}, nil
}

// Apply filters and sorts repos into a new slice.
func (o ListOptions) Apply(repos []result.Repository) []result.Repository {
	q := strings.ToLower(o.Query)
	out := make([]result.Repository, 0, len(repos))
	for _, r := range repos {
		if !o.Visibility.Admits(r.IsPublic) {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(r.Name), q) &&
			!strings.Contains(strings.ToLower(r.Description), q) {
			continue
		}
		out = append(out, r)
	}

	switch o.Sort {
	case SortName:
		slices.SortStableFunc(out, func(a, b result.Repository) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		})
	case SortStars:
		slices.SortStableFunc(out, func(a, b result.Repository) int { return b.Stars - a.Stars })
	default:
		slices.SortStableFunc(out, func(a, b result.Repository) int { return b.UpdatedAt.Compare(a.UpdatedAt) })
	}
	return out
}
