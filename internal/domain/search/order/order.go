package order

import (
	"slices"

	"github.com/kailas-cloud/bitsync/internal/domain/search/result"
)

// Order is an optional sort pass over repository results.
type Order string

// Order constants.
const (
	// Source keeps the order the data source returned.
	Source   Order = "all"
	Trending Order = "trending"
	Popular  Order = "popular"
	Newest   Order = "newest"
)

// IsValid checks if the order is one of the supported values.
func (o Order) IsValid() bool {
	return o == Source || o == Trending || o == Popular || o == Newest
}

// Apply returns a sorted copy of repos; the input is left untouched.
// Sorting is stable: equal keys keep their source order.
func (o Order) Apply(repos []result.Repository) []result.Repository {
	out := slices.Clone(repos)
	var cmp func(a, b result.Repository) int
	switch o {
	case Trending:
		cmp = func(a, b result.Repository) int { return b.Stars - a.Stars }
	case Popular:
		cmp = func(a, b result.Repository) int { return (b.Stars + b.Forks) - (a.Stars + a.Forks) }
	case Newest:
		cmp = func(a, b result.Repository) int { return b.UpdatedAt.Compare(a.UpdatedAt) }
	default:
		return out
	}
	slices.SortStableFunc(out, cmp)
	return out
}
