package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/bitsync/internal/domain"
	"github.com/kailas-cloud/bitsync/internal/domain/search/category"
	"github.com/kailas-cloud/bitsync/internal/domain/search/filter"
	"github.com/kailas-cloud/bitsync/internal/domain/search/order"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search text length.
	MaxQueryLength = 256
	DefaultLimit   = 10
	MaxLimit       = 100
)

// Request is a validated, immutable search query.
type Request struct {
	text     string
	category category.Category
	filters  filter.Filters
	order    order.Order
	limit    int
}

// New validates and normalizes search parameters.
// Text is trimmed; blank text is allowed and yields an empty query.
// Defaults: category=all, order=all (source order), limit=10.
func New(
	text string,
	c category.Category,
	filters filter.Filters,
	o order.Order,
	limit int,
) (Request, error) {
	text = strings.TrimSpace(text)
	if len(text) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrInvalidQuery, MaxQueryLength)
	}
	if c == "" {
		c = category.All
	}
	if !c.IsValid() {
		return Request{}, fmt.Errorf("%w: invalid category %q", domain.ErrInvalidQuery, c)
	}
	if o == "" {
		o = order.Source
	}
	if !o.IsValid() {
		return Request{}, fmt.Errorf("%w: invalid sort %q", domain.ErrInvalidQuery, o)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Request{
		text:     text,
		category: c,
		filters:  filters,
		order:    o,
		limit:    limit,
	}, nil
}

// Text returns the trimmed search text.
func (r *Request) Text() string { return r.text }

// IsEmpty reports whether there is nothing to search for.
func (r *Request) IsEmpty() bool { return r.text == "" }

// Category returns the requested result kind.
func (r *Request) Category() category.Category { return r.category }

// Filters returns the filter selection.
func (r *Request) Filters() filter.Filters { return r.filters }

// Order returns the repository sort pass.
func (r *Request) Order() order.Order { return r.order }

// Limit returns the maximum results per single-kind category.
func (r *Request) Limit() int { return r.limit }
