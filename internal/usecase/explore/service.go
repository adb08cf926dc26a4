package explore

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/bitsync/internal/domain"
	"github.com/kailas-cloud/bitsync/internal/domain/search/order"
	"github.com/kailas-cloud/bitsync/internal/domain/search/result"
)

// Explore panel limits.
const (
	DefaultLimit = 3
	MaxLimit     = 50
)

// Service lists repositories for the explore panel.
type Service struct {
	browser Browser
}

// New creates an explore service.
func New(browser Browser) *Service {
	return &Service{browser: browser}
}

// List ranks public repositories by o (default trending) and returns the top limit.
func (s *Service) List(ctx context.Context, o order.Order, limit int) ([]result.Repository, error) {
	if o == "" {
		o = order.Trending
	}
	if !o.IsValid() {
		return nil, fmt.Errorf("%w: invalid filter %q", domain.ErrInvalidQuery, o)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	repos, err := s.browser.Browse(ctx, o, limit)
	if err != nil {
		return nil, fmt.Errorf("browse repositories: %w: %w", domain.ErrQueryFailed, err)
	}

	public := make([]result.Repository, 0, len(repos))
	for _, r := range repos {
		if r.IsPublic {
			public = append(public, r)
		}
	}
	public = o.Apply(public)
	if len(public) > limit {
		public = public[:limit]
	}
	return public, nil
}
