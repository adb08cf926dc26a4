package search

import (
	"context"

	"github.com/kailas-cloud/bitsync/internal/domain/search/filter"
	"github.com/kailas-cloud/bitsync/internal/domain/search/result"
)

// Source is the data provider behind the pipeline. Implementations should
// honor filters; the service re-checks them on every returned item.
type Source interface {
	Repositories(ctx context.Context, text string, filters filter.Filters, limit int) ([]result.Repository, error)
	Code(ctx context.Context, text string, filters filter.Filters, limit int) ([]result.Code, error)
	Users(ctx context.Context, text string, limit int) ([]result.User, error)
}
