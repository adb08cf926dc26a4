package explore

import (
	"context"

	"github.com/kailas-cloud/bitsync/internal/domain/search/order"
	"github.com/kailas-cloud/bitsync/internal/domain/search/result"
)

// Browser lists public repositories without a search term. Browse returns
// the top limit repositories of the whole catalog under o, not a ranking
// of an arbitrary subset.
type Browser interface {
	Browse(ctx context.Context, o order.Order, limit int) ([]result.Repository, error)
}
