package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/bitsync/internal/domain"
	"github.com/kailas-cloud/bitsync/internal/domain/search/category"
	"github.com/kailas-cloud/bitsync/internal/domain/search/filter"
	"github.com/kailas-cloud/bitsync/internal/domain/search/outcome"
	"github.com/kailas-cloud/bitsync/internal/domain/search/request"
	"github.com/kailas-cloud/bitsync/internal/domain/search/result"
	"github.com/kailas-cloud/bitsync/internal/logger"
	"github.com/kailas-cloud/bitsync/internal/metrics"
)

// Mixed result proportions for category "all".
const (
	MixedRepositories = 2
	MixedCode         = 2
	MixedUsers        = 1
)

// Service runs the result query pipeline over a Source.
type Service struct {
	source  Source
	logger  *zap.Logger
	timeout time.Duration
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithTimeout bounds every pipeline run. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// WithClock overrides the clock used for date range filtering.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a search service.
func New(source Source, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{source: source, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search maps a request to an ordered sequence of result items.
// A blank query returns nothing without touching the source.
// Errors wrap domain.ErrQueryFailed; deadline overruns wrap domain.ErrQueryTimeout.
func (s *Service) Search(ctx context.Context, req *request.Request) ([]result.Item, error) {
	if req.IsEmpty() {
		return nil, nil
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var (
		items []result.Item
		err   error
	)
	switch req.Category() {
	case category.Repositories:
		items, err = s.searchRepositories(ctx, req, req.Limit())
	case category.Code:
		items, err = s.searchCode(ctx, req, req.Limit())
	case category.Users:
		items, err = s.searchUsers(ctx, req, req.Limit())
	case category.All:
		items, err = s.searchAll(ctx, req)
	default:
		return nil, fmt.Errorf("%w: unsupported category %q", domain.ErrInvalidQuery, req.Category())
	}
	if err != nil {
		return nil, classify(ctx, err)
	}
	return items, nil
}

// Run is the pipeline boundary: it never fails, every error becomes a
// displayable outcome.
func (s *Service) Run(ctx context.Context, req *request.Request) outcome.Outcome {
	start := time.Now()
	cat := req.Category().String()

	var out outcome.Outcome
	if req.IsEmpty() {
		out = outcome.Idle()
	} else {
		items, err := s.Search(ctx, req)
		if err != nil {
			logger.FromContextOr(ctx, s.logger).Warn("Search failed",
				zap.String("query", req.Text()),
				zap.String("category", cat),
				zap.Error(err),
			)
			out = outcome.Failed(err)
		} else {
			out = outcome.FromItems(req.Text(), req.Category(), items)
		}
	}

	logger.Annotate(ctx,
		zap.String("search_category", cat),
		zap.String("search_outcome", string(out.Status)),
		zap.Int("search_items", len(out.Items)),
	)
	metrics.SearchQueriesTotal.WithLabelValues(cat, string(out.Status)).Inc()
	metrics.SearchDuration.WithLabelValues(cat).Observe(time.Since(start).Seconds())
	for kind, n := range result.Count(out.Items) {
		metrics.SearchResultsTotal.WithLabelValues(string(kind)).Add(float64(n))
	}
	return out
}

// searchAll fetches the fixed mix concurrently and concatenates it in
// repositories, code, users order regardless of completion order.
func (s *Service) searchAll(ctx context.Context, req *request.Request) ([]result.Item, error) {
	var repos, code, users []result.Item

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		repos, err = s.searchRepositories(gctx, req, MixedRepositories)
		return err
	})
	g.Go(func() error {
		var err error
		code, err = s.searchCode(gctx, req, MixedCode)
		return err
	})
	g.Go(func() error {
		var err error
		users, err = s.searchUsers(gctx, req, MixedUsers)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	items := make([]result.Item, 0, len(repos)+len(code)+len(users))
	items = append(items, repos...)
	items = append(items, code...)
	items = append(items, users...)
	return items, nil
}

func (s *Service) searchRepositories(
	ctx context.Context, req *request.Request, limit int,
) ([]result.Item, error) {
	repos, err := s.source.Repositories(ctx, req.Text(), req.Filters(), limit)
	if err != nil {
		recordSourceError(ctx, result.KindRepository, err)
		return nil, fmt.Errorf("repositories: %w", err)
	}

	now := s.now()
	f := req.Filters()
	kept := make([]result.Repository, 0, len(repos))
	for _, r := range repos {
		if f.AdmitsRepository(r.Language, r.IsPublic, r.UpdatedAt, now) {
			kept = append(kept, r)
		}
	}
	kept = req.Order().Apply(kept)
	if len(kept) > limit {
		kept = kept[:limit]
	}

	items := make([]result.Item, len(kept))
	for i, r := range kept {
		items[i] = r
	}
	return items, nil
}

func (s *Service) searchCode(
	ctx context.Context, req *request.Request, limit int,
) ([]result.Item, error) {
	hits, err := s.source.Code(ctx, req.Text(), req.Filters(), limit)
	if err != nil {
		recordSourceError(ctx, result.KindCode, err)
		return nil, fmt.Errorf("code: %w", err)
	}
	return admitCode(hits, req.Filters(), limit), nil
}

func (s *Service) searchUsers(
	ctx context.Context, req *request.Request, limit int,
) ([]result.Item, error) {
	users, err := s.source.Users(ctx, req.Text(), limit)
	if err != nil {
		recordSourceError(ctx, result.KindUser, err)
		return nil, fmt.Errorf("users: %w", err)
	}
	if len(users) > limit {
		users = users[:limit]
	}
	items := make([]result.Item, len(users))
	for i, u := range users {
		items[i] = u
	}
	return items, nil
}

func admitCode(hits []result.Code, f filter.Filters, limit int) []result.Item {
	items := make([]result.Item, 0, min(len(hits), limit))
	for _, c := range hits {
		if len(items) == limit {
			break
		}
		if f.AdmitsLanguage(c.Language) {
			items = append(items, c)
		}
	}
	return items
}

// classify maps a source failure onto the query error taxonomy.
func classify(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrQueryFailed):
		return err
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", domain.ErrQueryTimeout, err)
	default:
		return fmt.Errorf("%w: %w", domain.ErrQueryFailed, err)
	}
}

func recordSourceError(ctx context.Context, kind result.Kind, err error) {
	// Siblings cancelled by a failed fan-out are not source errors.
	if errors.Is(err, context.Canceled) {
		return
	}
	errType := "failed"
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		errType = "timeout"
	}
	metrics.SearchSourceErrorsTotal.WithLabelValues(string(kind), errType).Inc()
}
