package health

import (
	"context"
	"errors"
	"time"
)

// Status is the aggregated health of the search backend.
type Status string

const (
	// Healthy means the catalog answers and every index exists.
	Healthy Status = "ok"
	// Degraded means the catalog answers but search over it may fail.
	Degraded Status = "degraded"
	// Unhealthy means the catalog store is unreachable.
	Unhealthy Status = "error"
)

// CheckResult is the outcome of a single component check.
type CheckResult string

const (
	CheckOK      CheckResult = "ok"
	CheckError   CheckResult = "error"
	CheckTimeout CheckResult = "timeout"
)

// Component names reported in Report.Checks.
const (
	ComponentStore   = "database"
	ComponentIndexes = "indexes"
)

// DefaultCheckTimeout bounds each component check.
const DefaultCheckTimeout = 2 * time.Second

// Report aggregates component checks.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service checks the catalog store behind the search pipeline.
type Service struct {
	db      DBPinger
	indexes IndexChecker
	timeout time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithCheckTimeout overrides DefaultCheckTimeout. Non-positive values are ignored.
func WithCheckTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// New creates a Service. Both checks are optional: the synthetic source has neither.
func New(db DBPinger, indexes IndexChecker, opts ...Option) *Service {
	s := &Service{db: db, indexes: indexes, timeout: DefaultCheckTimeout}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Check pings the store, then the indexes. An unreachable store is fatal and
// skips the index check; missing indexes only degrade search.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, 2)

	if s.db != nil {
		res := s.run(ctx, s.db.Ping)
		checks[ComponentStore] = res
		if res != CheckOK {
			return Report{Status: Unhealthy, Checks: checks}
		}
	}

	status := Healthy
	if s.indexes != nil {
		res := s.run(ctx, s.indexes.IndexesReady)
		checks[ComponentIndexes] = res
		if res != CheckOK {
			status = Degraded
		}
	}

	return Report{Status: status, Checks: checks}
}

func (s *Service) run(ctx context.Context, fn func(context.Context) error) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := fn(ctx)
	switch {
	case err == nil:
		return CheckOK
	case errors.Is(err, context.DeadlineExceeded):
		return CheckTimeout
	default:
		return CheckError
	}
}
