package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// IndexChecker checks that the search indexes exist.
type IndexChecker interface {
	IndexesReady(ctx context.Context) error
}
