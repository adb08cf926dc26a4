package repos

import (
	"context"

	"github.com/kailas-cloud/bitsync/internal/domain/file"
	"github.com/kailas-cloud/bitsync/internal/domain/search/result"
)

// Store persists repositories and their initial files.
type Store interface {
	// CreateRepository stores r and files atomically per owner/name.
	// Returns domain.ErrAlreadyExists when owner/name is taken.
	CreateRepository(ctx context.Context, r result.Repository, files []file.File) error
	ListByOwner(ctx context.Context, owner string) ([]result.Repository, error)
}
