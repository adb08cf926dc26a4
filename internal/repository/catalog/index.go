package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/bitsync/internal/db"
)

// Repository names match as typed; descriptions are stemmed prose.
func (r *Repo) repoIndex() *db.IndexDefinition {
	return db.MustIndex(r.prefix+"repo:idx", r.prefix+"repo:",
		db.Text(fieldName, db.Weight(2), db.NoStem()),
		db.Text(fieldDescription),
		db.Tag(fieldOwner),
		db.Tag(fieldLanguage),
		db.Tag(fieldPublic),
		db.Numeric(fieldUpdatedAt, db.Sortable()),
		db.Numeric(fieldStars, db.Sortable()),
		db.Numeric(fieldForks, db.Sortable()),
	)
}

// Code keeps stopwords and skips stemming so keywords like "for" match.
func (r *Repo) codeIndex() *db.IndexDefinition {
	def := db.MustIndex(r.prefix+"code:idx", r.prefix+"code:",
		db.Text(fieldContent, db.NoStem()),
		db.Text(fieldPath, db.Weight(0.5), db.NoStem()),
		db.Tag(fieldOwner),
		db.Tag(fieldRepository),
		db.Tag(fieldLanguage),
	)
	def.KeepStopwords = true
	return def
}

func (r *Repo) userIndex() *db.IndexDefinition {
	return db.MustIndex(r.prefix+"user:idx", r.prefix+"user:",
		db.Text(fieldUsername, db.Weight(2), db.NoStem()),
		db.Text(fieldFullName),
		db.Numeric(fieldRepoCount, db.Sortable()),
	)
}

// EnsureIndexes creates the repository, code and user indexes if missing.
func (r *Repo) EnsureIndexes(ctx context.Context) error {
	for _, def := range []*db.IndexDefinition{r.repoIndex(), r.codeIndex(), r.userIndex()} {
		if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
			return fmt.Errorf("create index %s: %w", def.Name, err)
		}
	}
	return nil
}

// IndexesReady reports whether every catalog index exists.
func (r *Repo) IndexesReady(ctx context.Context) error {
	for _, def := range []*db.IndexDefinition{r.repoIndex(), r.codeIndex(), r.userIndex()} {
		ok, err := r.store.IndexExists(ctx, def.Name)
		if err != nil {
			return fmt.Errorf("check index %s: %w", def.Name, err)
		}
		if !ok {
			return fmt.Errorf("index %s: %w", def.Name, db.ErrIndexNotFound)
		}
	}
	return nil
}
