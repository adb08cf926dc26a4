package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/bitsync/internal/db"
	"github.com/kailas-cloud/bitsync/internal/domain"
	"github.com/kailas-cloud/bitsync/internal/domain/file"
	"github.com/kailas-cloud/bitsync/internal/domain/search/filter"
	"github.com/kailas-cloud/bitsync/internal/domain/search/order"
	"github.com/kailas-cloud/bitsync/internal/domain/search/result"
)

// DefaultPoolSize bounds the candidates fetched when text has to be matched client-side.
const DefaultPoolSize = 200

// codeOverfetch compensates for token hits that have no matching line.
const codeOverfetch = 4

// store is the consumer interface for the catalog (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	SetNX(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, keys ...string) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SupportsTextSearch(ctx context.Context) bool
	Search(ctx context.Context, q *db.Query) (*db.SearchResult, error)
}

// Repo implements the search Source, the explore Browser and the repos Store
// on top of hashes and FT indexes.
type Repo struct {
	store  store
	prefix string
	now    func() time.Time
	pool   int
}

// Option configures a Repo.
type Option func(*Repo)

// WithClock overrides the clock used for date range filters.
func WithClock(now func() time.Time) Option {
	return func(r *Repo) { r.now = now }
}

// WithPoolSize overrides DefaultPoolSize.
func WithPoolSize(n int) Option {
	return func(r *Repo) {
		if n > 0 {
			r.pool = n
		}
	}
}

// New creates a catalog repository. prefix namespaces every key and index ("bitsync:").
func New(s store, prefix string, opts ...Option) *Repo {
	r := &Repo{store: s, prefix: prefix, now: time.Now, pool: DefaultPoolSize}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Repo) repoKey(id string) string { return r.prefix + "repo:" + id }
func (r *Repo) codeKey(id string) string { return r.prefix + "code:" + id }
func (r *Repo) userKey(id string) string { return r.prefix + "user:" + id }

func (r *Repo) nameKey(owner, name string) string {
	return r.prefix + "repo_name:" + strings.ToLower(owner) + "/" + strings.ToLower(name)
}

// Repositories searches repository names and descriptions.
func (r *Repo) Repositories(
	ctx context.Context, text string, filters filter.Filters, limit int,
) ([]result.Repository, error) {
	q := &db.Query{
		IndexName:  r.prefix + "repo:idx",
		Conditions: r.repoConditions(filters),
	}
	native := r.nativeText(ctx, text)
	if native {
		q.Text = text
		q.Limit = limit
	} else {
		q.Limit = r.pool
	}

	res, err := r.store.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search repositories: %w", err)
	}

	repos := make([]result.Repository, 0, min(limit, len(res.Entries)))
	for _, e := range res.Entries {
		repo, err := repoFromHash(e.Fields)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", e.Key, err)
		}
		if !native && !containsFold(text, repo.Name, repo.Description) {
			continue
		}
		repos = append(repos, repo)
		if len(repos) == limit {
			break
		}
	}
	return repos, nil
}

// Code searches file contents and reports the matching lines of each hit.
func (r *Repo) Code(ctx context.Context, text string, filters filter.Filters, limit int) ([]result.Code, error) {
	q := &db.Query{IndexName: r.prefix + "code:idx"}
	if lang := filters.Language(); lang != "" {
		q.Conditions = []db.Condition{db.TagIn(fieldLanguage, lang)}
	}
	if r.nativeText(ctx, text) {
		q.Text = text
		q.TextFields = []string{fieldContent}
		q.Limit = min(limit*codeOverfetch, r.pool)
	} else {
		q.Limit = r.pool
	}

	res, err := r.store.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search code: %w", err)
	}

	hits := make([]result.Code, 0, min(limit, len(res.Entries)))
	for _, e := range res.Entries {
		f, err := fileFromHash(e.Fields)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", e.Key, err)
		}
		hit, ok := f.Hit(text)
		if !ok {
			continue
		}
		hits = append(hits, hit)
		if len(hits) == limit {
			break
		}
	}
	return hits, nil
}

// Users searches usernames and full names.
func (r *Repo) Users(ctx context.Context, text string, limit int) ([]result.User, error) {
	q := &db.Query{IndexName: r.prefix + "user:idx"}
	native := r.nativeText(ctx, text)
	if native {
		q.Text = text
		q.Limit = limit
	} else {
		q.Limit = r.pool
	}

	res, err := r.store.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}

	users := make([]result.User, 0, min(limit, len(res.Entries)))
	for _, e := range res.Entries {
		u, err := userFromHash(e.Fields)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", e.Key, err)
		}
		if !native && !containsFold(text, u.Username, u.FullName) {
			continue
		}
		users = append(users, u)
		if len(users) == limit {
			break
		}
	}
	return users, nil
}

// Browse returns the top limit public repositories under o. Trending and
// newest sort on the server; popular ranks by stars+forks, which no field
// holds, so every public repository is scanned and ranked here.
func (r *Repo) Browse(ctx context.Context, o order.Order, limit int) ([]result.Repository, error) {
	q := &db.Query{
		IndexName:  r.prefix + "repo:idx",
		Conditions: []db.Condition{db.TagIn(fieldPublic, boolTag(true))},
		Limit:      limit,
	}
	switch o {
	case order.Trending:
		q.SortBy, q.SortDesc = fieldStars, true
	case order.Newest:
		q.SortBy, q.SortDesc = fieldUpdatedAt, true
	case order.Popular:
		all, err := r.scanRepositories(ctx, q)
		if err != nil {
			return nil, err
		}
		all = o.Apply(all)
		return all[:min(limit, len(all))], nil
	}

	res, err := r.store.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list repositories: %w", err)
	}
	return decodeRepositories(res)
}

// ListByOwner returns every repository of owner, private ones included.
func (r *Repo) ListByOwner(ctx context.Context, owner string) ([]result.Repository, error) {
	return r.scanRepositories(ctx, &db.Query{
		IndexName:  r.prefix + "repo:idx",
		Conditions: []db.Condition{db.TagIn(fieldOwner, owner)},
	})
}

// scanRepositories pages through every hit of q, pool hits per round trip.
func (r *Repo) scanRepositories(ctx context.Context, q *db.Query) ([]result.Repository, error) {
	var repos []result.Repository
	for offset := 0; ; offset += r.pool {
		page := *q
		page.Offset, page.Limit = offset, r.pool
		res, err := r.store.Search(ctx, &page)
		if err != nil {
			return nil, fmt.Errorf("list repositories: %w", err)
		}
		batch, err := decodeRepositories(res)
		if err != nil {
			return nil, err
		}
		repos = append(repos, batch...)
		if len(res.Entries) < r.pool || page.Offset+len(res.Entries) >= res.Total {
			return repos, nil
		}
	}
}

func decodeRepositories(res *db.SearchResult) ([]result.Repository, error) {
	repos := make([]result.Repository, 0, len(res.Entries))
	for _, e := range res.Entries {
		repo, err := repoFromHash(e.Fields)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", e.Key, err)
		}
		repos = append(repos, repo)
	}
	return repos, nil
}

// CreateRepository reserves owner/name, then writes the repository and its files.
// If the write fails, the reservation and anything partially written are removed.
func (r *Repo) CreateRepository(ctx context.Context, repo result.Repository, files []file.File) error {
	nameKey := r.nameKey(repo.Owner, repo.Name)
	if err := r.store.SetNX(ctx, nameKey, []byte(repo.ID)); err != nil {
		if errors.Is(err, db.ErrKeyExists) {
			return fmt.Errorf("repository %s: %w", repo.FullName(), domain.ErrAlreadyExists)
		}
		return fmt.Errorf("reserve %s: %w", repo.FullName(), err)
	}

	items := make([]db.HashSetItem, 0, len(files)+1)
	items = append(items, db.HashSetItem{Key: r.repoKey(repo.ID), Fields: repoToHash(repo)})
	for i := range files {
		items = append(items, db.HashSetItem{Key: r.codeKey(files[i].ID()), Fields: fileToHash(files[i])})
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		written := make([]string, 0, len(items)+1)
		for _, it := range items {
			written = append(written, it.Key)
		}
		written = append(written, nameKey)
		if delErr := r.store.Del(ctx, written...); delErr != nil {
			return errors.Join(fmt.Errorf("write %s: %w", repo.FullName(), err), delErr)
		}
		return fmt.Errorf("write %s: %w", repo.FullName(), err)
	}
	return nil
}

// Seed writes fixture data. Name reservations that already exist are kept.
func (r *Repo) Seed(ctx context.Context, repos []result.Repository, files []file.File, users []result.User) error {
	items := make([]db.HashSetItem, 0, len(repos)+len(files)+len(users))
	for _, repo := range repos {
		err := r.store.SetNX(ctx, r.nameKey(repo.Owner, repo.Name), []byte(repo.ID))
		if err != nil && !errors.Is(err, db.ErrKeyExists) {
			return fmt.Errorf("reserve %s: %w", repo.FullName(), err)
		}
		items = append(items, db.HashSetItem{Key: r.repoKey(repo.ID), Fields: repoToHash(repo)})
	}
	for i := range files {
		items = append(items, db.HashSetItem{Key: r.codeKey(files[i].ID()), Fields: fileToHash(files[i])})
	}
	for _, u := range users {
		items = append(items, db.HashSetItem{Key: r.userKey(u.ID), Fields: userToHash(u)})
	}
	if len(items) == 0 {
		return nil
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	return nil
}

func (r *Repo) repoConditions(f filter.Filters) []db.Condition {
	var conds []db.Condition
	if lang := f.Language(); lang != "" {
		conds = append(conds, db.TagIn(fieldLanguage, lang))
	}
	switch f.Visibility() {
	case filter.VisibilityPublic:
		conds = append(conds, db.TagIn(fieldPublic, boolTag(true)))
	case filter.VisibilityPrivate:
		conds = append(conds, db.TagIn(fieldPublic, boolTag(false)))
	}
	if since := f.DateRange().Since(r.now()); !since.IsZero() {
		conds = append(conds, db.AtLeast(fieldUpdatedAt, float64(since.Unix())))
	}
	return conds
}

// nativeText reports whether text can be matched by the index. Text made only
// of separators ("--", "...") has no index terms and is matched client-side,
// the same way on every backend.
func (r *Repo) nativeText(ctx context.Context, text string) bool {
	return r.store.SupportsTextSearch(ctx) && len(db.Terms(text)) > 0
}

// containsFold reports whether any of fields contains text, ignoring case.
func containsFold(text string, fields ...string) bool {
	needle := strings.ToLower(strings.TrimSpace(text))
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}
