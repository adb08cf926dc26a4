package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/bitsync/internal/db"
	"github.com/kailas-cloud/bitsync/internal/domain/search/result"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hsetMultiFn   func(ctx context.Context, items []db.HashSetItem) error
	setNXFn       func(ctx context.Context, key string, value []byte) error
	delFn         func(ctx context.Context, keys ...string) error
	createIndexFn func(ctx context.Context, def *db.IndexDefinition) error
	indexExistsFn func(ctx context.Context, name string) (bool, error)
	searchFn      func(ctx context.Context, q *db.Query) (*db.SearchResult, error)
	textSearch    bool

	queries []*db.Query
}

func (m *mockStore) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	if m.hsetMultiFn != nil {
		return m.hsetMultiFn(ctx, items)
	}
	return nil
}

func (m *mockStore) SetNX(ctx context.Context, key string, value []byte) error {
	if m.setNXFn != nil {
		return m.setNXFn(ctx, key, value)
	}
	return nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) error {
	if m.delFn != nil {
		return m.delFn(ctx, keys...)
	}
	return nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return true, nil
}

func (m *mockStore) SupportsTextSearch(_ context.Context) bool { return m.textSearch }

func (m *mockStore) Search(ctx context.Context, q *db.Query) (*db.SearchResult, error) {
	m.queries = append(m.queries, q)
	if m.searchFn != nil {
		return m.searchFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

var testNow = time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC)

func newTestRepo(t *testing.T, textSearch bool) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{textSearch: textSearch}
	return New(ms, "bitsync:", WithClock(func() time.Time { return testNow })), ms
}

func entries(maps ...map[string]string) *db.SearchResult {
	res := &db.SearchResult{Total: len(maps)}
	for _, m := range maps {
		res.Entries = append(res.Entries, db.SearchEntry{Key: "k:" + m[fieldID], Fields: m})
	}
	return res
}

func testRepository(id, name, desc string) result.Repository {
	return result.Repository{
		ID:          id,
		Name:        name,
		Owner:       "bitsync",
		Description: desc,
		Stars:       42,
		Forks:       7,
		Language:    "TypeScript",
		UpdatedAt:   testNow.Add(-time.Hour),
		IsPublic:    true,
	}
}
