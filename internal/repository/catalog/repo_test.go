package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/bitsync/internal/db"
	"github.com/kailas-cloud/bitsync/internal/domain"
	"github.com/kailas-cloud/bitsync/internal/domain/file"
	"github.com/kailas-cloud/bitsync/internal/domain/search/filter"
	"github.com/kailas-cloud/bitsync/internal/domain/search/order"
	"github.com/kailas-cloud/bitsync/internal/domain/search/result"
)

func TestRepositories_NativeText(t *testing.T) {
	r, ms := newTestRepo(t, true)
	ms.searchFn = func(_ context.Context, _ *db.Query) (*db.SearchResult, error) {
		return entries(repoToHash(testRepository("r1", "bitsync-core", "Core library"))), nil
	}

	f, err := filter.New("TypeScript", filter.VisibilityPublic, filter.ThisWeek)
	if err != nil {
		t.Fatalf("filter.New: %v", err)
	}
	got, err := r.Repositories(context.Background(), "core", f, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Name != "bitsync-core" || got[0].Stars != 42 {
		t.Fatalf("unexpected result: %+v", got)
	}
	if !got[0].UpdatedAt.Equal(testNow.Add(-time.Hour)) {
		t.Errorf("updated_at not round-tripped: %v", got[0].UpdatedAt)
	}

	q := ms.queries[0]
	if q.IndexName != "bitsync:repo:idx" || q.Text != "core" || q.Limit != 10 {
		t.Errorf("unexpected query: %+v", q)
	}
	if len(q.Conditions) != 3 {
		t.Fatalf("expected language, visibility and date conditions, got %+v", q.Conditions)
	}
	if q.Conditions[1].Values[0] != "1" {
		t.Errorf("expected public tag 1, got %v", q.Conditions[1].Values)
	}
	// 2026-10-15 is a Thursday; the week starts on Monday the 12th.
	wantSince := float64(time.Date(2026, time.October, 12, 0, 0, 0, 0, time.UTC).Unix())
	if q.Conditions[2].Min != wantSince {
		t.Errorf("since = %v, want %v", q.Conditions[2].Min, wantSince)
	}
}

func TestSeparatorOnlyText_MatchedClientSide(t *testing.T) {
	r, ms := newTestRepo(t, true)
	ms.searchFn = func(_ context.Context, q *db.Query) (*db.SearchResult, error) {
		switch q.IndexName {
		case "bitsync:repo:idx":
			return entries(
				repoToHash(testRepository("r1", "alpha", "plain words")),
				repoToHash(testRepository("r2", "beta", "flags like --verbose")),
			), nil
		case "bitsync:user:idx":
			return entries(userToHash(result.User{ID: "u1", Username: "jane", FullName: "Jane Doe"})), nil
		}
		return &db.SearchResult{}, nil
	}

	repos, err := r.Repositories(context.Background(), "--", filter.None(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repos) != 1 || repos[0].ID != "r2" {
		t.Errorf("expected only the repository containing \"--\", got %+v", repos)
	}

	users, err := r.Users(context.Background(), "...", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(users) != 0 {
		t.Errorf("expected no users for \"...\", got %+v", users)
	}

	for _, q := range ms.queries {
		if q.Text != "" {
			t.Errorf("separator-only text must not reach the index: %+v", q)
		}
		if q.Limit != DefaultPoolSize {
			t.Errorf("expected candidate pool limit, got %d", q.Limit)
		}
	}
}

func TestRepositories_ClientSideText(t *testing.T) {
	r, ms := newTestRepo(t, false)
	ms.searchFn = func(_ context.Context, _ *db.Query) (*db.SearchResult, error) {
		return entries(
			repoToHash(testRepository("r1", "alpha", "nothing here")),
			repoToHash(testRepository("r2", "beta", "A React component kit")),
			repoToHash(testRepository("r3", "REACT-native", "")),
			repoToHash(testRepository("r4", "react-dom", "")),
		), nil
	}

	got, err := r.Repositories(context.Background(), "react", filter.None(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "r2" || got[1].ID != "r3" {
		t.Errorf("unexpected result: %+v", got)
	}
	q := ms.queries[0]
	if q.Text != "" || q.Limit != DefaultPoolSize {
		t.Errorf("expected pool fetch without text, got %+v", q)
	}
	if len(q.Conditions) != 0 {
		t.Errorf("expected no conditions for empty filters, got %+v", q.Conditions)
	}
}

func TestRepositories_StoreError(t *testing.T) {
	r, ms := newTestRepo(t, true)
	ms.searchFn = func(_ context.Context, _ *db.Query) (*db.SearchResult, error) {
		return nil, db.ErrIndexNotFound
	}
	if _, err := r.Repositories(context.Background(), "x", filter.None(), 5); !errors.Is(err, db.ErrIndexNotFound) {
		t.Errorf("expected ErrIndexNotFound, got %v", err)
	}
}

func TestRepositories_CorruptHash(t *testing.T) {
	r, ms := newTestRepo(t, true)
	ms.searchFn = func(_ context.Context, _ *db.Query) (*db.SearchResult, error) {
		return entries(map[string]string{fieldID: "r1", fieldStars: "many", fieldUpdatedAt: "0"}), nil
	}
	if _, err := r.Repositories(context.Background(), "x", filter.None(), 5); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestCode_MatchingLines(t *testing.T) {
	r, ms := newTestRepo(t, true)
	src, err := file.New("f1", "src/utils/index.ts", "bitsync-core", "bitsync",
		"import x from 'y'\nexport function useSearch() {}\nconst a = 1\n// useSearch helper")
	if err != nil {
		t.Fatalf("file.New: %v", err)
	}
	other, err := file.New("f2", "README.md", "bitsync-core", "bitsync", "use search wisely")
	if err != nil {
		t.Fatalf("file.New: %v", err)
	}
	ms.searchFn = func(_ context.Context, _ *db.Query) (*db.SearchResult, error) {
		return entries(fileToHash(other), fileToHash(src)), nil
	}

	f, _ := filter.New("TypeScript", "", "")
	got, err := r.Code(context.Background(), "usesearch", f, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 hit (README has no contiguous match), got %+v", got)
	}
	hit := got[0]
	if hit.FileName != "index.ts" || hit.Path != "src/utils" || hit.Language != "TypeScript" {
		t.Errorf("unexpected hit: %+v", hit)
	}
	if len(hit.MatchingLines) != 2 || hit.MatchingLines[0].Number != 2 || hit.MatchingLines[1].Number != 4 {
		t.Errorf("unexpected lines: %+v", hit.MatchingLines)
	}

	q := ms.queries[0]
	if q.IndexName != "bitsync:code:idx" || len(q.TextFields) != 1 || q.TextFields[0] != fieldContent {
		t.Errorf("unexpected query: %+v", q)
	}
	if q.Limit != 10*codeOverfetch {
		t.Errorf("limit = %d, want %d", q.Limit, 10*codeOverfetch)
	}
	if len(q.Conditions) != 1 || q.Conditions[0].Values[0] != "TypeScript" {
		t.Errorf("expected language condition, got %+v", q.Conditions)
	}
}

func TestUsers_ClientSideText(t *testing.T) {
	r, ms := newTestRepo(t, false)
	ms.searchFn = func(_ context.Context, _ *db.Query) (*db.SearchResult, error) {
		return entries(
			userToHash(result.User{ID: "u1", Username: "janedoe", FullName: "Jane Doe", RepositoryCount: 12}),
			userToHash(result.User{ID: "u2", Username: "rsmith", FullName: "Robert Smith"}),
		), nil
	}
	got, err := r.Users(context.Background(), "DOE", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Username != "janedoe" || got[0].RepositoryCount != 12 {
		t.Errorf("unexpected users: %+v", got)
	}
}

func TestBrowse_SortsOnServer(t *testing.T) {
	tests := []struct {
		order    order.Order
		sortBy   string
		sortDesc bool
	}{
		{order.Trending, fieldStars, true},
		{order.Newest, fieldUpdatedAt, true},
		{order.Source, "", false},
	}
	for _, tc := range tests {
		t.Run(string(tc.order), func(t *testing.T) {
			r, ms := newTestRepo(t, true)
			if _, err := r.Browse(context.Background(), tc.order, 3); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(ms.queries) != 1 {
				t.Fatalf("expected one query, got %d", len(ms.queries))
			}
			q := ms.queries[0]
			if q.SortBy != tc.sortBy || q.SortDesc != tc.sortDesc || q.Limit != 3 {
				t.Errorf("unexpected query: %+v", q)
			}
			if len(q.Conditions) != 1 || q.Conditions[0].Field != fieldPublic {
				t.Errorf("expected public-only condition, got %+v", q.Conditions)
			}
		})
	}
}

// pagedCatalog serves n public repositories in key order, one page per query.
// Repository i has i stars and no forks, except the last one, which has
// no stars and the most forks.
func pagedCatalog(n int) func(context.Context, *db.Query) (*db.SearchResult, error) {
	return func(_ context.Context, q *db.Query) (*db.SearchResult, error) {
		res := &db.SearchResult{Total: n}
		for i := q.Offset; i < n && i < q.Offset+q.Limit; i++ {
			repo := testRepository(fmt.Sprintf("r%d", i), fmt.Sprintf("repo-%d", i), "")
			repo.Stars, repo.Forks = i, 0
			if i == n-1 {
				repo.Stars, repo.Forks = 0, 10*n
			}
			res.Entries = append(res.Entries, db.SearchEntry{Key: "bitsync:repo:" + repo.ID, Fields: repoToHash(repo)})
		}
		return res, nil
	}
}

func TestBrowse_PopularScansWholeCatalog(t *testing.T) {
	ms := &mockStore{textSearch: true, searchFn: pagedCatalog(250)}
	r := New(ms, "bitsync:", WithPoolSize(100))

	got, err := r.Browse(context.Background(), order.Popular, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "r249" || got[1].ID != "r248" {
		t.Errorf("unexpected ranking: %+v", got)
	}
	if len(ms.queries) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(ms.queries))
	}
	for i, q := range ms.queries {
		if q.Offset != i*100 || q.Limit != 100 {
			t.Errorf("page %d: offset=%d limit=%d", i, q.Offset, q.Limit)
		}
	}
}

func TestListByOwner(t *testing.T) {
	r, ms := newTestRepo(t, true)
	priv := testRepository("r2", "secret", "")
	priv.IsPublic = false
	ms.searchFn = func(_ context.Context, _ *db.Query) (*db.SearchResult, error) {
		return entries(repoToHash(testRepository("r1", "open", "")), repoToHash(priv)), nil
	}
	got, err := r.ListByOwner(context.Background(), "bitsync")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[1].IsPublic {
		t.Errorf("expected private repositories included, got %+v", got)
	}
	if ms.queries[0].Conditions[0].Values[0] != "bitsync" {
		t.Errorf("unexpected owner condition: %+v", ms.queries[0].Conditions)
	}
}

func TestCreateRepository(t *testing.T) {
	r, ms := newTestRepo(t, true)
	var reserved string
	var written []db.HashSetItem
	ms.setNXFn = func(_ context.Context, key string, _ []byte) error {
		reserved = key
		return nil
	}
	ms.hsetMultiFn = func(_ context.Context, items []db.HashSetItem) error {
		written = items
		return nil
	}

	readme, _ := file.New("f1", "README.md", "Core", "bitsync", "# Core")
	if err := r.CreateRepository(context.Background(), testRepository("r1", "Core", ""), []file.File{readme}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reserved != "bitsync:repo_name:bitsync/core" {
		t.Errorf("reserved key = %q", reserved)
	}
	if len(written) != 2 || written[0].Key != "bitsync:repo:r1" || written[1].Key != "bitsync:code:f1" {
		t.Errorf("unexpected writes: %+v", written)
	}
	if written[1].Fields[fieldLanguage] != "Markdown" {
		t.Errorf("expected derived language, got %q", written[1].Fields[fieldLanguage])
	}
}

func TestCreateRepository_Duplicate(t *testing.T) {
	r, ms := newTestRepo(t, true)
	ms.setNXFn = func(_ context.Context, _ string, _ []byte) error { return db.ErrKeyExists }
	ms.hsetMultiFn = func(_ context.Context, _ []db.HashSetItem) error {
		t.Fatal("must not write a duplicate")
		return nil
	}
	err := r.CreateRepository(context.Background(), testRepository("r1", "core", ""), nil)
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestCreateRepository_RollbackOnWriteFailure(t *testing.T) {
	r, ms := newTestRepo(t, true)
	var deleted []string
	ms.hsetMultiFn = func(_ context.Context, _ []db.HashSetItem) error { return fmt.Errorf("boom") }
	ms.delFn = func(_ context.Context, keys ...string) error {
		deleted = keys
		return nil
	}
	readme, err := file.New("f1", "README.md", "core", "bitsync", "# core")
	if err != nil {
		t.Fatalf("file.New: %v", err)
	}
	files := []file.File{readme}
	if err = r.CreateRepository(context.Background(), testRepository("r1", "core", ""), files); err == nil {
		t.Fatal("expected error")
	}
	want := []string{"bitsync:repo:r1", "bitsync:code:f1", "bitsync:repo_name:bitsync/core"}
	if strings.Join(deleted, ",") != strings.Join(want, ",") {
		t.Errorf("rollback deleted %v, want %v", deleted, want)
	}
}

func TestCreateRepository_RollbackFailureJoined(t *testing.T) {
	r, ms := newTestRepo(t, true)
	writeErr := fmt.Errorf("write boom")
	delErr := fmt.Errorf("del boom")
	ms.hsetMultiFn = func(_ context.Context, _ []db.HashSetItem) error { return writeErr }
	ms.delFn = func(_ context.Context, _ ...string) error { return delErr }
	err := r.CreateRepository(context.Background(), testRepository("r1", "core", ""), nil)
	if !errors.Is(err, writeErr) || !errors.Is(err, delErr) {
		t.Errorf("expected both errors joined, got %v", err)
	}
}

func TestEnsureIndexes_IgnoresExisting(t *testing.T) {
	r, ms := newTestRepo(t, true)
	var names []string
	ms.createIndexFn = func(_ context.Context, def *db.IndexDefinition) error {
		names = append(names, def.Name)
		return db.ErrIndexExists
	}
	if err := r.EnsureIndexes(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(names, ",") != "bitsync:repo:idx,bitsync:code:idx,bitsync:user:idx" {
		t.Errorf("unexpected indexes: %v", names)
	}
}

func TestIndexDefinitions(t *testing.T) {
	r, _ := newTestRepo(t, true)

	code := r.codeIndex()
	if !code.KeepStopwords {
		t.Error("code index must keep stopwords")
	}
	for _, f := range code.Fields {
		if f.Type == db.FieldText && !f.NoStem {
			t.Errorf("code field %s must not be stemmed", f.Name)
		}
	}

	repo := r.repoIndex()
	if repo.KeepStopwords {
		t.Error("repository descriptions use the default stopword list")
	}
	sortable := map[string]bool{}
	for _, f := range repo.Fields {
		if f.Sortable {
			sortable[f.Name] = true
		}
	}
	for _, name := range []string{fieldStars, fieldForks, fieldUpdatedAt} {
		if !sortable[name] {
			t.Errorf("repository field %s must be sortable", name)
		}
	}
}

func TestIndexesReady_Missing(t *testing.T) {
	r, ms := newTestRepo(t, true)
	ms.indexExistsFn = func(_ context.Context, name string) (bool, error) {
		return name != "bitsync:user:idx", nil
	}
	if err := r.IndexesReady(context.Background()); !errors.Is(err, db.ErrIndexNotFound) {
		t.Errorf("expected ErrIndexNotFound, got %v", err)
	}
}

func TestListByOwner_Paged(t *testing.T) {
	ms := &mockStore{textSearch: true, searchFn: pagedCatalog(250)}
	r := New(ms, "bitsync:", WithPoolSize(100))

	got, err := r.ListByOwner(context.Background(), "bitsync")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 250 {
		t.Errorf("expected every repository across pages, got %d", len(got))
	}
}

func TestSeed(t *testing.T) {
	r, ms := newTestRepo(t, true)
	ms.setNXFn = func(_ context.Context, _ string, _ []byte) error { return db.ErrKeyExists }
	var n int
	ms.hsetMultiFn = func(_ context.Context, items []db.HashSetItem) error {
		n = len(items)
		return nil
	}
	err := r.Seed(context.Background(),
		[]result.Repository{testRepository("r1", "core", "")},
		nil,
		[]result.User{{ID: "u1", Username: "janedoe"}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 hashes written, got %d", n)
	}
}
