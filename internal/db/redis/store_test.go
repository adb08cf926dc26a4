package redis

import (
	"context"
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/bitsync/internal/db"
)

// --- client.go tests ---

func TestPing_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))

	s := NewStoreForTest(c, true)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPing_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c, true)
	if err := s.Ping(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestIsRedisErr(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		fragments []string
		want      bool
	}{
		{"case insensitive", redisErr("Index Already Exists"), []string{"index already exists"}, true},
		{"any fragment", redisErr("no such index"), []string{"unknown index name", "no such index"}, true},
		{"no match", redisErr("WRONGTYPE"), []string{"not found"}, false},
		{"not a server error", errors.New("unknown index name"), []string{"unknown index name"}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := isRedisErr(tc.err, tc.fragments...); got != tc.want {
				t.Errorf("isRedisErr(%v, %v) = %v, want %v", tc.err, tc.fragments, got, tc.want)
			}
		})
	}
}

// redisErr builds a server error reply the way rueidis surfaces it.
func redisErr(msg string) error {
	return mock.Result(mock.RedisError(msg)).Error()
}

// --- write.go tests ---

func TestHSetMulti_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(),
			mock.MatchFn(func(cmd []string) bool { return cmd[0] == "HSET" && cmd[1] == "bitsync:repo:1" }),
			mock.MatchFn(func(cmd []string) bool { return cmd[0] == "HSET" && cmd[1] == "bitsync:code:1-0" }),
		).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisInt64(2)),
			mock.Result(mock.RedisInt64(2)),
		})

	s := NewStoreForTest(c, true)
	err := s.HSetMulti(context.Background(), []db.HashSetItem{
		{Key: "bitsync:repo:1", Fields: map[string]string{"name": "bitsync-core"}},
		{Key: "bitsync:code:1-0", Fields: map[string]string{"path": "README.md"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHSetMulti_PartialError(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisInt64(1)),
			mock.ErrorResult(context.DeadlineExceeded),
		})

	s := NewStoreForTest(c, true)
	err := s.HSetMulti(context.Background(), []db.HashSetItem{
		{Key: "k1", Fields: map[string]string{"f": "v"}},
		{Key: "k2", Fields: map[string]string{"f": "v"}},
	})
	if !isDBError(err) {
		t.Fatalf("expected db.Error, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected cause preserved, got %v", err)
	}
}

func TestHSetMulti_Empty(t *testing.T) {
	s := NewStoreForTest(nil, true) // client not called
	if err := s.HSetMulti(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDel_MultipleKeys(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("DEL", "bitsync:repo_name:alice/core", "bitsync:repo:1")).
		Return(mock.Result(mock.RedisInt64(2)))

	s := NewStoreForTest(c, true)
	if err := s.Del(context.Background(), "bitsync:repo_name:alice/core", "bitsync:repo:1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDel_NoKeys(t *testing.T) {
	s := NewStoreForTest(nil, true)
	if err := s.Del(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSetNX_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "k", "v", "NX")).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c, true)
	if err := s.SetNX(context.Background(), "k", []byte("v")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSetNX_Exists(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "k", "v", "NX")).
		Return(mock.Result(mock.RedisNil()))

	s := NewStoreForTest(c, true)
	err := s.SetNX(context.Background(), "k", []byte("v"))
	if !errors.Is(err, db.ErrKeyExists) {
		t.Errorf("expected ErrKeyExists, got %v", err)
	}
}

func TestSetNX_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "k", "v", "NX")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c, true)
	err := s.SetNX(context.Background(), "k", []byte("v"))
	if !isDBError(err) || errors.Is(err, db.ErrKeyExists) {
		t.Errorf("expected db.Error, got %v", err)
	}
}

// --- index.go tests ---

func repoIndex() *db.IndexDefinition {
	return db.MustIndex("bitsync:repo:idx", "bitsync:repo:",
		db.Text("name", db.Weight(2), db.NoStem()),
		db.Tag("language"),
		db.Numeric("stars", db.Sortable()),
	)
}

func TestCreateIndex_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	var got []string
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			got = cmd
			return cmd[0] == "FT.CREATE"
		})).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c, true)
	if err := s.CreateIndex(context.Background(), repoIndex()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{
		"FT.CREATE", "bitsync:repo:idx", "ON", "HASH", "PREFIX", "1", "bitsync:repo:",
		"SCHEMA", "name", "TEXT", "WEIGHT", "2", "NOSTEM", "language", "TAG", "stars", "NUMERIC", "SORTABLE",
	}
	if !slices.Equal(got, want) {
		t.Errorf("command = %v, want %v", got, want)
	}
}

func TestCreateIndex_WithoutTextSearch(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.CREATE" && !slices.Contains(cmd, "TEXT")
		})).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c, false)
	if err := s.CreateIndex(context.Background(), repoIndex()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBuildCreateArgs_Stopwords(t *testing.T) {
	def := db.MustIndex("bitsync:code:idx", "bitsync:code:", db.Text("content"), db.Tag("language"))
	def.KeepStopwords = true

	args, err := buildCreateArgs(def)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{
		"bitsync:code:idx", "ON", "HASH", "PREFIX", "1", "bitsync:code:",
		"STOPWORDS", "0", "SCHEMA", "content", "TEXT", "language", "TAG",
	}
	if !slices.Equal(args, want) {
		t.Errorf("args = %v, want %v", args, want)
	}

	args, err = buildCreateArgs(def.WithoutText())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slices.Contains(args, "STOPWORDS") {
		t.Errorf("STOPWORDS without TEXT fields: %v", args)
	}
}

func TestCreateIndex_AlreadyExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.CREATE"
		})).
		Return(mock.Result(mock.RedisError("Index already exists")))

	s := NewStoreForTest(c, true)
	err := s.CreateIndex(context.Background(), repoIndex())
	if !errors.Is(err, db.ErrIndexExists) {
		t.Errorf("expected ErrIndexExists, got %v", err)
	}
}

func TestCreateIndex_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.CREATE"
		})).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c, true)
	if err := s.CreateIndex(context.Background(), repoIndex()); !isDBError(err) {
		t.Fatalf("expected db.Error, got %v", err)
	}
}

func TestIndexExists_True(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.INFO", "test:idx")).
		Return(mock.Result(mock.RedisArray(mock.RedisString("index_name"), mock.RedisString("test:idx"))))

	s := NewStoreForTest(c, true)
	exists, err := s.IndexExists(context.Background(), "test:idx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists {
		t.Error("expected true")
	}
}

func TestIndexExists_False(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.INFO", "test:idx")).
		Return(mock.Result(mock.RedisError("Unknown Index name")))

	s := NewStoreForTest(c, true)
	exists, err := s.IndexExists(context.Background(), "test:idx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exists {
		t.Error("expected false")
	}
}

func TestSupportsTextSearch(t *testing.T) {
	if !NewStoreForTest(nil, true).SupportsTextSearch(context.Background()) {
		t.Error("Redis store should support text search")
	}
	if NewStoreForTest(nil, false).SupportsTextSearch(context.Background()) {
		t.Error("valkey-search store should not support text search")
	}
}

func TestBuildCreateArgs_Invalid(t *testing.T) {
	for _, def := range []*db.IndexDefinition{
		{Name: "", Fields: []db.Field{db.Tag("f")}},
		{Name: "test"},
		{Name: "test", Fields: []db.Field{{Name: "f", Type: db.FieldType(99)}}},
	} {
		if _, err := buildCreateArgs(def); err == nil {
			t.Errorf("expected error for %+v", def)
		}
	}
}

func TestAppendField(t *testing.T) {
	tests := []struct {
		name  string
		field db.Field
		want  []string
	}{
		{"tag", db.Tag("f"), []string{"f", "TAG"}},
		{"numeric", db.Numeric("f"), []string{"f", "NUMERIC"}},
		{"text", db.Text("f"), []string{"f", "TEXT"}},
		{"weighted text", db.Text("f", db.Weight(0.5)), []string{"f", "TEXT", "WEIGHT", "0.5"}},
		{"exact text", db.Text("f", db.NoStem()), []string{"f", "TEXT", "NOSTEM"}},
		{"tag options", db.Tag("f", db.CaseSensitive(), db.Sortable()), []string{"f", "TAG", "CASESENSITIVE", "SORTABLE"}},
		{"sortable numeric", db.Numeric("f", db.Sortable()), []string{"f", "NUMERIC", "SORTABLE"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := appendField(nil, tc.field); !slices.Equal(got, tc.want) {
				t.Errorf("args = %v, want %v", got, tc.want)
			}
		})
	}
}

// --- search.go tests ---

func TestSearch_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	var got []string
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			got = cmd
			return cmd[0] == "FT.SEARCH"
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(2),
			mock.RedisString("bitsync:repo:1"),
			mock.RedisArray(mock.RedisString("name"), mock.RedisString("bitsync-core")),
			mock.RedisString("bitsync:repo:2"),
			mock.RedisArray(mock.RedisString("name"), mock.RedisString("bitsync-cli")),
		)))

	s := NewStoreForTest(c, true)
	res, err := s.Search(context.Background(), &db.Query{
		IndexName:  "bitsync:repo:idx",
		Text:       "BitSync core",
		TextFields: []string{"name", "description"},
		Conditions: []db.Condition{db.TagIn("language", "TypeScript")},
		Limit:      5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 2 || len(res.Entries) != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Entries[1].Key != "bitsync:repo:2" || res.Entries[1].Fields["name"] != "bitsync-cli" {
		t.Errorf("unexpected entry: %+v", res.Entries[1])
	}

	want := []string{
		"FT.SEARCH", "bitsync:repo:idx",
		"@language:{TypeScript} @name|description:(bitsync* core*)",
		"LIMIT", "0", "5", "DIALECT", "2",
	}
	if !slices.Equal(got, want) {
		t.Errorf("command = %q, want %q", got, want)
	}
}

func TestSearch_TextIgnoredWithoutTextSearch(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH" && cmd[2] == "*"
		})).
		Return(mock.Result(mock.RedisArray(mock.RedisInt64(0))))

	s := NewStoreForTest(c, false)
	res, err := s.Search(context.Background(), &db.Query{IndexName: "idx", Text: "sync"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 0 || len(res.Entries) != 0 {
		t.Errorf("expected empty result, got %+v", res)
	}
}

func TestSearch_UnknownIndex(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "FT.SEARCH" })).
		Return(mock.Result(mock.RedisError("Unknown Index name")))

	s := NewStoreForTest(c, true)
	_, err := s.Search(context.Background(), &db.Query{IndexName: "idx"})
	if !errors.Is(err, db.ErrIndexNotFound) {
		t.Errorf("expected ErrIndexNotFound, got %v", err)
	}
}

func TestSearch_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "FT.SEARCH" })).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c, true)
	_, err := s.Search(context.Background(), &db.Query{IndexName: "idx", Text: "x"})
	if !isDBError(err) {
		t.Fatalf("expected db.Error, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("expected deadline to stay visible through the wrap")
	}
}

func TestSearch_Validation(t *testing.T) {
	s := NewStoreForTest(nil, true)
	if _, err := s.Search(context.Background(), &db.Query{}); err == nil {
		t.Error("expected error for missing index")
	}
	if _, err := s.Search(context.Background(), &db.Query{IndexName: "idx", Offset: -1}); err == nil {
		t.Error("expected error for negative offset")
	}
}

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		fields []string
		conds  []db.Condition
		want   string
	}{
		{"match all", "", nil, nil, "*"},
		{"blank text", "   ", nil, nil, "*"},
		{"single char term not prefixed", "a go", nil, nil, "a go*"},
		{"fields scope", "Sync", []string{"content"}, nil, "@content:(sync*)"},
		{"tag any", "", nil, []db.Condition{db.TagIn("language", "C#", "Go")}, `@language:{C\# | Go}`},
		{"tag with space", "", nil, []db.Condition{db.TagIn("owner", "a b")}, `@owner:{a\ b}`},
		{"range", "", nil, []db.Condition{db.Between("stars", 1, 2.5)}, "@stars:[1 2.5]"},
		{"open range", "", nil, []db.Condition{db.AtLeast("updated_at", 1700000000)}, "@updated_at:[1700000000 +inf]"},
		{"lower unbounded", "", nil, []db.Condition{db.Between("n", math.Inf(-1), 0)}, "@n:[-inf 0]"},
		{"combined", "bitsync-core", []string{"name"}, []db.Condition{db.TagIn("public", "1")},
			"@public:{1} @name:(bitsync* core*)"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := buildQuery(tc.text, tc.fields, tc.conds)
			if !ok || got != tc.want {
				t.Errorf("buildQuery() = %q, %v, want %q", got, ok, tc.want)
			}
		})
	}
}

func TestBuildQuery_SeparatorsOnly(t *testing.T) {
	for _, text := range []string{"--", "...", " / ", "#!"} {
		got, ok := buildQuery(text, []string{"content"}, []db.Condition{db.TagIn("public", "1")})
		if ok {
			t.Errorf("buildQuery(%q) = %q, want no query", text, got)
		}
	}
}

func TestSearch_SortedPage(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	var got []string
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			got = cmd
			return cmd[0] == "FT.SEARCH"
		})).
		Return(mock.Result(mock.RedisArray(mock.RedisInt64(0))))

	s := NewStoreForTest(c, true)
	_, err := s.Search(context.Background(), &db.Query{
		IndexName:  "bitsync:repo:idx",
		Conditions: []db.Condition{db.TagIn("public", "1")},
		SortBy:     "stars",
		SortDesc:   true,
		Offset:     200,
		Limit:      100,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{
		"FT.SEARCH", "bitsync:repo:idx", "@public:{1}",
		"SORTBY", "stars", "DESC",
		"LIMIT", "200", "100", "DIALECT", "2",
	}
	if !slices.Equal(got, want) {
		t.Errorf("command = %q, want %q", got, want)
	}
}

func TestSearch_SeparatorsOnlySkipsServer(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	s := NewStoreForTest(c, true)
	res, err := s.Search(context.Background(), &db.Query{IndexName: "bitsync:repo:idx", Text: "--"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 0 || len(res.Entries) != 0 {
		t.Errorf("expected no hits, got %+v", res)
	}
}

// --- helpers ---

// isDBError is a test helper for checking wrapped db.Error.
func isDBError(err error) bool {
	var dbErr *db.Error
	return errors.As(err, &dbErr)
}
