// Package synthetic generates deterministic sample results for a query.
// It stands in for a real index in local runs and demos.
package synthetic

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"net/url"
	"strings"
	"time"

	"github.com/kailas-cloud/bitsync/internal/domain"
	"github.com/kailas-cloud/bitsync/internal/domain/file"
	"github.com/kailas-cloud/bitsync/internal/domain/search/filter"
	"github.com/kailas-cloud/bitsync/internal/domain/search/order"
	"github.com/kailas-cloud/bitsync/internal/domain/search/result"
)

// maxAge bounds how far back generated repositories were updated.
const maxAge = 10_000_000 * time.Second

// publicRatio is the share of generated repositories that are public.
const publicRatio = 0.7

var (
	languages   = []string{"TypeScript", "JavaScript", "Python", "Go", "Rust"}
	fileStems   = []string{"index", "utils", "helpers", "types", "constants"}
	fileExts    = []string{".ts", ".tsx", ".js", ".jsx", ".py"}
	sourceDirs  = []string{"components", "utils", "hooks", "pages", "services"}
	streamRepos = uint64(1)
	streamCode  = uint64(2)
	streamUsers = uint64(3)
)

// Source produces results derived from the query text alone: the same text
// always yields the same items.
type Source struct {
	now     func() time.Time
	latency time.Duration
}

// Option configures a Source.
type Option func(*Source)

// WithLatency delays every call, honoring context cancellation.
func WithLatency(d time.Duration) Option {
	return func(s *Source) { s.latency = d }
}

// WithClock overrides the clock used for timestamps and date range filters.
func WithClock(now func() time.Time) Option {
	return func(s *Source) { s.now = now }
}

// New creates a synthetic source.
func New(opts ...Option) *Source {
	s := &Source{now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Repositories generates up to limit repositories matching filters.
func (s *Source) Repositories(
	ctx context.Context, text string, filters filter.Filters, limit int,
) ([]result.Repository, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	rng := newRand(text, streamRepos)
	now := s.now().UTC()
	oldest := now.Add(-maxAge)
	if since := filters.DateRange().Since(now); !since.IsZero() && since.After(oldest) {
		oldest = since
	}

	repos := make([]result.Repository, 0, max(limit, 0))
	for i := range max(limit, 0) {
		lang := languages[i%len(languages)]
		if l := filters.Language(); l != "" {
			lang = l
		}
		isPublic := rng.Float64() < publicRatio
		switch filters.Visibility() {
		case filter.VisibilityPublic:
			isPublic = true
		case filter.VisibilityPrivate:
			isPublic = false
		}
		stars := rng.IntN(1000)
		span := now.Sub(oldest)
		updated := now
		if span > 0 {
			updated = now.Add(-time.Duration(rng.Int64N(int64(span)))).Truncate(time.Second)
			if updated.Before(oldest) {
				updated = oldest
			}
		}
		repos = append(repos, result.Repository{
			ID:          fmt.Sprintf("repo-%d", i),
			Name:        fmt.Sprintf("%s-project-%d", text, i),
			Owner:       fmt.Sprintf("user-%d", i%3),
			Description: fmt.Sprintf("A sample repository that matches the query %q with various features and functionalities.", text),
			Stars:       stars,
			Forks:       rng.IntN(stars/4 + 1),
			Language:    lang,
			UpdatedAt:   updated,
			IsPublic:    isPublic,
		})
	}
	return repos, nil
}

// Code generates up to limit file hits. A language filter with no known file
// extension yields nothing.
func (s *Source) Code(ctx context.Context, text string, filters filter.Filters, limit int) ([]result.Code, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	exts := fileExts
	if l := filters.Language(); l != "" {
		exts = result.ExtensionsFor(l)
		if len(exts) == 0 {
			return nil, nil
		}
	}

	rng := newRand(text, streamCode)
	hits := make([]result.Code, 0, max(limit, 0))
	for i := range max(limit, 0) {
		name := fileStems[i%len(fileStems)] + exts[i%len(exts)]
		first := rng.IntN(100) + 1
		second := first + 1 + rng.IntN(50)
		hits = append(hits, result.Code{
			ID:         fmt.Sprintf("file-%d", i),
			FileName:   name,
			Path:       "src/" + sourceDirs[i%len(sourceDirs)],
			Repository: fmt.Sprintf("project-%d", i%3),
			Owner:      fmt.Sprintf("user-%d", i%3),
			Language:   result.LanguageForFile(name),
			MatchingLines: []result.Line{
				{Number: first, Content: fmt.Sprintf("function %s() { return \"This is a sample match\"; }", text)},
				{Number: second, Content: fmt.Sprintf("const %sValue = \"Another matching line with the query term\";", text)},
			},
		})
	}
	return hits, nil
}

// Users generates up to limit users.
func (s *Source) Users(ctx context.Context, text string, limit int) ([]result.User, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	rng := newRand(text, streamUsers)
	users := make([]result.User, 0, max(limit, 0))
	for i := range max(limit, 0) {
		users = append(users, result.User{
			ID:              fmt.Sprintf("user-%d", i),
			Username:        fmt.Sprintf("%s-user-%d", strings.ToLower(text), i),
			FullName:        fmt.Sprintf("%s Sample User %d", text, i),
			AvatarURL:       "https://i.pravatar.cc/150?u=" + url.QueryEscape(fmt.Sprintf("%s-%d", text, i)),
			RepositoryCount: rng.IntN(50),
		})
	}
	return users, nil
}

// Browse returns the sample explore catalog ranked by o, public repositories only.
func (s *Source) Browse(ctx context.Context, o order.Order, limit int) ([]result.Repository, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	days := func(n int) time.Time { return now.AddDate(0, 0, -n) }
	repos := []result.Repository{
		{ID: "1", Name: "bitsync-core", Owner: "bitsync", Stars: 126, Forks: 18, Language: "TypeScript",
			Description: "Core functionality for the BitSync distributed version control system",
			UpdatedAt:   days(2), IsPublic: true},
		{ID: "2", Name: "bitsync-cli", Owner: "bitsync", Stars: 92, Forks: 11, Language: "TypeScript",
			Description: "Command line interface for BitSync - manage your repositories with ease",
			UpdatedAt:   days(5), IsPublic: true},
		{ID: "3", Name: "react-sync-components", Owner: "janesmith", Stars: 78, Forks: 23, Language: "JavaScript",
			Description: "Reusable React components for version control UI",
			UpdatedAt:   days(3), IsPublic: true},
		{ID: "4", Name: "bitsync-documentation", Owner: "bitsync", Stars: 65, Forks: 34, Language: "Markdown",
			Description: "Official documentation and examples for BitSync",
			UpdatedAt:   days(1), IsPublic: true},
		{ID: "5", Name: "sync-python-api", Owner: "johndoe", Stars: 42, Forks: 13, Language: "Python",
			Description: "Python wrapper for the BitSync API",
			UpdatedAt:   days(7), IsPublic: true},
	}
	repos = o.Apply(repos)
	if limit >= 0 && limit < len(repos) {
		repos = repos[:limit]
	}
	return repos, nil
}

// ListByOwner returns the sample repositories of owner.
func (s *Source) ListByOwner(ctx context.Context, owner string) ([]result.Repository, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	at := func(v string) time.Time {
		t, _ := time.Parse(time.RFC3339, v)
		return t
	}
	return []result.Repository{
		{ID: "1", Name: "project-alpha", Owner: owner, Stars: 5, Forks: 2,
			Description: "Main development repository for Alpha project",
			UpdatedAt:   at("2025-03-22T10:30:00Z"), IsPublic: true},
		{ID: "2", Name: "documentation", Owner: owner, Stars: 3,
			Description: "Technical documentation for all projects",
			UpdatedAt:   at("2025-03-20T14:45:00Z"), IsPublic: true},
		{ID: "3", Name: "private-config", Owner: owner,
			Description: "Configuration files for deployment",
			UpdatedAt:   at("2025-04-01T09:15:00Z"), IsPublic: false},
	}, nil
}

// CreateRepository is not supported: generated data is read-only.
func (s *Source) CreateRepository(_ context.Context, r result.Repository, _ []file.File) error {
	return fmt.Errorf("create %s: %w", r.FullName(), domain.ErrNotImplemented)
}

func (s *Source) wait(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func newRand(text string, stream uint64) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	return rand.New(rand.NewPCG(h.Sum64(), stream))
}
