package client

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/kailas-cloud/bitsync/pkg/api"
)

// State is the screen state of a Session.
type State string

// Session states. Searching is transient; the rest are terminal per query.
const (
	StateIdle      State = "idle"
	StateSearching State = "searching"
	StateResults   State = "results"
	StateEmpty     State = "empty"
	StateFailed    State = "failed"
)

// Searcher runs a single search. *Client implements it.
type Searcher interface {
	Search(ctx context.Context, params api.SearchParams) (*api.SearchResponse, error)
}

// Snapshot is what the screen renders.
type Snapshot struct {
	State       State
	Query       string
	Category    api.Category
	Items       []api.Item
	Message     string
	Suggestions []string
	// Generation identifies the query the snapshot belongs to.
	Generation uint64
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithOnChange is called with every applied snapshot, in order, while the
// session lock is held. fn must not call back into the session.
func WithOnChange(fn func(Snapshot)) SessionOption {
	return func(s *Session) { s.onChange = fn }
}

func withObserver(o *observer) SessionOption {
	return func(s *Session) { s.obs = o }
}

// Session is a last-query-wins coordinator: a Submit cancels the query in
// flight, and an answer that arrives for a superseded query is discarded.
type Session struct {
	searcher Searcher
	onChange func(Snapshot)
	obs      *observer

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	current    Snapshot
	stale      int
}

// NewSession creates an idle session over s.
func NewSession(s Searcher, opts ...SessionOption) *Session {
	sess := &Session{
		searcher: s,
		current:  Snapshot{State: StateIdle, Message: api.IdleMessage},
	}
	for _, o := range opts {
		o(sess)
	}
	return sess
}

// NewSession creates a session bound to this client's logger and metrics.
func (c *Client) NewSession(opts ...SessionOption) *Session {
	return NewSession(c, append([]SessionOption{withObserver(c.obs)}, opts...)...)
}

// Submit starts a query, superseding any query in flight, and blocks until
// it resolves. It returns the snapshot for this query and whether it was
// applied; a superseded query returns the session's current snapshot and false.
// A blank query moves straight to idle without contacting the server.
func (s *Session) Submit(ctx context.Context, params api.SearchParams) (Snapshot, bool) {
	text := strings.TrimSpace(deref(params.Q))
	cat := deref(params.Category)
	if cat == "" {
		cat = api.CategoryAll
	}

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.generation++
	gen := s.generation

	if text == "" {
		snap := Snapshot{State: StateIdle, Category: cat, Message: api.IdleMessage, Generation: gen}
		s.applyLocked(snap)
		s.mu.Unlock()
		return snap, true
	}

	qctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.applyLocked(Snapshot{State: StateSearching, Query: text, Category: cat, Generation: gen})
	s.mu.Unlock()

	params.Q = &text
	resp, err := s.searcher.Search(qctx, params)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		s.stale++
		s.obs.staleDiscarded(text, gen)
		cancel()
		return s.current, false
	}
	cancel()
	s.cancel = nil

	snap := resolve(text, cat, gen, resp, err)
	s.applyLocked(snap)
	return snap, true
}

// Reset cancels any query in flight and returns the session to idle.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.generation++
	s.applyLocked(Snapshot{State: StateIdle, Category: api.CategoryAll, Message: api.IdleMessage,
		Generation: s.generation})
}

// Current returns the last applied snapshot.
func (s *Session) Current() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Stale returns how many answers were discarded because a newer query superseded them.
func (s *Session) Stale() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stale
}

func (s *Session) applyLocked(snap Snapshot) {
	s.current = snap
	if s.onChange != nil {
		s.onChange(snap)
	}
}

func resolve(text string, cat api.Category, gen uint64, resp *api.SearchResponse, err error) Snapshot {
	snap := Snapshot{Query: text, Category: cat, Generation: gen}
	if err != nil {
		snap.State = StateFailed
		snap.Message = api.FailedMessage
		var apiErr *APIError
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			snap.Message = api.TimeoutMessage
		case errors.As(err, &apiErr) && apiErr.StatusCode < 500:
			snap.Message = apiErr.Message
		}
		return snap
	}

	snap.Items = resp.Items
	snap.Message = resp.Message
	snap.Suggestions = resp.Suggestions
	switch resp.Status {
	case api.SearchStatusIdle:
		snap.State = StateIdle
	case api.SearchStatusResults:
		snap.State = StateResults
	case api.SearchStatusEmpty:
		snap.State = StateEmpty
	default:
		snap.State = StateFailed
		if snap.Message == "" {
			snap.Message = api.FailedMessage
		}
	}
	return snap
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
