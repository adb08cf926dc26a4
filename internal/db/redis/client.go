package redis

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/bitsync/internal/db"
)

var _ db.Store = (*Store)(nil)

const (
	clientName         = "bitsync"
	defaultDialTimeout = 5 * time.Second
	readyBackoffStart  = 50 * time.Millisecond
	readyBackoffMax    = time.Second
)

// Config holds connection parameters for a Redis or Valkey catalog store.
type Config struct {
	Addrs       []string
	Username    string
	Password    string
	DB          int
	DialTimeout time.Duration
	// DisableTextSearch marks a backend without TEXT fields (valkey-search).
	// Indexes are then created without TEXT fields and queries carry filters only.
	DisableTextSearch bool
}

// Store backs the repository, code and user catalog with Redis 8+ or
// Valkey with valkey-search.
type Store struct {
	client     rueidis.Client
	textSearch bool
}

// NewStore connects via rueidis. Client-side caching stays off: catalog
// reads go through FT.SEARCH, which is never cached.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}
	dial := cfg.DialTimeout
	if dial <= 0 {
		dial = defaultDialTimeout
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		ClientName:   clientName,
		Dialer:       net.Dialer{Timeout: dial},
		DisableCache: true,
		AlwaysRESP2:  true, // FT.SEARCH replies are parsed as RESP2 arrays
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", strings.Join(cfg.Addrs, ","), err)
	}

	return &Store{client: client, textSearch: !cfg.DisableTextSearch}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.do(ctx, s.b().Ping().Build()).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close() {
	s.client.Close()
}

// WaitForReady pings the server immediately, then with doubling backoff
// until it answers or timeout expires. The last ping error is reported.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	backoff := readyBackoffStart
	for {
		lastErr := s.Ping(ctx)
		if lastErr == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("catalog store not ready after %s: %w", timeout, lastErr)
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, readyBackoffMax)
	}
}

func (s *Store) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return s.client.Do(ctx, cmd)
}

func (s *Store) b() rueidis.Builder {
	return s.client.B()
}

// isRedisErr reports whether err is a server error whose message contains
// any of the given fragments, ignoring case. Redis and valkey-search word
// the same failures differently.
func isRedisErr(err error, fragments ...string) bool {
	re, ok := rueidis.IsRedisErr(err)
	if !ok {
		return false
	}
	msg := strings.ToLower(re.Error())
	for _, f := range fragments {
		if strings.Contains(msg, strings.ToLower(f)) {
			return true
		}
	}
	return false
}

// unknownIndex matches the "missing index" replies of both backends.
func unknownIndex(err error) bool {
	return isRedisErr(err, "unknown index name", "not found", "no such index")
}
