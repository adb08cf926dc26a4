package chi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/bitsync/internal/metrics"
	"github.com/kailas-cloud/bitsync/pkg/api"
)

func TestRateLimiter_PerClientBuckets(t *testing.T) {
	l := NewRateLimiter(1, 2)
	frozen := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return frozen }

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("burst of 2 must be allowed")
	}
	if l.Allow("a") {
		t.Error("third request within the same instant must be rejected")
	}
	if !l.Allow("b") {
		t.Error("another client has its own bucket")
	}

	frozen = frozen.Add(time.Second)
	if !l.Allow("a") {
		t.Error("bucket must refill after a second")
	}
}

func TestRateLimiter_SweepsIdleClients(t *testing.T) {
	l := NewRateLimiter(1, 1)
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	for i := range maxTrackedClients {
		l.clients[string(rune(i))] = &clientLimiter{lastSeen: now.Add(-time.Hour)}
	}
	l.Allow("fresh")
	if len(l.clients) != 1 {
		t.Errorf("expected idle clients swept, %d remain", len(l.clients))
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	l := NewRateLimiter(0.001, 1)
	handler := RateLimitMiddleware(l)(okHandler())
	before := testutil.ToFloat64(metrics.RateLimitedTotal)

	send := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
		req.RemoteAddr = "10.0.0.1:5555"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	if rr := send("/search"); rr.Code != http.StatusOK {
		t.Fatalf("first request: got %d", rr.Code)
	}
	rr := send("/search")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: got %d, want 429", rr.Code)
	}
	var body api.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != api.ErrorCodeRateLimited || rr.Header().Get("Retry-After") == "" {
		t.Errorf("unexpected rejection: %+v", body)
	}
	if got := testutil.ToFloat64(metrics.RateLimitedTotal); got != before+1 {
		t.Errorf("rate_limited_requests_total = %f, want %f", got, before+1)
	}
	if rr := send("/health"); rr.Code != http.StatusOK {
		t.Errorf("health must bypass the limiter, got %d", rr.Code)
	}
}

func TestRateLimitMiddleware_Disabled(t *testing.T) {
	handler := RateLimitMiddleware(nil)(okHandler())
	for range 5 {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/search", http.NoBody))
		if rr.Code != http.StatusOK {
			t.Fatalf("got %d, want 200", rr.Code)
		}
	}
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/search", http.NoBody)
	req.RemoteAddr = "192.0.2.7:1234"
	if got := clientKey(req); got != "ip:192.0.2.7" {
		t.Errorf("got %q", got)
	}
	req.Header.Set("Authorization", "Bearer k1")
	if got := clientKey(req); got != "key:k1" {
		t.Errorf("got %q", got)
	}
}
