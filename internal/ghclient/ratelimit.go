package ghclient

import (
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/spiffcs/prsync/internal/constants"
	"github.com/spiffcs/prsync/internal/log"
)

// ErrRateLimited is returned when a rate-limit wait is interrupted.
var ErrRateLimited = errors.New("rate limited")

// RateLimitState records the most recent rate limit headers seen.
type RateLimitState struct {
	mu        sync.RWMutex
	seen      bool
	remaining int
	limit     int
	resetAt   time.Time
}

// Update stores a new observation.
func (s *RateLimitState) Update(remaining, limit int, resetAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = true
	s.remaining = remaining
	s.limit = limit
	s.resetAt = resetAt
}

// RateLimitStatus is a snapshot of RateLimitState.
type RateLimitStatus struct {
	Known     bool
	Remaining int
	Limit     int
	ResetAt   time.Time
}

// Status returns the last observed values.
func (s *RateLimitState) Status() RateLimitStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return RateLimitStatus{
		Known:     s.seen,
		Remaining: s.remaining,
		Limit:     s.limit,
		ResetAt:   s.resetAt,
	}
}

// rateLimitTransport observes rate limit headers on every response.
// It never short-circuits a request; waiting is the retrier's job.
type rateLimitTransport struct {
	base  http.RoundTripper
	state *RateLimitState
}

func (t *rateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	log.Trace("api request", "method", req.Method, "url", req.URL.String())

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return resp, err
	}

	remaining, limit, resetAt := parseRateLimitHeaders(resp)
	if remaining >= 0 && limit > 0 {
		t.state.Update(remaining, limit, resetAt)
	}

	if remaining >= 0 && remaining <= constants.RateLimitLowWatermark {
		log.Debug("rate limit low", "remaining", remaining, "resets_at", resetAt.Format(time.RFC3339))
	}

	return resp, nil
}

// parseRateLimitHeaders extracts rate limit info from response headers.
// Missing values are reported as -1 and the zero time.
func parseRateLimitHeaders(resp *http.Response) (remaining, limit int, resetAt time.Time) {
	return headerInt(resp.Header, "X-RateLimit-Remaining"),
		headerInt(resp.Header, "X-RateLimit-Limit"),
		headerReset(resp.Header)
}

func headerInt(h http.Header, key string) int {
	if v := h.Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return -1
}

func headerReset(h http.Header) time.Time {
	if v := h.Get("X-RateLimit-Reset"); v != "" {
		if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
			return time.Unix(secs, 0)
		}
	}
	return time.Time{}
}
