package ghclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gh "github.com/google/go-github/v57/github"

	"github.com/spiffcs/prsync/internal/constants"
	"github.com/spiffcs/prsync/internal/log"
)

// RetryPolicy controls how failed requests are repeated.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries for ordinary failures.
	MaxAttempts int
	// Backoff is multiplied by the failed attempt's index (1, 2, ...).
	Backoff time.Duration
	// RateLimitMargin is added to every rate-limit wait.
	RateLimitMargin time.Duration
}

// DefaultRetryPolicy returns the standard policy: 3 attempts, 2s linear
// backoff, 5s margin past the rate-limit reset.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     constants.MaxAttempts,
		Backoff:         constants.RetryBackoff,
		RateLimitMargin: constants.RateLimitMargin,
	}
}

// SleepFunc pauses for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the real SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RateLimitWait describes a pause caused by the API's rate limit.
type RateLimitWait struct {
	Op    string
	Wait  time.Duration
	Until time.Time
}

type retrier struct {
	policy     RetryPolicy
	sleep      SleepFunc
	now        func() time.Time
	onRateWait func(RateLimitWait)
}

// do runs fn until it succeeds. Rate-limit responses are waited out
// without consuming an attempt; any other error consumes one.
func (r *retrier) do(ctx context.Context, op string, fn func() error) error {
	attempts := 0
	for {
		err := fn()
		if err == nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", op, ctxErr)
		}

		if reset, ok := r.rateLimitReset(err); ok {
			wait := reset.Sub(r.now()) + r.policy.RateLimitMargin
			// A reset already past by more than the margin would give a zero
			// or negative wait and retry without pausing.
			if wait < constants.MinRateLimitWait {
				wait = constants.MinRateLimitWait
			}
			log.Warn("rate limited, waiting for reset", "op", op, "wait", wait.Round(time.Second))
			if r.onRateWait != nil {
				r.onRateWait(RateLimitWait{Op: op, Wait: wait, Until: r.now().Add(wait)})
			}
			if err := r.sleep(ctx, wait); err != nil {
				return fmt.Errorf("%s: %w: %w", op, ErrRateLimited, err)
			}
			continue
		}

		attempts++
		if attempts >= r.policy.MaxAttempts {
			return fmt.Errorf("%s: giving up after %d attempts: %w", op, attempts, err)
		}

		backoff := r.policy.Backoff * time.Duration(attempts)
		log.Debug("request failed, retrying", "op", op, "attempt", attempts, "backoff", backoff, "error", err)
		if err := r.sleep(ctx, backoff); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
}

// rateLimitReset reports when a rate-limited request may be retried.
// A 403 carrying X-RateLimit-Reset is treated as a primary rate limit.
// A secondary limit without that header falls back to Retry-After.
func (r *retrier) rateLimitReset(err error) (time.Time, bool) {
	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		if !rateErr.Rate.Reset.IsZero() {
			return rateErr.Rate.Reset.Time, true
		}
		if rateErr.Response != nil {
			if reset := headerReset(rateErr.Response.Header); !reset.IsZero() {
				return reset, true
			}
		}
		return time.Time{}, false
	}

	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		if abuseErr.Response != nil {
			if reset := headerReset(abuseErr.Response.Header); !reset.IsZero() {
				return reset, true
			}
		}
		if abuseErr.RetryAfter != nil {
			return r.now().Add(*abuseErr.RetryAfter), true
		}
		return time.Time{}, false
	}

	var respErr *gh.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil &&
		respErr.Response.StatusCode == http.StatusForbidden {
		if reset := headerReset(respErr.Response.Header); !reset.IsZero() {
			return reset, true
		}
	}

	return time.Time{}, false
}
