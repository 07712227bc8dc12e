// Package ghclient talks to the GitHub REST API: authored pull request
// search, per-PR detail fetches and rate limit status, all behind a
// rate-limit aware retry policy.
package ghclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/spiffcs/prsync/internal/constants"
)

// Client wraps the GitHub API client
type Client struct {
	client *gh.Client
	retry  *retrier
	state  *RateLimitState
	delay  time.Duration
	// authenticated is true when a token was supplied. The token itself is
	// never stored here.
	authenticated bool
}

type clientConfig struct {
	baseURL    string
	policy     RetryPolicy
	delay      time.Duration
	sleep      SleepFunc
	now        func() time.Time
	httpClient *http.Client
	onRateWait func(RateLimitWait)
}

// Option configures a Client.
type Option func(*clientConfig)

// WithBaseURL points the client at a different API root (GitHub
// Enterprise, test servers). A trailing slash is added when missing.
func WithBaseURL(u string) Option {
	return func(c *clientConfig) {
		c.baseURL = u
	}
}

// WithRetryPolicy overrides the retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *clientConfig) {
		if p.MaxAttempts > 0 {
			c.policy = p
		}
	}
}

// WithRequestDelay sets the pause between consecutive search pages.
func WithRequestDelay(d time.Duration) Option {
	return func(c *clientConfig) {
		if d >= 0 {
			c.delay = d
		}
	}
}

// WithSleep replaces the function used for every wait.
func WithSleep(fn SleepFunc) Option {
	return func(c *clientConfig) {
		if fn != nil {
			c.sleep = fn
		}
	}
}

// WithClock replaces the clock used to compute rate-limit waits.
func WithClock(now func() time.Time) Option {
	return func(c *clientConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// WithHTTPClient sets the underlying HTTP client used when no token is given.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = hc
	}
}

// WithRateLimitNotify registers a callback invoked before each rate-limit wait.
func WithRateLimitNotify(fn func(RateLimitWait)) Option {
	return func(c *clientConfig) {
		c.onRateWait = fn
	}
}

// NewClient creates a new GitHub client. With a token, requests are
// authenticated through an oauth2 static token source; without one the
// unauthenticated rate limit applies.
func NewClient(ctx context.Context, token string, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		policy: DefaultRetryPolicy(),
		delay:  constants.RequestDelay,
		sleep:  Sleep,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	var hc *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		if cfg.httpClient != nil {
			ctx = context.WithValue(ctx, oauth2.HTTPClient, cfg.httpClient)
		}
		hc = oauth2.NewClient(ctx, ts)
	} else if cfg.httpClient != nil {
		shallow := *cfg.httpClient
		hc = &shallow
	} else {
		hc = &http.Client{}
	}

	base := hc.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	state := &RateLimitState{}
	hc.Transport = &rateLimitTransport{base: base, state: state}

	client := gh.NewClient(hc)
	if cfg.baseURL != "" {
		u := cfg.baseURL
		if !strings.HasSuffix(u, "/") {
			u += "/"
		}
		parsed, err := url.Parse(u)
		if err != nil {
			return nil, fmt.Errorf("invalid base URL %q: %w", cfg.baseURL, err)
		}
		client.BaseURL = parsed
	}

	return &Client{
		client: client,
		retry: &retrier{
			policy:     cfg.policy,
			sleep:      cfg.sleep,
			now:        cfg.now,
			onRateWait: cfg.onRateWait,
		},
		state:         state,
		delay:         cfg.delay,
		authenticated: token != "",
	}, nil
}

// Authenticated reports whether the client sends a token.
func (c *Client) Authenticated() bool {
	return c.authenticated
}

// RateLimitStatus returns the rate limit headers observed on the most
// recent response.
func (c *Client) RateLimitStatus() RateLimitStatus {
	return c.state.Status()
}

// AuthenticatedUser returns the authenticated user's login
func (c *Client) AuthenticatedUser(ctx context.Context) (string, error) {
	var user *gh.User
	err := c.retry.do(ctx, "get authenticated user", func() error {
		var err error
		user, _, err = c.client.Users.Get(ctx, "")
		return err
	})
	if err != nil {
		return "", err
	}
	return user.GetLogin(), nil
}

// RateLimits fetches the current GitHub API rate limit status.
func (c *Client) RateLimits(ctx context.Context) (*gh.RateLimits, error) {
	var limits *gh.RateLimits
	err := c.retry.do(ctx, "get rate limits", func() error {
		var err error
		limits, _, err = c.client.RateLimit.Get(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return limits, nil
}
