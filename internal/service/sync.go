// Package service runs the pull request sync job: search, enrich through
// the cache, overlay featured state, sort and write the artifact.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spiffcs/prsync/internal/cache"
	"github.com/spiffcs/prsync/internal/constants"
	"github.com/spiffcs/prsync/internal/featured"
	"github.com/spiffcs/prsync/internal/ghclient"
	"github.com/spiffcs/prsync/internal/log"
	"github.com/spiffcs/prsync/internal/model"
	"github.com/spiffcs/prsync/internal/output"
	"github.com/spiffcs/prsync/internal/urlutil"
)

// Paths locates the three files the job touches.
type Paths struct {
	Output   string
	Cache    string
	Featured string
}

// Syncer mirrors one account's authored pull requests into the output
// artifact.
type Syncer struct {
	fetcher  ghclient.Fetcher
	username string
	paths    Paths
	delay    time.Duration
	sleep    ghclient.SleepFunc
	now      func() time.Time
	progress ProgressFunc
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithRequestDelay sets the pause after each successful detail fetch.
func WithRequestDelay(d time.Duration) Option {
	return func(s *Syncer) {
		if d >= 0 {
			s.delay = d
		}
	}
}

// WithSleep replaces the wait function.
func WithSleep(fn ghclient.SleepFunc) Option {
	return func(s *Syncer) {
		if fn != nil {
			s.sleep = fn
		}
	}
}

// WithClock replaces the clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Syncer) {
		if now != nil {
			s.now = now
		}
	}
}

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(s *Syncer) {
		s.progress = fn
	}
}

// New creates a Syncer for username.
func New(fetcher ghclient.Fetcher, username string, paths Paths, opts ...Option) *Syncer {
	s := &Syncer{
		fetcher:  fetcher,
		username: username,
		paths:    paths,
		delay:    constants.RequestDelay,
		sleep:    ghclient.Sleep,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result describes a completed run.
type Result struct {
	Records []model.PullRequest

	Found    int // summaries returned by search
	Fetched  int // detail fetched from the API
	Cached   int // served from a fresh cache entry
	Skipped  int // PRs against the account's own repositories
	Invalid  int // repository URL could not be parsed
	Failed   int // detail fetch failed after retries
	Stale    int // failed but served from a stale cache entry
	Featured int

	OutputPath   string
	CachePath    string
	CacheSaveErr error

	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration is the wall time of the run.
func (r *Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Summary converts the result for terminal reporting.
func (r *Result) Summary() output.Summary {
	return output.Summary{
		Found:      r.Found,
		Fetched:    r.Fetched,
		Cached:     r.Cached,
		Skipped:    r.Skipped,
		Invalid:    r.Invalid,
		Failed:     r.Failed,
		Stale:      r.Stale,
		Featured:   r.Featured,
		Written:    len(r.Records),
		OutputPath: r.OutputPath,
		CachePath:  r.CachePath,
		CacheSaved: r.CacheSaveErr == nil,
		Duration:   r.Duration(),
	}
}

// featuredLookup resolves the featured overlay for a pull request ID.
type featuredLookup interface {
	Lookup(id int64) model.FeaturedStatus
}

// Run executes the job. A search failure, an output write failure or a
// cancelled context aborts the run; in each case the output file is not
// written. Every other problem is logged and the run continues.
func (s *Syncer) Run(ctx context.Context) (*Result, error) {
	res := &Result{
		OutputPath: s.paths.Output,
		CachePath:  s.paths.Cache,
		StartedAt:  s.now(),
	}

	s.report(Progress{Stage: StageSearch, Status: StatusStarted})
	summaries, err := s.fetcher.SearchAuthoredPRs(ctx, s.username)
	if err != nil {
		s.report(Progress{Stage: StageSearch, Status: StatusFailed, Err: err})
		return nil, fmt.Errorf("failed to enumerate pull requests: %w", err)
	}
	res.Found = len(summaries)
	log.Info("found pull requests", "username", s.username, "count", res.Found)
	s.report(Progress{Stage: StageSearch, Status: StatusDone, Total: res.Found})

	s.report(Progress{Stage: StageLoad, Status: StatusStarted})
	c := cache.Load(s.paths.Cache)
	f := featured.Load(s.paths.Featured)
	if last, ok := c.LastFetch(); ok {
		log.Debug("cache loaded", "entries", c.Len(), "lastFetch", last)
	}
	s.report(Progress{Stage: StageLoad, Status: StatusDone, Total: c.Len()})

	s.report(Progress{Stage: StageEnrich, Status: StatusStarted, Total: res.Found})
	records, err := s.enrich(ctx, summaries, c, f, res)
	if err != nil {
		s.report(Progress{Stage: StageEnrich, Status: StatusFailed, Err: err})
		return nil, err
	}
	s.report(Progress{Stage: StageEnrich, Status: StatusDone, Completed: res.Found, Total: res.Found})

	s.report(Progress{Stage: StageWrite, Status: StatusStarted})
	SortByMergedDesc(records)
	for _, r := range records {
		if r.Featured {
			res.Featured++
		}
	}
	res.Records = records

	if err := output.WriteFile(s.paths.Output, records); err != nil {
		s.report(Progress{Stage: StageWrite, Status: StatusFailed, Err: err})
		return nil, err
	}
	log.Info("saved pull requests", "count", len(records), "path", s.paths.Output)

	if err := c.Save(s.now()); err != nil {
		res.CacheSaveErr = err
		log.Error("failed to save cache", "path", s.paths.Cache, "error", err)
	} else {
		log.Info("cache updated", "path", s.paths.Cache, "entries", c.Len())
	}

	res.FinishedAt = s.now()
	s.report(Progress{Stage: StageWrite, Status: StatusDone, Total: len(records)})
	return res, nil
}

// enrich turns summaries into output records in list order.
func (s *Syncer) enrich(ctx context.Context, summaries []model.PullRequestSummary, c cache.Cacher, f featuredLookup, res *Result) ([]model.PullRequest, error) {
	records := make([]model.PullRequest, 0, len(summaries))

	for i, sum := range summaries {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("sync cancelled: %w", err)
		}
		s.report(Progress{Stage: StageEnrich, Status: StatusRunning, Completed: i, Total: len(summaries)})

		ref, err := urlutil.ParseRepositoryURL(sum.RepositoryURL)
		if err != nil {
			res.Invalid++
			log.Warn("skipping pull request with unrecognised repository URL", "id", sum.ID, "url", sum.RepositoryURL, "error", err)
			continue
		}

		if strings.EqualFold(ref.Owner, s.username) {
			res.Skipped++
			log.Debug("skipping pull request on own repository", "repo", ref.FullName, "number", sum.Number)
			continue
		}

		key := cache.Key(ref.Name, sum.Number)
		status := f.Lookup(sum.ID)

		if cached, ok := c.Fresh(key, sum.UpdatedAt); ok {
			res.Cached++
			records = append(records, cached.ApplyFeatured(status))
			log.Info("using cached pull request", "key", key)
			continue
		}

		log.Info("fetching pull request", "repo", ref.FullName, "number", sum.Number)
		detail, err := s.fetcher.PullRequestDetail(ctx, sum.DetailURL)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("sync cancelled: %w", ctxErr)
			}
			res.Failed++
			if stale, ok := c.Get(key); ok {
				res.Stale++
				records = append(records, stale.ApplyFeatured(status))
				log.Error("failed to fetch pull request, using stale cache", "key", key, "error", err)
			} else {
				log.Error("failed to fetch pull request, omitting it", "key", key, "error", err)
			}
			continue
		}

		pr := NormalizeDetail(sum, ref, detail).ApplyFeatured(status)
		records = append(records, pr)
		c.Set(key, pr)
		res.Fetched++

		if err := s.sleep(ctx, s.delay); err != nil {
			return nil, fmt.Errorf("sync cancelled: %w", err)
		}
	}

	return records, nil
}

func (s *Syncer) report(p Progress) {
	if s.progress != nil {
		s.progress(p)
	}
}
