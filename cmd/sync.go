package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/spiffcs/prsync/config"
	"github.com/spiffcs/prsync/internal/ghclient"
	"github.com/spiffcs/prsync/internal/log"
	"github.com/spiffcs/prsync/internal/output"
	"github.com/spiffcs/prsync/internal/service"
	"github.com/spiffcs/prsync/internal/stats"
	"github.com/spiffcs/prsync/internal/tui"
)

var errInterrupted = errors.New("interrupted")

// syncRuntime bundles TUI-related state that's threaded through the sync command.
type syncRuntime struct {
	useTUI bool
	events chan tui.Event
}

// NewCmdSync creates the sync command.
func NewCmdSync(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Mirror authored pull requests into the artifact (same as root prsync)",
		Long: `Searches every pull request authored by the configured account, enriches
each one with its detail, and writes the sorted artifact.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd, opts)
		},
	}

	addSyncFlags(cmd, opts)
	return cmd
}

// addSyncFlags adds the sync-specific flags to a command.
func addSyncFlags(cmd *cobra.Command, opts *Options) {
	cmd.Flags().CountVarP(&opts.Verbosity, "verbose", "v", "Increase verbosity (-v info, -vv debug, -vvv trace)")

	// TUI flag with tri-state: nil = auto, true = force, false = disable
	cmd.Flags().Var(newTUIFlag(opts), "tui", "Enable/disable TUI progress (default: auto-detect)")

	cmd.Flags().StringVar(&opts.Username, "username", "", "GitHub account whose pull requests are mirrored")
	cmd.Flags().StringVar(&opts.Output, "output", "", "Path of the JSON artifact")
	cmd.Flags().StringVar(&opts.Cache, "cache", "", "Path of the pull request cache")
	cmd.Flags().StringVar(&opts.Featured, "featured", "", "Path of the featured config")
}

func runSync(cmd *cobra.Command, opts *Options) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	rt := setupRuntime(opts)

	loadDotEnv()

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	log.With("run", runID)

	client, err := newClient(ctx, cfg, rt)
	if err != nil {
		return err
	}

	paths := service.Paths{
		Output:   cfg.OutputPath,
		Cache:    cfg.CachePath,
		Featured: cfg.FeaturedPath,
	}
	syncer := service.New(client, cfg.Username, paths,
		service.WithRequestDelay(cfg.GetRequestSettings().Delay),
		service.WithProgress(rt.progress()),
	)

	log.Info("starting sync", "user", cfg.Username, "output", paths.Output)

	res, err := rt.run(ctx, cfg.Username, syncer.Run)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	if log.IsDebug() {
		rl := client.RateLimitStatus()
		if rl.Known {
			log.Debug("rate limit after sync", "remaining", rl.Remaining, "limit", rl.Limit, "reset", rl.ResetAt)
		}
	}

	log.Info("sync finished",
		"written", len(res.Records),
		"fetched", res.Fetched,
		"cached", res.Cached,
		"duration", res.Duration().Round(time.Millisecond))

	output.PrintSummary(cmd.OutOrStdout(), res.Summary())

	if cfg.HistoryEnabled() {
		recordHistory(runID, cfg.Username, res)
	}
	return nil
}

// setupRuntime picks the display mode and initializes logging for it.
// Logs are discarded while the TUI draws; otherwise the sync logs at
// least at info level so unattended runs show their progress.
func setupRuntime(opts *Options) *syncRuntime {
	useTUI := shouldUseTUI(opts)
	if useTUI {
		log.Initialize(opts.Verbosity, io.Discard)
		return &syncRuntime{useTUI: true, events: make(chan tui.Event, 100)}
	}

	log.Initialize(max(opts.Verbosity, log.LevelInfo), os.Stderr)
	return &syncRuntime{}
}

// loadDotEnv loads .env from the working directory. A missing file is fine.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn("could not load .env", "error", err)
	}
}

// loadConfig loads the merged config and applies command-line overrides.
func loadConfig(opts *Options) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	opts.apply(&cfg.Username, &cfg.OutputPath, &cfg.CachePath, &cfg.FeaturedPath)
	return cfg, nil
}

// newClient builds the GitHub client from the request settings. A missing
// token is tolerated.
func newClient(ctx context.Context, cfg *config.Config, rt *syncRuntime) (*ghclient.Client, error) {
	token, source := cfg.GetGitHubToken()
	if token == "" {
		log.Warn("no GitHub token found, unauthenticated rate limit (60 requests/hour) applies")
	} else {
		log.Debug("using GitHub token", "source", source)
	}

	s := cfg.GetRequestSettings()
	return ghclient.NewClient(ctx, token,
		ghclient.WithBaseURL(s.BaseURL),
		ghclient.WithRequestDelay(s.Delay),
		ghclient.WithRetryPolicy(ghclient.RetryPolicy{
			MaxAttempts:     s.MaxAttempts,
			Backoff:         s.Backoff,
			RateLimitMargin: s.RateLimitMargin,
		}),
		ghclient.WithRateLimitNotify(rt.rateLimitNotify),
	)
}

// run executes job, alongside the TUI when it is enabled. Quitting the
// TUI before the job finishes cancels the job.
func (rt *syncRuntime) run(ctx context.Context, username string, job func(context.Context) (*service.Result, error)) (*service.Result, error) {
	if !rt.useTUI {
		return job(ctx)
	}

	var res *service.Result
	jobDone := make(chan struct{})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(rt.events)
		defer close(jobDone)
		var err error
		res, err = job(gctx)
		return err
	})
	g.Go(func() error {
		err := tui.Run(gctx, rt.events, tui.WithUsername(username))
		select {
		case <-jobDone:
			return nil
		default:
		}
		if err != nil {
			return fmt.Errorf("progress display: %w", err)
		}
		return errInterrupted
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

// progress maps job progress onto TUI task events, or onto progress
// lines when the TUI is off.
func (rt *syncRuntime) progress() service.ProgressFunc {
	if !rt.useTUI {
		return logProgress
	}
	return func(p service.Progress) {
		task := taskFor(p.Stage)
		switch p.Status {
		case service.StatusStarted:
			tui.SendTaskEvent(rt.events, task, tui.StatusRunning)
		case service.StatusRunning:
			var frac float64
			if p.Total > 0 {
				frac = float64(p.Completed) / float64(p.Total)
			}
			tui.SendTaskEvent(rt.events, task, tui.StatusRunning,
				tui.WithProgress(frac),
				tui.WithMessage(fmt.Sprintf("%d/%d", p.Completed, p.Total)))
		case service.StatusDone:
			tui.SendTaskEvent(rt.events, task, tui.StatusComplete, tui.WithCount(p.Total))
		case service.StatusFailed:
			tui.SendTaskEvent(rt.events, task, tui.StatusError, tui.WithError(p.Err))
		}
	}
}

// rateLimitNotify shows the rate-limit banner. Without the TUI the client
// already logs the wait.
func (rt *syncRuntime) rateLimitNotify(w ghclient.RateLimitWait) {
	tui.SendEvent(rt.events, tui.RateLimitEvent{Until: w.Until})
}

// logProgress prints one line per stage. Enrichment reports per pull
// request through the log instead.
func logProgress(p service.Progress) {
	if p.Stage == service.StageEnrich {
		return
	}
	switch p.Status {
	case service.StatusStarted:
		log.Progress("%s...", stageLabel(p.Stage))
	case service.StatusDone:
		log.ProgressDone()
	case service.StatusFailed:
		log.ProgressClear()
	}
}

func stageLabel(stage service.Stage) string {
	switch stage {
	case service.StageSearch:
		return "Searching pull requests"
	case service.StageLoad:
		return "Loading cache"
	default:
		return "Writing output"
	}
}

func taskFor(stage service.Stage) tui.TaskID {
	switch stage {
	case service.StageSearch:
		return tui.TaskSearch
	case service.StageLoad:
		return tui.TaskLoad
	case service.StageEnrich:
		return tui.TaskEnrich
	default:
		return tui.TaskWrite
	}
}

// recordHistory appends the run snapshot. Failures only reach the debug log.
func recordHistory(runID, username string, res *service.Result) {
	store, err := stats.NewStore()
	if err != nil {
		log.Debug("history unavailable", "error", err)
		return
	}
	snap := stats.Snapshot{
		RunID:      runID,
		Timestamp:  res.FinishedAt,
		Duration:   res.Duration(),
		Username:   username,
		Found:      res.Found,
		Fetched:    res.Fetched,
		Cached:     res.Cached,
		Skipped:    res.Skipped,
		Invalid:    res.Invalid,
		Failed:     res.Failed,
		Stale:      res.Stale,
		Featured:   res.Featured,
		Written:    len(res.Records),
		CacheSaved: res.CacheSaveErr == nil,
	}
	if err := store.Append(snap); err != nil {
		log.Debug("failed to record history", "error", err)
	}
}
