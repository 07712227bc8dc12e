package cmd

import (
	"fmt"
	"io"
	"time"

	gh "github.com/google/go-github/v57/github"
	"github.com/spf13/cobra"

	"github.com/spiffcs/prsync/internal/ghclient"
	"github.com/spiffcs/prsync/internal/log"
)

// NewCmdRateLimit creates the ratelimit command.
func NewCmdRateLimit() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ratelimit",
		Short: "Check GitHub API rate limit status",
		Long:  `Display current GitHub API rate limit status including remaining quota and reset time.`,
	}
	cmd.AddCommand(NewCmdRateLimitStatus())
	return cmd
}

// NewCmdRateLimitStatus creates the ratelimit status subcommand.
func NewCmdRateLimitStatus() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show current rate limit status",
		Long: `Display the current GitHub API rate limit status for the core and search
APIs. Sync spends one search request per page and one core request per
pull request detail.`,
		RunE: runRateLimitStatus,
	}
}

func runRateLimitStatus(cmd *cobra.Command, _ []string) error {
	loadDotEnv()

	cfg, err := loadConfig(NewOptions())
	if err != nil {
		return err
	}

	token, _ := cfg.GetGitHubToken()
	if token == "" {
		log.Warn("no GitHub token found, showing unauthenticated limits")
	}

	client, err := ghclient.NewClient(cmd.Context(), token,
		ghclient.WithBaseURL(cfg.GetRequestSettings().BaseURL),
		ghclient.WithRetryPolicy(ghclient.RetryPolicy{MaxAttempts: 1}),
	)
	if err != nil {
		return err
	}

	limits, err := client.RateLimits(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get rate limits: %w", err)
	}

	w := cmd.OutOrStdout()
	now := time.Now()
	if client.Authenticated() {
		if login, err := client.AuthenticatedUser(cmd.Context()); err == nil {
			fmt.Fprintf(w, "Authenticated as %s\n", login)
		} else {
			log.Debug("could not resolve token owner", "error", err)
		}
	} else {
		fmt.Fprintln(w, "Not authenticated")
	}
	fmt.Fprintln(w, "GitHub API Rate Limits:")
	fmt.Fprintln(w)
	printRate(w, "Core API:  ", limits.Core, now)
	printRate(w, "Search API:", limits.Search, now)
	printRate(w, "GraphQL:   ", limits.GraphQL, now)
	return nil
}

func printRate(w io.Writer, label string, r *gh.Rate, now time.Time) {
	if r == nil {
		return
	}
	resetIn := r.Reset.Time.Sub(now).Round(time.Second)
	if resetIn < 0 {
		resetIn = 0
	}
	fmt.Fprintf(w, "%s %d/%d remaining (resets in %s)\n", label, r.Remaining, r.Limit, resetIn)
}
