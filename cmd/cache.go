package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/spiffcs/prsync/internal/cache"
	"github.com/spiffcs/prsync/internal/format"
)

// NewCmdCache creates the cache command with subcommands.
func NewCmdCache() *cobra.Command {
	opts := NewOptions()

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the pull request cache",
	}
	cmd.PersistentFlags().StringVar(&opts.Cache, "cache", "", "Path of the pull request cache")

	cmd.AddCommand(newCmdCacheClear(opts))
	cmd.AddCommand(newCmdCacheStats(opts))
	cmd.AddCommand(newCmdCachePath(opts))

	return cmd
}

// newCmdCacheClear creates the cache clear subcommand.
func newCmdCacheClear(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the pull request cache so the next sync refetches everything",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCacheClear(cmd, opts)
		},
	}
}

// newCmdCacheStats creates the cache stats subcommand.
func newCmdCacheStats(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCacheStats(cmd, opts)
		},
	}
}

// newCmdCachePath creates the cache path subcommand.
func newCmdCachePath(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache file location",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cfg.CachePath)
			return nil
		},
	}
}

func runCacheClear(cmd *cobra.Command, opts *Options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	if err := cache.New(cfg.CachePath).Clear(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Cache cleared: %s\n", cfg.CachePath)
	return nil
}

func runCacheStats(cmd *cobra.Command, opts *Options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	stats := cache.Load(cfg.CachePath).Stats()
	lastFetch := "never"
	if stats.LastFetch != nil {
		lastFetch = format.Ago(*stats.LastFetch, time.Now())
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Cache statistics (%s):\n", cfg.CachePath)
	fmt.Fprintf(w, "  Pull requests: %d\n", stats.Entries)
	fmt.Fprintf(w, "  Repositories:  %d\n", stats.Repositories)
	fmt.Fprintf(w, "  Merged:        %d\n", stats.Merged)
	fmt.Fprintf(w, "  Featured:      %d\n", stats.Featured)
	fmt.Fprintf(w, "  Last fetch:    %s\n", lastFetch)
	return nil
}
