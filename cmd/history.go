package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/spiffcs/prsync/internal/duration"
	"github.com/spiffcs/prsync/internal/format"
	"github.com/spiffcs/prsync/internal/stats"
)

// NewCmdHistory creates the history command.
func NewCmdHistory() *cobra.Command {
	var (
		n     int
		since string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent sync runs",
		Long: `Show the most recent sync runs recorded in the history file.
Recording can be turned off with "history: false" in the config.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := stats.NewStore()
			if err != nil {
				return fmt.Errorf("failed to locate history: %w", err)
			}
			now := time.Now()
			snaps := store.Recent(n)
			if since != "" {
				cutoff, err := duration.Since(since, now)
				if err != nil {
					return err
				}
				snaps = snapshotsSince(snaps, cutoff)
			}
			printHistory(cmd.OutOrStdout(), snaps, now)
			return nil
		},
	}

	cmd.Flags().IntVarP(&n, "number", "n", 10, "Number of runs to show")
	cmd.Flags().StringVarP(&since, "since", "s", "", "Only show runs newer than this (e.g., 1d, 1w, 6mo)")
	return cmd
}

// printHistory writes snapshots newest first.
func printHistory(w io.Writer, snaps []stats.Snapshot, now time.Time) {
	if len(snaps) == 0 {
		fmt.Fprintln(w, "No sync runs recorded.")
		return
	}

	fmt.Fprintf(w, "%-10s  %-8s  %-16s  %6s  %7s  %6s  %6s  %7s  %8s\n",
		"When", "Run", "User", "Found", "Fetched", "Cached", "Failed", "Written", "Duration")

	for i := len(snaps) - 1; i >= 0; i-- {
		s := snaps[i]
		runID := s.RunID
		if len(runID) > 8 {
			runID = runID[:8]
		}
		fmt.Fprintf(w, "%-10s  %-8s  %s  %6d  %7d  %6d  %6d  %7d  %8s\n",
			format.Ago(s.Timestamp, now),
			runID,
			format.PadRight(format.Truncate(s.Username, 16), 16),
			s.Found, s.Fetched, s.Cached, s.Failed, s.Written,
			s.Duration.Round(time.Second))
	}
}

func snapshotsSince(snaps []stats.Snapshot, cutoff time.Time) []stats.Snapshot {
	var out []stats.Snapshot
	for _, s := range snaps {
		if !s.Timestamp.Before(cutoff) {
			out = append(out, s)
		}
	}
	return out
}
