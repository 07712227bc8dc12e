package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/spiffcs/prsync/internal/featured"
	"github.com/spiffcs/prsync/internal/log"
	"github.com/spiffcs/prsync/internal/model"
	"github.com/spiffcs/prsync/internal/output"
	"github.com/spiffcs/prsync/internal/urlutil"
)

// NewCmdFeatured creates the featured command with subcommands.
func NewCmdFeatured() *cobra.Command {
	opts := NewOptions()

	cmd := &cobra.Command{
		Use:   "featured",
		Short: "Curate the featured pull requests",
		Long: `Edit the featured config that marks pull requests for highlighting.

Pull requests are identified by their numeric ID or by URL. URLs are
resolved against the current artifact, so run a sync first.`,
	}
	cmd.PersistentFlags().StringVar(&opts.Featured, "featured", "", "Path of the featured config")
	cmd.PersistentFlags().StringVar(&opts.Output, "output", "", "Path of the JSON artifact")

	cmd.AddCommand(newCmdFeaturedList(opts))
	cmd.AddCommand(newCmdFeaturedAdd(opts))
	cmd.AddCommand(newCmdFeaturedRemove(opts))

	return cmd
}

func newCmdFeaturedList(opts *Options) *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List featured pull requests in order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFeaturedList(cmd, opts, outputFormat)
		},
	}
	cmd.Flags().StringVarP(&outputFormat, "format", "o", "table", "Output format (table, json)")
	return cmd
}

func newCmdFeaturedAdd(opts *Options) *cobra.Command {
	var order int

	cmd := &cobra.Command{
		Use:   "add <id|url>",
		Short: "Feature a pull request",
		Long: `Feature a pull request. Without --order it goes after the last featured
entry. Adding an already featured pull request moves it to the new order.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeaturedAdd(cmd, opts, args[0], order)
		},
	}
	cmd.Flags().IntVar(&order, "order", 0, "Featured order (default: next free position)")
	return cmd
}

func newCmdFeaturedRemove(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id|url>",
		Short: "Stop featuring a pull request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeaturedRemove(cmd, opts, args[0])
		},
	}
}

func runFeaturedList(cmd *cobra.Command, opts *Options, outputFormat string) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	store := featured.Load(cfg.FeaturedPath)
	records := readArtifact(cfg.OutputPath)
	rows := featuredRows(store.Entries(), records)

	switch outputFormat {
	case "table":
		output.FeaturedTable(cmd.OutOrStdout(), rows, time.Now())
	case "json":
		if rows == nil {
			rows = []output.FeaturedRow{}
		}
		f := &output.JSONFormatter{Pretty: true}
		return f.Format(rows, cmd.OutOrStdout())
	default:
		return fmt.Errorf("invalid format: %s (must be table or json)", outputFormat)
	}
	return nil
}

func runFeaturedAdd(cmd *cobra.Command, opts *Options, ref string, order int) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	id, err := resolvePullRequestID(ref, cfg.OutputPath)
	if err != nil {
		return err
	}

	store, err := featured.Open(cfg.FeaturedPath)
	if err != nil {
		return err
	}
	if order <= 0 {
		order = store.NextOrder()
	}
	store.Add(id, order)
	if err := store.Save(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Featured %d at order %d.\n", id, order)
	return nil
}

func runFeaturedRemove(cmd *cobra.Command, opts *Options, ref string) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	id, err := resolvePullRequestID(ref, cfg.OutputPath)
	if err != nil {
		return err
	}

	store, err := featured.Open(cfg.FeaturedPath)
	if err != nil {
		return err
	}
	if !store.Remove(id) {
		return fmt.Errorf("pull request %d is not featured", id)
	}
	if err := store.Save(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d from featured.\n", id)
	return nil
}

// resolvePullRequestID accepts a numeric ID as is and looks URLs up in the
// artifact at artifactPath.
func resolvePullRequestID(ref, artifactPath string) (int64, error) {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		if id <= 0 {
			return 0, fmt.Errorf("invalid pull request ID %d", id)
		}
		return id, nil
	}

	repo, number, err := urlutil.ParsePullRequestURL(ref)
	if err != nil {
		return 0, err
	}

	for _, pr := range readArtifact(artifactPath) {
		if pr.Number == number && strings.EqualFold(pr.RepositoryFullName, repo.FullName) {
			return pr.ID, nil
		}
	}
	return 0, fmt.Errorf("%s#%d not found in %s, run a sync first", repo.FullName, number, artifactPath)
}

// readArtifact loads the artifact for display purposes. A missing or
// unreadable artifact yields no records.
func readArtifact(path string) []model.PullRequest {
	records, err := output.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Debug("no artifact yet", "path", path)
	case err != nil:
		log.Warn("could not read artifact", "path", path, "error", err)
	}
	return records
}

// featuredRows joins featured entries with artifact records by ID.
func featuredRows(entries []model.FeaturedEntry, records []model.PullRequest) []output.FeaturedRow {
	byID := make(map[int64]model.PullRequest, len(records))
	for _, pr := range records {
		byID[pr.ID] = pr
	}

	var rows []output.FeaturedRow
	for _, e := range entries {
		row := output.FeaturedRow{Order: e.FeaturedOrder, ID: e.ID}
		if pr, ok := byID[e.ID]; ok {
			row.Title = pr.Title
			row.Repository = pr.RepositoryFullName
			row.MergedAt = pr.MergedAt
		}
		rows = append(rows, row)
	}
	return rows
}
