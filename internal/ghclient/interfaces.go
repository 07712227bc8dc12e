package ghclient

import (
	"context"

	"github.com/spiffcs/prsync/internal/model"
)

// Fetcher is the subset of the GitHub API the sync job needs.
type Fetcher interface {
	SearchAuthoredPRs(ctx context.Context, username string) ([]model.PullRequestSummary, error)
	PullRequestDetail(ctx context.Context, detailURL string) (*model.PullRequestDetail, error)
}

// Ensure Client implements Fetcher interface.
var _ Fetcher = (*Client)(nil)
