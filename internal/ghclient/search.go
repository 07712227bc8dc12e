package ghclient

import (
	"context"
	"fmt"

	gh "github.com/google/go-github/v57/github"

	"github.com/spiffcs/prsync/internal/constants"
	"github.com/spiffcs/prsync/internal/log"
	"github.com/spiffcs/prsync/internal/model"
)

// SearchAuthoredPRs returns every pull request authored by username, in
// the order the search API lists them. Pages of 100 are requested until a
// short or empty page, or until the search API's 1000 result cap.
func (c *Client) SearchAuthoredPRs(ctx context.Context, username string) ([]model.PullRequestSummary, error) {
	query := "type:pr author:" + username
	var prs []model.PullRequestSummary

	for page := 1; ; page++ {
		opts := &gh.SearchOptions{
			ListOptions: gh.ListOptions{
				Page:    page,
				PerPage: constants.SearchPageSize,
			},
		}

		var result *gh.IssuesSearchResult
		err := c.retry.do(ctx, fmt.Sprintf("search page %d", page), func() error {
			var err error
			result, _, err = c.client.Search.Issues(ctx, query, opts)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to search pull requests for %s: %w", username, err)
		}

		for _, issue := range result.Issues {
			prs = append(prs, issueToSummary(issue))
		}

		log.Info("fetched search page", "page", page, "count", len(result.Issues), "total", len(prs))

		if len(result.Issues) == 0 {
			break
		}
		if err := c.retry.sleep(ctx, c.delay); err != nil {
			return nil, fmt.Errorf("failed to search pull requests for %s: %w", username, err)
		}
		if len(result.Issues) < constants.SearchPageSize || len(prs) >= constants.MaxSearchResults {
			break
		}
	}

	return prs, nil
}

// issueToSummary converts a search result item to a PullRequestSummary.
func issueToSummary(issue *gh.Issue) model.PullRequestSummary {
	s := model.PullRequestSummary{
		ID:            issue.GetID(),
		Number:        issue.GetNumber(),
		RepositoryURL: issue.GetRepositoryURL(),
		UpdatedAt:     issue.GetUpdatedAt().Time,
		Author:        issue.GetUser().GetLogin(),
	}
	if issue.PullRequestLinks != nil {
		s.DetailURL = issue.PullRequestLinks.GetURL()
	}
	return s
}
