package ghclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	gh "github.com/google/go-github/v57/github"

	"github.com/spiffcs/prsync/internal/log"
	"github.com/spiffcs/prsync/internal/model"
)

// PullRequestDetail fetches the pull request resource at detailURL (the
// pull_request.url of a search item).
func (c *Client) PullRequestDetail(ctx context.Context, detailURL string) (*model.PullRequestDetail, error) {
	if detailURL == "" {
		return nil, fmt.Errorf("pull request has no detail URL")
	}

	var pr gh.PullRequest
	err := c.retry.do(ctx, "fetch "+detailURL, func() error {
		req, err := c.client.NewRequest(http.MethodGet, detailURL, nil)
		if err != nil {
			return err
		}
		pr = gh.PullRequest{}
		_, err = c.client.Do(ctx, req, &pr)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Trace("fetched pull request", "url", detailURL, "title", pr.GetTitle())
	return toDetail(&pr), nil
}

// toDetail maps the go-github type to the model, keeping absence visible.
func toDetail(pr *gh.PullRequest) *model.PullRequestDetail {
	d := &model.PullRequestDetail{
		Title:        pr.GetTitle(),
		Body:         pr.Body,
		State:        strings.ToLower(pr.GetState()),
		HTMLURL:      pr.GetHTMLURL(),
		Merged:       pr.Merged,
		Additions:    pr.Additions,
		Deletions:    pr.Deletions,
		ChangedFiles: pr.ChangedFiles,
		Commits:      pr.Commits,
		Comments:     pr.Comments,
		Labels:       make([]string, 0, len(pr.Labels)),
	}

	if pr.CreatedAt != nil {
		d.CreatedAt = pr.CreatedAt.Time
	}
	if pr.UpdatedAt != nil {
		d.UpdatedAt = pr.UpdatedAt.Time
	}
	if pr.ClosedAt != nil {
		t := pr.ClosedAt.Time
		d.ClosedAt = &t
	}
	if pr.MergedAt != nil {
		t := pr.MergedAt.Time
		d.MergedAt = &t
	}

	for _, l := range pr.Labels {
		if name := l.GetName(); name != "" {
			d.Labels = append(d.Labels, name)
		}
	}

	if pr.User != nil {
		d.User = &model.User{
			Login:     pr.User.GetLogin(),
			AvatarURL: pr.User.GetAvatarURL(),
		}
	}

	return d
}
