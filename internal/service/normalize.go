package service

import (
	"sort"
	"strings"

	"github.com/spiffcs/prsync/internal/model"
	"github.com/spiffcs/prsync/internal/urlutil"
)

// NormalizeDetail builds an output record from a search summary and its
// fetched detail. Defaults for absent fields:
//
//   - description: body with surrounding whitespace trimmed, or ""
//   - additions, deletions, changed_files, commits, comments: 0
//   - labels: empty array
//   - user login and avatar_url: omitted
//   - merged: true iff a merge timestamp is present
//   - closed_at, merged_at: null
//
// The featured overlay is not applied here.
func NormalizeDetail(sum model.PullRequestSummary, ref urlutil.RepoRef, d *model.PullRequestDetail) model.PullRequest {
	pr := model.PullRequest{
		ID:                 sum.ID,
		Number:             sum.Number,
		Title:              d.Title,
		Repository:         ref.Name,
		RepositoryFullName: ref.FullName,
		RepositoryOwner:    ref.Owner,
		HTMLURL:            d.HTMLURL,
		State:              d.State,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
		ClosedAt:           d.ClosedAt,
		MergedAt:           d.MergedAt,
		Additions:          intOrZero(d.Additions),
		Deletions:          intOrZero(d.Deletions),
		ChangedFiles:       intOrZero(d.ChangedFiles),
		Commits:            intOrZero(d.Commits),
		Comments:           intOrZero(d.Comments),
		Labels:             []string{},
	}

	if d.Body != nil {
		pr.Description = strings.TrimSpace(*d.Body)
	}
	if len(d.Labels) > 0 {
		pr.Labels = append(pr.Labels, d.Labels...)
	}
	if d.User != nil {
		pr.User = *d.User
	}
	pr.Merged = pr.IsMerged()

	return pr
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

// SortByMergedDesc orders records newest merge first. Records without a
// merge timestamp go last; ties keep their input order.
func SortByMergedDesc(records []model.PullRequest) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.IsMerged() {
			return false
		}
		if !b.IsMerged() {
			return true
		}
		return a.MergedAt.After(*b.MergedAt)
	})
}
