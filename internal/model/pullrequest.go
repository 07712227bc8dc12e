// Package model contains domain types for prsync.
// These types are independent of any external GitHub library.
package model

import "time"

// PullRequestSummary is a pull request as returned by the issue search API.
type PullRequestSummary struct {
	ID            int64     `json:"id"`
	Number        int       `json:"number"`
	RepositoryURL string    `json:"repositoryUrl"`
	DetailURL     string    `json:"detailUrl"` // pull_request.url of the search item
	UpdatedAt     time.Time `json:"updatedAt"`
	Author        string    `json:"author"`
}

// PullRequestDetail is the full pull request resource. Fields the API may
// leave out are pointers so the caller can tell absent from zero.
type PullRequestDetail struct {
	Title        string
	Body         *string
	State        string
	HTMLURL      string
	Merged       *bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ClosedAt     *time.Time
	MergedAt     *time.Time
	Additions    *int
	Deletions    *int
	ChangedFiles *int
	Commits      *int
	Comments     *int
	Labels       []string
	User         *User
}

// User identifies the author of a pull request.
type User struct {
	Login     string `json:"login,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// PullRequest is the enriched record written to the output artifact and
// stored in the cache. Field names follow the artifact's JSON contract.
type PullRequest struct {
	ID                 int64      `json:"id"`
	Number             int        `json:"number"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	Repository         string     `json:"repository"`
	RepositoryFullName string     `json:"repository_full_name"`
	RepositoryOwner    string     `json:"repository_owner"`
	HTMLURL            string     `json:"html_url"`
	State              string     `json:"state"`
	Merged             bool       `json:"merged"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	ClosedAt           *time.Time `json:"closed_at"`
	MergedAt           *time.Time `json:"merged_at"`
	Additions          int        `json:"additions"`
	Deletions          int        `json:"deletions"`
	ChangedFiles       int        `json:"changed_files"`
	Commits            int        `json:"commits"`
	Comments           int        `json:"comments"`
	Labels             []string   `json:"labels"`
	User               User       `json:"user"`
	Featured           bool       `json:"featured"`
	FeaturedOrder      *int       `json:"featured_order,omitempty"`
}

// FeaturedEntry is one line of the operator-curated featured config.
type FeaturedEntry struct {
	ID            int64 `json:"id"`
	FeaturedOrder int   `json:"featured_order"`
}

// FeaturedStatus is the featured overlay applied to a record.
// Order is nil when the record is not featured.
type FeaturedStatus struct {
	Featured bool
	Order    *int
}

// ApplyFeatured returns a copy of the record with the featured overlay
// replacing whatever featured state the record carried before.
func (p PullRequest) ApplyFeatured(s FeaturedStatus) PullRequest {
	p.Featured = s.Featured
	p.FeaturedOrder = nil
	if s.Featured && s.Order != nil {
		order := *s.Order
		p.FeaturedOrder = &order
	}
	return p
}

// IsMerged reports whether the record carries a merge timestamp.
func (p PullRequest) IsMerged() bool {
	return p.MergedAt != nil && !p.MergedAt.IsZero()
}
