// Package urlutil parses the GitHub URLs prsync deals with.
package urlutil

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// RepoRef identifies a repository by owner and name.
type RepoRef struct {
	Owner    string
	Name     string
	FullName string
}

// pathSegments returns the non-empty path segments of rawURL.
func pathSegments(rawURL string) ([]string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	var segments []string
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments, nil
}

// ParseRepositoryURL derives the repository reference from the path of a
// repository API URL such as https://api.github.com/repos/owner/repo.
// The last segment is the name and the one before it the owner.
func ParseRepositoryURL(repoURL string) (RepoRef, error) {
	segments, err := pathSegments(repoURL)
	if err != nil {
		return RepoRef{}, err
	}
	if len(segments) < 2 {
		return RepoRef{}, fmt.Errorf("repository URL %q has no owner/name path", repoURL)
	}

	owner := segments[len(segments)-2]
	name := segments[len(segments)-1]
	return RepoRef{
		Owner:    owner,
		Name:     name,
		FullName: owner + "/" + name,
	}, nil
}

// ParsePullRequestURL accepts either a web URL (github.com/o/r/pull/12) or
// an API URL (api.github.com/repos/o/r/pulls/12) and returns the repository
// and pull request number.
func ParsePullRequestURL(prURL string) (RepoRef, int, error) {
	segments, err := pathSegments(prURL)
	if err != nil {
		return RepoRef{}, 0, err
	}
	if len(segments) < 4 {
		return RepoRef{}, 0, fmt.Errorf("pull request URL %q is too short", prURL)
	}

	n := len(segments)
	kind := segments[n-2]
	if kind != "pull" && kind != "pulls" {
		return RepoRef{}, 0, fmt.Errorf("pull request URL %q does not point at a pull request", prURL)
	}

	number, err := strconv.Atoi(segments[n-1])
	if err != nil || number <= 0 {
		return RepoRef{}, 0, fmt.Errorf("pull request URL %q has no valid number", prURL)
	}

	owner, name := segments[n-4], segments[n-3]
	return RepoRef{Owner: owner, Name: name, FullName: owner + "/" + name}, number, nil
}
