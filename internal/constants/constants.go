// Package constants provides a centralized location for the tunables and
// magic numbers used throughout prsync.
package constants

import "time"

// Search constants
const (
	// SearchPageSize is the number of results requested per search page.
	// A page shorter than this marks the end of the result set.
	SearchPageSize = 100

	// MaxSearchResults is the hard cap GitHub's search API places on a
	// single query. Pages beyond it are rejected by the API.
	MaxSearchResults = 1000
)

// Request pacing and retry constants
const (
	// RequestDelay is the fixed pause after every search page and every
	// pull request detail fetch.
	RequestDelay = 1100 * time.Millisecond

	// MaxAttempts is the total number of tries for a failing request,
	// rate-limit waits excluded.
	MaxAttempts = 3

	// RetryBackoff is multiplied by the attempt index to get the pause
	// before the next attempt (2s, 4s, ...).
	RetryBackoff = 2 * time.Second

	// RateLimitMargin is added on top of the advertised reset time.
	RateLimitMargin = 5 * time.Second

	// MinRateLimitWait keeps a stale reset header from turning the
	// rate-limit loop into a busy loop.
	MinRateLimitWait = time.Second

	// RateLimitLowWatermark is the threshold below which remaining quota
	// is logged at debug level.
	RateLimitLowWatermark = 100
)

// History constants
const (
	// MaxHistoryRecords is the number of run snapshots kept on disk.
	MaxHistoryRecords = 1000
)

// Pull request state constants
const (
	// StateOpen indicates a PR is open.
	StateOpen = "open"

	// StateClosed indicates a PR is closed (merged or not).
	StateClosed = "closed"
)

// TUI display constants
const (
	// TUIUpdateInterval is the minimum time between progress updates
	// sent to the TUI.
	TUIUpdateInterval = 50 * time.Millisecond

	// TitleColumnWidth is the width used for titles in table output.
	TitleColumnWidth = 60
)
