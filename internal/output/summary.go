package output

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
)

// Summary holds the counts reported at the end of a sync.
type Summary struct {
	Found      int
	Fetched    int
	Cached     int
	Skipped    int
	Invalid    int
	Failed     int
	Stale      int
	Featured   int
	Written    int
	OutputPath string
	CachePath  string
	CacheSaved bool
	Duration   time.Duration
}

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	errColor  = color.New(color.FgRed)
	dimColor  = color.New(color.Faint)
)

// PrintSummary writes the final report of a sync run.
func PrintSummary(w io.Writer, s Summary) {
	_, _ = okColor.Fprintf(w, "Saved %d pull requests to %s\n", s.Written, s.OutputPath)
	fmt.Fprintf(w, "  found %d, fetched %d, from cache %d, skipped %d\n", s.Found, s.Fetched, s.Cached, s.Skipped)

	if s.Failed > 0 {
		_, _ = errColor.Fprintf(w, "  %d failed to fetch", s.Failed)
		if s.Stale > 0 {
			_, _ = errColor.Fprintf(w, " (%d served from stale cache)", s.Stale)
		}
		fmt.Fprintln(w)
	}
	if s.Invalid > 0 {
		_, _ = warnColor.Fprintf(w, "  %d had an unrecognised repository URL\n", s.Invalid)
	}

	if s.CacheSaved {
		fmt.Fprintf(w, "  cache updated at %s\n", s.CachePath)
	} else {
		_, _ = warnColor.Fprintf(w, "  cache could not be saved to %s\n", s.CachePath)
	}

	fmt.Fprintf(w, "  %d featured\n", s.Featured)
	_, _ = dimColor.Fprintf(w, "Done in %s. To feature PRs on the home page, run 'prsync featured add' or edit the featured config.\n",
		s.Duration.Round(time.Millisecond))
}
