package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spiffcs/prsync/internal/constants"
	"github.com/spiffcs/prsync/internal/format"
)

// FeaturedRow is one line of the featured table. Title and Repository are
// empty when the pull request is not in the current artifact.
type FeaturedRow struct {
	Order      int        `json:"featured_order"`
	ID         int64      `json:"id"`
	Title      string     `json:"title,omitempty"`
	Repository string     `json:"repository,omitempty"`
	MergedAt   *time.Time `json:"merged_at,omitempty"`
}

// FeaturedTable writes rows as an aligned table.
func FeaturedTable(w io.Writer, rows []FeaturedRow, now time.Time) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No featured pull requests.")
		return
	}

	const (
		colOrder = 5
		colID    = 12
		colRepo  = 28
		colTitle = constants.TitleColumnWidth
	)

	fmt.Fprintf(w, "%-*s  %-*s  %-*s  %-*s  %s\n",
		colOrder, "Order",
		colID, "ID",
		colRepo, "Repository",
		colTitle, "Title",
		"Merged")
	fmt.Fprintln(w, strings.Repeat("-", colOrder+colID+colRepo+colTitle+16))

	for _, r := range rows {
		title := r.Title
		repo := r.Repository
		if title == "" {
			title = dimColor.Sprint("(not in output)")
		}
		title = format.Truncate(format.SingleLine(title), colTitle)
		repo = format.Truncate(repo, colRepo)

		merged := "-"
		if r.MergedAt != nil {
			merged = format.Ago(*r.MergedAt, now)
		}

		fmt.Fprintf(w, "%-*d  %-*d  %s  %s  %s\n",
			colOrder, r.Order,
			colID, r.ID,
			format.PadRight(repo, colRepo),
			format.PadRight(title, colTitle),
			merged)
	}
}
