package tui

import "github.com/charmbracelet/lipgloss"

// 256-colour palette of the progress display.
const (
	colorDim    = lipgloss.Color("240")
	colorMuted  = lipgloss.Color("244")
	colorText   = lipgloss.Color("252")
	colorOK     = lipgloss.Color("42")
	colorFail   = lipgloss.Color("203")
	colorWarn   = lipgloss.Color("214")
	colorAccent = lipgloss.Color("75")
)

func fg(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

var (
	headerStyle   = fg(colorText).Bold(true)
	userStyle     = fg(colorAccent).Bold(true)
	taskNameStyle = fg(colorText)
	taskDimStyle  = fg(colorDim)
	messageStyle  = fg(colorMuted)
	errorStyle    = fg(colorFail)
	warnStyle     = fg(colorWarn)
	spinnerStyle  = fg(colorAccent)
	footerStyle   = fg(colorDim)
)

var statusGlyphs = map[TaskStatus]string{
	StatusPending:  fg(colorDim).Render("·"),
	StatusComplete: fg(colorOK).Render("✔"),
	StatusError:    fg(colorFail).Render("✘"),
}

// StatusIcon returns the glyph for a task status. Running tasks show the
// current spinner frame.
func StatusIcon(status TaskStatus, spinnerFrame string) string {
	if status == StatusRunning {
		return spinnerStyle.Render(spinnerFrame)
	}
	if g, ok := statusGlyphs[status]; ok {
		return g
	}
	return statusGlyphs[StatusPending]
}
