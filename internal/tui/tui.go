// Package tui renders an inline progress display for the sync job.
package tui

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

// ciEnvVars are set by common CI runners. Any of them disables the TUI.
var ciEnvVars = []string{
	"CI",
	"GITHUB_ACTIONS",
	"GITLAB_CI",
	"BUILDKITE",
	"CIRCLECI",
	"TRAVIS",
	"JENKINS_URL",
	"NETLIFY",
	"VERCEL",
}

// Run starts the TUI and blocks until the event channel closes, a
// DoneEvent arrives or ctx is cancelled.
func Run(ctx context.Context, events <-chan Event, opts ...ModelOption) error {
	_, err := tea.NewProgram(NewModel(events, opts...), tea.WithContext(ctx)).Run()
	return err
}

// ShouldUseTUI reports whether stdout is an interactive terminal outside CI.
func ShouldUseTUI() bool {
	if os.Getenv("TERM") == "dumb" || !term.IsTerminal(int(os.Stdout.Fd())) {
		return false
	}
	for _, v := range ciEnvVars {
		if _, set := os.LookupEnv(v); set {
			return false
		}
	}
	return true
}

// SendEvent delivers e unless the channel is nil or full. The job never
// waits on the display.
func SendEvent(ch chan<- Event, e Event) {
	if ch == nil {
		return
	}
	select {
	case ch <- e:
	default:
	}
}

// SendTaskEvent builds a TaskEvent from opts and sends it.
func SendTaskEvent(ch chan<- Event, task TaskID, status TaskStatus, opts ...TaskEventOption) {
	e := TaskEvent{Task: task, Status: status}
	for _, opt := range opts {
		opt(&e)
	}
	SendEvent(ch, e)
}
