package tui

import "time"

// TaskID identifies a task in the TUI progress display.
type TaskID int

const (
	TaskSearch TaskID = iota // Searching authored pull requests
	TaskLoad                 // Loading cache and featured config
	TaskEnrich               // Fetching details or reusing cached records
	TaskWrite                // Sorting and writing the artifact
)

// TaskStatus represents the current status of a task.
type TaskStatus int

const (
	StatusPending TaskStatus = iota
	StatusRunning
	StatusComplete
	StatusError
)

// Event is the interface for all TUI events.
type Event interface {
	isEvent()
}

// TaskEvent represents an update to a task's status.
type TaskEvent struct {
	Task     TaskID
	Status   TaskStatus
	Message  string  // e.g. "12/30"
	Count    int     // items handled by the task
	Progress float64 // 0.0 to 1.0
	Error    error
}

func (TaskEvent) isEvent() {}

// RateLimitEvent reports a wait for the API rate limit to reset.
// The banner clears on the next TaskEvent.
type RateLimitEvent struct {
	Until time.Time
}

func (RateLimitEvent) isEvent() {}

// DoneEvent signals that all work is complete.
type DoneEvent struct{}

func (DoneEvent) isEvent() {}

// TaskEventOption sets an optional field of a TaskEvent.
type TaskEventOption func(*TaskEvent)

// WithMessage attaches a short status message, e.g. "12/30".
func WithMessage(msg string) TaskEventOption {
	return func(e *TaskEvent) { e.Message = msg }
}

// WithCount attaches the number of items the task handled.
func WithCount(count int) TaskEventOption {
	return func(e *TaskEvent) { e.Count = count }
}

// WithProgress attaches a completion fraction, clamped to [0, 1].
func WithProgress(progress float64) TaskEventOption {
	return func(e *TaskEvent) { e.Progress = min(max(progress, 0), 1) }
}

// WithError marks the task as failed with err.
func WithError(err error) TaskEventOption {
	return func(e *TaskEvent) { e.Error = err }
}
