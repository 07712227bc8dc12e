package service

// Stage is a phase of the sync job.
type Stage int

const (
	StageSearch Stage = iota
	StageLoad
	StageEnrich
	StageWrite
)

// String returns the stage label used in progress output.
func (s Stage) String() string {
	switch s {
	case StageSearch:
		return "search"
	case StageLoad:
		return "load"
	case StageEnrich:
		return "enrich"
	case StageWrite:
		return "write"
	default:
		return "unknown"
	}
}

// Status is the state of a stage.
type Status int

const (
	StatusStarted Status = iota
	StatusRunning
	StatusDone
	StatusFailed
)

// Progress is reported as the job moves through its stages.
// Completed and Total carry counts where they apply.
type Progress struct {
	Stage     Stage
	Status    Status
	Completed int
	Total     int
	Err       error
}

// ProgressFunc receives progress updates. It is called synchronously from
// the job and must not block.
type ProgressFunc func(Progress)
