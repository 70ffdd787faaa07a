package runs

import "time"

// Status represents the lifecycle state of a recorded run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusInvalid   Status = "invalid"
)

// IsTerminal reports whether the status closes a run.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusInvalid:
		return true
	default:
		return false
	}
}

// Run is a single pipeline invocation.
type Run struct {
	ID           string
	VideoPath    string
	Task         string
	Workflow     string
	Status       Status
	Frames       int
	Batches      int
	Transcribed  bool
	ErrorMessage string
	StartedAt    time.Time
	FinishedAt   *time.Time
}

// Duration returns the wall time between start and finish, or zero while running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt == nil || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
