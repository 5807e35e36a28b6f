package model

import "time"

// RunStatus is the final state of a task run or step
type RunStatus string

const (
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
	RunStatusGated     RunStatus = "gated"
	RunStatusSkipped   RunStatus = "skipped"
)

// StepRun records one executed step
type StepRun struct {
	Name     string        `json:"name"`
	Status   RunStatus     `json:"status"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// TaskRun records one invocation of a task
type TaskRun struct {
	// ID is a UUID assigned when the run starts
	ID string `json:"id"`

	Task       string    `json:"task"`
	ProjectDir string    `json:"project_dir"`
	Status     RunStatus `json:"status"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Steps      []StepRun `json:"steps"`
	Error      string    `json:"error,omitempty"`
}

// Duration returns how long the run took.
func (r TaskRun) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}

	return r.FinishedAt.Sub(r.StartedAt)
}
