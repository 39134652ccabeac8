// internal/pipeline/outcome.go
package pipeline

import (
	"time"

	"marketbrief/internal/models"
)

// State is the pipeline's position in its run. States advance strictly
// forward; Done and Failed are terminal.
type State string

const (
	StateFetching    State = "fetching"
	StateSummarizing State = "summarizing"
	StatePresenting  State = "presenting"
	StateLocalizing  State = "localizing"
	StatePublishing  State = "publishing"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

// Status classifies how a stage finished.
type Status string

const (
	// StatusOk means the stage produced its nominal output.
	StatusOk Status = "ok"

	// StatusDegraded means the stage absorbed a collaborator failure and
	// produced substitute output. The run continues.
	StatusDegraded Status = "degraded"

	// StatusFatal means an error escaped the stage contract. The run stops.
	StatusFatal Status = "fatal"
)

// StageOutcome records how one stage execution went.
type StageOutcome struct {
	Stage    string        `json:"stage"`
	Status   Status        `json:"status"`
	Reason   string        `json:"reason,omitempty"`
	Duration time.Duration `json:"duration"`
}

// RunResult is the full account of one pipeline run.
type RunResult struct {
	RunID      string                  `json:"run_id"`
	Success    bool                    `json:"success"`
	State      State                   `json:"state"`
	Stages     []StageOutcome          `json:"stages"`
	Deliveries []models.DeliveryResult `json:"deliveries"`
}

// Delivered counts successful sends.
func (r *RunResult) Delivered() int {
	count := 0
	for _, d := range r.Deliveries {
		if d.Success {
			count++
		}
	}
	return count
}
