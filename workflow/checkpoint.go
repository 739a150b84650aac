package workflow

import (
	"time"

	"github.com/xraph/startflow/id"
)

// Checkpoint is the saved result of a completed step. Replaying a run
// returns the checkpoint instead of executing the step again.
type Checkpoint struct {
	ID        id.CheckpointID `json:"id"`
	RunID     id.RunID        `json:"run_id"`
	StepName  string          `json:"step_name"`
	Data      []byte          `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
}
