package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskCardExpirySweep marks past-expiry cards EXPIRED.
	TaskCardExpirySweep = "cards:expiry_sweep"
)

// ExpirySweepPayload scopes one sweep run to a cutoff date.
type ExpirySweepPayload struct {
	AsOf time.Time `json:"as_of"`
}

// NewExpirySweepTask constructs an expiry sweep task for the given cutoff.
// A zero cutoff means "now at execution time".
func NewExpirySweepTask(asOf time.Time) (*asynq.Task, error) {
	data, err := json.Marshal(ExpirySweepPayload{AsOf: asOf})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCardExpirySweep, data), nil
}

