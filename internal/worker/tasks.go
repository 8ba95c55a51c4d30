package worker

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

// Task type constants
const (
	TaskGenerateContent = "content:generate"
	TaskRefreshSources  = "sources:refresh"
)

// GeneratePayload is the content:generate task body.
type GeneratePayload struct {
	BatchID string `json:"batch_id"`
}

// NewGenerateTask builds a content:generate task. Failed batches are never
// retried; the timeout covers every slot at the per-call limit plus a minute.
func NewGenerateTask(batchID string, slots int, llmTimeout time.Duration) (*asynq.Task, error) {
	payload, err := json.Marshal(GeneratePayload{BatchID: batchID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(
		TaskGenerateContent,
		payload,
		asynq.MaxRetry(0),
		asynq.Timeout(BatchTimeout(slots, llmTimeout)),
		asynq.Retention(24*time.Hour),
	), nil
}

// NewRefreshTask builds the periodic sources:refresh task.
func NewRefreshTask() *asynq.Task {
	return asynq.NewTask(
		TaskRefreshSources,
		nil,
		asynq.MaxRetry(1),
		asynq.Timeout(10*time.Minute),
		asynq.Retention(24*time.Hour),
		asynq.Unique(time.Hour), // Prevent duplicate if scheduler runs twice
	)
}

// BatchTimeout bounds a whole batch run.
func BatchTimeout(slots int, llmTimeout time.Duration) time.Duration {
	if slots < 1 {
		slots = 1
	}
	return time.Duration(slots)*llmTimeout + time.Minute
}
