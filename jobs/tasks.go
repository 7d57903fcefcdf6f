package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/servicereports/servicereports/internal/remote"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskPeriodRollover opens the service month once the calendar month has turned.
	TaskPeriodRollover = "period:rollover"
	// TaskRemoteSync delivers one remote sync call.
	TaskRemoteSync = "remote:sync"
)

// RolloverPayload records why a rollover was requested.
type RolloverPayload struct {
	Reason string `json:"reason"`
}

// NewRolloverTask builds a rollover task.
func NewRolloverTask(reason string) (*asynq.Task, error) {
	body, err := json.Marshal(RolloverPayload{Reason: reason})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPeriodRollover, body, asynq.Queue(QueueDefault), asynq.MaxRetry(0)), nil
}

// NewRemoteSyncTask builds a remote sync task. Sync calls are never retried.
func NewRemoteSyncTask(t remote.Task) (*asynq.Task, error) {
	body, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("jobs: encode %s: %w", t.Op, err)
	}
	return asynq.NewTask(TaskRemoteSync, body, asynq.Queue(QueueDefault), asynq.MaxRetry(0)), nil
}
