package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/servicereports/servicereports/internal/jobs"
	"github.com/servicereports/servicereports/internal/periods"
	"github.com/servicereports/servicereports/internal/publishers"
	"github.com/servicereports/servicereports/internal/remote"
	"github.com/servicereports/servicereports/internal/settings"
)

// Enqueuer submits tasks; *asynq.Client satisfies it.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// SyncEnqueuer is a lifecycle sync gateway that hands remote calls to the worker queue.
// Enqueue failures are logged and dropped.
type SyncEnqueuer struct {
	queue    Enqueuer
	settings remote.SettingsSource
	logger   *slog.Logger
}

// NewSyncEnqueuer constructs a queue backed gateway.
func NewSyncEnqueuer(queue Enqueuer, s remote.SettingsSource, logger *slog.Logger) *SyncEnqueuer {
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncEnqueuer{queue: queue, settings: s, logger: logger}
}

// PushPeriod queues a period push.
func (e *SyncEnqueuer) PushPeriod(ctx context.Context, p periods.Period) {
	if cfg, ok := e.online(); ok {
		e.enqueue(ctx, remote.PushPeriodTask(cfg.CongregationID, p))
	}
}

// DeletePeriod queues a delete notification.
func (e *SyncEnqueuer) DeletePeriod(ctx context.Context, key string) {
	if cfg, ok := e.online(); ok {
		e.enqueue(ctx, remote.DeletePeriodTask(cfg.CongregationID, key))
	}
}

// PushContacts queues a group contact push.
func (e *SyncEnqueuer) PushContacts(ctx context.Context, groupID string, members []publishers.Publisher) {
	if cfg, ok := e.online(); ok {
		e.enqueue(ctx, remote.PushContactsTask(cfg.CongregationID, groupID, members))
	}
}

func (e *SyncEnqueuer) online() (settings.Settings, bool) {
	cfg := e.settings.Current()
	return cfg, cfg.OnlineReporting.Enabled && cfg.CongregationID != ""
}

func (e *SyncEnqueuer) enqueue(ctx context.Context, t remote.Task) {
	task, err := NewRemoteSyncTask(t)
	if err == nil {
		_, err = e.queue.EnqueueContext(context.WithoutCancel(ctx), task)
	}
	if err != nil {
		e.logger.Warn("enqueue remote sync", slog.String("op", t.Op), slog.String("key", t.Key), slog.Any("error", err))
	}
}

// RemoteSyncJob executes queued remote calls.
type RemoteSyncJob struct {
	Deliverer remote.Deliverer
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	Recorder  remote.Recorder
}

// NewRemoteSyncJob wires dependencies for the remote sync handler.
func NewRemoteSyncJob(d remote.Deliverer, logger *slog.Logger, metrics *jobmetrics.Metrics, recorder remote.Recorder) *RemoteSyncJob {
	return &RemoteSyncJob{Deliverer: d, Logger: logger, Metrics: metrics, Recorder: recorder}
}

// Handle processes remote sync tasks.
func (j *RemoteSyncJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Deliverer == nil {
		return errors.New("remote sync: handler not configured")
	}
	var payload remote.Task
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tracker := j.Metrics.Track(TaskRemoteSync)
	defer func() {
		err = tracker.End(err)
	}()

	start := time.Now()
	err = j.Deliverer.Deliver(ctx, payload)
	if j.Recorder != nil {
		j.Recorder.ObserveSync(payload.Op, err, time.Since(start))
	}
	if err != nil {
		logger := j.Logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("remote sync failed", slog.String("op", payload.Op), slog.String("key", payload.Key), slog.Any("error", err))
		return err
	}
	return nil
}
