package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/servicereports/servicereports/internal/jobs"
	"github.com/servicereports/servicereports/internal/lifecycle"
)

// PeriodOpener is the lifecycle operation driven by the rollover schedule.
type PeriodOpener interface {
	Open(ctx context.Context) (lifecycle.OpenOutcome, error)
}

// RolloverJob opens the next service month when the calendar allows it.
type RolloverJob struct {
	Lifecycle PeriodOpener
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewRolloverJob wires dependencies for the rollover handler.
func NewRolloverJob(opener PeriodOpener, logger *slog.Logger, metrics *jobmetrics.Metrics) *RolloverJob {
	return &RolloverJob{Lifecycle: opener, Logger: logger, Metrics: metrics}
}

// Handle processes rollover tasks.
func (j *RolloverJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Lifecycle == nil {
		return errors.New("rollover: handler not configured")
	}
	var payload RolloverPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	tracker := j.Metrics.Track(TaskPeriodRollover)
	defer func() {
		err = tracker.End(err)
	}()

	logger := j.logger().With(slog.String("reason", payload.Reason))
	out, err := j.Lifecycle.Open(ctx)
	if err != nil {
		logger.Error("period rollover failed", slog.Any("error", err))
		return err
	}
	j.Metrics.AddRollover(string(out.Result), out.Carried)
	if out.Result == lifecycle.ResultActivated {
		logger.Info("period rolled over",
			slog.String("key", out.Key),
			slog.String("closed", out.ClosedKey),
			slog.Int("carried", out.Carried),
		)
		return nil
	}
	logger.Debug("period already open", slog.String("key", out.Key))
	return nil
}

func (j *RolloverJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
