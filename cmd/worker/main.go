package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/servicereports/servicereports/internal/app"
	jobmetrics "github.com/servicereports/servicereports/internal/jobs"
	"github.com/servicereports/servicereports/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)
	if cfg.RedisAddr == "" {
		logger.Error("worker requires REDIS_ADDR")
		os.Exit(1)
	}

	// The worker executes queued pushes itself, so its own lifecycle runs push directly.
	cfg.SyncMode = app.SyncDirect
	rt, err := app.Bootstrap(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap", slog.Any("error", err))
		os.Exit(1)
	}
	defer rt.Close()

	metrics := jobmetrics.NewMetrics(rt.Metrics.Registerer())
	rollover := jobs.NewRolloverJob(rt.Service, logger, metrics)
	handlers := []jobs.TaskHandler{
		{Type: jobs.TaskPeriodRollover, Handler: rollover.Handle},
	}
	if rt.Remote != nil {
		syncJob := jobs.NewRemoteSyncJob(rt.Remote, logger, metrics, rt.Metrics)
		handlers = append(handlers, jobs.TaskHandler{Type: jobs.TaskRemoteSync, Handler: syncJob.Handle})
	}

	rolloverTask, err := jobs.NewRolloverTask("schedule")
	if err != nil {
		logger.Error("build rollover task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: cfg.AsynqOpts(),
		Logger:    logger,
		Handlers:  handlers,
		Cron: []jobs.CronRegistration{
			{Spec: cfg.RolloverCron, Task: rolloverTask, Options: []asynq.Option{asynq.MaxRetry(0)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if cfg.WorkerMetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", rt.Metrics.Handler())
			server := &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("worker metrics server", slog.Any("error", err))
			}
		}()
	}

	logger.Info("starting worker", slog.String("rollover_cron", cfg.RolloverCron))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
