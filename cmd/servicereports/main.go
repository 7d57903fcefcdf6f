package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/servicereports/servicereports/cmd/servicereports/cli"
	"github.com/servicereports/servicereports/internal/app"
	lifecyclehttp "github.com/servicereports/servicereports/internal/lifecycle/http"
	"github.com/servicereports/servicereports/internal/remote"
	"github.com/servicereports/servicereports/jobs"
	"github.com/servicereports/servicereports/report"
)

const usage = `usage: servicereports [command]

commands:
  serve                    run the HTTP API (default)
  period status|open|close inspect or drive the active service month
  year <service-year>      print the months of a service year
  token set [token]        store the remote reporting token in the OS keyring
  token forget             remove the stored token
  jobs trigger <name>      enqueue a worker job
  jobs stats               print queue depth

flags:
  -json                    machine readable output
`

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	fs := flag.NewFlagSet("servicereports", flag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "machine readable output")
	fs.Usage = func() { _, _ = fmt.Fprint(os.Stderr, usage) }
	_ = fs.Parse(os.Args[1:])
	args := fs.Args()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	cmd := "serve"
	if len(args) > 0 {
		cmd = args[0]
	}
	switch cmd {
	case "serve":
		os.Exit(serve(ctx, stop, cfg, logger))
	case "period", "year":
		os.Exit(runPeriod(ctx, cfg, logger, args, *jsonOutput))
	case "token":
		os.Exit(runToken(cfg, args))
	case "jobs":
		os.Exit(runJobs(ctx, cfg, args))
	default:
		fs.Usage()
		os.Exit(2)
	}
}

func serve(ctx context.Context, stop context.CancelFunc, cfg *app.Config, logger *slog.Logger) int {
	rt, err := app.Bootstrap(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap", slog.Any("error", err))
		return 1
	}
	defer rt.Close()

	// The month may have turned while the application was not running.
	if out, err := rt.Service.Open(ctx); err != nil {
		logger.Error("open period at startup", slog.Any("error", err))
	} else {
		logger.Info("period lifecycle ready", slog.String("result", string(out.Result)), slog.String("key", out.Key))
	}

	var renderer *report.Handler
	if rt.Renderer != nil {
		renderer = report.NewHandler(rt.Renderer, logger)
	}
	var lifecycleHandler *lifecyclehttp.Handler
	if rt.Exporter != nil {
		lifecycleHandler = lifecyclehttp.NewHandler(logger, rt.Service, rt.Exporter)
	} else {
		lifecycleHandler = lifecyclehttp.NewHandler(logger, rt.Service, nil)
	}

	var jobHandler *jobs.Handler
	if cfg.RedisAddr != "" {
		inspector := asynq.NewInspector(cfg.AsynqOpts())
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		jobHandler = jobs.NewHandler(inspector, logger)
	}

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		LifecycleHandler: lifecycleHandler,
		ReportHandler:    renderer,
		JobHandler:       jobHandler,
		Metrics:          rt.Metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
		return 1
	}
	return 0
}

func runPeriod(ctx context.Context, cfg *app.Config, logger *slog.Logger, args []string, jsonOutput bool) int {
	rt, err := app.Bootstrap(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap", slog.Any("error", err))
		return 1
	}
	defer rt.Close()

	ops, err := cli.NewPeriodOpsCLI(rt.Service)
	if err != nil {
		logger.Error("period cli", slog.Any("error", err))
		return 1
	}
	opts := cli.Options{JSONOutput: jsonOutput}
	if args[0] == "year" {
		if len(args) < 2 {
			_, _ = fmt.Fprint(os.Stderr, usage)
			return 2
		}
		year, err := strconv.Atoi(args[1])
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "service year: invalid year %q\n", args[1])
			return 1
		}
		return ops.YearCommand(ctx, year, opts)
	}
	sub := "status"
	if len(args) > 1 {
		sub = args[1]
	}
	switch sub {
	case "status":
		return ops.StatusCommand(ctx, opts)
	case "open":
		return ops.OpenCommand(ctx, opts)
	case "close":
		return ops.CloseCommand(ctx, opts)
	default:
		_, _ = fmt.Fprint(os.Stderr, usage)
		return 2
	}
}

func runToken(cfg *app.Config, args []string) int {
	tokens, err := cli.NewTokenCLI(remote.NewKeyringTokens(cfg.KeyringService, cfg.KeyringUser, ""))
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if len(args) < 2 {
		_, _ = fmt.Fprint(os.Stderr, usage)
		return 2
	}
	switch args[1] {
	case "set":
		opts := cli.TokenOptions{}
		if len(args) > 2 {
			opts.Token = args[2]
		}
		return tokens.SetCommand(opts)
	case "forget":
		return tokens.ForgetCommand(os.Stdout, os.Stderr)
	default:
		_, _ = fmt.Fprint(os.Stderr, usage)
		return 2
	}
}

func runJobs(ctx context.Context, cfg *app.Config, args []string) int {
	if len(args) < 2 {
		_, _ = fmt.Fprint(os.Stderr, usage)
		return 2
	}
	ops, err := cli.NewJobsCLI(cfg.AsynqOpts())
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer func() { _ = ops.Close() }()

	switch args[1] {
	case "trigger":
		if len(args) < 3 {
			_, _ = fmt.Fprint(os.Stderr, usage)
			return 2
		}
		info, err := ops.Trigger(ctx, args[2])
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "jobs trigger: %v\n", err)
			return 1
		}
		_, _ = fmt.Fprintf(os.Stdout, "enqueued %s as %s\n", info.Type, info.ID)
		return 0
	case "stats":
		stats, err := ops.InspectQueue(ctx)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "jobs stats: %v\n", err)
			return 1
		}
		_, _ = fmt.Fprintf(os.Stdout, "%s: pending=%d active=%d scheduled=%d archived=%d\n",
			stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Archived)
		return 0
	default:
		_, _ = fmt.Fprint(os.Stderr, usage)
		return 2
	}
}
