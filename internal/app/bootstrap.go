package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"golang.org/x/text/language"

	"github.com/servicereports/servicereports/internal/auxiliary"
	"github.com/servicereports/servicereports/internal/export"
	"github.com/servicereports/servicereports/internal/lifecycle"
	"github.com/servicereports/servicereports/internal/memstore"
	"github.com/servicereports/servicereports/internal/observability"
	"github.com/servicereports/servicereports/internal/periods"
	"github.com/servicereports/servicereports/internal/platform/cache"
	"github.com/servicereports/servicereports/internal/platform/db"
	"github.com/servicereports/servicereports/internal/platform/lock"
	"github.com/servicereports/servicereports/internal/publishers"
	"github.com/servicereports/servicereports/internal/remote"
	"github.com/servicereports/servicereports/internal/serviceyears"
	"github.com/servicereports/servicereports/internal/settings"
	"github.com/servicereports/servicereports/internal/shared"
	"github.com/servicereports/servicereports/jobs"
	"github.com/servicereports/servicereports/report"
)

// Stores groups the persistence adapters selected by STORE_DRIVER.
type Stores struct {
	Periods      lifecycle.PeriodStore
	Publishers   lifecycle.PublisherStore
	ServiceYears lifecycle.ServiceYearStore
	Auxiliary    lifecycle.AuxiliaryStore
}

// Runtime holds the wired components shared by the API server, the worker and the CLI.
type Runtime struct {
	Config   *Config
	Logger   *slog.Logger
	Settings *settings.Store
	Stores   Stores
	Metrics  *observability.Metrics
	Redis    *redis.Client
	Renderer *report.Client
	Exporter *export.Exporter
	Remote   *remote.Client
	Tokens   *remote.KeyringTokens
	Gateway  *remote.Gateway
	Queue    *jobs.Client
	Service  *lifecycle.Service

	closers []func()
}

// Bootstrap connects the stores and assembles the lifecycle service from cfg.
func Bootstrap(ctx context.Context, cfg *Config, logger *slog.Logger) (*Runtime, error) {
	if logger == nil {
		logger = slog.Default()
	}
	rt := &Runtime{Config: cfg, Logger: logger, Metrics: observability.NewMetrics()}
	ready := false
	defer func() {
		if !ready {
			rt.Close()
		}
	}()

	var err error
	rt.Settings, err = settings.Load(cfg.SettingsPath)
	if err != nil {
		return nil, err
	}
	current := rt.Settings.Current()

	if err = rt.openStores(ctx, language.Make(current.Language)); err != nil {
		return nil, err
	}

	if cfg.RedisAddr != "" {
		rt.Redis, err = cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			return nil, err
		}
		client := rt.Redis
		rt.closers = append(rt.closers, func() {
			if err := client.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		})
	}

	var exporter lifecycle.Exporter
	if cfg.GotenbergURL != "" {
		rt.Renderer = report.NewClient(cfg.GotenbergURL, cfg.AppWriteTimeout)
		rt.Exporter, err = export.New(export.Config{
			Renderer: rt.Renderer,
			Dir:      cfg.ExportDir,
			Settings: rt.Settings,
			Periods:  rt.Stores.Periods,
			Roster:   rt.Stores.Publishers,
			Logger:   logger,
		})
		if err != nil {
			return nil, err
		}
		exporter = rt.Exporter
	}

	gateway, err := rt.syncGateway()
	if err != nil {
		return nil, err
	}

	var locker lifecycle.Locker
	if rt.Redis != nil {
		locker = lock.NewRedis(rt.Redis, shared.LifecycleLockKey(current.CongregationID), cfg.LockTTL)
	}

	rt.Service, err = lifecycle.NewService(lifecycle.Config{
		Periods:      rt.Stores.Periods,
		Publishers:   rt.Stores.Publishers,
		ServiceYears: rt.Stores.ServiceYears,
		Auxiliary:    rt.Stores.Auxiliary,
		Settings:     rt.Settings,
		Sync:         gateway,
		Exporter:     exporter,
		Locker:       locker,
		Metrics:      rt.Metrics,
		Logger:       logger,
		CarryForward: cfg.CarryForwardPolicy(),
	})
	if err != nil {
		return nil, err
	}
	ready = true
	return rt, nil
}

func (rt *Runtime) openStores(ctx context.Context, collation language.Tag) error {
	if rt.Config.StoreDriver == StoreMemory {
		store := memstore.New()
		rt.Stores = Stores{
			Periods:      store.Periods,
			Publishers:   store.Publishers,
			ServiceYears: store.ServiceYears,
			Auxiliary:    store.Auxiliary,
		}
		rt.Logger.Warn("using in-memory store, data is lost on exit")
		return nil
	}
	pool, err := db.New(ctx, rt.Config.PGDSN)
	if err != nil {
		return err
	}
	rt.closers = append(rt.closers, pool.Close)
	if err := db.Migrate(ctx, pool); err != nil {
		return err
	}
	rt.Stores = Stores{
		Periods:      periods.NewRepository(pool),
		Publishers:   publishers.NewRepository(pool, collation),
		ServiceYears: serviceyears.NewRepository(pool),
		Auxiliary:    auxiliary.NewRepository(pool),
	}
	return nil
}

// syncGateway returns nil when no remote server is configured; the service then skips pushes.
func (rt *Runtime) syncGateway() (lifecycle.SyncGateway, error) {
	cfg := rt.Config
	if !cfg.RemoteEnabled() {
		return nil, nil
	}
	rt.Tokens = remote.NewKeyringTokens(cfg.KeyringService, cfg.KeyringUser, cfg.RemoteToken)
	rt.Remote = remote.NewClient(cfg.RemoteBaseURL, rt.Tokens, cfg.RemoteTimeout)

	if cfg.SyncMode == SyncQueue {
		if rt.Redis == nil {
			return nil, fmt.Errorf("app: SYNC_MODE=%s requires REDIS_ADDR", SyncQueue)
		}
		rt.Queue = jobs.NewClient(cfg.AsynqOpts())
		queue := rt.Queue
		rt.closers = append(rt.closers, func() {
			if err := queue.Close(); err != nil {
				rt.Logger.Warn("queue close", slog.Any("error", err))
			}
		})
		return jobs.NewSyncEnqueuer(rt.Queue, rt.Settings, rt.Logger), nil
	}
	rt.Gateway = remote.NewGateway(rt.Remote, rt.Settings, rt.Logger, rt.Metrics, cfg.RemoteTimeout)
	return rt.Gateway, nil
}

// Close drains background pushes and releases connections in reverse order.
func (rt *Runtime) Close() {
	if rt == nil {
		return
	}
	if rt.Gateway != nil {
		rt.Gateway.Wait()
	}
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
}
