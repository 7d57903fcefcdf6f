package remote

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/servicereports/servicereports/internal/periods"
	"github.com/servicereports/servicereports/internal/publishers"
	"github.com/servicereports/servicereports/internal/settings"
)

// Deliverer executes remote tasks.
type Deliverer interface {
	Deliver(ctx context.Context, t Task) error
}

// SettingsSource exposes the current congregation settings.
type SettingsSource interface {
	Current() settings.Settings
}

// Recorder receives one observation per remote call.
type Recorder interface {
	ObserveSync(op string, err error, elapsed time.Duration)
}

// Gateway runs remote calls in the background. Failures are logged and counted, never returned.
type Gateway struct {
	deliverer Deliverer
	settings  SettingsSource
	logger    *slog.Logger
	metrics   Recorder
	timeout   time.Duration
	wg        sync.WaitGroup
}

// NewGateway constructs a Gateway. Each call gets its own timeout, detached from the caller.
func NewGateway(d Deliverer, s SettingsSource, logger *slog.Logger, metrics Recorder, timeout time.Duration) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Gateway{deliverer: d, settings: s, logger: logger, metrics: metrics, timeout: timeout}
}

// PushPeriod sends the period records.
func (g *Gateway) PushPeriod(ctx context.Context, p periods.Period) {
	if cong, ok := g.congregation(); ok {
		g.dispatch(ctx, PushPeriodTask(cong, p))
	}
}

// DeletePeriod asks the server to drop its copy of a period.
func (g *Gateway) DeletePeriod(ctx context.Context, key string) {
	if cong, ok := g.congregation(); ok {
		g.dispatch(ctx, DeletePeriodTask(cong, key))
	}
}

// PushContacts sends the contact list of a group.
func (g *Gateway) PushContacts(ctx context.Context, groupID string, members []publishers.Publisher) {
	if cong, ok := g.congregation(); ok {
		g.dispatch(ctx, PushContactsTask(cong, groupID, members))
	}
}

// Wait blocks until in-flight calls finish.
func (g *Gateway) Wait() {
	g.wg.Wait()
}

func (g *Gateway) congregation() (string, bool) {
	cfg := g.settings.Current()
	if !cfg.OnlineReporting.Enabled || cfg.CongregationID == "" {
		return "", false
	}
	return cfg.CongregationID, true
}

func (g *Gateway) dispatch(ctx context.Context, t Task) {
	ctx = context.WithoutCancel(ctx)
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()
		start := time.Now()
		err := g.deliverer.Deliver(ctx, t)
		if g.metrics != nil {
			g.metrics.ObserveSync(t.Op, err, time.Since(start))
		}
		if err != nil {
			g.logger.Warn("remote sync failed", slog.String("op", t.Op), slog.String("key", t.Key), slog.Any("error", err))
			return
		}
		g.logger.Debug("remote sync done", slog.String("op", t.Op), slog.String("key", t.Key))
	}()
}
