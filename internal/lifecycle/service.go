// Package lifecycle runs the monthly service report lifecycle: opening a service month,
// closing it into the publishers' archives, and keeping publisher statuses reconciled.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"

	"github.com/servicereports/servicereports/internal/periods"
	"github.com/servicereports/servicereports/internal/shared"
)

// Operation outcomes reported by Open and Close.
type Result string

const (
	ResultActivated Result = "ACTIVATED"
	ResultOngoing   Result = "ONGOING"
	ResultClosed    Result = "CLOSED"
	ResultNoActive  Result = "NO_ACTIVE"
)

// Config wires the service dependencies. Stores and Settings are required.
type Config struct {
	Periods      PeriodStore
	Publishers   PublisherStore
	ServiceYears ServiceYearStore
	Auxiliary    AuxiliaryStore
	Settings     SettingsSource
	Sync         SyncGateway
	Exporter     Exporter
	Locker       Locker
	Metrics      Recorder
	Logger       *slog.Logger
	CarryForward CarryForwardPolicy
}

// Service coordinates the period lifecycle. Open, Close and record edits are serialised.
type Service struct {
	periods      PeriodStore
	publishers   PublisherStore
	serviceYears ServiceYearStore
	auxiliary    AuxiliaryStore
	settings     SettingsSource
	sync         SyncGateway
	exporter     Exporter
	locker       Locker
	metrics      Recorder
	logger       *slog.Logger
	carry        CarryForwardPolicy

	mu       sync.Mutex
	flight   singleflight.Group
	validate *validator.Validate
	now      func() time.Time
}

// NewService constructs a Service instance.
func NewService(cfg Config) (*Service, error) {
	if cfg.Periods == nil || cfg.Publishers == nil || cfg.ServiceYears == nil || cfg.Auxiliary == nil {
		return nil, errors.New("lifecycle: stores are required")
	}
	if cfg.Settings == nil {
		return nil, errors.New("lifecycle: settings source is required")
	}
	if cfg.CarryForward == "" {
		cfg.CarryForward = CarryLatestClosed
	}
	if !cfg.CarryForward.Valid() {
		return nil, fmt.Errorf("lifecycle: unknown carry forward policy %q", cfg.CarryForward)
	}
	s := &Service{
		periods:      cfg.Periods,
		publishers:   cfg.Publishers,
		serviceYears: cfg.ServiceYears,
		auxiliary:    cfg.Auxiliary,
		settings:     cfg.Settings,
		sync:         cfg.Sync,
		exporter:     cfg.Exporter,
		locker:       cfg.Locker,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
		carry:        cfg.CarryForward,
		validate:     validator.New(),
		now:          time.Now,
	}
	if s.sync == nil {
		s.sync = noopGateway{}
	}
	if s.metrics == nil {
		s.metrics = noopRecorder{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Active returns the open service month.
func (s *Service) Active(ctx context.Context) (periods.Period, error) {
	p, err := s.periods.FindActive(ctx)
	if errors.Is(err, shared.ErrNotFound) {
		return periods.Period{}, ErrNoActivePeriod
	}
	return p, err
}

// exclusive runs fn while holding the in-process mutex and, when configured, the shared lock.
func (s *Service) exclusive(ctx context.Context, fn func(context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locker != nil {
		release, err := s.locker.Acquire(ctx)
		if err != nil {
			return fmt.Errorf("lifecycle: acquire lock: %w", err)
		}
		defer release()
	}
	return fn(ctx)
}

func (s *Service) observe(op string, result Result, err error) {
	if err != nil {
		s.metrics.ObserveOperation(op, "ERROR")
		return
	}
	s.metrics.ObserveOperation(op, string(result))
}
