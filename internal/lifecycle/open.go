package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/servicereports/servicereports/internal/fiscal"
	"github.com/servicereports/servicereports/internal/periods"
	"github.com/servicereports/servicereports/internal/publishers"
	"github.com/servicereports/servicereports/internal/shared"
)

// OpenOutcome describes what Open did.
type OpenOutcome struct {
	Result Result
	Key    string
	// ClosedKey is set when a previous active period was closed first.
	ClosedKey string
	Carried   int
	Period    periods.Period
}

// Open ensures the service month preceding the current calendar month exists. When it does
// not, any active period is closed first and the new period is seeded from the roster.
// Concurrent callers share one run.
func (s *Service) Open(ctx context.Context) (OpenOutcome, error) {
	v, err, _ := s.flight.Do("open", func() (interface{}, error) {
		var out OpenOutcome
		err := s.exclusive(ctx, func(ctx context.Context) error {
			var e error
			out, e = s.open(ctx)
			return e
		})
		return out, err
	})
	if err != nil {
		s.observe("open", "", err)
		return OpenOutcome{}, err
	}
	out := v.(OpenOutcome)
	s.observe("open", out.Result, nil)
	return out, nil
}

func (s *Service) open(ctx context.Context) (OpenOutcome, error) {
	key := fiscal.KeyOf(s.now()).AddMonths(-1)
	out := OpenOutcome{Key: key.String()}

	existing, err := s.periods.FindByKey(ctx, key.String())
	switch {
	case err == nil:
		out.Result = ResultOngoing
		out.Period = existing
		return out, nil
	case !errors.Is(err, shared.ErrNotFound):
		return OpenOutcome{}, fmt.Errorf("lifecycle: load period %s: %w", key, err)
	}

	closed, err := s.close(ctx)
	if err != nil {
		return OpenOutcome{}, err
	}
	if closed.Result == ResultClosed {
		out.ClosedKey = closed.Key
	}

	roster, err := s.publishers.FindAll(ctx, publishers.Filter{})
	if err != nil {
		return OpenOutcome{}, fmt.Errorf("lifecycle: load roster: %w", err)
	}
	enrolled, err := s.auxiliary.FindByPeriod(ctx, key.String())
	if err != nil {
		return OpenOutcome{}, fmt.Errorf("lifecycle: load auxiliary roster: %w", err)
	}
	cfg := s.settings.Current()

	period := periods.Period{
		Key:         key.String(),
		ServiceYear: key.ServiceYear(),
		SortOrder:   key.SortOrder(),
		Status:      periods.StatusActive,
		Reports:     seedRecords(key, roster, enrolled),
		Attendance:  seedAttendance(cfg.LanguageGroups),
	}
	source, ok, err := s.carrySource(ctx, key, closed)
	if err != nil {
		return OpenOutcome{}, err
	}
	if ok {
		carried := carryForward(source, period.Reports)
		period.Reports = append(period.Reports, carried...)
		out.Carried = len(carried)
	}

	created, err := s.periods.Create(ctx, period)
	if err != nil {
		return OpenOutcome{}, fmt.Errorf("lifecycle: create period %s: %w", key, err)
	}
	if err := s.registerMonth(ctx, key); err != nil {
		return OpenOutcome{}, err
	}
	if cfg.PushEnabled() {
		s.sync.PushPeriod(ctx, created)
	}

	s.logger.Info("service month opened",
		slog.String("key", created.Key),
		slog.Int("records", len(created.Reports)),
		slog.Int("carried", out.Carried),
		slog.String("closed", out.ClosedKey),
	)
	out.Result = ResultActivated
	out.Period = created
	return out, nil
}

func (s *Service) carrySource(ctx context.Context, key fiscal.Key, closed CloseOutcome) (periods.Period, bool, error) {
	var (
		source periods.Period
		err    error
	)
	switch s.carry {
	case CarryTwoMonthsBack:
		source, err = s.periods.FindByKey(ctx, key.AddMonths(-1).String())
	default:
		if closed.Result == ResultClosed {
			return closed.Period, true, nil
		}
		source, err = s.periods.FindLatestDone(ctx)
	}
	if errors.Is(err, shared.ErrNotFound) {
		return periods.Period{}, false, nil
	}
	if err != nil {
		return periods.Period{}, false, fmt.Errorf("lifecycle: load carry forward source: %w", err)
	}
	return source, true, nil
}

func (s *Service) registerMonth(ctx context.Context, key fiscal.Key) error {
	year, err := s.serviceYears.FindOrCreate(ctx, key.ServiceYear())
	if err != nil {
		return fmt.Errorf("lifecycle: load service year %d: %w", key.ServiceYear(), err)
	}
	if year.HasMonth(key.String()) {
		return nil
	}
	year.ServiceMonths = append(year.ServiceMonths, key.String())
	if _, err := s.serviceYears.Update(ctx, year.Name, year); err != nil {
		return fmt.Errorf("lifecycle: update service year %d: %w", year.Name, err)
	}
	return nil
}
