package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/servicereports/servicereports/internal/activity"
	"github.com/servicereports/servicereports/internal/periods"
	"github.com/servicereports/servicereports/internal/publishers"
	"github.com/servicereports/servicereports/internal/shared"
)

// CloseOutcome describes what Close did.
type CloseOutcome struct {
	Result   Result
	Key      string
	Archived int
	Stats    periods.Stats
	Period   periods.Period
}

// Close archives the filed reports of the active period into the publishers' records,
// reconciles their statuses, snapshots roster statistics and marks the period done.
// A failed run can be repeated; reports already archived are skipped.
func (s *Service) Close(ctx context.Context) (CloseOutcome, error) {
	v, err, _ := s.flight.Do("close", func() (interface{}, error) {
		var out CloseOutcome
		err := s.exclusive(ctx, func(ctx context.Context) error {
			var e error
			out, e = s.close(ctx)
			return e
		})
		return out, err
	})
	if err != nil {
		s.observe("close", "", err)
		return CloseOutcome{}, err
	}
	out := v.(CloseOutcome)
	s.observe("close", out.Result, nil)
	return out, nil
}

func (s *Service) close(ctx context.Context) (CloseOutcome, error) {
	period, err := s.periods.FindActive(ctx)
	if errors.Is(err, shared.ErrNotFound) {
		return CloseOutcome{Result: ResultNoActive}, nil
	}
	if err != nil {
		return CloseOutcome{}, fmt.Errorf("lifecycle: load active period: %w", err)
	}

	if s.settings.Current().OnlineReporting.Enabled {
		s.sync.DeletePeriod(ctx, period.Key)
	}
	if err := s.auxiliary.DeleteByPeriod(ctx, period.Key); err != nil {
		return CloseOutcome{}, fmt.Errorf("lifecycle: clear auxiliary roster %s: %w", period.Key, err)
	}

	now := s.now()
	archived := 0
	for _, rec := range period.Reports {
		if !rec.Filed() || rec.PublisherID == "" {
			continue
		}
		done, err := s.archive(ctx, period, rec, now)
		if err != nil {
			return CloseOutcome{}, err
		}
		if done {
			archived++
		}
	}

	roster, err := s.publishers.FindAll(ctx, publishers.Filter{})
	if err != nil {
		return CloseOutcome{}, fmt.Errorf("lifecycle: load roster: %w", err)
	}
	closedAt := now.UTC()
	period.Status = periods.StatusDone
	period.Stats = ComputeStats(roster)
	period.ClosedAt = &closedAt
	for i := range period.Reports {
		period.Reports[i] = period.Reports[i].Trim()
	}
	n, err := s.periods.Update(ctx, period.ID, period)
	if err != nil {
		return CloseOutcome{}, fmt.Errorf("lifecycle: update period %s: %w", period.Key, err)
	}
	if n == 0 {
		return CloseOutcome{}, fmt.Errorf("lifecycle: update period %s: %w", period.Key, shared.ErrNotFound)
	}

	if s.exporter != nil {
		if err := s.exporter.ExportSummary(ctx, period, roster); err != nil {
			s.logger.Warn("summary export failed", slog.String("key", period.Key), slog.Any("error", err))
		}
	}

	s.logger.Info("service month closed",
		slog.String("key", period.Key),
		slog.Int("archived", archived),
		slog.Int("active_publishers", period.Stats.ActivePublishers),
	)
	return CloseOutcome{
		Result:   ResultClosed,
		Key:      period.Key,
		Archived: archived,
		Stats:    period.Stats,
		Period:   period,
	}, nil
}

// archive moves one filed record into its publisher's archive. It reports false when the
// record was archived by an earlier, interrupted run.
func (s *Service) archive(ctx context.Context, period periods.Period, rec activity.Record, now time.Time) (bool, error) {
	pub, err := s.publishers.FindByID(ctx, rec.PublisherID)
	if errors.Is(err, shared.ErrNotFound) {
		return false, fmt.Errorf("%w: %s (record %s)", ErrPublisherMissing, rec.PublisherID, rec.Identifier)
	}
	if err != nil {
		return false, fmt.Errorf("lifecycle: load publisher %s: %w", rec.PublisherID, err)
	}
	if pub.HasArchived(rec.Identifier) {
		return false, s.restoreYearHistory(ctx, period, pub)
	}

	decision := Reconcile(pub.Status, rec.Report, pub.Trailing(TrailingWindow))
	if decision.Status != pub.Status {
		s.metrics.ObserveTransition(string(pub.Status), string(decision.Status))
	}
	pub.Status = decision.Status
	if decision.Event != "" {
		pub.Histories = append(pub.Histories, shared.NewHistoryEntry(decision.Event, now, period.Key))
	}
	pub.Reports = append(pub.Reports, rec.Archive())

	n, err := s.publishers.Update(ctx, pub.ID, pub)
	if err != nil {
		return false, fmt.Errorf("lifecycle: update publisher %s: %w", pub.ID, err)
	}
	if n == 0 {
		return false, fmt.Errorf("%w: %s (record %s)", ErrPublisherMissing, rec.PublisherID, rec.Identifier)
	}
	if decision.Event != "" {
		entry := shared.NewHistoryEntry(decision.Event, now, pub.DisplayName())
		if err := s.serviceYears.AppendHistory(ctx, period.ServiceYear, entry); err != nil {
			return false, fmt.Errorf("lifecycle: append service year history: %w", err)
		}
	}
	return true, nil
}

// restoreYearHistory writes the service year entries of transitions recorded on pub during
// this period that an interrupted run did not get to append.
func (s *Service) restoreYearHistory(ctx context.Context, period periods.Period, pub publishers.Publisher) error {
	var pending []shared.HistoryEntry
	for _, h := range pub.Histories {
		if h.Information == period.Key {
			pending = append(pending, shared.HistoryEntry{Type: h.Type, Date: h.Date, Information: pub.DisplayName()})
		}
	}
	if len(pending) == 0 {
		return nil
	}
	year, err := s.serviceYears.FindByYear(ctx, period.ServiceYear)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return fmt.Errorf("lifecycle: load service year %d: %w", period.ServiceYear, err)
	}
	for _, entry := range pending {
		if containsEntry(year.History, entry) {
			continue
		}
		if err := s.serviceYears.AppendHistory(ctx, period.ServiceYear, entry); err != nil {
			return fmt.Errorf("lifecycle: append service year history: %w", err)
		}
	}
	return nil
}

func containsEntry(list []shared.HistoryEntry, entry shared.HistoryEntry) bool {
	for _, h := range list {
		if h == entry {
			return true
		}
	}
	return false
}
