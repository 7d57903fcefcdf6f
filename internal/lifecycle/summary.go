package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/servicereports/servicereports/internal/fiscal"
	"github.com/servicereports/servicereports/internal/periods"
	"github.com/servicereports/servicereports/internal/shared"
)

// MonthSummary condenses one service month of a year summary.
type MonthSummary struct {
	Key     string              `json:"key"`
	Status  periods.Status      `json:"status"`
	Stats   periods.Stats       `json:"stats"`
	Unfiled int                 `json:"unfiled"`
	Totals  []periods.KindTally `json:"totals"`
}

// YearSummary lays out the months of a service year in fiscal order; months never opened are nil.
type YearSummary struct {
	Year    int                   `json:"year"`
	Months  [12]*MonthSummary     `json:"months"`
	History []shared.HistoryEntry `json:"history"`
}

// ServiceYearSummary reports the months and diary of a service year.
func (s *Service) ServiceYearSummary(ctx context.Context, year int) (YearSummary, error) {
	sy, err := s.serviceYears.FindByYear(ctx, year)
	if errors.Is(err, shared.ErrNotFound) {
		return YearSummary{Year: year, History: []shared.HistoryEntry{}}, nil
	}
	if err != nil {
		return YearSummary{}, fmt.Errorf("lifecycle: load service year %d: %w", year, err)
	}
	list, err := s.periods.FindByKeys(ctx, sy.ServiceMonths)
	if err != nil {
		return YearSummary{}, fmt.Errorf("lifecycle: load months of %d: %w", year, err)
	}
	out := YearSummary{Year: year, History: append([]shared.HistoryEntry{}, sy.History...)}
	for _, p := range list {
		key, err := fiscal.ParseKey(p.Key)
		if err != nil || key.ServiceYear() != year {
			continue
		}
		out.Months[key.SortOrder()] = &MonthSummary{
			Key:     p.Key,
			Status:  p.Status,
			Stats:   p.Stats,
			Unfiled: p.Unfiled(),
			Totals:  p.Tally(),
		}
	}
	return out, nil
}
