package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/servicereports/servicereports/internal/activity"
	"github.com/servicereports/servicereports/internal/periods"
	"github.com/servicereports/servicereports/internal/publishers"
	"github.com/servicereports/servicereports/internal/shared"
)

func TestPeriodsRejectSecondActive(t *testing.T) {
	ctx := context.Background()
	store := New()

	_, err := store.Periods.Create(ctx, periods.Period{Key: "2024-1", Status: periods.StatusActive})
	require.NoError(t, err)

	_, err = store.Periods.Create(ctx, periods.Period{Key: "2024-2", Status: periods.StatusActive})
	require.True(t, errors.Is(err, shared.ErrConflict))

	_, err = store.Periods.Create(ctx, periods.Period{Key: "2024-1", Status: periods.StatusDone})
	require.True(t, errors.Is(err, shared.ErrConflict))
}

func TestPeriodsReturnCopies(t *testing.T) {
	ctx := context.Background()
	store := New()
	created, err := store.Periods.Create(ctx, periods.Period{
		Key:     "2024-1",
		Status:  periods.StatusActive,
		Reports: []activity.Record{{Report: activity.Report{Identifier: "r1"}}},
	})
	require.NoError(t, err)

	created.Reports[0].HasBeenActive = true
	loaded, err := store.Periods.FindActive(ctx)
	require.NoError(t, err)
	require.False(t, loaded.Reports[0].HasBeenActive)
}

func TestFindLatestDoneUsesFiscalOrder(t *testing.T) {
	ctx := context.Background()
	store := New()
	for _, p := range []periods.Period{
		{Key: "2023-12", ServiceYear: 2024, SortOrder: 3, Status: periods.StatusDone},
		{Key: "2024-1", ServiceYear: 2024, SortOrder: 4, Status: periods.StatusDone},
		{Key: "2023-11", ServiceYear: 2024, SortOrder: 2, Status: periods.StatusDone},
	} {
		_, err := store.Periods.Create(ctx, p)
		require.NoError(t, err)
	}
	latest, err := store.Periods.FindLatestDone(ctx)
	require.NoError(t, err)
	require.Equal(t, "2024-1", latest.Key)
}

func TestPublisherUpdateMissingReturnsZero(t *testing.T) {
	store := New()
	n, err := store.Publishers.Update(context.Background(), "missing", publishers.Publisher{})
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestAppendHistoryCreatesYear(t *testing.T) {
	ctx := context.Background()
	store := New()
	require.NoError(t, store.ServiceYears.AppendHistory(ctx, 2024, shared.HistoryEntry{Type: shared.HistoryInactive}))
	y, err := store.ServiceYears.FindByYear(ctx, 2024)
	require.NoError(t, err)
	require.Len(t, y.History, 1)
}
