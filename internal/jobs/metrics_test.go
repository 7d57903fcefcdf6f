package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	require.NoError(t, m.Track("period:rollover").End(nil))
	boom := errors.New("boom")
	require.ErrorIs(t, m.Track("period:rollover").End(boom), boom)

	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("period:rollover", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("period:rollover", "failure")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("period:rollover")))
}

func TestAddRollover(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.AddRollover("ACTIVATED", 3)
	m.AddRollover("ONGOING", 0)

	require.Equal(t, 1.0, testutil.ToFloat64(m.rollovers.WithLabelValues("ACTIVATED")))
	require.Equal(t, 3.0, testutil.ToFloat64(m.rollovers.WithLabelValues("carried_records")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.rollovers.WithLabelValues("ONGOING")))

	var nilMetrics *Metrics
	nilMetrics.AddRollover("ACTIVATED", 1)
	require.NoError(t, nilMetrics.Track("x").End(nil))
}
