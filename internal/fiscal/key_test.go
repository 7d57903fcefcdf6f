package fiscal

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSortOrderCoversServiceYear(t *testing.T) {
	start := Key{Year: 2023, Month: time.September}
	for i := 0; i < 12; i++ {
		key := start.AddMonths(i)
		order, err := SortOrder(key.String())
		require.NoError(t, err)
		require.Equal(t, i, order, "key %s", key)

		year, err := ServiceYear(key.String())
		require.NoError(t, err)
		require.Equal(t, 2024, year, "key %s", key)
	}
}

func TestServiceYearAdvancesInSeptember(t *testing.T) {
	aug, err := ServiceYear("2024-8")
	require.NoError(t, err)
	sep, err := ServiceYear("2024-9")
	require.NoError(t, err)
	require.Equal(t, 2024, aug)
	require.Equal(t, 2025, sep)
}

func TestParseKeyAcceptsPaddedMonth(t *testing.T) {
	k, err := ParseKey("2024-03")
	require.NoError(t, err)
	require.Equal(t, Key{Year: 2024, Month: time.March}, k)
	require.Equal(t, "2024-3", k.String())
}

func TestParseKeyRejectsMalformed(t *testing.T) {
	for _, in := range []string{"", "2024", "2024-13", "2024-0", "24-1", "abcd-1"} {
		_, err := ParseKey(in)
		require.True(t, errors.Is(err, ErrMalformedKey), "input %q", in)
	}
}

func TestAddMonthsCrossesYears(t *testing.T) {
	k := Key{Year: 2024, Month: time.January}
	require.Equal(t, Key{Year: 2023, Month: time.November}, k.AddMonths(-2))
	require.Equal(t, Key{Year: 2025, Month: time.January}, k.AddMonths(12))
	require.True(t, k.AddMonths(-1).Before(k))
}

func TestKeyAtRoundTripsSortOrder(t *testing.T) {
	k, ok := KeyAt(2024, 0)
	require.True(t, ok)
	require.Equal(t, Key{Year: 2023, Month: time.September}, k)

	k, ok = KeyAt(2024, 11)
	require.True(t, ok)
	require.Equal(t, Key{Year: 2024, Month: time.August}, k)

	_, ok = KeyAt(2024, 12)
	require.False(t, ok)
}
