package activity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArchiveStripsPublisherReferences(t *testing.T) {
	hours := 12
	rec := Record{
		Report: Report{
			Identifier:    NewIdentifier(),
			PeriodKey:     "2024-3",
			Kind:          KindAuxiliary,
			HasBeenActive: true,
			Hours:         &hours,
		},
		PublisherID: "pub-1",
		Publisher:   &PublisherRef{Name: "Ana Lima", Email: "ana@example.org", GroupID: "g1"},
	}

	archived := rec.Archive()
	require.Equal(t, rec.Identifier, archived.Identifier)
	require.Equal(t, 12, *archived.Hours)

	hours = 99
	require.Equal(t, 12, *archived.Hours, "archive must not alias the live record")
}

func TestTrimKeepsPublisherID(t *testing.T) {
	rec := Record{
		Report:      Report{Identifier: "r1"},
		PublisherID: "pub-1",
		Publisher:   &PublisherRef{Name: "Ana Lima"},
	}
	trimmed := rec.Trim()
	require.Nil(t, trimmed.Publisher)
	require.Equal(t, "pub-1", trimmed.PublisherID)
	require.NotNil(t, rec.Publisher)
}

func TestFiled(t *testing.T) {
	require.False(t, Report{}.Filed())
	require.True(t, Report{HasBeenActive: true}.Filed())
	require.True(t, Report{HasNotBeenActive: true}.Filed())
}

func TestNewIdentifierIsUnique(t *testing.T) {
	a, b := NewIdentifier(), NewIdentifier()
	require.NotEqual(t, a, b)
	require.Len(t, a, 26)
}
