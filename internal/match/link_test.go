package match

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/station-match-etl/internal/domain"
)

func TestLink_Scenario(t *testing.T) {
	pairs := []domain.Pair{{Left: igra("I1", "M1", 2020), Right: met("M1", 30.0, 120.0)}}
	m := newMatcher(t, site("C1", 30.0, 120.2))

	rows, stats, err := Link(context.Background(), pairs, m, LinkOptions{MinEndYear: defaultMinEndYear, Workers: 2})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.ThreeWayMatch{
		IgraID: "I1", Start: 1960, End: 2020,
		MetID: "M1", Province: "PM1", City: "CM1", MetLat: 30.0, MetLon: 120.0,
		CmonocID: "C1", CmonocLat: 30.0, CmonocLon: 120.2, Distance: 0.2,
	}, rows[0])
	assert.Equal(t, LinkStats{}, stats)
}

func TestLink_FiltersStaleAndMissingHub(t *testing.T) {
	pairs := []domain.Pair{
		{Left: igra("OLD", "1", 2009), Right: met("1", 30, 120)},
		{Left: igra("NOPOS", "2", 2020), Right: met("2", math.NaN(), math.NaN())},
		{Left: igra("FAR", "3", 2015), Right: met("3", 35, 125)},
		{Left: igra("NEAR", "4", 2024), Right: met("4", 30, 120.05)},
	}
	m := newMatcher(t, site("C1", 30, 120))

	rows, stats, err := Link(context.Background(), pairs, m, LinkOptions{MinEndYear: defaultMinEndYear, Workers: 4})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "NEAR", rows[0].IgraID)
	assert.Equal(t, "FAR", rows[1].IgraID)
	assert.Equal(t, 1, stats.Stale)
	assert.Equal(t, 1, stats.MissingCoordinates)
	for _, r := range rows {
		assert.GreaterOrEqual(t, int(r.End), defaultMinEndYear)
	}
}

func TestLink_Empty(t *testing.T) {
	rows, _, err := Link(context.Background(), nil, newMatcher(t, site("C", 0, 0)), LinkOptions{MinEndYear: defaultMinEndYear})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestLink_UsesCache(t *testing.T) {
	pairs := []domain.Pair{
		{Left: igra("A", "1", 2020), Right: met("1", 30, 120)},
		{Left: igra("B", "1", 2021), Right: met("1", 30, 120)},
	}
	inner := &countingFinder{inner: newMatcher(t, site("C", 30, 121))}
	c := NewCachedFinder(inner, 8)

	_, err := Network(context.Background(), c, []domain.Station{met("1", 30, 120)}, 1)
	require.NoError(t, err)
	rows, _, err := Link(context.Background(), pairs, c, LinkOptions{MinEndYear: defaultMinEndYear, Workers: 1})
	require.NoError(t, err)

	assert.Len(t, rows, 2)
	assert.Equal(t, 1, inner.calls)
}

func TestLink_FinderError(t *testing.T) {
	boom := errors.New("boom")
	pairs := []domain.Pair{{Left: igra("A", "1", 2020), Right: met("1", 30, 120)}}

	_, _, err := Link(context.Background(), pairs, &countingFinder{err: boom}, LinkOptions{MinEndYear: defaultMinEndYear})
	assert.ErrorIs(t, err, boom)
}
