package match

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/station-match-etl/internal/domain"
)

func site(id string, lat, lon float64) domain.Station {
	return domain.Station{Catalog: domain.MonitoringRegistry, ID: id, Lat: lat, Lon: lon}
}

func newMatcher(t *testing.T, targets ...domain.Station) *Matcher {
	t.Helper()
	m, err := NewMatcher(targets, MatcherOptions{})
	require.NoError(t, err)
	return m
}

func TestNearest_Scenario(t *testing.T) {
	m := newMatcher(t, site("B1", 30.0, 120.1), site("B2", 31.0, 121.0))

	nb, err := m.Nearest(domain.Station{ID: "A", Lat: 30.0, Lon: 120.0})
	require.NoError(t, err)
	assert.Equal(t, "B1", nb.Match.ID)
	assert.Equal(t, 0.1, nb.Distance)
	assert.Equal(t, "A", nb.Query.ID)
}

func TestNearest_RoundsDistanceAndCoordinates(t *testing.T) {
	m := newMatcher(t, site("T", 30.123456, 120.987654))

	nb, err := m.Nearest(domain.Station{ID: "Q", Lat: 30.0, Lon: 120.0})
	require.NoError(t, err)
	assert.Equal(t, 30.1235, nb.Match.Lat)
	assert.Equal(t, 120.9877, nb.Match.Lon)
	raw := math.Sqrt(0.123456*0.123456 + 0.987654*0.987654)
	assert.InDelta(t, domain.Round(raw, 4), nb.Distance, 1e-12)
	assert.Equal(t, nb.Distance, domain.Round(nb.Distance, 4))
}

func TestNewMatcher_ZeroOptionsUseDefaultPrecision(t *testing.T) {
	m, err := NewMatcher([]domain.Station{site("B1", 30.0, 120.1)}, MatcherOptions{})
	require.NoError(t, err)

	nb, err := m.Nearest(domain.Station{ID: "A", Lat: 30.0, Lon: 120.0})
	require.NoError(t, err)
	assert.Equal(t, 0.1, nb.Distance)
	assert.Equal(t, 120.1, nb.Match.Lon)
}

func TestNewMatcher_WholeUnitPrecision(t *testing.T) {
	m, err := NewMatcher([]domain.Station{site("B1", 30.0, 120.1)}, MatcherOptions{Precision: Places(0)})
	require.NoError(t, err)

	nb, err := m.Nearest(domain.Station{ID: "A", Lat: 30.0, Lon: 120.0})
	require.NoError(t, err)
	assert.Zero(t, nb.Distance)
	assert.Equal(t, 120.0, nb.Match.Lon)
}

func TestNearest_TieKeepsFirst(t *testing.T) {
	m := newMatcher(t, site("EAST", 0, 1), site("WEST", 0, -1), site("NORTH", 1, 0))

	nb, err := m.Nearest(domain.Station{ID: "O", Lat: 0, Lon: 0})
	require.NoError(t, err)
	assert.Equal(t, "EAST", nb.Match.ID)
}

func TestNearest_MinimumProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	targets := make([]domain.Station, 200)
	for i := range targets {
		targets[i] = site(string(rune('A'+i%26))+string(rune('a'+i/26)), 18+rng.Float64()*35, 73+rng.Float64()*62)
	}
	m := newMatcher(t, targets...)

	for range 50 {
		q := domain.Station{ID: "q", Lat: 18 + rng.Float64()*35, Lon: 73 + rng.Float64()*62}
		nb, err := m.Nearest(q)
		require.NoError(t, err)
		for _, tg := range targets {
			d := domain.Round(Euclidean(q.Lat, q.Lon, tg.Lat, tg.Lon), 4)
			assert.LessOrEqual(t, nb.Distance, d)
		}
	}
}

func TestNewMatcher_EmptyTarget(t *testing.T) {
	_, err := NewMatcher(nil, MatcherOptions{Precision: Places(4)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrEmptyTarget))

	var me *domain.MatchError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, "nearest", me.Op)
}

func TestNewMatcher_AllNaNTarget(t *testing.T) {
	_, err := NewMatcher([]domain.Station{site("X", math.NaN(), 1), site("Y", 1, math.NaN())}, MatcherOptions{})
	assert.True(t, errors.Is(err, domain.ErrEmptyTarget))
}

func TestNewMatcher_SkipsNaNTargets(t *testing.T) {
	m := newMatcher(t, site("BAD", math.NaN(), math.NaN()), site("FAR", 10, 10), site("NEAR", 1, 1))
	assert.Equal(t, 1, m.Skipped())

	nb, err := m.Nearest(domain.Station{ID: "O", Lat: 0, Lon: 0})
	require.NoError(t, err)
	assert.Equal(t, "NEAR", nb.Match.ID)
	assert.False(t, math.IsNaN(nb.Distance))
}

func TestNearest_NaNQuery(t *testing.T) {
	m := newMatcher(t, site("T", 1, 1))

	_, err := m.Nearest(domain.Station{ID: "Q", Lat: math.NaN(), Lon: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMissingCoordinates))
	assert.Contains(t, err.Error(), "Q")
}

func TestNearest_Haversine(t *testing.T) {
	m, err := NewMatcher([]domain.Station{site("BJFS", 39.6086, 115.8925)}, MatcherOptions{Metric: Haversine, Precision: Places(1)})
	require.NoError(t, err)

	nb, err := m.Nearest(domain.Station{ID: "54511", Lat: 39.8, Lon: 116.4667})
	require.NoError(t, err)
	assert.InDelta(t, 53.5, nb.Distance, 1.0)
}

func TestMatchAll_SortedAscending(t *testing.T) {
	m := newMatcher(t, site("T1", 0, 0), site("T2", 10, 10))
	sources := []domain.Station{
		{ID: "s1", Lat: 5, Lon: 4},
		{ID: "s2", Lat: 0, Lon: 0.1},
		{ID: "s3", Lat: 9, Lon: 9},
		{ID: "s4", Lat: 0.1, Lon: 0},
	}

	nbs, err := MatchAll(context.Background(), m, sources, 3)
	require.NoError(t, err)
	require.Len(t, nbs, 4)
	for i := 1; i < len(nbs); i++ {
		assert.LessOrEqual(t, nbs[i-1].Distance, nbs[i].Distance)
	}
	assert.Equal(t, "s2", nbs[0].Query.ID, "ties keep source order")
	assert.Equal(t, "s4", nbs[1].Query.ID)
}

func TestMatchAll_ParallelEqualsSequential(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	var targets, sources []domain.Station
	for i := range 100 {
		targets = append(targets, site("t"+string(rune('0'+i%10))+string(rune('a'+i/10)), rng.Float64()*40, 80+rng.Float64()*50))
	}
	for i := range 300 {
		sources = append(sources, domain.Station{ID: string(rune(0x4e00 + i)), Lat: rng.Float64() * 40, Lon: 80 + rng.Float64()*50})
	}
	m := newMatcher(t, targets...)

	seq, err := MatchAll(context.Background(), m, sources, 1)
	require.NoError(t, err)
	par, err := MatchAll(context.Background(), m, sources, 8)
	require.NoError(t, err)

	if diff := cmp.Diff(seq, par); diff != "" {
		t.Fatalf("parallel result differs (-seq +par):\n%s", diff)
	}
}

func TestMatchAll_EmptySource(t *testing.T) {
	m := newMatcher(t, site("T", 0, 0))
	_, err := MatchAll(context.Background(), m, nil, 2)
	assert.True(t, errors.Is(err, domain.ErrEmptySource))
}

func TestMatchAll_PropagatesError(t *testing.T) {
	m := newMatcher(t, site("T", 0, 0))
	sources := []domain.Station{{ID: "ok", Lat: 1, Lon: 1}, {ID: "bad", Lat: math.NaN(), Lon: 1}}

	nbs, err := MatchAll(context.Background(), m, sources, 2)
	require.Error(t, err)
	assert.Nil(t, nbs)
	assert.True(t, errors.Is(err, domain.ErrMissingCoordinates))
}

func TestMatchAll_Cancelled(t *testing.T) {
	m := newMatcher(t, site("T", 0, 0))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := MatchAll(ctx, m, []domain.Station{{ID: "a", Lat: 1, Lon: 1}}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNetwork_Projection(t *testing.T) {
	m := newMatcher(t, site("BJFS", 39.6086, 115.8925), site("SHAO", 31.0996, 121.2004))
	national := []domain.Station{met("58362", 31.4, 121.4667), met("54511", 39.8, 116.4667)}

	rows, err := Network(context.Background(), m, national, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "58362", rows[0].MetID)
	assert.Equal(t, "SHAO", rows[0].CmonocID)
	assert.Equal(t, 31.4, rows[0].Lat)
	assert.Equal(t, "54511", rows[1].MetID)
	assert.Equal(t, "BJFS", rows[1].CmonocID)
	assert.LessOrEqual(t, rows[0].Distance, rows[1].Distance)
}
