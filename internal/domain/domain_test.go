package domain

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRound(t *testing.T) {
	tests := []struct {
		name     string
		v        float64
		digits   int
		expected float64
	}{
		{"eight places", 0.12345678, 4, 0.1235},
		{"already rounded", 0.1, 4, 0.1},
		{"half away from zero", 0.00005, 4, 0.0001},
		{"negative", -117.12346, 4, -117.1235},
		{"zero digits", 2.5, 0, 3},
		{"two digits", 31.016, 2, 31.02},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Round(tt.v, tt.digits), 1e-12)
		})
	}

	assert.True(t, math.IsNaN(Round(math.NaN(), 4)))
	assert.True(t, math.IsInf(Round(math.Inf(1), 4), 1))
}

func TestMissing(t *testing.T) {
	assert.True(t, math.IsNaN(Missing(-99.9, LatSentinel)))
	assert.True(t, math.IsNaN(Missing(-98.8, LatSentinel)))
	assert.Equal(t, -98.7, Missing(-98.7, LatSentinel))
	assert.True(t, math.IsNaN(Missing(-999.9, LonSentinel)))
	assert.Equal(t, -117.5, Missing(-117.5, LonSentinel))
	assert.True(t, math.IsNaN(Missing(-9999, AltSentinel)))
}

func TestStation_HasCoordinates(t *testing.T) {
	assert.True(t, Station{Lat: 30, Lon: 120}.HasCoordinates())
	assert.False(t, Station{Lat: math.NaN(), Lon: 120}.HasCoordinates())
	assert.False(t, Station{Lat: 30, Lon: math.NaN()}.HasCoordinates())
}

func TestCatalog_WithCoordinates(t *testing.T) {
	c := Catalog{Kind: MonitoringRegistry, Stations: []Station{
		{ID: "a", Lat: 1, Lon: 1},
		{ID: "b", Lat: math.NaN(), Lon: 1},
		{ID: "c", Lat: 2, Lon: 2},
	}}
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, 2, c.WithCoordinates())
}

func TestCatalogKind_Valid(t *testing.T) {
	assert.True(t, GlobalRegistry.Valid())
	assert.True(t, NationalRegistry.Valid())
	assert.True(t, MonitoringRegistry.Valid())
	assert.False(t, CatalogKind("wigos").Valid())
}

func TestMatchError(t *testing.T) {
	err := &MatchError{Op: "nearest", StationID: "54511", Err: ErrMissingCoordinates}
	assert.Equal(t, "nearest 54511: station has missing coordinates", err.Error())
	assert.True(t, errors.Is(err, ErrMissingCoordinates))

	var me *MatchError
	require.True(t, errors.As(error(err), &me))
	assert.Equal(t, "54511", me.StationID)

	noID := &MatchError{Op: "nearest", Err: ErrEmptyTarget}
	assert.Equal(t, "nearest: target set has no stations with coordinates", noID.Error())
}

func TestProjections(t *testing.T) {
	igra := Station{Catalog: GlobalRegistry, ID: "CHM00054511", SecondaryID: "54511", StartYear: 1956, EndYear: 2023}
	met := Station{Catalog: NationalRegistry, ID: "54511", Region: "Beijing", Locality: "Beijing", Lat: 39.8, Lon: 116.47}
	cmonoc := Station{Catalog: MonitoringRegistry, ID: "BJFS", Lat: 39.6086, Lon: 115.8925}
	pair := Pair{Left: igra, Right: met}
	nb := Neighbor{Query: met, Match: cmonoc, Distance: 0.6081}

	reg := NewRegistryMatch(pair)
	assert.Equal(t, RegistryMatch{MetID: "54511", Province: "Beijing", City: "Beijing", IgraID: "CHM00054511", Start: 1956, End: 2023}, reg)
	assert.Len(t, reg.Values(), len(RegistryMatchHeader))

	net := NewNetworkMatch(nb)
	assert.Equal(t, "54511", net.MetID)
	assert.Equal(t, "BJFS", net.CmonocID)
	assert.Equal(t, 0.6081, net.Distance)
	assert.Len(t, net.Values(), len(NetworkMatchHeader))

	three := NewThreeWayMatch(pair, nb)
	assert.Equal(t, "CHM00054511", three.IgraID)
	assert.Equal(t, 39.8, three.MetLat)
	assert.Equal(t, 39.6086, three.CmonocLat)
	assert.Equal(t, int32(2023), three.End)
	assert.Len(t, three.Values(), len(ThreeWayMatchHeader))
}

func TestNow_UsesClock(t *testing.T) {
	at := time.Date(2024, time.April, 26, 15, 10, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(at))
	t.Cleanup(func() { SetClock(nil) })

	assert.Equal(t, at, Now())
}
