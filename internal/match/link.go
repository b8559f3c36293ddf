package match

import (
	"context"

	"github.com/couchcryptid/station-match-etl/internal/domain"
)

// LinkOptions configures Link.
type LinkOptions struct {
	MinEndYear int
	Workers    int
}

// LinkStats counts pairs removed while linking.
type LinkStats struct {
	MissingCoordinates int // hub station has no coordinates to search from
	Stale              int // removed by the recency filter
}

// Link attaches to every join pair the target station nearest to the pair's
// right-hand (hub) station, then filters by recency and sorts by distance.
// Pairs whose hub station has no coordinates cannot be searched and are
// dropped. Searches run on up to opts.Workers goroutines.
func Link(ctx context.Context, pairs []domain.Pair, f Finder, opts LinkOptions) ([]domain.ThreeWayMatch, LinkStats, error) {
	var stats LinkStats

	recent := FilterRecent(pairs, opts.MinEndYear)
	stats.Stale = len(pairs) - len(recent)

	searchable := make([]domain.Pair, 0, len(recent))
	hubs := make([]domain.Station, 0, len(recent))
	for _, p := range recent {
		if !p.Right.HasCoordinates() {
			stats.MissingCoordinates++
			continue
		}
		searchable = append(searchable, p)
		hubs = append(hubs, p.Right)
	}

	nbs, err := nearestEach(ctx, f, hubs, opts.Workers)
	if err != nil {
		return nil, stats, err
	}

	rows := make([]domain.ThreeWayMatch, 0, len(searchable))
	for i, p := range searchable {
		row := domain.NewThreeWayMatch(p, nbs[i])
		if int(row.End) < opts.MinEndYear {
			stats.Stale++
			continue
		}
		rows = append(rows, row)
	}

	SortByDistance(rows, func(r domain.ThreeWayMatch) float64 { return r.Distance })
	return rows, stats, nil
}
