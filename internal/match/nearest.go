package match

import (
	"cmp"
	"context"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/station-match-etl/internal/domain"
)

// Finder returns the nearest target station for a query station.
type Finder interface {
	Nearest(query domain.Station) (domain.Neighbor, error)
}

// MatcherOptions configures a Matcher.
type MatcherOptions struct {
	Metric    Metric // defaults to Euclidean
	// Precision is the number of decimal places kept for distance and matched
	// coordinates. Nil selects domain.DefaultPrecision; Places(0) rounds to
	// whole units.
	Precision *int
}

// Places returns a Precision value for MatcherOptions.
func Places(n int) *int { return &n }

// Matcher is a linear-scan nearest-neighbor search over a fixed target set.
// It is safe for concurrent use.
type Matcher struct {
	targets   []domain.Station
	skipped   int
	metric    Metric
	precision int
}

// NewMatcher builds a matcher over targets. Targets without coordinates are
// excluded from the search; if none remain the matcher cannot answer any
// query and ErrEmptyTarget is returned.
func NewMatcher(targets []domain.Station, opts MatcherOptions) (*Matcher, error) {
	valid := make([]domain.Station, 0, len(targets))
	for _, t := range targets {
		if t.HasCoordinates() {
			valid = append(valid, t)
		}
	}
	if len(valid) == 0 {
		return nil, &domain.MatchError{Op: "nearest", Err: domain.ErrEmptyTarget}
	}

	metric := opts.Metric
	if metric == nil {
		metric = Euclidean
	}

	precision := domain.DefaultPrecision
	if opts.Precision != nil {
		precision = *opts.Precision
	}

	return &Matcher{
		targets:   valid,
		skipped:   len(targets) - len(valid),
		metric:    metric,
		precision: precision,
	}, nil
}

// Skipped returns how many targets were excluded for missing coordinates.
func (m *Matcher) Skipped() int { return m.skipped }

// Nearest scans every target and returns the closest one. Ties keep the
// target that comes first in catalog order.
func (m *Matcher) Nearest(query domain.Station) (domain.Neighbor, error) {
	if !query.HasCoordinates() {
		return domain.Neighbor{}, &domain.MatchError{Op: "nearest", StationID: query.ID, Err: domain.ErrMissingCoordinates}
	}

	best := 0
	bestDist := m.metric(query.Lat, query.Lon, m.targets[0].Lat, m.targets[0].Lon)
	for i := 1; i < len(m.targets); i++ {
		t := m.targets[i]
		if d := m.metric(query.Lat, query.Lon, t.Lat, t.Lon); d < bestDist {
			best, bestDist = i, d
		}
	}

	match := m.targets[best]
	match.Lat = domain.Round(match.Lat, m.precision)
	match.Lon = domain.Round(match.Lon, m.precision)

	return domain.Neighbor{
		Query:    query,
		Match:    match,
		Distance: domain.Round(bestDist, m.precision),
	}, nil
}

// MatchAll finds the nearest target for every source station using up to
// workers concurrent searches, and returns the results sorted by ascending
// distance. Equal distances keep source order. The first error aborts the run.
// An empty source set is an error.
func MatchAll(ctx context.Context, f Finder, sources []domain.Station, workers int) ([]domain.Neighbor, error) {
	if len(sources) == 0 {
		return nil, &domain.MatchError{Op: "nearest", Err: domain.ErrEmptySource}
	}
	out, err := nearestEach(ctx, f, sources, workers)
	if err != nil {
		return nil, err
	}
	SortByDistance(out, func(n domain.Neighbor) float64 { return n.Distance })
	return out, nil
}

// nearestEach runs one search per query; out[i] belongs to queries[i].
func nearestEach(ctx context.Context, f Finder, queries []domain.Station, workers int) ([]domain.Neighbor, error) {
	if workers < 1 {
		workers = 1
	}

	out := make([]domain.Neighbor, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, q := range queries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			nb, err := f.Nearest(q)
			if err != nil {
				return err
			}
			out[i] = nb
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// SortByDistance stable-sorts rows ascending by the distance key.
func SortByDistance[T any](rows []T, key func(T) float64) {
	slices.SortStableFunc(rows, func(a, b T) int {
		return cmp.Compare(key(a), key(b))
	})
}

// Network runs the direct national-to-monitoring pass and projects the rows.
func Network(ctx context.Context, f Finder, national []domain.Station, workers int) ([]domain.NetworkMatch, error) {
	nbs, err := MatchAll(ctx, f, national, workers)
	if err != nil {
		return nil, err
	}
	rows := make([]domain.NetworkMatch, len(nbs))
	for i, nb := range nbs {
		rows[i] = domain.NewNetworkMatch(nb)
	}
	return rows, nil
}
