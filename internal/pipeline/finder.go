package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/couchcryptid/station-match-etl/internal/domain"
	"github.com/couchcryptid/station-match-etl/internal/match"
)

// countingFinder counts every nearest-neighbor lookup handed to the inner finder.
type countingFinder struct {
	inner    match.Finder
	searches prometheus.Counter
}

func (f countingFinder) Nearest(query domain.Station) (domain.Neighbor, error) {
	f.searches.Inc()
	return f.inner.Nearest(query)
}

// finder is the nearest-neighbor search shared by the direct and three-way
// passes. cache is nil when caching is disabled.
type finder struct {
	match.Finder
	matcher *match.Matcher
	cache   *match.CachedFinder
}

func newFinder(targets []domain.Station, opts Options, searches prometheus.Counter) (*finder, error) {
	m, err := match.NewMatcher(targets, match.MatcherOptions{Metric: opts.Metric, Precision: opts.Precision})
	if err != nil {
		return nil, err
	}

	f := &finder{matcher: m}
	var inner match.Finder = m
	if opts.CacheSize > 0 {
		f.cache = match.NewCachedFinder(m, opts.CacheSize)
		inner = f.cache
	}
	f.Finder = countingFinder{inner: inner, searches: searches}
	return f, nil
}

// cacheStats reports cache hits and misses, or zeros without a cache.
func (f *finder) cacheStats() (hits, misses int64) {
	if f.cache == nil {
		return 0, 0
	}
	return f.cache.Stats()
}
