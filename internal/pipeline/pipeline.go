// Package pipeline runs one matching pass: load the three catalogs, match them,
// and hand the result to every configured sink.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/couchcryptid/station-match-etl/internal/catalog"
	"github.com/couchcryptid/station-match-etl/internal/domain"
	"github.com/couchcryptid/station-match-etl/internal/match"
	"github.com/couchcryptid/station-match-etl/internal/observability"
)

// Table labels used in metrics and logs.
const (
	tableRegistry = "registry"
	tableNetwork  = "network"
	tableThreeWay = "three_way"
)

// CatalogSource loads one station catalog.
type CatalogSource interface {
	Load(ctx context.Context, kind domain.CatalogKind) (domain.Catalog, error)
}

// Sink receives the result of a run.
type Sink interface {
	Name() string
	Write(ctx context.Context, res domain.Result) error
}

// Options tunes matching.
type Options struct {
	MinEndYear int
	// Precision is the number of decimal places kept; nil selects
	// domain.DefaultPrecision.
	Precision  *int
	Metric     match.Metric
	StrictKeys bool
	Workers    int
	// CacheSize bounds the nearest-neighbor cache; 0 disables it.
	CacheSize int
	// PersistDir receives normalized copies of the loaded catalogs when set.
	PersistDir string
}

// Pipeline orchestrates load, match and write.
type Pipeline struct {
	source  CatalogSource
	sinks   []Sink
	opts    Options
	logger  *slog.Logger
	metrics *observability.Metrics
	ready   atomic.Bool
}

// New creates a Pipeline with the given source, sinks and observability.
func New(source CatalogSource, sinks []Sink, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		source:  source,
		sinks:   sinks,
		opts:    opts,
		logger:  logger,
		metrics: metrics,
	}
}

// CheckReadiness returns nil once a run has completed successfully.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no matching run has completed yet")
	}
	return nil
}

// Run performs one complete pass. Matching errors abort the run; sink errors
// are collected so that one failing sink does not stop the others, and the
// result is returned alongside them.
func (p *Pipeline) Run(ctx context.Context) (domain.Result, error) {
	start := time.Now()
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)
	logger.Info("run started", "workers", p.opts.Workers, "min_end_year", p.opts.MinEndYear)

	res, err := p.run(ctx, runID, logger)
	p.metrics.RunDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		p.metrics.LastRunSuccess.Set(0)
		logger.Error("run failed", "error", err)
		return res, err
	}

	p.metrics.LastRunSuccess.Set(1)
	p.ready.Store(true)
	logger.Info("run complete",
		"registry_rows", len(res.Registry),
		"network_rows", len(res.Network),
		"three_way_rows", len(res.ThreeWay),
		"duration", time.Since(start),
	)
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, runID string, logger *slog.Logger) (domain.Result, error) {
	res := domain.Result{RunID: runID, Stations: make(map[domain.CatalogKind]int, 3)}

	var global, national, monitoring domain.Catalog
	err := p.stage("load", func() error {
		var err error
		if global, err = p.load(ctx, domain.GlobalRegistry); err != nil {
			return err
		}
		if national, err = p.load(ctx, domain.NationalRegistry); err != nil {
			return err
		}
		monitoring, err = p.load(ctx, domain.MonitoringRegistry)
		return err
	})
	if err != nil {
		return res, err
	}
	for _, c := range []domain.Catalog{global, national, monitoring} {
		res.Stations[c.Kind] = c.Len()
	}

	if p.opts.PersistDir != "" {
		err := p.stage("persist", func() error {
			return p.persist(logger, global, national, monitoring)
		})
		if err != nil {
			return res, err
		}
	}

	var pairs []domain.Pair
	err = p.stage("join", func() error {
		var stats match.JoinStats
		var err error
		pairs, stats, err = match.Join(global.Stations, national.Stations, match.BySecondaryID, match.ByID,
			match.JoinOptions{MinEndYear: p.opts.MinEndYear, StrictKeys: p.opts.StrictKeys})
		if err != nil {
			return err
		}
		p.dropped(tableRegistry, "unmatched", stats.Unmatched)
		p.dropped(tableRegistry, "stale", stats.Stale)
		p.dropped(tableRegistry, "duplicate_key", stats.DuplicateKeys)
		if stats.DuplicateKeys > 0 {
			logger.Warn("duplicate national station ids, first occurrence kept", "duplicates", stats.DuplicateKeys)
		}
		res.Registry = match.Registry(pairs)
		return nil
	})
	if err != nil {
		return res, p.matchFailed(err)
	}

	f, err := newFinder(monitoring.Stations, p.opts, p.metrics.NearestSearches)
	if err != nil {
		return res, p.matchFailed(err)
	}
	if n := f.matcher.Skipped(); n > 0 {
		logger.Warn("monitoring sites without coordinates skipped", "skipped", n)
	}

	err = p.stage("network", func() error {
		hubs := make([]domain.Station, 0, national.Len())
		for _, s := range national.Stations {
			if s.HasCoordinates() {
				hubs = append(hubs, s)
			}
		}
		p.dropped(tableNetwork, "missing_coordinates", national.Len()-len(hubs))

		var err error
		res.Network, err = match.Network(ctx, f, hubs, p.opts.Workers)
		return err
	})
	if err != nil {
		return res, p.matchFailed(err)
	}

	err = p.stage("link", func() error {
		rows, stats, err := match.Link(ctx, pairs, f, match.LinkOptions{MinEndYear: p.opts.MinEndYear, Workers: p.opts.Workers})
		if err != nil {
			return err
		}
		p.dropped(tableThreeWay, "missing_coordinates", stats.MissingCoordinates)
		p.dropped(tableThreeWay, "stale", stats.Stale)
		res.ThreeWay = rows
		return nil
	})
	if err != nil {
		return res, p.matchFailed(err)
	}

	hits, misses := f.cacheStats()
	p.metrics.NearestCache.WithLabelValues("hit").Add(float64(hits))
	p.metrics.NearestCache.WithLabelValues("miss").Add(float64(misses))
	logger.Debug("nearest cache", "hits", hits, "misses", misses)

	p.metrics.RowsProduced.WithLabelValues(tableRegistry).Add(float64(len(res.Registry)))
	p.metrics.RowsProduced.WithLabelValues(tableNetwork).Add(float64(len(res.Network)))
	p.metrics.RowsProduced.WithLabelValues(tableThreeWay).Add(float64(len(res.ThreeWay)))

	res.GeneratedAt = domain.Now()

	err = p.stage("write", func() error {
		return p.write(ctx, logger, res)
	})
	return res, err
}

func (p *Pipeline) load(ctx context.Context, kind domain.CatalogKind) (domain.Catalog, error) {
	if err := ctx.Err(); err != nil {
		return domain.Catalog{}, err
	}
	cat, err := p.source.Load(ctx, kind)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("load %s catalog: %w", kind, err)
	}
	p.metrics.StationsLoaded.WithLabelValues(string(kind)).Add(float64(cat.Len()))
	return cat, nil
}

func (p *Pipeline) persist(logger *slog.Logger, cats ...domain.Catalog) error {
	for _, c := range cats {
		path, err := catalog.SaveNormalized(p.opts.PersistDir, c)
		if err != nil {
			return fmt.Errorf("persist %s catalog: %w", c.Kind, err)
		}
		logger.Info("catalog persisted", "catalog", c.Kind, "path", path, "stations", c.Len())
	}
	return nil
}

// write hands res to every sink and aggregates their failures.
func (p *Pipeline) write(ctx context.Context, logger *slog.Logger, res domain.Result) error {
	var errs *multierror.Error
	for _, s := range p.sinks {
		if err := s.Write(ctx, res); err != nil {
			logger.Error("sink failed", "sink", s.Name(), "error", err)
			errs = multierror.Append(errs, fmt.Errorf("sink %s: %w", s.Name(), err))
		}
	}
	return errs.ErrorOrNil()
}

func (p *Pipeline) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	p.metrics.StageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	return err
}

func (p *Pipeline) dropped(table, reason string, n int) {
	if n > 0 {
		p.metrics.RowsDropped.WithLabelValues(table, reason).Add(float64(n))
	}
}

func (p *Pipeline) matchFailed(err error) error {
	p.metrics.MatchErrors.Inc()
	return err
}
