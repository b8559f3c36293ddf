package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "station_match"

// Metrics holds the Prometheus counters, histograms, and gauges for a matching run.
type Metrics struct {
	StationsLoaded *prometheus.CounterVec // labels: catalog={igra,met,cmonoc}
	RowsProduced   *prometheus.CounterVec // labels: table
	RowsDropped    *prometheus.CounterVec // labels: table, reason={unmatched,stale,duplicate_key,missing_coordinates}
	MatchErrors    prometheus.Counter

	NearestSearches prometheus.Counter
	NearestCache    *prometheus.CounterVec // labels: result={hit,miss}

	StageDuration   *prometheus.HistogramVec // labels: stage={load,persist,join,network,link,write}
	RunDuration     prometheus.Histogram
	PipelineRunning prometheus.Gauge
	LastRunSuccess  prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, so
// tests can build as many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		StationsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stations_loaded_total",
			Help:      "Stations read from each catalog.",
		}, []string{"catalog"}),
		RowsProduced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_produced_total",
			Help:      "Rows written per output table.",
		}, []string{"table"}),
		RowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_dropped_total",
			Help:      "Candidate rows removed per output table and reason.",
		}, []string{"table", "reason"}),
		MatchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "match_errors_total",
			Help:      "Matching passes that failed.",
		}),
		NearestSearches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nearest_searches_total",
			Help:      "Nearest-neighbor lookups requested.",
		}),
		NearestCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nearest_cache_total",
			Help:      "Nearest-neighbor cache lookups by result.",
		}, []string{"result"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each run stage.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}, []string{"stage"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete load-match-write run.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a run is in progress, 0 otherwise.",
		}),
		LastRunSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_success",
			Help:      "1 if the most recent run completed without error.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.StationsLoaded,
		m.RowsProduced,
		m.RowsDropped,
		m.MatchErrors,
		m.NearestSearches,
		m.NearestCache,
		m.StageDuration,
		m.RunDuration,
		m.PipelineRunning,
		m.LastRunSuccess,
	}
}
