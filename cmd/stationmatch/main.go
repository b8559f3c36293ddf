// Command stationmatch cross-matches the IGRA, China Met and CMONOC station
// catalogs and writes the linked tables.
//
// Usage:
//
//	stationmatch -igra igra2-station-list.txt -met ChinaMetSites.csv \
//	  -cmonoc CmonocSites.txt -out output
//
// Flags override the corresponding environment variables.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	httpadapter "github.com/couchcryptid/station-match-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/station-match-etl/internal/adapter/kafka"
	"github.com/couchcryptid/station-match-etl/internal/catalog"
	"github.com/couchcryptid/station-match-etl/internal/config"
	"github.com/couchcryptid/station-match-etl/internal/domain"
	"github.com/couchcryptid/station-match-etl/internal/match"
	"github.com/couchcryptid/station-match-etl/internal/observability"
	"github.com/couchcryptid/station-match-etl/internal/pipeline"
	"github.com/couchcryptid/station-match-etl/internal/table"
)

// reportBase names the workbook and PDF report in the output directory.
const reportBase = "station-match"

func main() {
	if err := run(); err != nil {
		slog.Error("stationmatch failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	igraPath := flag.String("igra", "", "IGRA station list (overrides IGRA_PATH)")
	metPath := flag.String("met", "", "China Met station CSV (overrides MET_PATH)")
	cmonocPath := flag.String("cmonoc", "", "CMONOC site list (overrides CMONOC_PATH)")
	outDir := flag.String("out", "", "output directory (overrides OUTPUT_DIR)")
	linger := flag.Bool("linger", false, "keep serving HTTP_ADDR after the run until interrupted")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	override(&cfg.IgraPath, *igraPath)
	override(&cfg.MetPath, *metPath)
	override(&cfg.CmonocPath, *cmonocPath)
	override(&cfg.OutputDir, *outDir)

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	metric, err := match.MetricByName(cfg.DistanceMetric)
	if err != nil {
		return err
	}

	source := catalog.NewFileSource(map[domain.CatalogKind]string{
		domain.GlobalRegistry:     cfg.IgraPath,
		domain.NationalRegistry:   cfg.MetPath,
		domain.MonitoringRegistry: cfg.CmonocPath,
	}, logger)

	sinks, closers, err := buildSinks(cfg, logger)
	if err != nil {
		return fmt.Errorf("configure outputs: %w", err)
	}

	opts := pipeline.Options{
		MinEndYear: cfg.MinEndYear,
		Precision:  match.Places(cfg.Precision),
		Metric:     metric,
		StrictKeys: cfg.StrictKeys,
		Workers:    cfg.Workers,
		CacheSize:  cfg.NearestCacheSize,
	}
	if cfg.PersistNormalized {
		opts.PersistDir = filepath.Join(cfg.OutputDir, "normalized")
	}
	p := pipeline.New(source, sinks, opts, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var srv *httpadapter.Server
	if cfg.HTTPAddr != "" {
		srv = httpadapter.NewServer(cfg.HTTPAddr, p, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	_, runErr := p.Run(ctx)

	if srv != nil && *linger && runErr == nil {
		logger.Info("run finished, serving until interrupted", "addr", cfg.HTTPAddr)
		<-ctx.Done()
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
	}
	for _, c := range closers {
		if err := c.Close(); err != nil {
			logger.Error("output close error", "error", err)
		}
	}

	if runErr != nil {
		return runErr
	}
	logger.Info("shutdown complete")
	return nil
}

// buildSinks creates one sink per configured output format, plus Kafka when
// enabled. closers must be closed on shutdown.
func buildSinks(cfg *config.Config, logger *slog.Logger) ([]pipeline.Sink, []io.Closer, error) {
	names := table.Names{
		Registry: cfg.RegistryTable,
		Network:  cfg.NetworkTable,
		ThreeWay: cfg.ThreeWayTable,
	}

	var sinks []pipeline.Sink
	var closers []io.Closer
	for _, format := range cfg.OutputFormats {
		switch format {
		case config.FormatCSV:
			sinks = append(sinks, table.NewCSVWriter(cfg.OutputDir, names, logger))
		case config.FormatParquet:
			w, err := table.NewParquetWriter(cfg.OutputDir, names, "SNAPPY", logger)
			if err != nil {
				return nil, nil, err
			}
			sinks = append(sinks, w)
		case config.FormatXLSX:
			sinks = append(sinks, table.NewWorkbookWriter(cfg.OutputDir, reportBase, names, logger))
		case config.FormatPDF:
			sinks = append(sinks, table.NewReportWriter(cfg.OutputDir, reportBase, table.DefaultReportRows, logger))
		default:
			return nil, nil, fmt.Errorf("unknown output format %q", format)
		}
	}

	if cfg.KafkaEnabled {
		w := kafkaadapter.NewWriter(cfg, logger)
		sinks = append(sinks, w)
		closers = append(closers, w)
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaTopic)
	}
	return sinks, closers, nil
}

func override(dst *string, flagValue string) {
	if flagValue != "" {
		*dst = flagValue
	}
}
