package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/couchcryptid/station-match-etl/internal/domain"
)

// Column layouts of the station-list CSV exports accepted for the global and
// monitoring catalogs.
var (
	globalExportColumns     = []string{"id_igra", "wmo", "lat", "lon", "alt", "state", "name", "start", "end", "total"}
	monitoringExportColumns = []string{"id_cmonoc", "lat", "lon", "alt"}
)

// isExportHeader reports whether header names the key column of kind's export.
func isExportHeader(header []string, kind domain.CatalogKind) bool {
	names := make([]string, len(header))
	for i, h := range header {
		names[i] = strings.TrimSpace(strings.TrimPrefix(h, bom))
	}
	switch kind {
	case domain.GlobalRegistry:
		return slices.Contains(names, globalExportColumns[0])
	case domain.MonitoringRegistry:
		return slices.Contains(names, monitoringExportColumns[0])
	default:
		return false
	}
}

func readExportRows(cr *csv.Reader, header []string, kind domain.CatalogKind) (domain.Catalog, error) {
	required := globalExportColumns
	convert := globalExportStation
	if kind == domain.MonitoringRegistry {
		required = monitoringExportColumns
		convert = monitoringExportStation
	}

	idx, err := columnIndex(header, required)
	if err != nil {
		return domain.Catalog{}, err
	}

	cat := domain.Catalog{Kind: kind}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.Catalog{}, fmt.Errorf("read %s export: %w", kind, err)
		}

		line, _ := cr.FieldPos(0)
		field := func(name string) string { return strings.TrimSpace(row[idx[name]]) }
		s, err := convert(field)
		if err != nil {
			return domain.Catalog{}, fmt.Errorf("line %d: %w", line, err)
		}
		cat.Stations = append(cat.Stations, s)
	}
	return cat, nil
}

func globalExportStation(field func(string) string) (domain.Station, error) {
	lat, lon, alt, err := exportCoordinates(field)
	if err != nil {
		return domain.Station{}, err
	}

	var years [3]int
	for i, name := range []string{"start", "end", "total"} {
		if years[i], err = parseWholeNumber(field(name)); err != nil {
			return domain.Station{}, fmt.Errorf("%s: %w", name, err)
		}
	}

	// Numeric CSV readers drop the leading zeros of wmo.
	wmo := field("wmo")
	if wmo != "" {
		wmo = stationNumber(wmo)
	}

	return domain.Station{
		Catalog:          domain.GlobalRegistry,
		ID:               field("id_igra"),
		SecondaryID:      wmo,
		Lat:              domain.Missing(lat, domain.LatSentinel),
		Lon:              domain.Missing(lon, domain.LonSentinel),
		Alt:              domain.Missing(alt, domain.AltSentinel),
		SensorAlt:        math.NaN(),
		Name:             field("name"),
		Region:           field("state"),
		StartYear:        years[0],
		EndYear:          years[1],
		ObservationCount: years[2],
	}, nil
}

func monitoringExportStation(field func(string) string) (domain.Station, error) {
	lat, lon, alt, err := exportCoordinates(field)
	if err != nil {
		return domain.Station{}, err
	}
	return domain.Station{
		Catalog:   domain.MonitoringRegistry,
		ID:        field("id_cmonoc"),
		Lat:       domain.Missing(lat, domain.LatSentinel),
		Lon:       domain.Missing(lon, domain.LonSentinel),
		Alt:       domain.Missing(alt, domain.AltSentinel),
		SensorAlt: math.NaN(),
	}, nil
}

func exportCoordinates(field func(string) string) (lat, lon, alt float64, err error) {
	if lat, err = parseOptionalFloat(field("lat")); err != nil {
		return 0, 0, 0, fmt.Errorf("lat: %w", err)
	}
	if lon, err = parseOptionalFloat(field("lon")); err != nil {
		return 0, 0, 0, fmt.Errorf("lon: %w", err)
	}
	if alt, err = parseOptionalFloat(field("alt")); err != nil {
		return 0, 0, 0, fmt.Errorf("alt: %w", err)
	}
	return lat, lon, alt, nil
}

// parseWholeNumber accepts "1990" and "1990.0"; empty cells are zero.
func parseWholeNumber(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("invalid whole number %q", s)
	}
	return int(f), nil
}
