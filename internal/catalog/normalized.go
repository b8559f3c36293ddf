package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/couchcryptid/station-match-etl/internal/domain"
)

// bom is the UTF-8 byte order mark some spreadsheet tools prepend to CSV files.
const bom = "\ufeff"

// NormalizedHeader is the column layout of a persisted catalog.
var NormalizedHeader = []string{
	"catalog", "id", "secondary_id", "lat", "lon", "alt", "sensor_alt",
	"name", "region", "locality", "start", "end", "total", "geohash",
}

// WriteNormalized writes a catalog in normalized CSV form. Missing floats are
// written as empty cells.
func WriteNormalized(w io.Writer, cat domain.Catalog) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(NormalizedHeader); err != nil {
		return fmt.Errorf("write normalized header: %w", err)
	}
	for _, s := range cat.Stations {
		row := []string{
			string(s.Catalog),
			s.ID,
			s.SecondaryID,
			formatFloat(s.Lat),
			formatFloat(s.Lon),
			formatFloat(s.Alt),
			formatFloat(s.SensorAlt),
			s.Name,
			s.Region,
			s.Locality,
			strconv.Itoa(s.StartYear),
			strconv.Itoa(s.EndYear),
			strconv.Itoa(s.ObservationCount),
			s.Geohash,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write normalized station %s: %w", s.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadNormalized reads a catalog written by WriteNormalized. Rows whose
// catalog column names a different catalog than kind are rejected.
func ReadNormalized(r io.Reader, kind domain.CatalogKind) (domain.Catalog, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("read normalized header: %w", err)
	}
	return readNormalizedRows(cr, header, kind)
}

func readNormalizedRows(cr *csv.Reader, header []string, kind domain.CatalogKind) (domain.Catalog, error) {
	idx, err := columnIndex(header, NormalizedHeader)
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
			return domain.Catalog{}, fmt.Errorf("read normalized %s: %w", kind, err)
		}

		line, _ := cr.FieldPos(0)
		s, err := normalizedStation(row, idx)
		if err != nil {
			return domain.Catalog{}, fmt.Errorf("line %d: %w", line, err)
		}
		if s.Catalog == "" {
			s.Catalog = kind
		}
		if s.Catalog != kind {
			return domain.Catalog{}, fmt.Errorf("line %d: station %s belongs to catalog %q, want %q", line, s.ID, s.Catalog, kind)
		}
		cat.Stations = append(cat.Stations, s)
	}
	return cat, nil
}

func normalizedStation(row []string, idx map[string]int) (domain.Station, error) {
	field := func(name string) string { return strings.TrimSpace(row[idx[name]]) }

	s := domain.Station{
		Catalog:     domain.CatalogKind(field("catalog")),
		ID:          field("id"),
		SecondaryID: field("secondary_id"),
		Name:        field("name"),
		Region:      field("region"),
		Locality:    field("locality"),
		Geohash:     field("geohash"),
	}

	floats := []struct {
		name string
		dst  *float64
	}{
		{"lat", &s.Lat},
		{"lon", &s.Lon},
		{"alt", &s.Alt},
		{"sensor_alt", &s.SensorAlt},
	}
	for _, f := range floats {
		v, err := parseOptionalFloat(field(f.name))
		if err != nil {
			return domain.Station{}, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = v
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"start", &s.StartYear},
		{"end", &s.EndYear},
		{"total", &s.ObservationCount},
	}
	for _, f := range ints {
		v, err := parseOptionalInt(field(f.name))
		if err != nil {
			return domain.Station{}, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = v
	}
	return s, nil
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseOptionalInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
