// Package catalog loads the three station catalogs into normalized record
// sets and persists them in a common CSV form.
package catalog

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	geohash "github.com/TomiHiltunen/geohash-golang"

	"github.com/couchcryptid/station-match-etl/internal/domain"
)

// geohashPrecision is the number of geohash characters kept per station
// (cells of roughly 38m x 19m).
const geohashPrecision = 8

// FileSource loads catalogs from files on disk, choosing a parser by
// catalog kind and file extension.
type FileSource struct {
	paths  map[domain.CatalogKind]string
	logger *slog.Logger
}

// NewFileSource creates a source for the given catalog paths.
func NewFileSource(paths map[domain.CatalogKind]string, logger *slog.Logger) *FileSource {
	return &FileSource{paths: paths, logger: logger}
}

// Load reads and normalizes one catalog.
func (s *FileSource) Load(ctx context.Context, kind domain.CatalogKind) (domain.Catalog, error) {
	if err := ctx.Err(); err != nil {
		return domain.Catalog{}, err
	}

	path, ok := s.paths[kind]
	if !ok || path == "" {
		return domain.Catalog{}, fmt.Errorf("no path configured for catalog %s", kind)
	}

	cat, err := LoadFile(kind, path)
	if err != nil {
		return domain.Catalog{}, err
	}

	s.logger.Info("catalog loaded",
		"catalog", kind,
		"path", path,
		"stations", cat.Len(),
		"with_coordinates", cat.WithCoordinates(),
	)
	return cat, nil
}

// LoadFile opens path and parses it as a catalog of the given kind.
func LoadFile(kind domain.CatalogKind, path string) (domain.Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("open %s catalog: %w", kind, err)
	}
	defer f.Close()

	cat, err := Read(f, kind, filepath.Ext(path))
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("load %s catalog from %s: %w", kind, path, err)
	}
	return cat, nil
}

// Read parses r as a catalog of the given kind. ext selects the native
// format (".txt", ".dat") or CSV (".csv"). A CSV whose first column is
// "catalog" is read as the normalized form. Otherwise the national registry's
// native CSV layout is expected, and the global and monitoring catalogs accept
// their station-list export layouts (keyed by "id_igra" and "id_cmonoc").
func Read(r io.Reader, kind domain.CatalogKind, ext string) (domain.Catalog, error) {
	var (
		cat domain.Catalog
		err error
	)

	switch strings.ToLower(ext) {
	case ".txt", ".dat", "":
		switch kind {
		case domain.GlobalRegistry:
			cat, err = ReadGlobalRegistry(r)
		case domain.MonitoringRegistry:
			cat, err = ReadMonitoringRegistry(r)
		default:
			return domain.Catalog{}, fmt.Errorf("%w: %s catalog as text", domain.ErrUnsupportedFormat, kind)
		}
	case ".csv":
		cat, err = readCSV(r, kind)
	default:
		return domain.Catalog{}, fmt.Errorf("%w: extension %q", domain.ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return domain.Catalog{}, err
	}

	return withGeohash(cat), nil
}

func readCSV(r io.Reader, kind domain.CatalogKind) (domain.Catalog, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("read %s header: %w", kind, err)
	}

	if len(header) > 0 && strings.TrimPrefix(strings.TrimSpace(header[0]), bom) == NormalizedHeader[0] {
		return readNormalizedRows(cr, header, kind)
	}
	if kind == domain.NationalRegistry {
		return readNationalRows(cr, header)
	}
	if isExportHeader(header, kind) {
		return readExportRows(cr, header, kind)
	}
	return domain.Catalog{}, fmt.Errorf("%w: unrecognized %s catalog CSV header", domain.ErrUnsupportedFormat, kind)
}

// withGeohash returns a copy of cat with geohashes filled in for stations
// that have coordinates.
func withGeohash(cat domain.Catalog) domain.Catalog {
	out := domain.Catalog{Kind: cat.Kind, Stations: make([]domain.Station, len(cat.Stations))}
	for i, s := range cat.Stations {
		if s.Geohash == "" && s.HasCoordinates() {
			s.Geohash = truncate(geohash.Encode(s.Lat, s.Lon), geohashPrecision)
		}
		out.Stations[i] = s
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// SaveNormalized writes cat to dir as "<kind>-normalized.csv" and returns
// the file path.
func SaveNormalized(dir string, cat domain.Catalog) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s-normalized.csv", cat.Kind))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create normalized %s: %w", cat.Kind, err)
	}

	if err := WriteNormalized(f, cat); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close normalized %s: %w", cat.Kind, err)
	}
	return path, nil
}
