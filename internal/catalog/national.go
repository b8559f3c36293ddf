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

// nationalColumns are the columns required in a national registry CSV.
var nationalColumns = []string{"province", "id_met", "city", "lat", "lon", "alt_sensor", "alt_site"}

// ReadNationalRegistry parses the national surface-station CSV. Columns are
// located by header name, so their order does not matter.
func ReadNationalRegistry(r io.Reader) (domain.Catalog, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("read national registry header: %w", err)
	}
	return readNationalRows(cr, header)
}

func readNationalRows(cr *csv.Reader, header []string) (domain.Catalog, error) {
	idx, err := columnIndex(header, nationalColumns)
	if err != nil {
		return domain.Catalog{}, err
	}

	cat := domain.Catalog{Kind: domain.NationalRegistry}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.Catalog{}, fmt.Errorf("read national registry: %w", err)
		}

		line, _ := cr.FieldPos(0)
		s, err := nationalStation(row, idx)
		if err != nil {
			return domain.Catalog{}, fmt.Errorf("line %d: %w", line, err)
		}
		cat.Stations = append(cat.Stations, s)
	}
	return cat, nil
}

func nationalStation(row []string, idx map[string]int) (domain.Station, error) {
	field := func(name string) string { return strings.TrimSpace(row[idx[name]]) }

	lat, err := parseOptionalFloat(field("lat"))
	if err != nil {
		return domain.Station{}, fmt.Errorf("lat: %w", err)
	}
	lon, err := parseOptionalFloat(field("lon"))
	if err != nil {
		return domain.Station{}, fmt.Errorf("lon: %w", err)
	}
	altSensor, err := parseOptionalFloat(field("alt_sensor"))
	if err != nil {
		return domain.Station{}, fmt.Errorf("alt_sensor: %w", err)
	}
	altSite, err := parseOptionalFloat(field("alt_site"))
	if err != nil {
		return domain.Station{}, fmt.Errorf("alt_site: %w", err)
	}

	return domain.Station{
		Catalog:   domain.NationalRegistry,
		ID:        stationNumber(field("id_met")),
		Lat:       domain.Missing(lat, domain.LatSentinel),
		Lon:       domain.Missing(lon, domain.LonSentinel),
		Alt:       domain.Missing(altSite, domain.AltSentinel),
		SensorAlt: domain.Missing(altSensor, domain.AltSentinel),
		Region:    field("province"),
		Locality:  field("city"),
	}, nil
}

// stationNumber zero-pads numeric station ids to five digits so they compare
// equal to WMO numbers ("1234" and "1234.0" both become "01234"). Non-numeric
// ids are returned trimmed.
func stationNumber(s string) string {
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return fmt.Sprintf("%05d", n)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 && f == math.Trunc(f) {
		return fmt.Sprintf("%05d", int(f))
	}
	return s
}

// parseOptionalFloat returns NaN for an empty cell.
func parseOptionalFloat(s string) (float64, error) {
	if s == "" || strings.EqualFold(s, "nan") {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// columnIndex maps required column names to their position in header.
func columnIndex(header, required []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, bom)
		}
		idx[strings.TrimSpace(h)] = i
	}
	for _, name := range required {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}
	return idx, nil
}
