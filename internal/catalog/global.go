package catalog

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/couchcryptid/station-match-etl/internal/domain"
	"github.com/couchcryptid/station-match-etl/internal/fixedwidth"
)

// globalSchema is the IGRA v2 station list layout. The wmo column overlaps the
// id: characters 6-11 carry the WMO station number for stations that have one.
var globalSchema = fixedwidth.Schema{
	{Name: "id", Start: 0, End: 11, Kind: fixedwidth.String},
	{Name: "wmo", Start: 6, End: 11, Kind: fixedwidth.Int, Optional: true},
	{Name: "lat", Start: 12, End: 20, Kind: fixedwidth.Float},
	{Name: "lon", Start: 21, End: 30, Kind: fixedwidth.Float},
	{Name: "alt", Start: 31, End: 37, Kind: fixedwidth.Float},
	{Name: "state", Start: 38, End: 40, Kind: fixedwidth.String},
	{Name: "name", Start: 41, End: 71, Kind: fixedwidth.String},
	{Name: "start", Start: 72, End: 76, Kind: fixedwidth.Int},
	{Name: "end", Start: 77, End: 81, Kind: fixedwidth.Int},
	{Name: "count", Start: 82, End: 88, Kind: fixedwidth.Int},
}

// ReadGlobalRegistry parses an IGRA v2 fixed-width station list. Blank lines
// are skipped; any other malformed line fails the read with its line number.
func ReadGlobalRegistry(r io.Reader) (domain.Catalog, error) {
	cat := domain.Catalog{Kind: domain.GlobalRegistry}

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		rec, err := globalSchema.Parse(line)
		if err != nil {
			return domain.Catalog{}, fmt.Errorf("line %d: %w", lineNo, err)
		}
		cat.Stations = append(cat.Stations, globalStation(rec))
	}
	if err := sc.Err(); err != nil {
		return domain.Catalog{}, fmt.Errorf("scan global registry: %w", err)
	}
	return cat, nil
}

func globalStation(rec fixedwidth.Record) domain.Station {
	lat, _ := rec.Float("lat")
	lon, _ := rec.Float("lon")
	alt, _ := rec.Float("alt")
	start, _ := rec.Int("start")
	end, _ := rec.Int("end")
	count, _ := rec.Int("count")

	return domain.Station{
		Catalog:          domain.GlobalRegistry,
		ID:               rec.String("id"),
		SecondaryID:      wmoID(rec),
		Lat:              domain.Missing(lat, domain.LatSentinel),
		Lon:              domain.Missing(lon, domain.LonSentinel),
		Alt:              domain.Missing(alt, domain.AltSentinel),
		SensorAlt:        math.NaN(),
		Name:             rec.String("name"),
		Region:           rec.String("state"),
		StartYear:        start,
		EndYear:          end,
		ObservationCount: count,
	}
}

// wmoID formats the embedded WMO number as five digits, or returns "" when the
// id does not end in a number (e.g. "USM000VCSO").
func wmoID(rec fixedwidth.Record) string {
	n, ok := rec.Int("wmo")
	if !ok || n < 0 {
		return ""
	}
	return fmt.Sprintf("%05d", n)
}
