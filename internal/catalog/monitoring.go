package catalog

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/couchcryptid/station-match-etl/internal/domain"
)

// Monitoring registry lines are whitespace separated; only these fields are used.
const (
	monitoringIDField  = 0
	monitoringLatField = 4
	monitoringLonField = 5
	monitoringAltField = 6
)

// ReadMonitoringRegistry parses a CMONOC site list. Blank lines and lines
// starting with '#' are skipped.
func ReadMonitoringRegistry(r io.Reader) (domain.Catalog, error) {
	cat := domain.Catalog{Kind: domain.MonitoringRegistry}

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) <= monitoringAltField {
			return domain.Catalog{}, fmt.Errorf("line %d: expected at least %d fields, got %d", lineNo, monitoringAltField+1, len(fields))
		}

		lat, err := strconv.ParseFloat(fields[monitoringLatField], 64)
		if err != nil {
			return domain.Catalog{}, fmt.Errorf("line %d: lat: %w", lineNo, err)
		}
		lon, err := strconv.ParseFloat(fields[monitoringLonField], 64)
		if err != nil {
			return domain.Catalog{}, fmt.Errorf("line %d: lon: %w", lineNo, err)
		}
		alt, err := strconv.ParseFloat(fields[monitoringAltField], 64)
		if err != nil {
			return domain.Catalog{}, fmt.Errorf("line %d: alt: %w", lineNo, err)
		}

		cat.Stations = append(cat.Stations, domain.Station{
			Catalog:   domain.MonitoringRegistry,
			ID:        fields[monitoringIDField],
			Lat:       domain.Missing(lat, domain.LatSentinel),
			Lon:       domain.Missing(lon, domain.LonSentinel),
			Alt:       domain.Missing(alt, domain.AltSentinel),
			SensorAlt: math.NaN(),
		})
	}
	if err := sc.Err(); err != nil {
		return domain.Catalog{}, fmt.Errorf("scan monitoring registry: %w", err)
	}
	return cat, nil
}
