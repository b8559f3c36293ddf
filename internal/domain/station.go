package domain

import "math"

// CatalogKind names a source catalog.
type CatalogKind string

const (
	GlobalRegistry     CatalogKind = "igra"
	NationalRegistry   CatalogKind = "met"
	MonitoringRegistry CatalogKind = "cmonoc"
)

// Valid reports whether k is one of the known catalogs.
func (k CatalogKind) Valid() bool {
	switch k {
	case GlobalRegistry, NationalRegistry, MonitoringRegistry:
		return true
	default:
		return false
	}
}

// Sentinel thresholds at or below which a source value is treated as missing.
const (
	LatSentinel = -98.8
	LonSentinel = -998.8
	AltSentinel = -998.8
)

// Station is one normalized catalog entry. Numeric fields hold NaN when the
// source value is missing. Fields that a catalog does not carry stay zero.
type Station struct {
	Catalog     CatalogKind
	ID          string
	SecondaryID string

	Lat       float64
	Lon       float64
	Alt       float64
	SensorAlt float64

	Name     string
	Region   string // province or state
	Locality string // city

	StartYear        int
	EndYear          int
	ObservationCount int

	Geohash string
}

// HasCoordinates reports whether both latitude and longitude are present.
func (s Station) HasCoordinates() bool {
	return !math.IsNaN(s.Lat) && !math.IsNaN(s.Lon)
}

// Missing converts a sentinel-encoded value to NaN.
func Missing(v, threshold float64) float64 {
	if v <= threshold {
		return math.NaN()
	}
	return v
}

// Catalog is the normalized record set produced by a loader.
type Catalog struct {
	Kind     CatalogKind
	Stations []Station
}

// Len returns the number of stations.
func (c Catalog) Len() int { return len(c.Stations) }

// WithCoordinates returns how many stations have both coordinates.
func (c Catalog) WithCoordinates() int {
	n := 0
	for _, s := range c.Stations {
		if s.HasCoordinates() {
			n++
		}
	}
	return n
}
