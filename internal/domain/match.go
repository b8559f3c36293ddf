package domain

import "time"

// Pair is one row of an identifier join: a left station and the right station
// sharing its key.
type Pair struct {
	Left  Station
	Right Station
}

// Neighbor is the nearest target station found for a query station. Match
// coordinates and Distance are already rounded.
type Neighbor struct {
	Query    Station
	Match    Station
	Distance float64
}

// RegistryMatch is a global-registry station linked to the national registry
// by identifier.
type RegistryMatch struct {
	MetID    string `json:"id_met" parquet:"name=id_met, type=BYTE_ARRAY, convertedtype=UTF8"`
	Province string `json:"province" parquet:"name=province, type=BYTE_ARRAY, convertedtype=UTF8"`
	City     string `json:"city" parquet:"name=city, type=BYTE_ARRAY, convertedtype=UTF8"`
	IgraID   string `json:"id_igra" parquet:"name=id_igra, type=BYTE_ARRAY, convertedtype=UTF8"`
	Start    int32  `json:"start" parquet:"name=start, type=INT32"`
	End      int32  `json:"end" parquet:"name=end, type=INT32"`
}

// RegistryMatchHeader is the column order of the registry table.
var RegistryMatchHeader = []string{"id_met", "province", "city", "id_igra", "start", "end"}

// NewRegistryMatch projects a global/national join pair.
func NewRegistryMatch(p Pair) RegistryMatch {
	return RegistryMatch{
		MetID:    p.Right.ID,
		Province: p.Right.Region,
		City:     p.Right.Locality,
		IgraID:   p.Left.ID,
		Start:    int32(p.Left.StartYear),
		End:      int32(p.Left.EndYear),
	}
}

// Values returns the row in header order.
func (r RegistryMatch) Values() []any {
	return []any{r.MetID, r.Province, r.City, r.IgraID, r.Start, r.End}
}

// NetworkMatch is a national-registry station with its nearest monitoring site.
type NetworkMatch struct {
	MetID     string  `json:"id_met" parquet:"name=id_met, type=BYTE_ARRAY, convertedtype=UTF8"`
	Province  string  `json:"province" parquet:"name=province, type=BYTE_ARRAY, convertedtype=UTF8"`
	City      string  `json:"city" parquet:"name=city, type=BYTE_ARRAY, convertedtype=UTF8"`
	Lat       float64 `json:"lat" parquet:"name=lat, type=DOUBLE"`
	Lon       float64 `json:"lon" parquet:"name=lon, type=DOUBLE"`
	CmonocID  string  `json:"id_cmonoc" parquet:"name=id_cmonoc, type=BYTE_ARRAY, convertedtype=UTF8"`
	CmonocLat float64 `json:"lat_cmonoc" parquet:"name=lat_cmonoc, type=DOUBLE"`
	CmonocLon float64 `json:"lon_cmonoc" parquet:"name=lon_cmonoc, type=DOUBLE"`
	Distance  float64 `json:"distance" parquet:"name=distance, type=DOUBLE"`
}

// NetworkMatchHeader is the column order of the national/monitoring table.
var NetworkMatchHeader = []string{
	"id_met", "province", "city", "lat", "lon",
	"id_cmonoc", "lat_cmonoc", "lon_cmonoc", "distance",
}

// NewNetworkMatch projects a nearest-neighbor result whose query is a
// national-registry station.
func NewNetworkMatch(n Neighbor) NetworkMatch {
	return NetworkMatch{
		MetID:     n.Query.ID,
		Province:  n.Query.Region,
		City:      n.Query.Locality,
		Lat:       n.Query.Lat,
		Lon:       n.Query.Lon,
		CmonocID:  n.Match.ID,
		CmonocLat: n.Match.Lat,
		CmonocLon: n.Match.Lon,
		Distance:  n.Distance,
	}
}

// Values returns the row in header order.
func (r NetworkMatch) Values() []any {
	return []any{r.MetID, r.Province, r.City, r.Lat, r.Lon, r.CmonocID, r.CmonocLat, r.CmonocLon, r.Distance}
}

// ThreeWayMatch links all three catalogs through the national registry.
type ThreeWayMatch struct {
	IgraID    string  `json:"id_igra" parquet:"name=id_igra, type=BYTE_ARRAY, convertedtype=UTF8"`
	Start     int32   `json:"start" parquet:"name=start, type=INT32"`
	End       int32   `json:"end" parquet:"name=end, type=INT32"`
	MetID     string  `json:"id_met" parquet:"name=id_met, type=BYTE_ARRAY, convertedtype=UTF8"`
	Province  string  `json:"province" parquet:"name=province, type=BYTE_ARRAY, convertedtype=UTF8"`
	City      string  `json:"city" parquet:"name=city, type=BYTE_ARRAY, convertedtype=UTF8"`
	MetLat    float64 `json:"lat_met" parquet:"name=lat_met, type=DOUBLE"`
	MetLon    float64 `json:"lon_met" parquet:"name=lon_met, type=DOUBLE"`
	CmonocID  string  `json:"id_cmonoc" parquet:"name=id_cmonoc, type=BYTE_ARRAY, convertedtype=UTF8"`
	CmonocLat float64 `json:"lat_cmonoc" parquet:"name=lat_cmonoc, type=DOUBLE"`
	CmonocLon float64 `json:"lon_cmonoc" parquet:"name=lon_cmonoc, type=DOUBLE"`
	Distance  float64 `json:"distance" parquet:"name=distance, type=DOUBLE"`
}

// ThreeWayMatchHeader is the column order of the combined table.
var ThreeWayMatchHeader = []string{
	"id_igra", "start", "end", "id_met", "province", "city", "lat_met", "lon_met",
	"id_cmonoc", "lat_cmonoc", "lon_cmonoc", "distance",
}

// NewThreeWayMatch merges a join pair with the nearest monitoring site of its
// national-registry station.
func NewThreeWayMatch(p Pair, n Neighbor) ThreeWayMatch {
	return ThreeWayMatch{
		IgraID:    p.Left.ID,
		Start:     int32(p.Left.StartYear),
		End:       int32(p.Left.EndYear),
		MetID:     p.Right.ID,
		Province:  p.Right.Region,
		City:      p.Right.Locality,
		MetLat:    p.Right.Lat,
		MetLon:    p.Right.Lon,
		CmonocID:  n.Match.ID,
		CmonocLat: n.Match.Lat,
		CmonocLon: n.Match.Lon,
		Distance:  n.Distance,
	}
}

// Values returns the row in header order.
func (r ThreeWayMatch) Values() []any {
	return []any{
		r.IgraID, r.Start, r.End, r.MetID, r.Province, r.City, r.MetLat, r.MetLon,
		r.CmonocID, r.CmonocLat, r.CmonocLon, r.Distance,
	}
}

// Result is the complete output of one matching run.
type Result struct {
	RunID       string
	GeneratedAt time.Time
	Stations    map[CatalogKind]int

	Registry []RegistryMatch
	Network  []NetworkMatch
	ThreeWay []ThreeWayMatch
}
