// Package domain models the station catalogs and the cross-catalog links
// computed between them.
//
// # Catalogs
//
// Three registries are linked, each with its own identifier scheme:
//
//	global-registry      IGRA v2 upper-air station list (fixed-width text).
//	                     11-character id, e.g. "CHM00054511". Characters 6-11
//	                     hold the WMO block/station number ("54511"), exposed as
//	                     SecondaryID. Also carries the period of record
//	                     (first/last year) and the observation count.
//	national-registry    China Meteorological Administration surface stations
//	                     (CSV). The 5-digit station number is the ID and matches
//	                     the WMO number above. Carries province and city.
//	monitoring-registry  CMONOC GNSS continuous monitoring sites
//	                     (whitespace-delimited text). 4-character site code and
//	                     coordinates only.
//
// The national registry is the hub: the global registry joins it by
// identifier and the monitoring registry attaches to it geographically.
//
// # Missing Values
//
// Source files encode missing numbers with out-of-range sentinels (-99.9 for
// latitude, -999.9 for longitude and altitude). Loaders convert anything at or
// below [LatSentinel] / [LonSentinel] / [AltSentinel] to NaN; see [Missing].
//
// # Distance
//
// Nearest-neighbor matching defaults to flat Euclidean distance in degree
// space, sqrt(dLat^2 + dLon^2), not great-circle distance. The value should
// not be read as kilometres; a haversine metric is available when physical
// distance matters. Distances
// and matched coordinates are rounded to [DefaultPrecision] decimal places,
// the display precision of the source catalogs.
package domain
