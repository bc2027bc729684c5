// Package domain models historical earthquake catalog data and the
// qualitative risk factors derived from it.
//
// # Data Source
//
// Catalog rows follow the USGS earthquake catalog CSV export
// (https://earthquake.usgs.gov/earthquakes/search/), columns: time, latitude,
// longitude, depth, mag, magType, place. Regional agency exports (e.g. the
// Colombian Geological Survey) use the same shape. The loader in
// internal/catalog reads files; the Kafka collector publishes each row as
// flat JSON with identical field names.
//
// # Catalog Conventions
//
// Timestamps:
//
//	RFC 3339 with fractional seconds ("2024-05-01T12:34:56.789Z") in USGS
//	exports; "2006-01-02 15:04:05" in some regional files. All times are
//	normalized to UTC at parse time.
//
// Depth:
//
//	Kilometers below the surface, non-negative. Zero is a valid value
//	(surface rupture); an empty cell means unmeasured and is kept as nil,
//	never coerced to zero.
//
// Magnitude:
//
//	Dimensionless, typically 0-10. The magType column records the
//	measurement method ("mb" body wave, "ml" local, "mw" moment, ...).
//	Empty magnitude cells are kept as nil.
//
// Place and zones:
//
//	Free text like "10 km SSW of Pacifico, Colombia". The zone grouping key
//	is the region after the final comma; placeless events fall back to a
//	1-degree grid cell. See [DeriveZone].
//
// # Factor Discretization
//
// Seven factors feed the risk estimator. Every boundary is a fixed constant;
// the same raw value always maps to the same level:
//
//	historical magnitude:  <4 low | 4-6 medium | >6 high | missing unknown
//	depth:                 <70 km shallow | 70-300 intermediate | >300 deep
//	time since last M>=6:  <1 y recent | <=10 y medium | else distant
//	fault activity:        <50 events low | <200 medium | else high
//	seismic pattern:       <10 events in 5 y sporadic | <50 regular | else frequent
//	historical intensity:  mean mag <4 low | <=5 medium | >5 high
//	monthly frequency:     <5 events/month low | <20 medium | else high
//
// Dataset-relative factors (time since last, pattern) measure against the
// newest event time in the catalog so a historical file yields the same
// levels no matter when it is analyzed; only an empty catalog consults the
// wall clock.
//
// # ID Generation
//
// Event IDs are deterministic SHA-256 digests of time|lat|lon|mag. Replaying
// the same catalog rows produces the same IDs and therefore the same catalog
// content hash, which the snapshot store uses as its cache key. See
// [generateID] and [Catalog.Hash].
package domain
