package adsb

import "context"

// Record is one aircraft state report from a feed snapshot.
// Field names and JSON keys follow the readsb / adsb.fi / airplanes.live
// aircraft object. Every field except Hex may be missing from the feed, so
// optional values are carried as explicit Present/Absent types rather than
// zero values.
//
// A Record is input only: consumers derive values from it and never modify it.
type Record struct {
	// Hex is the ICAO Mode S hex code (e.g., "a12345")
	Hex string `json:"hex"`

	// Flight is the callsign/flight number, often space padded
	Flight OptionalText `json:"flight"`

	// Registration is the tail number
	Registration OptionalText `json:"r"`

	// Type is the ICAO aircraft type designator (e.g., "B738")
	Type OptionalText `json:"t"`

	// Desc is the free-text aircraft description (e.g., "BOEING 737-800")
	Desc OptionalText `json:"desc"`

	// Year is the year of manufacture
	Year OptionalText `json:"year"`

	// Owner is the owner/operator name.
	// encoding/json matches keys case-insensitively, so both "ownOp" and
	// "ownop" land here.
	Owner OptionalText `json:"ownOp"`

	// AltBaro is barometric altitude in feet, or the "ground" marker
	AltBaro Altitude `json:"alt_baro"`

	// AltGeom is geometric (GNSS/WGS84) altitude in feet
	AltGeom Altitude `json:"alt_geom"`

	// GroundSpeed in knots
	GroundSpeed OptionalFloat `json:"gs"`

	// Track is the ground track in degrees (0-360)
	Track OptionalFloat `json:"track"`

	// Lat is latitude in decimal degrees
	Lat OptionalFloat `json:"lat"`

	// Lon is longitude in decimal degrees
	Lon OptionalFloat `json:"lon"`
}

// DataSource is the interface that ADS-B snapshot providers implement.
// It returns every aircraft the provider reports around a point; deciding
// which of them are usable is left to the caller.
type DataSource interface {
	// GetAircraft returns the aircraft reported within radius of the
	// center point. The radius unit is defined by the provider's API.
	GetAircraft(ctx context.Context, centerLat, centerLon, radius float64) ([]Record, error)

	// Close cleanly shuts down the data source connection.
	Close() error
}
