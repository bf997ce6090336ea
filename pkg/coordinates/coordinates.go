// Package coordinates holds the spherical-earth geodesy used to relate an
// observer to an aircraft: great-circle distance, initial bearing, compass
// sectors and closing speed. Every function is pure.
package coordinates

import "math"

// Constants for coordinate calculations
const (
	// DegreesToRadians converts degrees to radians
	DegreesToRadians = math.Pi / 180.0

	// RadiansToDegrees converts radians to degrees
	RadiansToDegrees = 180.0 / math.Pi

	// EarthRadiusKm is the Earth's mean radius in kilometers
	EarthRadiusKm = 6371.0

	// KmPerNauticalMile converts nautical miles to kilometers
	KmPerNauticalMile = 1.852

	// KmPerStatuteMile converts statute miles to kilometers
	KmPerStatuteMile = 1.609344
)

// NormalizeAzimuth ensures azimuth is in the range [0, 360).
func NormalizeAzimuth(azimuth float64) float64 {
	az := math.Mod(azimuth, 360.0)
	if az < 0 {
		az += 360.0
	}
	return az
}

// DistanceKm calculates the great-circle distance between two points with
// the haversine formula on a sphere of radius EarthRadiusKm.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * DegreesToRadians
	lat2Rad := lat2 * DegreesToRadians
	dLat := (lat2 - lat1) * DegreesToRadians
	dLon := (lon2 - lon1) * DegreesToRadians

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	// Rounding can push a a hair above 1 for antipodal points
	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(math.Min(a, 1)))
}

// Bearing calculates the initial bearing (forward azimuth) from one point
// to another along a great circle.
// Returns bearing in degrees [0, 360), where 0 = North, 90 = East, 180 = South, 270 = West.
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * DegreesToRadians
	lat2Rad := lat2 * DegreesToRadians
	dLon := (lon2 - lon1) * DegreesToRadians

	x := math.Sin(dLon) * math.Cos(lat2Rad)
	y := math.Cos(lat1Rad)*math.Sin(lat2Rad) - math.Sin(lat1Rad)*math.Cos(lat2Rad)*math.Cos(dLon)

	return math.Mod(math.Atan2(x, y)*RadiansToDegrees+360, 360)
}

// BearingDeg is Bearing rounded to the nearest whole degree, in [0, 359].
// A bearing that rounds up to 360 is reported as 0.
func BearingDeg(lat1, lon1, lat2, lon2 float64) int {
	return int(math.Round(Bearing(lat1, lon1, lat2, lon2))) % 360
}

// compassPoints are the eight 45° sectors, clockwise from north.
var compassPoints = [...]string{"north", "northeast", "east", "southeast",
	"south", "southwest", "west", "northwest"}

// Ordinal converts a bearing in degrees into the closest of the eight
// cardinal/intercardinal directions. Each sector is 45° wide and centered
// on its direction, so [337.5, 22.5) is north.
func Ordinal(bearing float64) string {
	h := NormalizeAzimuth(bearing + 22.5) // now [0,45) is north, etc...
	return compassPoints[int(h/45)%len(compassPoints)]
}

// RelativeSpeedKnots is the rate at which an aircraft closes on the
// observer, given its ground speed, its ground track and the bearing from
// the observer to the aircraft.
//
// Positive values mean the aircraft is approaching, negative values mean it
// is moving away. The magnitude never exceeds the ground speed.
func RelativeSpeedKnots(groundSpeed, trackDeg, bearingToAircraftDeg float64) float64 {
	bearingToObserver := math.Mod(bearingToAircraftDeg+180, 360)
	angleDiff := SignedAngle(trackDeg - bearingToObserver)
	return groundSpeed * math.Cos(angleDiff*DegreesToRadians)
}

// SignedAngle normalizes an angle in degrees into [-180, 180).
func SignedAngle(deg float64) float64 {
	return NormalizeAzimuth(deg+180) - 180
}
