package nearest

import "github.com/unklstewy/nearest-aircraft/pkg/adsb"

// DefaultMinAltitudeFt is the altitude floor used when none is configured.
// Aircraft at or below it are treated as not flying.
const DefaultMinAltitudeFt = 100.0

// Rejection reasons, in the order the filter evaluates them.
const (
	ReasonGrounded   = "grounded"
	ReasonNoAltitude = "no_altitude"
	ReasonBelowFloor = "below_floor"
	ReasonNotMoving  = "not_moving"
	ReasonNoPosition = "no_position"
)

// Assessment is a record paired with its resolved altitude.
type Assessment struct {
	Record   adsb.Record
	Altitude adsb.OptionalFloat
	Grounded bool
}

// Assess resolves the altitude of rec.
func Assess(rec adsb.Record) Assessment {
	alt, grounded := ResolveAltitude(rec)
	return Assessment{Record: rec, Altitude: alt, Grounded: grounded}
}

// rule rejects an assessment when reject returns true.
type rule struct {
	reason string
	reject func(a Assessment, floorFt float64) bool
}

var rules = [...]rule{
	{ReasonGrounded, func(a Assessment, _ float64) bool {
		return a.Grounded
	}},
	{ReasonNoAltitude, func(a Assessment, _ float64) bool {
		return !a.Altitude.Valid
	}},
	{ReasonBelowFloor, func(a Assessment, floorFt float64) bool {
		return a.Altitude.Value <= floorFt
	}},
	{ReasonNotMoving, func(a Assessment, _ float64) bool {
		gs, ok := a.Record.GroundSpeed.Get()
		return !ok || gs == 0
	}},
	{ReasonNoPosition, func(a Assessment, _ float64) bool {
		return !a.Record.Lat.Valid || !a.Record.Lon.Valid
	}},
}

// Filter decides whether a record represents a flying, moving aircraft with
// a known position.
type Filter struct {
	// MinAltitudeFt is the floor; usable altitude must be strictly above it
	MinAltitudeFt float64
}

// Reject evaluates the rules in order and returns the reason of the first
// one that fails.
func (f Filter) Reject(a Assessment) (reason string, rejected bool) {
	for _, r := range rules {
		if r.reject(a, f.MinAltitudeFt) {
			return r.reason, true
		}
	}
	return "", false
}

// Valid reports whether a passes every rule.
func (f Filter) Valid(a Assessment) bool {
	_, rejected := f.Reject(a)
	return !rejected
}
