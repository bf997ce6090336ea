package coordinates

import (
	"fmt"
	"strings"
)

// DistanceUnit is the unit distances are reported in.
type DistanceUnit string

const (
	Kilometers    DistanceUnit = "km"
	StatuteMiles  DistanceUnit = "mi"
	NauticalMiles DistanceUnit = "nm"
)

// ParseDistanceUnit accepts the short unit names plus a few spelled-out forms.
func ParseDistanceUnit(s string) (DistanceUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "km", "kilometers", "kilometres":
		return Kilometers, nil
	case "mi", "miles":
		return StatuteMiles, nil
	case "nm", "nmi", "nautical miles":
		return NauticalMiles, nil
	}
	return "", fmt.Errorf("unknown distance unit %q", s)
}

// FromKm converts a distance in kilometers to this unit.
// An unset unit is treated as kilometers.
func (u DistanceUnit) FromKm(km float64) float64 {
	switch u {
	case StatuteMiles:
		return km / KmPerStatuteMile
	case NauticalMiles:
		return km / KmPerNauticalMile
	default:
		return km
	}
}

// Label is the word used for the unit in sentences.
func (u DistanceUnit) Label() string {
	switch u {
	case StatuteMiles:
		return "miles"
	case NauticalMiles:
		return "nautical miles"
	default:
		return "km"
	}
}
