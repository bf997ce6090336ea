package nearest

import "github.com/unklstewy/nearest-aircraft/pkg/adsb"

// ResolveAltitude determines the usable altitude of a record and whether the
// aircraft reports being on the ground.
//
// Barometric altitude is authoritative: a ground marker there grounds the
// aircraft whatever the geometric altitude says, and a numeric value there
// wins over a numeric geometric value. Geometric altitude is only consulted
// when barometric altitude is absent. A ground marker in the geometric field
// carries no altitude and is treated as absent.
func ResolveAltitude(rec adsb.Record) (alt adsb.OptionalFloat, grounded bool) {
	switch rec.AltBaro.Kind {
	case adsb.AltitudeGround:
		return adsb.OptionalFloat{}, true
	case adsb.AltitudeFeet:
		return adsb.Float(rec.AltBaro.Feet), false
	}

	if ft, ok := rec.AltGeom.Value(); ok {
		return adsb.Float(ft), false
	}
	return adsb.OptionalFloat{}, false
}
