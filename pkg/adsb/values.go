package adsb

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// GroundMarker is the alt_baro value reported when the transponder says
// the aircraft is on the ground. Comparison is case-insensitive.
const GroundMarker = "ground"

// OptionalFloat is a numeric feed value that is either present or absent.
// Decoding never fails: null, missing, non-numeric and non-finite values all
// decode as absent. Numeric strings ("450.5") decode as present.
type OptionalFloat struct {
	Value float64
	Valid bool
}

// Float returns a present OptionalFloat.
func Float(v float64) OptionalFloat {
	return OptionalFloat{Value: v, Valid: true}
}

// Get returns the value and whether it is present.
func (f OptionalFloat) Get() (float64, bool) {
	return f.Value, f.Valid
}

func (f *OptionalFloat) UnmarshalJSON(b []byte) error {
	*f = OptionalFloat{}
	if v, ok := scanScalar(b).number(); ok {
		*f = Float(v)
	}
	return nil
}

func (f OptionalFloat) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// OptionalText is a descriptive feed value that is either present or absent.
// Blank strings decode as absent; numbers are kept in their shortest decimal
// form so that a numeric "year" still reads naturally.
type OptionalText struct {
	Value string
	Valid bool
}

// Text returns a present OptionalText, or an absent one when s is blank.
func Text(s string) OptionalText {
	if strings.TrimSpace(s) == "" {
		return OptionalText{}
	}
	return OptionalText{Value: s, Valid: true}
}

// Get returns the value and whether it is present.
func (t OptionalText) Get() (string, bool) {
	return t.Value, t.Valid
}

// Or returns the trimmed value, or def when absent.
func (t OptionalText) Or(def string) string {
	if !t.Valid {
		return def
	}
	if v := strings.TrimSpace(t.Value); v != "" {
		return v
	}
	return def
}

func (t *OptionalText) UnmarshalJSON(b []byte) error {
	*t = OptionalText{}
	s := scanScalar(b)
	switch {
	case s.isString:
		*t = Text(s.str)
	case s.isNumber:
		*t = Text(strconv.FormatFloat(s.num, 'f', -1, 64))
	}
	return nil
}

func (t OptionalText) MarshalJSON() ([]byte, error) {
	if !t.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(t.Value)
}

// AltitudeKind discriminates the three shapes an altitude report can take.
type AltitudeKind uint8

const (
	// AltitudeAbsent means no usable altitude was reported
	AltitudeAbsent AltitudeKind = iota

	// AltitudeGround means the ground marker was reported
	AltitudeGround

	// AltitudeFeet means a numeric altitude in feet was reported
	AltitudeFeet
)

// Altitude is an altitude report: absent, on the ground, or a value in feet.
type Altitude struct {
	Kind AltitudeKind
	Feet float64
}

// Feet returns a numeric altitude.
func Feet(ft float64) Altitude {
	return Altitude{Kind: AltitudeFeet, Feet: ft}
}

// Ground returns the ground-marker altitude.
func Ground() Altitude {
	return Altitude{Kind: AltitudeGround}
}

// IsGround reports whether the ground marker was reported.
func (a Altitude) IsGround() bool {
	return a.Kind == AltitudeGround
}

// Value returns the altitude in feet when numeric.
func (a Altitude) Value() (float64, bool) {
	return a.Feet, a.Kind == AltitudeFeet
}

func (a *Altitude) UnmarshalJSON(b []byte) error {
	*a = Altitude{}
	s := scanScalar(b)
	if s.isString && strings.EqualFold(strings.TrimSpace(s.str), GroundMarker) {
		*a = Ground()
		return nil
	}
	if v, ok := s.number(); ok {
		*a = Feet(v)
	}
	return nil
}

func (a Altitude) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case AltitudeGround:
		return []byte(`"` + GroundMarker + `"`), nil
	case AltitudeFeet:
		return json.Marshal(a.Feet)
	default:
		return []byte("null"), nil
	}
}

// scalar is a loosely decoded JSON scalar.
type scalar struct {
	num      float64
	str      string
	isNumber bool
	isString bool
}

// number returns the scalar as a finite float, parsing numeric strings.
func (s scalar) number() (float64, bool) {
	v := s.num
	if s.isString {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s.str), 64)
		if err != nil {
			return 0, false
		}
		v = parsed
	} else if !s.isNumber {
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func scanScalar(b []byte) scalar {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return scalar{}
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return scalar{}
	}
	switch x := v.(type) {
	case float64:
		return scalar{num: x, isNumber: true}
	case string:
		return scalar{str: x, isString: true}
	default:
		return scalar{}
	}
}
