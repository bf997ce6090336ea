package nearest

import (
	"fmt"
	"math"
	"strings"

	"github.com/unklstewy/nearest-aircraft/pkg/coordinates"
)

const (
	// NotFoundMessage is reported when no aircraft qualifies
	NotFoundMessage = "No aircraft found within the specified radius."

	// UnknownFlight stands in for a missing or blank callsign
	UnknownFlight = "N/A"

	// UnknownAircraft stands in for a missing description
	UnknownAircraft = "unknown aircraft"
)

// Result is the answer to a nearest-aircraft query. The structured fields and
// Message carry the same rounded numbers, so either rendering can be derived
// from one Result.
type Result struct {
	Found bool `json:"found"`

	Hex          string `json:"hex,omitempty"`
	Flight       string `json:"flight"`
	Desc         string `json:"desc"`
	Registration string `json:"registration,omitempty"`
	Type         string `json:"type,omitempty"`

	// Year and Owner are passed through from the feed
	Year  *string `json:"year"`
	Owner *string `json:"ownop"`

	AltitudeFt  *int `json:"altitude_ft"`
	GroundSpeed *int `json:"gs"`
	Track       *int `json:"track"`

	// DistanceKm is rounded to 0.1 km
	DistanceKm float64 `json:"distance_km"`

	// Distance is the same distance in Unit, rounded to 0.1
	Distance float64                  `json:"distance"`
	Unit     coordinates.DistanceUnit `json:"unit"`

	// Bearing from the observer to the aircraft, 0-359
	Bearing int    `json:"bearing"`
	Ordinal string `json:"direction"`

	// RelativeSpeed is positive while the aircraft closes on the observer.
	// It is only present when both ground speed and track are known.
	RelativeSpeed *float64 `json:"relative_speed_kts"`

	Message string `json:"message"`
}

// NotFound returns the result reported when no aircraft qualifies.
func NotFound(unit coordinates.DistanceUnit) Result {
	return Result{
		Flight:  UnknownFlight,
		Desc:    NotFoundMessage,
		Unit:    unitOrDefault(unit),
		Message: NotFoundMessage,
	}
}

// Compose enriches the selected candidate with bearing, direction and
// closing speed and renders its message. When found is false the not-found
// result is returned.
func Compose(c Candidate, found bool, observer Observer, unit coordinates.DistanceUnit) Result {
	unit = unitOrDefault(unit)
	if !found {
		return NotFound(unit)
	}

	rec := c.Record
	r := Result{
		Found:        true,
		Hex:          rec.Hex,
		Flight:       rec.Flight.Or(UnknownFlight),
		Desc:         rec.Desc.Or(UnknownAircraft),
		Registration: rec.Registration.Or(""),
		Type:         rec.Type.Or(""),
		Year:         textPtr(rec.Year.Or("")),
		Owner:        textPtr(rec.Owner.Or("")),
		AltitudeFt:   intPtr(c.AltitudeFt),
		DistanceKm:   round1(c.DistanceKm),
		Distance:     round1(unit.FromKm(c.DistanceKm)),
		Unit:         unit,
		Bearing:      coordinates.BearingDeg(observer.Lat, observer.Lon, rec.Lat.Value, rec.Lon.Value),
	}
	r.Ordinal = coordinates.Ordinal(float64(r.Bearing))

	gs, hasSpeed := rec.GroundSpeed.Get()
	track, hasTrack := rec.Track.Get()
	if hasSpeed {
		r.GroundSpeed = intPtr(gs)
	}
	if hasTrack {
		r.Track = intPtr(track)
	}
	if hasSpeed && hasTrack {
		// Never report more than the integer ground speed shown beside it.
		limit := float64(*r.GroundSpeed)
		v := coordinates.RelativeSpeedKnots(gs, track, float64(r.Bearing))
		v = round1(math.Max(-limit, math.Min(limit, round1(v))))
		r.RelativeSpeed = &v
	}

	r.Message = r.sentence()
	return r
}

// Text is the plain-text rendering: the message and a trailing newline.
func (r Result) Text() string {
	return r.Message + "\n"
}

// sentence builds the message from optional clauses.
func (r Result) sentence() string {
	parts := []string{r.Flight + " is a"}
	if r.Year != nil {
		parts = append(parts, *r.Year)
	}
	parts = append(parts, r.Desc)
	if r.Owner != nil {
		parts = append(parts, "operated by "+*r.Owner)
	}
	parts = append(parts, fmt.Sprintf("at bearing %d° (%s),", r.Bearing, r.Ordinal))

	if r.AltitudeFt != nil {
		parts = append(parts, fmt.Sprintf("%.1f %s away at %d ft.", r.Distance, r.Unit.Label(), *r.AltitudeFt))
	} else {
		parts = append(parts, fmt.Sprintf("%.1f %s away.", r.Distance, r.Unit.Label()))
	}

	var motion []string
	if r.GroundSpeed != nil {
		motion = append(motion, fmt.Sprintf("speed %d kts", *r.GroundSpeed))
	}
	if r.Track != nil {
		motion = append(motion, fmt.Sprintf("heading %d°", *r.Track))
	}
	if len(motion) > 0 {
		m := strings.Join(motion, ", ")
		parts = append(parts, strings.ToUpper(m[:1])+m[1:]+".")
	}

	if r.RelativeSpeed != nil {
		switch v := *r.RelativeSpeed; {
		case v > 0:
			parts = append(parts, fmt.Sprintf("Closing at %.1f kts.", v))
		case v < 0:
			parts = append(parts, fmt.Sprintf("Receding at %.1f kts.", -v))
		default:
			parts = append(parts, "Maintaining distance.")
		}
	}

	return strings.Join(parts, " ")
}

func unitOrDefault(u coordinates.DistanceUnit) coordinates.DistanceUnit {
	if u == "" {
		return coordinates.Kilometers
	}
	return u
}

// round1 rounds to one decimal place without producing negative zero.
func round1(v float64) float64 {
	r := math.Round(v*10) / 10
	if r == 0 {
		return 0
	}
	return r
}

func intPtr(v float64) *int {
	i := int(math.Round(v))
	return &i
}

func textPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
