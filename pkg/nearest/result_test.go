package nearest

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/unklstewy/nearest-aircraft/pkg/adsb"
	"github.com/unklstewy/nearest-aircraft/pkg/coordinates"
)

// northOf returns a candidate 0.01° north of the observer heading on track.
func northOf(observer Observer, track float64) Candidate {
	rec := adsb.Record{
		Hex:         "a1b2c3",
		Flight:      adsb.Text("UAL123  "),
		Desc:        adsb.Text("BOEING 737-800"),
		AltBaro:     adsb.Feet(5000),
		GroundSpeed: adsb.Float(400),
		Track:       adsb.Float(track),
		Lat:         adsb.Float(observer.Lat + 0.01),
		Lon:         adsb.Float(observer.Lon),
	}
	return Candidate{
		Record:     rec,
		AltitudeFt: 5000,
		DistanceKm: coordinates.DistanceKm(observer.Lat, observer.Lon, rec.Lat.Value, rec.Lon.Value),
	}
}

// TestNotFound tests the fixed not-found result.
func TestNotFound(t *testing.T) {
	r := Compose(Candidate{}, false, Observer{Lat: 35, Lon: -80}, coordinates.Kilometers)

	if r.Found {
		t.Error("Expected Found to be false")
	}
	if r.Flight != "N/A" {
		t.Errorf("Expected flight N/A, got %q", r.Flight)
	}
	if r.Message != NotFoundMessage || r.Desc != NotFoundMessage {
		t.Errorf("Expected not-found message, got %q / %q", r.Message, r.Desc)
	}
	if r.DistanceKm != 0 || r.Distance != 0 || r.Bearing != 0 {
		t.Errorf("Expected zeroed numerics, got %+v", r)
	}
	if r.RelativeSpeed != nil || r.GroundSpeed != nil || r.Track != nil || r.AltitudeFt != nil {
		t.Errorf("Expected absent optional fields, got %+v", r)
	}
	if r.Text() != NotFoundMessage+"\n" {
		t.Errorf("Unexpected text rendering %q", r.Text())
	}
}

// TestComposeClosingAndReceding tests the closing-speed clause.
func TestComposeClosingAndReceding(t *testing.T) {
	observer := Observer{Lat: 35, Lon: -80}

	tests := []struct {
		name     string
		track    float64
		relative float64
		clause   string
	}{
		{"Heading south toward the observer", 180, 400, "Closing at 400.0 kts."},
		{"Heading north away from the observer", 0, -400, "Receding at 400.0 kts."},
		{"Crossing the line of sight", 90, 0, "Maintaining distance."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Compose(northOf(observer, tt.track), true, observer, coordinates.Kilometers)

			if r.Bearing != 0 || r.Ordinal != "north" {
				t.Errorf("Expected bearing 0 north, got %d %s", r.Bearing, r.Ordinal)
			}
			if r.DistanceKm != 1.1 {
				t.Errorf("Expected 1.1 km, got %v", r.DistanceKm)
			}
			if r.RelativeSpeed == nil || *r.RelativeSpeed != tt.relative {
				t.Fatalf("Expected relative speed %v, got %v", tt.relative, r.RelativeSpeed)
			}
			if !strings.HasSuffix(r.Message, tt.clause) {
				t.Errorf("Expected message to end with %q, got %q", tt.clause, r.Message)
			}
		})
	}
}

// TestComposeRelativeSpeedWithinGroundSpeed tests that rounding never lets the
// relative speed exceed the reported ground speed.
func TestComposeRelativeSpeedWithinGroundSpeed(t *testing.T) {
	observer := Observer{Lat: 35, Lon: -80}

	tests := []struct {
		name     string
		gs       float64
		track    float64
		relative float64
		clause   string
	}{
		{"Closing just above a whole knot", 400.06, 180, 400, "Speed 400 kts, heading 180°. Closing at 400.0 kts."},
		{"Receding just above a whole knot", 400.06, 0, -400, "Speed 400 kts, heading 0°. Receding at 400.0 kts."},
		{"Closing just below the rounding boundary", 400.4, 180, 400, "Closing at 400.0 kts."},
		{"Ground speed that rounds up", 399.96, 180, 400, "Closing at 400.0 kts."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := northOf(observer, tt.track)
			c.Record.GroundSpeed = adsb.Float(tt.gs)
			r := Compose(c, true, observer, coordinates.Kilometers)

			if r.GroundSpeed == nil || r.RelativeSpeed == nil {
				t.Fatal("Expected ground and relative speed")
			}
			if *r.RelativeSpeed != tt.relative {
				t.Errorf("Expected relative speed %v, got %v", tt.relative, *r.RelativeSpeed)
			}
			if abs := math.Abs(*r.RelativeSpeed); abs > float64(*r.GroundSpeed) {
				t.Errorf("Relative speed %v exceeds ground speed %d", *r.RelativeSpeed, *r.GroundSpeed)
			}
			if !strings.HasSuffix(r.Message, tt.clause) {
				t.Errorf("Expected message to end with %q, got %q", tt.clause, r.Message)
			}
		})
	}
}

// TestComposeMessage tests the clause-conditional sentence.
func TestComposeMessage(t *testing.T) {
	observer := Observer{Lat: 35, Lon: -80}

	t.Run("All clauses", func(t *testing.T) {
		c := northOf(observer, 180)
		c.Record.Year = adsb.Text("2005")
		c.Record.Owner = adsb.Text("United Airlines")

		r := Compose(c, true, observer, coordinates.Kilometers)
		want := "UAL123 is a 2005 BOEING 737-800 operated by United Airlines at bearing 0° (north), " +
			"1.1 km away at 5000 ft. Speed 400 kts, heading 180°. Closing at 400.0 kts."
		if r.Message != want {
			t.Errorf("Expected:\n%s\ngot:\n%s", want, r.Message)
		}
	})

	t.Run("Minimal record", func(t *testing.T) {
		c := northOf(observer, 180)
		c.Record.Flight = adsb.OptionalText{}
		c.Record.Desc = adsb.OptionalText{}
		c.Record.GroundSpeed = adsb.OptionalFloat{}
		c.Record.Track = adsb.OptionalFloat{}

		r := Compose(c, true, observer, coordinates.Kilometers)
		want := "N/A is a unknown aircraft at bearing 0° (north), 1.1 km away at 5000 ft."
		if r.Message != want {
			t.Errorf("Expected %q, got %q", want, r.Message)
		}
		if r.RelativeSpeed != nil {
			t.Error("Expected no relative speed without ground speed and track")
		}
	})

	t.Run("Speed without track", func(t *testing.T) {
		c := northOf(observer, 180)
		c.Record.Track = adsb.OptionalFloat{}

		r := Compose(c, true, observer, coordinates.Kilometers)
		if !strings.HasSuffix(r.Message, "away at 5000 ft. Speed 400 kts.") {
			t.Errorf("Unexpected message %q", r.Message)
		}
		if r.RelativeSpeed != nil {
			t.Error("Expected no relative speed without track")
		}
	})

	t.Run("Track without speed", func(t *testing.T) {
		c := northOf(observer, 180)
		c.Record.GroundSpeed = adsb.OptionalFloat{}

		r := Compose(c, true, observer, coordinates.Kilometers)
		if !strings.HasSuffix(r.Message, "Heading 180°.") {
			t.Errorf("Unexpected message %q", r.Message)
		}
	})

	t.Run("Statute miles", func(t *testing.T) {
		r := Compose(northOf(observer, 180), true, observer, coordinates.StatuteMiles)
		if r.Distance != 0.7 || r.DistanceKm != 1.1 {
			t.Errorf("Expected 0.7 mi / 1.1 km, got %v / %v", r.Distance, r.DistanceKm)
		}
		if !strings.Contains(r.Message, "0.7 miles away") {
			t.Errorf("Unexpected message %q", r.Message)
		}
	})

	t.Run("Values are rounded", func(t *testing.T) {
		c := northOf(observer, 179.6)
		c.AltitudeFt = 5000.4
		c.Record.GroundSpeed = adsb.Float(399.5)

		r := Compose(c, true, observer, coordinates.Kilometers)
		if *r.AltitudeFt != 5000 || *r.GroundSpeed != 400 || *r.Track != 180 {
			t.Errorf("Expected 5000/400/180, got %d/%d/%d", *r.AltitudeFt, *r.GroundSpeed, *r.Track)
		}
	})
}

var (
	distanceRe = regexp.MustCompile(`([0-9.]+) km away`)
	bearingRe  = regexp.MustCompile(`at bearing (\d+)°`)
	relativeRe = regexp.MustCompile(`(Closing|Receding) at ([0-9.]+) kts`)
)

// TestRenderingsAgree tests that the text and JSON renderings carry the
// same numbers.
func TestRenderingsAgree(t *testing.T) {
	observer := Observer{Lat: 51.47, Lon: -0.45}
	rec := adsb.Record{
		Flight:      adsb.Text("BAW12"),
		Desc:        adsb.Text("AIRBUS A-320"),
		AltBaro:     adsb.Feet(3150),
		GroundSpeed: adsb.Float(187.3),
		Track:       adsb.Float(263.2),
		Lat:         adsb.Float(51.4912),
		Lon:         adsb.Float(-0.3921),
	}
	c := Candidate{
		Record:     rec,
		AltitudeFt: 3150,
		DistanceKm: coordinates.DistanceKm(observer.Lat, observer.Lon, rec.Lat.Value, rec.Lon.Value),
	}
	r := Compose(c, true, observer, coordinates.Kilometers)

	jsonData, err := r.Render(FormatJSON)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	var structured Result
	if err := json.Unmarshal(jsonData, &structured); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	textData, err := r.Render(FormatText)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	text := string(textData)
	if !strings.HasSuffix(text, "\n") {
		t.Error("Expected text rendering to end with a newline")
	}

	m := distanceRe.FindStringSubmatch(text)
	if m == nil {
		t.Fatalf("No distance in %q", text)
	}
	if d, _ := strconv.ParseFloat(m[1], 64); d != structured.DistanceKm {
		t.Errorf("Distance mismatch: text %v, json %v", d, structured.DistanceKm)
	}

	m = bearingRe.FindStringSubmatch(text)
	if m == nil {
		t.Fatalf("No bearing in %q", text)
	}
	if b, _ := strconv.Atoi(m[1]); b != structured.Bearing {
		t.Errorf("Bearing mismatch: text %v, json %v", b, structured.Bearing)
	}

	m = relativeRe.FindStringSubmatch(text)
	if m == nil || structured.RelativeSpeed == nil {
		t.Fatalf("No relative speed in %q / %v", text, structured.RelativeSpeed)
	}
	v, _ := strconv.ParseFloat(m[2], 64)
	if m[1] == "Receding" {
		v = -v
	}
	if v != *structured.RelativeSpeed {
		t.Errorf("Relative speed mismatch: text %v, json %v", v, *structured.RelativeSpeed)
	}
}

// TestParseFormat tests format parsing.
func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"", FormatJSON, false},
		{"json", FormatJSON, false},
		{"TEXT", FormatText, false},
		{" Text ", FormatText, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}

	if FormatText.ContentType() != "text/plain; charset=utf-8" {
		t.Errorf("Unexpected text content type %s", FormatText.ContentType())
	}
}
