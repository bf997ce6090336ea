// Package nearest selects the aircraft closest to an observer from a feed
// snapshot and describes it.
//
// The pipeline is a single synchronous pass: every record is checked by the
// Filter, survivors are ranked by great-circle distance, and the winner is
// composed into a Result. Nothing is kept between calls, so an Engine can be
// shared by any number of goroutines.
package nearest

import (
	"github.com/unklstewy/nearest-aircraft/pkg/adsb"
	"github.com/unklstewy/nearest-aircraft/pkg/coordinates"
)

// Options configure an Engine.
type Options struct {
	// MinAltitudeFt is the altitude floor in feet
	MinAltitudeFt float64

	// Unit is the unit distances are rendered in
	Unit coordinates.DistanceUnit
}

// DefaultOptions returns a 100 ft floor with kilometers.
func DefaultOptions() Options {
	return Options{
		MinAltitudeFt: DefaultMinAltitudeFt,
		Unit:          coordinates.Kilometers,
	}
}

// Engine computes nearest-aircraft results.
type Engine struct {
	opts Options
}

// NewEngine creates an Engine. An empty unit means kilometers.
func NewEngine(opts Options) *Engine {
	opts.Unit = unitOrDefault(opts.Unit)
	return &Engine{opts: opts}
}

// Options returns the options the engine was created with.
func (e *Engine) Options() Options {
	return e.opts
}

// Compute returns the nearest qualifying aircraft in records as seen from
// observer. When nothing qualifies the not-found result is returned.
func (e *Engine) Compute(records []adsb.Record, observer Observer) Result {
	res, _ := e.Evaluate(records, observer)
	return res
}

// Evaluate is Compute that also returns the scan statistics.
func (e *Engine) Evaluate(records []adsb.Record, observer Observer) (Result, Scan) {
	s := ScanNearest(records, observer, Filter{MinAltitudeFt: e.opts.MinAltitudeFt})
	return Compose(s.Nearest, s.Found, observer, e.opts.Unit), s
}
