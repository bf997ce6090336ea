package nearest

import (
	"github.com/unklstewy/nearest-aircraft/pkg/adsb"
	"github.com/unklstewy/nearest-aircraft/pkg/coordinates"
)

// Observer is the position a query is made from.
type Observer struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Candidate is a record that passed the filter, with its usable altitude and
// its great-circle distance from the observer.
type Candidate struct {
	Record     adsb.Record
	AltitudeFt float64
	DistanceKm float64
}

// Scan is the outcome of one pass over a snapshot.
type Scan struct {
	Nearest Candidate
	Found   bool

	// Considered is the number of records in the snapshot
	Considered int

	// Rejected counts dropped records by rejection reason
	Rejected map[string]int
}

// ScanNearest makes a single forward pass over records and keeps the
// closest qualifying one. The comparison is strict, so when two candidates
// are exactly as far away the one earlier in records wins.
func ScanNearest(records []adsb.Record, observer Observer, filter Filter) Scan {
	s := Scan{Considered: len(records)}

	for _, rec := range records {
		a := Assess(rec)
		if reason, rejected := filter.Reject(a); rejected {
			if s.Rejected == nil {
				s.Rejected = make(map[string]int)
			}
			s.Rejected[reason]++
			continue
		}

		d := coordinates.DistanceKm(observer.Lat, observer.Lon, rec.Lat.Value, rec.Lon.Value)
		if !s.Found || d < s.Nearest.DistanceKm {
			s.Nearest = Candidate{Record: rec, AltitudeFt: a.Altitude.Value, DistanceKm: d}
			s.Found = true
		}
	}

	return s
}

// SelectNearest returns the closest qualifying record, or false when none
// qualifies. An empty snapshot is not an error.
func SelectNearest(records []adsb.Record, observer Observer, filter Filter) (Candidate, bool) {
	s := ScanNearest(records, observer, filter)
	return s.Nearest, s.Found
}
