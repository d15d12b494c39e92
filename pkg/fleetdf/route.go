package fleetdf

import (
	"strconv"
	"time"
)

type Route struct {
	PrimaryIdentifier string `json:"primary_identifier" bson:"primaryidentifier" groups:"basic"`

	Name        string `json:"name" bson:"name" groups:"basic"`
	Source      string `json:"source" bson:"source" groups:"basic"`
	Destination string `json:"destination" bson:"destination" groups:"basic"`

	CreationDateTime     time.Time `json:"-" bson:"creationdatetime"`
	ModificationDateTime time.Time `json:"-" bson:"modificationdatetime"`

	// Ordered by Sequence, strictly increasing
	Stops []Stop `json:"stops" bson:"stops" groups:"basic"`
}

type Stop struct {
	Name     string `json:"name" bson:"name" groups:"basic"`
	Sequence int    `json:"sequence" bson:"sequence" groups:"basic"`

	Location Location `json:"location" bson:"location" groups:"basic"`
}

// StopBySequence returns the stop with the given sequence number along with
// its position in the ordered stop list, or nil if no such stop exists.
func (r *Route) StopBySequence(sequence int) (*Stop, int) {
	for i, stop := range r.Stops {
		if stop.Sequence == sequence {
			return &r.Stops[i], i
		}
	}

	return nil, -1
}

// StopByRef resolves a stop reference that is either a sequence number or a
// stop name. Name matches pick the earliest stop on the route.
func (r *Route) StopByRef(ref string) (*Stop, int) {
	if sequence, err := strconv.Atoi(ref); err == nil {
		if stop, position := r.StopBySequence(sequence); stop != nil {
			return stop, position
		}
	}

	for i, stop := range r.Stops {
		if stop.Name == ref {
			return &r.Stops[i], i
		}
	}

	return nil, -1
}

// PathDistance returns the along-route distance in metres between two stop
// positions, summing each consecutive stop pair. This is not the straight
// line distance as stops rarely sit on one.
func (r *Route) PathDistance(fromPosition int, toPosition int) float64 {
	total := 0.0
	for i := fromPosition; i < toPosition; i++ {
		total += r.Stops[i].Location.Distance(r.Stops[i+1].Location)
	}

	return total
}
