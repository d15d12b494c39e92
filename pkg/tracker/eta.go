package tracker

import (
	"context"

	"github.com/kbus/kbus/pkg/fleetdf"
)

// Below this speed the vehicle is treated as stationary and no arrival time
// is projected.
const MinimumETASpeedMetresPerSecond = 0.5

// Estimate projects arrival from the latest sample. ETASeconds is to the
// next stop, RouteETASeconds to the route's final stop; both are nil while
// the vehicle is stationary. Destination-bounded ETAs are composed by the
// caller from the ticket's destination sequence.
type Estimate struct {
	CurrentStop fleetdf.Stop `json:"current_stop" groups:"basic"`
	NextStop    fleetdf.Stop `json:"next_stop" groups:"basic"`

	DistanceToNextMetres float64 `json:"distance_to_next_metres" groups:"basic"`
	RemainingPathMetres  float64 `json:"remaining_path_metres" groups:"basic"`

	ETASeconds      *int `json:"eta_seconds" groups:"basic"`
	RouteETASeconds *int `json:"route_eta_seconds" groups:"basic"`
}

// Estimate returns nil (not an error) while no estimate is defined: no
// sample yet, no inferred stop, or the vehicle already at the last stop.
func (t *Tracker) Estimate(ctx context.Context, vehicleID string) (*Estimate, error) {
	state, err := t.arena.Snapshot(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	if !state.HasLocation || state.CurrentStopSequence == nil {
		return nil, nil
	}

	route, err := t.topology.Route(ctx, state.RouteRef)
	if err != nil {
		return nil, err
	}

	current, position := route.StopBySequence(*state.CurrentStopSequence)
	if current == nil || position >= len(route.Stops)-1 {
		return nil, nil
	}

	next := route.Stops[position+1]

	distanceToNext := state.Location.Distance(next.Location)
	remainingPath := distanceToNext + route.PathDistance(position+1, len(route.Stops)-1)

	estimate := &Estimate{
		CurrentStop:          *current,
		NextStop:             next,
		DistanceToNextMetres: distanceToNext,
		RemainingPathMetres:  remainingPath,
	}

	if state.Speed >= MinimumETASpeedMetresPerSecond {
		etaSeconds := int(distanceToNext / state.Speed)
		routeETASeconds := int(remainingPath / state.Speed)

		estimate.ETASeconds = &etaSeconds
		estimate.RouteETASeconds = &routeETASeconds
	}

	return estimate, nil
}
