package tracker

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/kbus/kbus/pkg/fleetdf"
	"github.com/rs/zerolog/log"
)

// StopProximityRadiusMetres is how close a sample must be to a stop before
// the vehicle is considered to have reached it.
const StopProximityRadiusMetres = 50.0

// Speed estimation from consecutive samples is only trusted inside this gap
const minimumSampleGapSeconds = 0.5
const maximumSampleGapSeconds = 120.0

type Topology interface {
	Vehicle(ctx context.Context, vehicleID string) (*fleetdf.Vehicle, error)
	Route(ctx context.Context, routeID string) (*fleetdf.Route, error)
}

// Tracker owns live location ingest and the per-vehicle state arena. Progress
// along the stop sequence is monotonic non-decreasing for the lifetime of a
// trip.
type Tracker struct {
	topology  Topology
	locations LocationStore
	metrics   *Metrics

	arena *Arena
}

func New(topology Topology, locations LocationStore, metrics *Metrics) *Tracker {
	tracker := &Tracker{
		topology:  topology,
		locations: locations,
		metrics:   metrics,
	}
	tracker.arena = NewArena(tracker.loadState)

	return tracker
}

func (t *Tracker) loadState(ctx context.Context, vehicleID string) (*VehicleState, error) {
	vehicle, err := t.topology.Vehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	state := &VehicleState{
		VehicleID:           vehicle.PrimaryIdentifier,
		RouteRef:            vehicle.RouteRef,
		TripActive:          vehicle.TripActive,
		CurrentStopSequence: vehicle.CurrentStopSequence,
	}

	location, err := t.locations.Location(ctx, vehicleID)
	if err != nil {
		log.Error().Err(err).Str("vehicle", vehicleID).Msg("Failed to load live location")
	} else if location != nil {
		state.HasLocation = true
		state.Location = location.Location
		state.Speed = location.Speed
		state.RecordedAt = location.RecordedAt
	}

	return state, nil
}

// Report applies one position sample as a single atomic update for the
// vehicle. The trip must be active; the live location row is overwritten
// last-sample-wins, and the current stop may only ever advance.
func (t *Tracker) Report(ctx context.Context, vehicleID string, location fleetdf.Location, speed float64, recordedAt time.Time) error {
	if !location.Valid() {
		return fmt.Errorf("%w: coordinates out of range", fleetdf.ErrInvalidRequest)
	}

	if speed < 0 {
		speed = 0
	}

	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}

	startTime := time.Now()
	defer func() {
		if t.metrics != nil {
			t.metrics.ReportDuration.Observe(time.Since(startTime).Seconds())
		}
	}()

	return t.arena.Do(ctx, vehicleID, func(state *VehicleState) error {
		if !state.TripActive {
			if t.metrics != nil {
				t.metrics.ReportsRejected.WithLabelValues("trip_not_active").Inc()
			}
			return fmt.Errorf("%w: vehicle %s", fleetdf.ErrTripNotActive, vehicleID)
		}

		// Resolve the route before touching any state so a failure leaves
		// the record untouched
		route, err := t.topology.Route(ctx, state.RouteRef)
		if err != nil {
			return err
		}

		// An out-of-order sample still wins for position but must not be
		// used to move progress
		staleSample := state.HasLocation && recordedAt.Before(state.RecordedAt)

		if speed == 0 && state.HasLocation {
			speed = estimateSpeed(state.Location, state.RecordedAt, location, recordedAt)
		}

		state.HasLocation = true
		state.Location = location
		state.Speed = speed
		state.RecordedAt = recordedAt

		if !staleSample {
			t.advanceProgress(ctx, state, route)
		}

		liveLocation := fleetdf.LiveLocation{
			VehicleRef: vehicleID,
			Location:   location,
			Speed:      speed,
			RecordedAt: recordedAt,
		}
		if err := t.locations.UpsertLocation(ctx, liveLocation); err != nil {
			log.Error().Err(err).Str("vehicle", vehicleID).Msg("Failed to persist live location")
		}

		if t.metrics != nil {
			t.metrics.ReportsProcessed.Inc()
		}

		return nil
	})
}

// advanceProgress scans stops from the stored sequence upwards and advances
// to the nearest one within the proximity radius. Stops behind the stored
// sequence are never considered.
func (t *Tracker) advanceProgress(ctx context.Context, state *VehicleState, route *fleetdf.Route) {
	nearest := nearestReachableStop(route, state.CurrentStopSequence, state.Location)
	if nearest == nil {
		return
	}

	if state.CurrentStopSequence != nil && nearest.Sequence == *state.CurrentStopSequence {
		return
	}

	sequence := nearest.Sequence
	state.CurrentStopSequence = &sequence

	if t.metrics != nil {
		t.metrics.StopAdvances.Inc()
	}

	log.Debug().
		Str("vehicle", state.VehicleID).
		Int("sequence", sequence).
		Str("stop", nearest.Name).
		Msg("Vehicle reached stop")

	if err := t.locations.SetCurrentStop(ctx, state.VehicleID, state.CurrentStopSequence); err != nil {
		log.Error().Err(err).Str("vehicle", state.VehicleID).Msg("Failed to persist current stop")
	}
}

func nearestReachableStop(route *fleetdf.Route, currentSequence *int, location fleetdf.Location) *fleetdf.Stop {
	var nearest *fleetdf.Stop
	nearestDistance := math.MaxFloat64

	for i := range route.Stops {
		stop := &route.Stops[i]

		if currentSequence != nil && stop.Sequence < *currentSequence {
			continue
		}

		distance := location.Distance(stop.Location)
		if distance <= StopProximityRadiusMetres && distance < nearestDistance {
			nearestDistance = distance
			nearest = stop
		}
	}

	return nearest
}

func estimateSpeed(previous fleetdf.Location, previousTime time.Time, current fleetdf.Location, currentTime time.Time) float64 {
	gap := currentTime.Sub(previousTime).Seconds()
	if gap <= minimumSampleGapSeconds || gap > maximumSampleGapSeconds {
		return 0
	}

	return previous.Distance(current) / gap
}

// Snapshot returns a copy of the vehicle's tracking state, hydrating it from
// the registry on first access.
func (t *Tracker) Snapshot(ctx context.Context, vehicleID string) (VehicleState, error) {
	return t.arena.Snapshot(ctx, vehicleID)
}

// WithVehicle runs fn under the vehicle's serialization lock. Used by the
// trip lifecycle manager so trip transitions and location reports for one
// vehicle never interleave.
func (t *Tracker) WithVehicle(ctx context.Context, vehicleID string, fn func(state *VehicleState) error) error {
	return t.arena.Do(ctx, vehicleID, fn)
}
