package trips

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kbus/kbus/pkg/fleetdf"
	"github.com/kbus/kbus/pkg/tracker"
	"github.com/rs/zerolog/log"
)

type ResolverTopology interface {
	Vehicle(ctx context.Context, vehicleID string) (*fleetdf.Vehicle, error)
	Resolve(ctx context.Context, otp string) (*fleetdf.Vehicle, error)
	VehicleByOperatorName(ctx context.Context, operatorName string) (*fleetdf.Vehicle, error)
}

// Resolver maps a driver to the vehicle they currently operate. Sources are
// tried in a fixed priority order; a hit from a fallback source is
// materialized as an assignment so the next lookup answers from the first
// step.
type Resolver struct {
	tracker  *tracker.Tracker
	topology ResolverTopology

	assignments   AssignmentStore
	registrations RegistrationStore
}

func NewResolver(trk *tracker.Tracker, topology ResolverTopology, assignments AssignmentStore, registrations RegistrationStore) *Resolver {
	return &Resolver{
		tracker:       trk,
		topology:      topology,
		assignments:   assignments,
		registrations: registrations,
	}
}

type resolveStep struct {
	name string
	find func(ctx context.Context, driverID string) (*fleetdf.Vehicle, error)
}

func (r *Resolver) steps() []resolveStep {
	return []resolveStep{
		{"assignment", r.fromAssignment},
		{"legacy-registration", r.fromRegistration},
		{"operator-name", r.fromOperatorName},
	}
}

// VehicleForDriver walks the source chain. Each step either produces a
// vehicle, produces nothing, or fails the whole resolution.
func (r *Resolver) VehicleForDriver(ctx context.Context, driverID string) (*fleetdf.Vehicle, error) {
	for i, step := range r.steps() {
		vehicle, err := step.find(ctx, driverID)
		if err != nil {
			return nil, err
		}
		if vehicle == nil {
			continue
		}

		if i > 0 {
			r.materialize(ctx, driverID, vehicle, step.name)
		}

		return vehicle, nil
	}

	return nil, fmt.Errorf("%w: no vehicle for driver %s", fleetdf.ErrNotFound, driverID)
}

// CanOperate reports whether the driver resolves to the given vehicle.
func (r *Resolver) CanOperate(ctx context.Context, driverID string, vehicleID string) (bool, error) {
	vehicle, err := r.VehicleForDriver(ctx, driverID)
	if errors.Is(err, fleetdf.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return vehicle.PrimaryIdentifier == vehicleID, nil
}

func (r *Resolver) fromAssignment(ctx context.Context, driverID string) (*fleetdf.Vehicle, error) {
	assignment, err := r.assignments.ActiveForDriver(ctx, driverID)
	if err != nil || assignment == nil {
		return nil, err
	}

	vehicle, err := r.topology.Vehicle(ctx, assignment.VehicleRef)
	if errors.Is(err, fleetdf.ErrNotFound) {
		// Assignment outlived the vehicle record, fall through
		log.Warn().
			Str("driver", driverID).
			Str("vehicle", assignment.VehicleRef).
			Msg("Active assignment points at a missing vehicle")

		return nil, nil
	}

	return vehicle, err
}

func (r *Resolver) fromRegistration(ctx context.Context, driverID string) (*fleetdf.Vehicle, error) {
	registration, err := r.registrations.ForDriver(ctx, driverID)
	if err != nil || registration == nil {
		return nil, err
	}

	vehicle, err := r.topology.Resolve(ctx, registration.OTPCode)
	if errors.Is(err, fleetdf.ErrNotFound) {
		return nil, nil
	}

	return vehicle, err
}

func (r *Resolver) fromOperatorName(ctx context.Context, driverID string) (*fleetdf.Vehicle, error) {
	vehicle, err := r.topology.VehicleByOperatorName(ctx, driverID)
	if errors.Is(err, fleetdf.ErrNotFound) {
		return nil, nil
	}

	return vehicle, err
}

// materialize records a fallback hit as the canonical active assignment,
// under the vehicle's lock so concurrent resolutions cannot race each other
// into two active rows. Failure only costs the shortcut, not the resolution.
func (r *Resolver) materialize(ctx context.Context, driverID string, vehicle *fleetdf.Vehicle, source string) {
	err := r.tracker.WithVehicle(ctx, vehicle.PrimaryIdentifier, func(_ *tracker.VehicleState) error {
		return r.assignments.Activate(ctx, driverID, vehicle.PrimaryIdentifier, time.Now())
	})
	if err != nil {
		log.Error().Err(err).
			Str("driver", driverID).
			Str("vehicle", vehicle.PrimaryIdentifier).
			Str("source", source).
			Msg("Failed to materialize assignment")

		return
	}

	log.Info().
		Str("driver", driverID).
		Str("vehicle", vehicle.PrimaryIdentifier).
		Str("source", source).
		Msg("Materialized driver assignment")
}
