package trips

import (
	"context"
	"testing"
	"time"

	"github.com/kbus/kbus/pkg/fleetdf"
	"github.com/kbus/kbus/pkg/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryAssignmentStore struct {
	assignments []fleetdf.Assignment
}

func (s *memoryAssignmentStore) ActiveForDriver(ctx context.Context, driverID string) (*fleetdf.Assignment, error) {
	for i := range s.assignments {
		assignment := &s.assignments[i]
		if assignment.DriverIdentifier == driverID && assignment.Active {
			return assignment, nil
		}
	}

	return nil, nil
}

func (s *memoryAssignmentStore) ActiveForVehicle(ctx context.Context, vehicleRef string) (*fleetdf.Assignment, error) {
	for i := range s.assignments {
		assignment := &s.assignments[i]
		if assignment.VehicleRef == vehicleRef && assignment.Active {
			return assignment, nil
		}
	}

	return nil, nil
}

func (s *memoryAssignmentStore) Activate(ctx context.Context, driverID string, vehicleRef string, now time.Time) error {
	for i := range s.assignments {
		assignment := &s.assignments[i]
		if assignment.Active && (assignment.DriverIdentifier == driverID || assignment.VehicleRef == vehicleRef) {
			assignment.Active = false
			assignment.EndDateTime = &now
		}
	}

	s.assignments = append(s.assignments, fleetdf.Assignment{
		DriverIdentifier: driverID,
		VehicleRef:       vehicleRef,
		Active:           true,
		StartDateTime:    now,
	})

	return nil
}

func (s *memoryAssignmentStore) activeCount() int {
	count := 0
	for _, assignment := range s.assignments {
		if assignment.Active {
			count++
		}
	}

	return count
}

type memoryRegistrationStore struct {
	registrations map[string]*fleetdf.DriverRegistration
}

func (s *memoryRegistrationStore) ForDriver(ctx context.Context, driverID string) (*fleetdf.DriverRegistration, error) {
	return s.registrations[driverID], nil
}

func newTestResolver(topology *fakeTopology) (*Resolver, *memoryAssignmentStore, *memoryRegistrationStore) {
	trk := tracker.New(topology, memoryLocationStore{}, nil)

	assignments := &memoryAssignmentStore{}
	registrations := &memoryRegistrationStore{registrations: map[string]*fleetdf.DriverRegistration{}}

	return NewResolver(trk, topology, assignments, registrations), assignments, registrations
}

func TestResolveFromAssignment(t *testing.T) {
	resolver, assignments, _ := newTestResolver(testTopology(false, nil))

	assignments.assignments = []fleetdf.Assignment{
		{DriverIdentifier: "driver-1", VehicleRef: "kbus-vehicle-1", Active: true, StartDateTime: time.Now()},
	}

	vehicle, err := resolver.VehicleForDriver(context.Background(), "driver-1")
	require.NoError(t, err)

	assert.Equal(t, "kbus-vehicle-1", vehicle.PrimaryIdentifier)
	assert.Equal(t, 1, assignments.activeCount(), "a first-step hit must not rewrite assignments")
}

func TestResolveFallsBackToRegistration(t *testing.T) {
	resolver, assignments, registrations := newTestResolver(testTopology(false, nil))

	registrations.registrations["driver-1"] = &fleetdf.DriverRegistration{
		DriverIdentifier: "driver-1",
		OTPCode:          "AB12C",
	}

	vehicle, err := resolver.VehicleForDriver(context.Background(), "driver-1")
	require.NoError(t, err)
	assert.Equal(t, "kbus-vehicle-1", vehicle.PrimaryIdentifier)

	// The fallback hit is now the canonical assignment
	materialized, err := assignments.ActiveForDriver(context.Background(), "driver-1")
	require.NoError(t, err)
	require.NotNil(t, materialized)
	assert.Equal(t, "kbus-vehicle-1", materialized.VehicleRef)
}

func TestResolveFallsBackToOperatorName(t *testing.T) {
	resolver, assignments, _ := newTestResolver(testTopology(false, nil))

	vehicle, err := resolver.VehicleForDriver(context.Background(), "asha")
	require.NoError(t, err)
	assert.Equal(t, "kbus-vehicle-1", vehicle.PrimaryIdentifier)

	materialized, err := assignments.ActiveForDriver(context.Background(), "asha")
	require.NoError(t, err)
	require.NotNil(t, materialized)
}

func TestResolvePrefersAssignmentOverFallbacks(t *testing.T) {
	topology := testTopology(false, nil)
	topology.vehicles["kbus-vehicle-2"] = &fleetdf.Vehicle{
		PrimaryIdentifier: "kbus-vehicle-2",
		RouteRef:          "kbus-route-1",
		Status:            fleetdf.VehicleStatusActive,
		OTPCode:           "ZZ99Z",
	}

	resolver, assignments, registrations := newTestResolver(topology)

	assignments.assignments = []fleetdf.Assignment{
		{DriverIdentifier: "driver-1", VehicleRef: "kbus-vehicle-2", Active: true, StartDateTime: time.Now()},
	}
	registrations.registrations["driver-1"] = &fleetdf.DriverRegistration{
		DriverIdentifier: "driver-1",
		OTPCode:          "AB12C",
	}

	vehicle, err := resolver.VehicleForDriver(context.Background(), "driver-1")
	require.NoError(t, err)

	assert.Equal(t, "kbus-vehicle-2", vehicle.PrimaryIdentifier)
}

func TestResolveSkipsStaleAssignment(t *testing.T) {
	resolver, assignments, registrations := newTestResolver(testTopology(false, nil))

	assignments.assignments = []fleetdf.Assignment{
		{DriverIdentifier: "driver-1", VehicleRef: "kbus-vehicle-gone", Active: true, StartDateTime: time.Now()},
	}
	registrations.registrations["driver-1"] = &fleetdf.DriverRegistration{
		DriverIdentifier: "driver-1",
		OTPCode:          "AB12C",
	}

	vehicle, err := resolver.VehicleForDriver(context.Background(), "driver-1")
	require.NoError(t, err)

	assert.Equal(t, "kbus-vehicle-1", vehicle.PrimaryIdentifier)
}

func TestResolveNotFound(t *testing.T) {
	resolver, _, _ := newTestResolver(testTopology(false, nil))

	_, err := resolver.VehicleForDriver(context.Background(), "driver-unknown")

	assert.ErrorIs(t, err, fleetdf.ErrNotFound)
}

func TestMaterializationKeepsOneActiveAssignment(t *testing.T) {
	resolver, assignments, registrations := newTestResolver(testTopology(false, nil))

	// Stale registration-era assignment for the same vehicle under another
	// driver
	assignments.assignments = []fleetdf.Assignment{
		{DriverIdentifier: "driver-old", VehicleRef: "kbus-vehicle-1", Active: true, StartDateTime: time.Now().Add(-time.Hour)},
	}
	registrations.registrations["driver-1"] = &fleetdf.DriverRegistration{
		DriverIdentifier: "driver-1",
		OTPCode:          "AB12C",
	}

	_, err := resolver.VehicleForDriver(context.Background(), "driver-1")
	require.NoError(t, err)

	assert.Equal(t, 1, assignments.activeCount())

	current, err := assignments.ActiveForVehicle(context.Background(), "kbus-vehicle-1")
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "driver-1", current.DriverIdentifier)
}

func TestCanOperate(t *testing.T) {
	resolver, assignments, _ := newTestResolver(testTopology(false, nil))

	assignments.assignments = []fleetdf.Assignment{
		{DriverIdentifier: "driver-1", VehicleRef: "kbus-vehicle-1", Active: true, StartDateTime: time.Now()},
	}

	allowed, err := resolver.CanOperate(context.Background(), "driver-1", "kbus-vehicle-1")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = resolver.CanOperate(context.Background(), "driver-1", "kbus-vehicle-2")
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, err = resolver.CanOperate(context.Background(), "driver-unknown", "kbus-vehicle-1")
	require.NoError(t, err)
	assert.False(t, allowed)
}
