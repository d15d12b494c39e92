package trips

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/kbus/kbus/pkg/fleetdf"
	"github.com/kbus/kbus/pkg/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTopology struct {
	vehicles map[string]*fleetdf.Vehicle
	routes   map[string]*fleetdf.Route
}

func (f *fakeTopology) Vehicle(ctx context.Context, vehicleID string) (*fleetdf.Vehicle, error) {
	vehicle, ok := f.vehicles[vehicleID]
	if !ok {
		return nil, fmt.Errorf("%w: vehicle %s", fleetdf.ErrNotFound, vehicleID)
	}

	copied := *vehicle
	return &copied, nil
}

func (f *fakeTopology) Route(ctx context.Context, routeID string) (*fleetdf.Route, error) {
	route, ok := f.routes[routeID]
	if !ok {
		return nil, fmt.Errorf("%w: route %s", fleetdf.ErrNotFound, routeID)
	}

	return route, nil
}

func (f *fakeTopology) Resolve(ctx context.Context, otp string) (*fleetdf.Vehicle, error) {
	for _, vehicle := range f.vehicles {
		if vehicle.OTPCode == otp && vehicle.Status == fleetdf.VehicleStatusActive {
			copied := *vehicle
			return &copied, nil
		}
	}

	return nil, fmt.Errorf("%w: vehicle %s", fleetdf.ErrNotFound, otp)
}

func (f *fakeTopology) VehicleByOperatorName(ctx context.Context, operatorName string) (*fleetdf.Vehicle, error) {
	for _, vehicle := range f.vehicles {
		if vehicle.OperatorName == operatorName {
			copied := *vehicle
			return &copied, nil
		}
	}

	return nil, fmt.Errorf("%w: vehicle %s", fleetdf.ErrNotFound, operatorName)
}

type memoryLocationStore struct{}

func (s memoryLocationStore) UpsertLocation(ctx context.Context, location fleetdf.LiveLocation) error {
	return nil
}

func (s memoryLocationStore) Location(ctx context.Context, vehicleRef string) (*fleetdf.LiveLocation, error) {
	return nil, nil
}

func (s memoryLocationStore) SetCurrentStop(ctx context.Context, vehicleRef string, sequence *int) error {
	return nil
}

type memoryTripStore struct {
	trips []*fleetdf.Trip
}

func (s *memoryTripStore) Open(ctx context.Context, vehicleRef string) (*fleetdf.Trip, error) {
	for _, trip := range s.trips {
		if trip.VehicleRef == vehicleRef && trip.EndDateTime == nil {
			return trip, nil
		}
	}

	return nil, nil
}

func (s *memoryTripStore) Insert(ctx context.Context, trip *fleetdf.Trip) error {
	copied := *trip
	s.trips = append(s.trips, &copied)
	return nil
}

func (s *memoryTripStore) Close(ctx context.Context, tripID string, end time.Time) error {
	for _, trip := range s.trips {
		if trip.PrimaryIdentifier == tripID {
			trip.EndDateTime = &end
		}
	}

	return nil
}

func (s *memoryTripStore) ByID(ctx context.Context, tripID string) (*fleetdf.Trip, error) {
	for _, trip := range s.trips {
		if trip.PrimaryIdentifier == tripID {
			return trip, nil
		}
	}

	return nil, fmt.Errorf("%w: trip %s", fleetdf.ErrNotFound, tripID)
}

func (s *memoryTripStore) openCount(vehicleRef string) int {
	count := 0
	for _, trip := range s.trips {
		if trip.VehicleRef == vehicleRef && trip.EndDateTime == nil {
			count++
		}
	}

	return count
}

type memoryFlagStore struct {
	active map[string]bool
}

func (s *memoryFlagStore) SetTripActive(ctx context.Context, vehicleRef string, active bool, startTime *time.Time) error {
	if s.active == nil {
		s.active = map[string]bool{}
	}
	s.active[vehicleRef] = active

	return nil
}

type memoryTicketSource struct {
	tickets []fleetdf.Ticket
}

func (s *memoryTicketSource) InWindow(ctx context.Context, vehicleRef string, start time.Time, end time.Time) ([]fleetdf.Ticket, error) {
	var matched []fleetdf.Ticket
	for _, ticket := range s.tickets {
		created := ticket.CreationDateTime
		if ticket.VehicleRef == vehicleRef && !created.Before(start) && created.Before(end) {
			matched = append(matched, ticket)
		}
	}

	return matched, nil
}

func testTopology(tripActive bool, tripStartTime *time.Time) *fakeTopology {
	return &fakeTopology{
		vehicles: map[string]*fleetdf.Vehicle{
			"kbus-vehicle-1": {
				PrimaryIdentifier: "kbus-vehicle-1",
				RouteRef:          "kbus-route-1",
				OperatorName:      "asha",
				OTPCode:           "AB12C",
				Status:            fleetdf.VehicleStatusActive,
				TripActive:        tripActive,
				TripStartTime:     tripStartTime,
			},
		},
		routes: map[string]*fleetdf.Route{
			"kbus-route-1": {PrimaryIdentifier: "kbus-route-1"},
		},
	}
}

func newTestManager(topology *fakeTopology) (*Manager, *memoryTripStore, *memoryFlagStore, *memoryTicketSource) {
	trk := tracker.New(topology, memoryLocationStore{}, nil)

	tripStore := &memoryTripStore{}
	flagStore := &memoryFlagStore{}
	ticketSource := &memoryTicketSource{}

	manager := NewManager(trk, topology, tripStore, flagStore, ticketSource, nil)

	return manager, tripStore, flagStore, ticketSource
}

func TestStartTrip(t *testing.T) {
	manager, tripStore, flagStore, _ := newTestManager(testTopology(false, nil))
	ctx := context.Background()

	trip, err := manager.Start(ctx, "kbus-vehicle-1")
	require.NoError(t, err)

	assert.Equal(t, "kbus-vehicle-1", trip.VehicleRef)
	assert.Nil(t, trip.EndDateTime)
	assert.Equal(t, 1, tripStore.openCount("kbus-vehicle-1"))
	assert.True(t, flagStore.active["kbus-vehicle-1"])
}

// Progress restarts from scratch on every trip: leftover state from the
// previous trip must not seed the new one.
func TestStartResetsTrackingState(t *testing.T) {
	topology := testTopology(false, nil)
	trk := tracker.New(topology, memoryLocationStore{}, nil)
	manager := NewManager(trk, topology, &memoryTripStore{}, &memoryFlagStore{}, &memoryTicketSource{}, nil)
	ctx := context.Background()

	// Residue from an earlier trip
	sequence := 3
	require.NoError(t, trk.WithVehicle(ctx, "kbus-vehicle-1", func(state *tracker.VehicleState) error {
		state.CurrentStopSequence = &sequence
		state.HasLocation = true
		state.Speed = 7

		return nil
	}))

	_, err := manager.Start(ctx, "kbus-vehicle-1")
	require.NoError(t, err)

	state, err := trk.Snapshot(ctx, "kbus-vehicle-1")
	require.NoError(t, err)

	assert.True(t, state.TripActive)
	assert.Nil(t, state.CurrentStopSequence)
	assert.False(t, state.HasLocation)
	assert.Equal(t, 0.0, state.Speed)
}

func TestStartClosesOrphanedTrip(t *testing.T) {
	manager, tripStore, _, _ := newTestManager(testTopology(false, nil))
	ctx := context.Background()

	first, err := manager.Start(ctx, "kbus-vehicle-1")
	require.NoError(t, err)

	// Client never ended the first trip
	second, err := manager.Start(ctx, "kbus-vehicle-1")
	require.NoError(t, err)

	assert.Equal(t, 1, tripStore.openCount("kbus-vehicle-1"), "at most one open trip per vehicle")

	orphan, err := tripStore.ByID(ctx, first.PrimaryIdentifier)
	require.NoError(t, err)
	require.NotNil(t, orphan.EndDateTime)
	assert.Equal(t, second.StartDateTime, *orphan.EndDateTime, "orphan end pins to the new trip start")
}

func TestEndTrip(t *testing.T) {
	manager, tripStore, flagStore, _ := newTestManager(testTopology(false, nil))
	ctx := context.Background()

	started, err := manager.Start(ctx, "kbus-vehicle-1")
	require.NoError(t, err)

	ended, err := manager.End(ctx, "kbus-vehicle-1")
	require.NoError(t, err)

	require.NotNil(t, ended)
	assert.Equal(t, started.PrimaryIdentifier, ended.PrimaryIdentifier)
	assert.NotNil(t, ended.EndDateTime)
	assert.Equal(t, 0, tripStore.openCount("kbus-vehicle-1"))
	assert.False(t, flagStore.active["kbus-vehicle-1"])
}

func TestEndWhileIdleIsNoOp(t *testing.T) {
	manager, _, _, _ := newTestManager(testTopology(false, nil))

	trip, err := manager.End(context.Background(), "kbus-vehicle-1")

	require.NoError(t, err)
	assert.Nil(t, trip)
}

func TestEndMaterializesFlagOnlyTrip(t *testing.T) {
	flagStart := time.Now().Add(-45 * time.Minute).Truncate(time.Second)
	manager, tripStore, flagStore, _ := newTestManager(testTopology(true, &flagStart))
	ctx := context.Background()

	trip, err := manager.End(ctx, "kbus-vehicle-1")
	require.NoError(t, err)

	require.NotNil(t, trip)
	assert.Equal(t, flagStart, trip.StartDateTime)
	assert.NotNil(t, trip.EndDateTime)

	stored, err := tripStore.ByID(ctx, trip.PrimaryIdentifier)
	require.NoError(t, err)
	assert.NotNil(t, stored.EndDateTime)
	assert.False(t, flagStore.active["kbus-vehicle-1"])
}

func TestSummary(t *testing.T) {
	manager, _, _, ticketSource := newTestManager(testTopology(false, nil))
	ctx := context.Background()

	trip, err := manager.Start(ctx, "kbus-vehicle-1")
	require.NoError(t, err)

	ticketSource.tickets = []fleetdf.Ticket{
		{VehicleRef: "kbus-vehicle-1", Fare: 10, CreationDateTime: trip.StartDateTime.Add(time.Minute)},
		{VehicleRef: "kbus-vehicle-1", Fare: 12, CreationDateTime: trip.StartDateTime.Add(2 * time.Minute)},
		// Booked before the trip, must not count
		{VehicleRef: "kbus-vehicle-1", Fare: 99, CreationDateTime: trip.StartDateTime.Add(-time.Hour)},
	}

	summary, err := manager.Summary(ctx, "kbus-vehicle-1")
	require.NoError(t, err)

	assert.True(t, summary.TripActive)
	require.NotNil(t, summary.Trip)
	assert.Equal(t, trip.PrimaryIdentifier, summary.Trip.PrimaryIdentifier)
	assert.Equal(t, 2, summary.TicketCount)
	assert.Equal(t, 22.0, summary.TotalFare)
}

func TestSummaryIdleVehicle(t *testing.T) {
	manager, _, _, _ := newTestManager(testTopology(false, nil))

	summary, err := manager.Summary(context.Background(), "kbus-vehicle-1")
	require.NoError(t, err)

	assert.False(t, summary.TripActive)
	assert.Nil(t, summary.Trip)
	assert.Zero(t, summary.TicketCount)
}

func TestDetail(t *testing.T) {
	manager, _, _, ticketSource := newTestManager(testTopology(false, nil))
	ctx := context.Background()

	trip, err := manager.Start(ctx, "kbus-vehicle-1")
	require.NoError(t, err)

	ticketSource.tickets = []fleetdf.Ticket{
		{VehicleRef: "kbus-vehicle-1", Fare: 11, CreationDateTime: trip.StartDateTime},
	}

	_, err = manager.End(ctx, "kbus-vehicle-1")
	require.NoError(t, err)

	detail, err := manager.Detail(ctx, trip.PrimaryIdentifier)
	require.NoError(t, err)

	assert.Equal(t, 1, detail.TicketCount)
	assert.Equal(t, 11.0, detail.TotalFare)
	require.NotNil(t, detail.Trip.EndDateTime)
}

func TestDetailUnknownTrip(t *testing.T) {
	manager, _, _, _ := newTestManager(testTopology(false, nil))

	_, err := manager.Detail(context.Background(), "kbus-trip-none")

	assert.ErrorIs(t, err, fleetdf.ErrNotFound)
}
