package trips

import (
	"context"
	"fmt"
	"time"

	"github.com/kbus/kbus/pkg/fleetdf"
	"github.com/kbus/kbus/pkg/tracker"
	"github.com/rs/zerolog/log"
)

const summaryTicketLimit = 200
const detailTicketLimit = 500

type Topology interface {
	Vehicle(ctx context.Context, vehicleID string) (*fleetdf.Vehicle, error)
}

// Manager owns the Idle/Active trip lifecycle. Every transition runs under
// the vehicle's tracking lock so it never interleaves with location reports
// for the same vehicle.
type Manager struct {
	tracker  *tracker.Tracker
	topology Topology

	trips    TripStore
	vehicles VehicleFlagStore
	tickets  TicketSource

	metrics *tracker.Metrics
}

func NewManager(trk *tracker.Tracker, topology Topology, trips TripStore, vehicles VehicleFlagStore, tickets TicketSource, metrics *tracker.Metrics) *Manager {
	return &Manager{
		tracker:  trk,
		topology: topology,
		trips:    trips,
		vehicles: vehicles,
		tickets:  tickets,
		metrics:  metrics,
	}
}

// Start opens a new trip for the vehicle. A trip left open by a crashed or
// disconnected client is closed first with its end pinned to the new start,
// so starting is always possible and at most one trip per vehicle is ever
// open.
func (m *Manager) Start(ctx context.Context, vehicleID string) (*fleetdf.Trip, error) {
	var trip *fleetdf.Trip

	err := m.tracker.WithVehicle(ctx, vehicleID, func(state *tracker.VehicleState) error {
		now := time.Now()

		orphan, err := m.trips.Open(ctx, vehicleID)
		if err != nil {
			return err
		}

		if orphan != nil {
			log.Warn().
				Str("vehicle", vehicleID).
				Str("trip", orphan.PrimaryIdentifier).
				Time("started", orphan.StartDateTime).
				Msg("Closing orphaned trip")

			if err := m.trips.Close(ctx, orphan.PrimaryIdentifier, now); err != nil {
				return err
			}
		}

		trip = &fleetdf.Trip{
			PrimaryIdentifier: fmt.Sprintf(fleetdf.TripIDFormat, vehicleID, now.UnixNano()),
			VehicleRef:        vehicleID,
			StartDateTime:     now,
		}

		if err := m.trips.Insert(ctx, trip); err != nil {
			return err
		}

		if err := m.vehicles.SetTripActive(ctx, vehicleID, true, &now); err != nil {
			return err
		}

		if m.metrics != nil && !state.TripActive {
			m.metrics.ActiveTrips.Inc()
		}

		// Progress restarts from scratch on every trip
		state.TripActive = true
		state.CurrentStopSequence = nil
		state.HasLocation = false
		state.Speed = 0
		state.RecordedAt = time.Time{}

		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("vehicle", vehicleID).Str("trip", trip.PrimaryIdentifier).Msg("Trip started")

	return trip, nil
}

// End closes the vehicle's open trip. Ending an already idle vehicle is a
// no-op success. A vehicle flagged active without a trip record gets one
// materialized so billing history survives the inconsistency.
func (m *Manager) End(ctx context.Context, vehicleID string) (*fleetdf.Trip, error) {
	var trip *fleetdf.Trip

	err := m.tracker.WithVehicle(ctx, vehicleID, func(state *tracker.VehicleState) error {
		now := time.Now()

		open, err := m.trips.Open(ctx, vehicleID)
		if err != nil {
			return err
		}

		switch {
		case open != nil:
			if err := m.trips.Close(ctx, open.PrimaryIdentifier, now); err != nil {
				return err
			}

			open.EndDateTime = &now
			trip = open
		case state.TripActive:
			healed, err := m.materializeTrip(ctx, vehicleID, now)
			if err != nil {
				return err
			}

			trip = healed
		}

		if err := m.vehicles.SetTripActive(ctx, vehicleID, false, nil); err != nil {
			return err
		}

		if m.metrics != nil && state.TripActive {
			m.metrics.ActiveTrips.Dec()
		}

		state.TripActive = false

		return nil
	})
	if err != nil {
		return nil, err
	}

	if trip != nil {
		log.Info().Str("vehicle", vehicleID).Str("trip", trip.PrimaryIdentifier).Msg("Trip ended")
	}

	return trip, nil
}

// materializeTrip backfills a closed trip row for a vehicle whose active flag
// was set without one, recovering the start time from the vehicle record when
// it has one.
func (m *Manager) materializeTrip(ctx context.Context, vehicleID string, now time.Time) (*fleetdf.Trip, error) {
	start := now

	vehicle, err := m.topology.Vehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if vehicle.TripStartTime != nil {
		start = *vehicle.TripStartTime
	}

	trip := &fleetdf.Trip{
		PrimaryIdentifier: fmt.Sprintf(fleetdf.TripIDFormat, vehicleID, start.UnixNano()),
		VehicleRef:        vehicleID,
		StartDateTime:     start,
		EndDateTime:       &now,
	}

	log.Warn().
		Str("vehicle", vehicleID).
		Str("trip", trip.PrimaryIdentifier).
		Msg("Materialized trip record for flag-only trip")

	return trip, m.trips.Insert(ctx, trip)
}

type Summary struct {
	TripActive bool          `json:"trip_active" groups:"basic"`
	Trip       *fleetdf.Trip `json:"trip" groups:"basic"`

	TicketCount int     `json:"ticket_count" groups:"basic"`
	TotalFare   float64 `json:"total_fare" groups:"basic"`

	Tickets []fleetdf.Ticket `json:"tickets" groups:"detailed"`
}

// Summary reports the vehicle's current trip with the tickets booked so far.
// It never changes trip state.
func (m *Manager) Summary(ctx context.Context, vehicleID string) (*Summary, error) {
	state, err := m.tracker.Snapshot(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	open, err := m.trips.Open(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	if open == nil {
		return &Summary{TripActive: state.TripActive}, nil
	}

	summary := &Summary{
		TripActive: true,
		Trip:       open,
	}

	start, end := open.Window(time.Now())

	tickets, err := m.tickets.InWindow(ctx, vehicleID, start, end)
	if err != nil {
		return nil, err
	}

	summary.TicketCount = len(tickets)
	for _, ticket := range tickets {
		summary.TotalFare += ticket.Fare
	}

	if len(tickets) > summaryTicketLimit {
		tickets = tickets[:summaryTicketLimit]
	}
	summary.Tickets = tickets

	return summary, nil
}

type Detail struct {
	Trip *fleetdf.Trip `json:"trip" groups:"basic"`

	TicketCount int     `json:"ticket_count" groups:"basic"`
	TotalFare   float64 `json:"total_fare" groups:"basic"`

	Tickets []fleetdf.Ticket `json:"tickets" groups:"detailed"`
}

// Detail looks up a historical trip by identifier with its billing window.
func (m *Manager) Detail(ctx context.Context, tripID string) (*Detail, error) {
	trip, err := m.trips.ByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	start, end := trip.Window(time.Now())

	tickets, err := m.tickets.InWindow(ctx, trip.VehicleRef, start, end)
	if err != nil {
		return nil, err
	}

	detail := &Detail{
		Trip:        trip,
		TicketCount: len(tickets),
	}

	for _, ticket := range tickets {
		detail.TotalFare += ticket.Fare
	}

	if len(tickets) > detailTicketLimit {
		tickets = tickets[:detailTicketLimit]
	}
	detail.Tickets = tickets

	return detail, nil
}
