package tickets

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/kbus/kbus/pkg/fares"
	"github.com/kbus/kbus/pkg/fleetdf"
	"github.com/rs/zerolog/log"
	"github.com/senseyeio/duration"
)

const defaultTicketValidity = "PT30M"

type Topology interface {
	Resolve(ctx context.Context, otp string) (*fleetdf.Vehicle, error)
}

type FareQuoter interface {
	Fare(ctx context.Context, routeID string, sourceRef string, destinationRef string) (*fares.Quote, error)
}

// Booker issues tickets against the vehicle a one-time code currently
// resolves to. The fare is priced at booking time and never recomputed.
type Booker struct {
	topology Topology
	fares    FareQuoter
	store    Store

	validity duration.Duration
}

func NewBooker(topology Topology, quoter FareQuoter, store Store) *Booker {
	return &Booker{
		topology: topology,
		fares:    quoter,
		store:    store,
		validity: ticketValidity(),
	}
}

func ticketValidity() duration.Duration {
	value := os.Getenv("KBUS_TICKET_VALIDITY")
	if value == "" {
		value = defaultTicketValidity
	}

	validity, err := duration.ParseISO8601(value)
	if err != nil {
		log.Error().Err(err).Str("value", value).Msg("Invalid ticket validity, using default")

		validity, _ = duration.ParseISO8601(defaultTicketValidity)
	}

	return validity
}

// Book issues a ticket for travel between two stops on the vehicle the code
// resolves to. Stop references are sequence numbers or stop names.
func (b *Booker) Book(ctx context.Context, userID string, otp string, sourceRef string, destinationRef string) (*fleetdf.Ticket, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user identifier is required", fleetdf.ErrInvalidRequest)
	}

	vehicle, err := b.topology.Resolve(ctx, otp)
	if err != nil {
		return nil, err
	}

	quote, err := b.fares.Fare(ctx, vehicle.RouteRef, sourceRef, destinationRef)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	ticket := &fleetdf.Ticket{
		PrimaryIdentifier: fmt.Sprintf(fleetdf.TicketIDFormat, vehicle.PrimaryIdentifier, now.UnixNano()),

		UserIdentifier: userID,
		VehicleRef:     vehicle.PrimaryIdentifier,
		RouteRef:       vehicle.RouteRef,

		SourceStop:          quote.Source.Name,
		SourceSequence:      quote.Source.Sequence,
		DestinationStop:     quote.Destination.Name,
		DestinationSequence: quote.Destination.Sequence,

		Fare: quote.Fare,

		CreationDateTime: now,
		ExpiryDateTime:   b.validity.Shift(now),
	}

	if err := b.store.Insert(ctx, ticket); err != nil {
		return nil, err
	}

	log.Info().
		Str("ticket", ticket.PrimaryIdentifier).
		Str("vehicle", vehicle.PrimaryIdentifier).
		Float64("fare", ticket.Fare).
		Msg("Ticket booked")

	return ticket, nil
}
