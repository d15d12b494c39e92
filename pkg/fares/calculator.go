package fares

import (
	"context"
	"fmt"
	"math"

	"github.com/kbus/kbus/pkg/fleetdf"
)

type Topology interface {
	Route(ctx context.Context, routeID string) (*fleetdf.Route, error)
}

// Calculator converts a (route, source stop, destination stop) triple into a
// fare. Pure given a topology snapshot.
type Calculator struct {
	topology Topology
	tariff   Tariff
}

func NewCalculator(topology Topology, tariff Tariff) *Calculator {
	return &Calculator{
		topology: topology,
		tariff:   tariff,
	}
}

type Quote struct {
	Fare           float64 `json:"fare" groups:"basic"`
	DistanceMetres float64 `json:"distance_metres" groups:"detailed"`

	Source      fleetdf.Stop `json:"source" groups:"detailed"`
	Destination fleetdf.Stop `json:"destination" groups:"detailed"`
}

// Fare prices travel between two stops on a route. Stop references are
// sequence numbers or stop names.
func (c *Calculator) Fare(ctx context.Context, routeID string, sourceRef string, destinationRef string) (*Quote, error) {
	route, err := c.topology.Route(ctx, routeID)
	if err != nil {
		return nil, err
	}

	source, sourcePosition := route.StopByRef(sourceRef)
	if source == nil {
		return nil, fmt.Errorf("%w: unknown source stop %s", fleetdf.ErrInvalidRequest, sourceRef)
	}

	destination, destinationPosition := route.StopByRef(destinationRef)
	if destination == nil {
		return nil, fmt.Errorf("%w: unknown destination stop %s", fleetdf.ErrInvalidRequest, destinationRef)
	}

	if destinationPosition <= sourcePosition {
		return nil, fmt.Errorf("%w: destination must come after source", fleetdf.ErrInvalidRequest)
	}

	distanceMetres := route.PathDistance(sourcePosition, destinationPosition)

	return &Quote{
		Fare:           c.tariff.FareForDistance(distanceMetres),
		DistanceMetres: distanceMetres,
		Source:         *source,
		Destination:    *destination,
	}, nil
}

// FareForDistance prices a path distance in metres. The base distance itself
// is charged at the base fare; every started kilometre beyond it adds the
// per-kilometre unit.
func (t Tariff) FareForDistance(distanceMetres float64) float64 {
	distanceKM := distanceMetres / 1000

	if distanceKM <= t.BaseDistanceKM {
		return t.BaseFare
	}

	extraUnits := math.Ceil(distanceKM - t.BaseDistanceKM)
	if extraUnits < 0 {
		extraUnits = 0
	}

	return t.BaseFare + extraUnits*t.PerStartedKM
}
