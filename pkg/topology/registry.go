package topology

import (
	"context"
	"errors"
	"fmt"

	"github.com/kbus/kbus/pkg/database"
	"github.com/kbus/kbus/pkg/fleetdf"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Registry reads the master Route/Vehicle records owned by the external
// topology registry. The engine never mutates these documents, other than the
// per-vehicle tracking flags owned by the tracker and trip manager.
type Registry struct{}

func (r Registry) Route(ctx context.Context, routeID string) (*fleetdf.Route, error) {
	routesCollection := database.GetCollection("routes")

	var route *fleetdf.Route
	err := routesCollection.FindOne(ctx, bson.M{"primaryidentifier": routeID}).Decode(&route)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: route %s", fleetdf.ErrNotFound, routeID)
	}
	if err != nil {
		return nil, err
	}

	return route, nil
}

func (r Registry) RouteIdentifiers(ctx context.Context) ([]string, error) {
	routesCollection := database.GetCollection("routes")

	cursor, err := routesCollection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}

	var identifiers []string
	for cursor.Next(ctx) {
		var route fleetdf.Route
		if err := cursor.Decode(&route); err != nil {
			return nil, err
		}

		identifiers = append(identifiers, route.PrimaryIdentifier)
	}

	return identifiers, cursor.Err()
}

func (r Registry) Vehicle(ctx context.Context, vehicleID string) (*fleetdf.Vehicle, error) {
	return r.findVehicle(ctx, bson.M{"primaryidentifier": vehicleID}, vehicleID)
}

func (r Registry) VehicleByOTP(ctx context.Context, otp string) (*fleetdf.Vehicle, error) {
	// A code is only valid while bound to an active vehicle
	return r.findVehicle(ctx, bson.M{"otpcode": otp, "status": fleetdf.VehicleStatusActive}, otp)
}

func (r Registry) VehicleByOperatorName(ctx context.Context, operatorName string) (*fleetdf.Vehicle, error) {
	return r.findVehicle(ctx, bson.M{"operatorname": operatorName}, operatorName)
}

func (r Registry) findVehicle(ctx context.Context, query bson.M, ref string) (*fleetdf.Vehicle, error) {
	vehiclesCollection := database.GetCollection("vehicles")

	var vehicle *fleetdf.Vehicle
	err := vehiclesCollection.FindOne(ctx, query).Decode(&vehicle)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: vehicle %s", fleetdf.ErrNotFound, ref)
	}
	if err != nil {
		return nil, err
	}

	return vehicle, nil
}
