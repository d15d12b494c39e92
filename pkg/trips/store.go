package trips

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kbus/kbus/pkg/database"
	"github.com/kbus/kbus/pkg/fleetdf"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type TripStore interface {
	Open(ctx context.Context, vehicleRef string) (*fleetdf.Trip, error)
	Insert(ctx context.Context, trip *fleetdf.Trip) error
	Close(ctx context.Context, tripID string, end time.Time) error
	ByID(ctx context.Context, tripID string) (*fleetdf.Trip, error)
}

type VehicleFlagStore interface {
	SetTripActive(ctx context.Context, vehicleRef string, active bool, startTime *time.Time) error
}

type AssignmentStore interface {
	ActiveForDriver(ctx context.Context, driverID string) (*fleetdf.Assignment, error)
	ActiveForVehicle(ctx context.Context, vehicleRef string) (*fleetdf.Assignment, error)
	Activate(ctx context.Context, driverID string, vehicleRef string, now time.Time) error
}

type RegistrationStore interface {
	ForDriver(ctx context.Context, driverID string) (*fleetdf.DriverRegistration, error)
}

// TicketSource reads tickets created inside a trip window. Satisfied by the
// tickets package store.
type TicketSource interface {
	InWindow(ctx context.Context, vehicleRef string, start time.Time, end time.Time) ([]fleetdf.Ticket, error)
}

type MongoTripStore struct{}

func NewMongoTripStore() MongoTripStore {
	return MongoTripStore{}
}

func (s MongoTripStore) Open(ctx context.Context, vehicleRef string) (*fleetdf.Trip, error) {
	tripsCollection := database.GetCollection("trips")

	opts := options.FindOne().SetSort(bson.D{{Key: "startdatetime", Value: -1}})

	var trip *fleetdf.Trip
	err := tripsCollection.FindOne(ctx, bson.M{"vehicleref": vehicleRef, "enddatetime": nil}, opts).Decode(&trip)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return trip, nil
}

func (s MongoTripStore) Insert(ctx context.Context, trip *fleetdf.Trip) error {
	tripsCollection := database.GetCollection("trips")

	_, err := tripsCollection.InsertOne(ctx, trip)

	return err
}

func (s MongoTripStore) Close(ctx context.Context, tripID string, end time.Time) error {
	tripsCollection := database.GetCollection("trips")

	_, err := tripsCollection.UpdateOne(
		ctx,
		bson.M{"primaryidentifier": tripID},
		bson.M{"$set": bson.M{"enddatetime": end}},
	)

	return err
}

func (s MongoTripStore) ByID(ctx context.Context, tripID string) (*fleetdf.Trip, error) {
	tripsCollection := database.GetCollection("trips")

	var trip *fleetdf.Trip
	err := tripsCollection.FindOne(ctx, bson.M{"primaryidentifier": tripID}).Decode(&trip)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: trip %s", fleetdf.ErrNotFound, tripID)
	}
	if err != nil {
		return nil, err
	}

	return trip, nil
}

type MongoVehicleFlagStore struct{}

func NewMongoVehicleFlagStore() MongoVehicleFlagStore {
	return MongoVehicleFlagStore{}
}

func (s MongoVehicleFlagStore) SetTripActive(ctx context.Context, vehicleRef string, active bool, startTime *time.Time) error {
	vehiclesCollection := database.GetCollection("vehicles")

	update := bson.M{"tripactive": active}
	if active {
		update["tripstarttime"] = startTime
		update["currentstopsequence"] = nil
	}

	_, err := vehiclesCollection.UpdateOne(
		ctx,
		bson.M{"primaryidentifier": vehicleRef},
		bson.M{"$set": update},
	)

	return err
}

type MongoAssignmentStore struct{}

func NewMongoAssignmentStore() MongoAssignmentStore {
	return MongoAssignmentStore{}
}

func (s MongoAssignmentStore) ActiveForDriver(ctx context.Context, driverID string) (*fleetdf.Assignment, error) {
	return s.findActive(ctx, bson.M{"driveridentifier": driverID, "active": true, "enddatetime": nil})
}

func (s MongoAssignmentStore) ActiveForVehicle(ctx context.Context, vehicleRef string) (*fleetdf.Assignment, error) {
	return s.findActive(ctx, bson.M{"vehicleref": vehicleRef, "active": true, "enddatetime": nil})
}

func (s MongoAssignmentStore) findActive(ctx context.Context, query bson.M) (*fleetdf.Assignment, error) {
	assignmentsCollection := database.GetCollection("assignments")

	opts := options.FindOne().SetSort(bson.D{{Key: "startdatetime", Value: -1}})

	var assignment *fleetdf.Assignment
	err := assignmentsCollection.FindOne(ctx, query, opts).Decode(&assignment)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return assignment, nil
}

// Activate swaps the vehicle onto a new driver: every prior active
// assignment for either party is closed in the same update pass.
func (s MongoAssignmentStore) Activate(ctx context.Context, driverID string, vehicleRef string, now time.Time) error {
	assignmentsCollection := database.GetCollection("assignments")

	deactivate := bson.M{"$set": bson.M{"active": false, "enddatetime": now}}

	_, err := assignmentsCollection.UpdateMany(ctx, bson.M{"vehicleref": vehicleRef, "active": true}, deactivate)
	if err != nil {
		return err
	}

	_, err = assignmentsCollection.UpdateMany(ctx, bson.M{"driveridentifier": driverID, "active": true}, deactivate)
	if err != nil {
		return err
	}

	_, err = assignmentsCollection.InsertOne(ctx, fleetdf.Assignment{
		DriverIdentifier: driverID,
		VehicleRef:       vehicleRef,
		Active:           true,
		StartDateTime:    now,
	})

	return err
}

type MongoRegistrationStore struct{}

func NewMongoRegistrationStore() MongoRegistrationStore {
	return MongoRegistrationStore{}
}

func (s MongoRegistrationStore) ForDriver(ctx context.Context, driverID string) (*fleetdf.DriverRegistration, error) {
	registrationsCollection := database.GetCollection("driver_registrations")

	opts := options.FindOne().SetSort(bson.D{{Key: "creationdatetime", Value: -1}})

	var registration *fleetdf.DriverRegistration
	err := registrationsCollection.FindOne(ctx, bson.M{"driveridentifier": driverID}, opts).Decode(&registration)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return registration, nil
}
