package tracker

import (
	"context"
	"errors"

	"github.com/kbus/kbus/pkg/database"
	"github.com/kbus/kbus/pkg/fleetdf"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type LocationStore interface {
	UpsertLocation(ctx context.Context, location fleetdf.LiveLocation) error
	Location(ctx context.Context, vehicleRef string) (*fleetdf.LiveLocation, error)
	SetCurrentStop(ctx context.Context, vehicleRef string, sequence *int) error
}

type MongoLocationStore struct{}

func NewMongoLocationStore() MongoLocationStore {
	return MongoLocationStore{}
}

func (s MongoLocationStore) UpsertLocation(ctx context.Context, location fleetdf.LiveLocation) error {
	liveLocationsCollection := database.GetCollection("live_locations")

	_, err := liveLocationsCollection.ReplaceOne(
		ctx,
		bson.M{"vehicleref": location.VehicleRef},
		location,
		options.Replace().SetUpsert(true),
	)

	return err
}

func (s MongoLocationStore) Location(ctx context.Context, vehicleRef string) (*fleetdf.LiveLocation, error) {
	liveLocationsCollection := database.GetCollection("live_locations")

	var location *fleetdf.LiveLocation
	err := liveLocationsCollection.FindOne(ctx, bson.M{"vehicleref": vehicleRef}).Decode(&location)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return location, nil
}

func (s MongoLocationStore) SetCurrentStop(ctx context.Context, vehicleRef string, sequence *int) error {
	vehiclesCollection := database.GetCollection("vehicles")

	_, err := vehiclesCollection.UpdateOne(
		ctx,
		bson.M{"primaryidentifier": vehicleRef},
		bson.M{"$set": bson.M{"currentstopsequence": sequence}},
	)

	return err
}
