package tickets

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

type Store interface {
	Insert(ctx context.Context, ticket *fleetdf.Ticket) error
	ByID(ctx context.Context, ticketID string) (*fleetdf.Ticket, error)
	ForUser(ctx context.Context, userID string) ([]fleetdf.Ticket, error)
	InWindow(ctx context.Context, vehicleRef string, start time.Time, end time.Time) ([]fleetdf.Ticket, error)
}

type MongoStore struct{}

func NewMongoStore() MongoStore {
	return MongoStore{}
}

func (s MongoStore) Insert(ctx context.Context, ticket *fleetdf.Ticket) error {
	ticketsCollection := database.GetCollection("tickets")

	_, err := ticketsCollection.InsertOne(ctx, ticket)

	return err
}

func (s MongoStore) ByID(ctx context.Context, ticketID string) (*fleetdf.Ticket, error) {
	ticketsCollection := database.GetCollection("tickets")

	var ticket *fleetdf.Ticket
	err := ticketsCollection.FindOne(ctx, bson.M{"primaryidentifier": ticketID}).Decode(&ticket)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: ticket %s", fleetdf.ErrNotFound, ticketID)
	}
	if err != nil {
		return nil, err
	}

	return ticket, nil
}

func (s MongoStore) ForUser(ctx context.Context, userID string) ([]fleetdf.Ticket, error) {
	return s.find(ctx, bson.M{"useridentifier": userID})
}

// InWindow returns the tickets booked on a vehicle inside [start, end),
// newest first. This is the trip billing query.
func (s MongoStore) InWindow(ctx context.Context, vehicleRef string, start time.Time, end time.Time) ([]fleetdf.Ticket, error) {
	return s.find(ctx, bson.M{
		"vehicleref": vehicleRef,
		"creationdatetime": bson.M{
			"$gte": start,
			"$lt":  end,
		},
	})
}

func (s MongoStore) find(ctx context.Context, query bson.M) ([]fleetdf.Ticket, error) {
	ticketsCollection := database.GetCollection("tickets")

	opts := options.Find().SetSort(bson.D{{Key: "creationdatetime", Value: -1}})

	cursor, err := ticketsCollection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}

	var tickets []fleetdf.Ticket
	if err := cursor.All(ctx, &tickets); err != nil {
		return nil, err
	}

	return tickets, nil
}
