package database

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func createIndexes() {
	createTopologyIndexes()
	createTrackingIndexes()
	createBillingIndexes()
}

func createTopologyIndexes() {
	routesCollection := GetCollection("routes")
	routesIndex := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "primaryidentifier", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	opts := options.CreateIndexes()
	_, err := routesCollection.Indexes().CreateMany(context.Background(), routesIndex, opts)
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}

	vehiclesCollection := GetCollection("vehicles")
	vehiclesIndex := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "primaryidentifier", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "otpcode", Value: 1},
				{Key: "status", Value: 1},
			},
		},
		{
			Keys: bson.D{{Key: "operatorname", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "routeref", Value: 1}},
		},
	}

	opts = options.CreateIndexes()
	_, err = vehiclesCollection.Indexes().CreateMany(context.Background(), vehiclesIndex, opts)
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}
}

func createTrackingIndexes() {
	// One overwritten row per vehicle
	liveLocationsCollection := GetCollection("live_locations")
	_, err := liveLocationsCollection.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "vehicleref", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}, options.CreateIndexes())
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}

	tripsCollection := GetCollection("trips")
	_, err = tripsCollection.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "primaryidentifier", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "vehicleref", Value: 1},
				{Key: "enddatetime", Value: 1},
			},
		},
		{
			Keys: bson.D{
				{Key: "vehicleref", Value: 1},
				{Key: "startdatetime", Value: -1},
			},
		},
	}, options.CreateIndexes())
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}

	assignmentsCollection := GetCollection("assignments")
	_, err = assignmentsCollection.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "vehicleref", Value: 1},
				{Key: "active", Value: 1},
			},
		},
		{
			Keys: bson.D{
				{Key: "driveridentifier", Value: 1},
				{Key: "active", Value: 1},
			},
		},
	}, options.CreateIndexes())
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}

	driverRegistrationsCollection := GetCollection("driver_registrations")
	_, err = driverRegistrationsCollection.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "driveridentifier", Value: 1}},
		},
	}, options.CreateIndexes())
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}
}

func createBillingIndexes() {
	ticketsCollection := GetCollection("tickets")
	_, err := ticketsCollection.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "primaryidentifier", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "useridentifier", Value: 1},
				{Key: "creationdatetime", Value: -1},
			},
		},
		{
			Keys: bson.D{
				{Key: "vehicleref", Value: 1},
				{Key: "creationdatetime", Value: -1},
			},
		},
	}, options.CreateIndexes())
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}
}
