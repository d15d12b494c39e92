package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/adjust/rmq/v5"
	"github.com/kbus/kbus/pkg/fleetdf"
	"github.com/kbus/kbus/pkg/redis_client"
	"github.com/rs/zerolog/log"
)

const locationQueueName = "location-events"

const numConsumers = 5
const batchSize = 200

func StartConsumers(tracker *Tracker) {
	log.Info().Msg("Starting telemetry consumers")

	queue, err := redis_client.QueueConnection.OpenQueue(locationQueueName)
	if err != nil {
		panic(err)
	}
	if err := queue.StartConsuming(numConsumers*batchSize, 1*time.Second); err != nil {
		panic(err)
	}

	for i := 0; i < numConsumers; i++ {
		go startTelemetryConsumer(queue, i, tracker)
	}
}

func startTelemetryConsumer(queue rmq.Queue, id int, tracker *Tracker) {
	log.Info().Msgf("Starting telemetry consumer %d", id)

	if _, err := queue.AddBatchConsumer(fmt.Sprintf("location-events-%d", id), batchSize, 2*time.Second, NewBatchConsumer(id, tracker)); err != nil {
		panic(err)
	}
}

type BatchConsumer struct {
	id      int
	tracker *Tracker
}

func NewBatchConsumer(id int, tracker *Tracker) *BatchConsumer {
	return &BatchConsumer{id: id, tracker: tracker}
}

func (consumer *BatchConsumer) Consume(batch rmq.Deliveries) {
	for _, payload := range batch.Payloads() {
		var locationEvent *LocationEvent
		if err := json.Unmarshal([]byte(payload), &locationEvent); err != nil {
			log.Error().Err(err).Msg("Failed to decode location event")
			continue
		}

		location := fleetdf.Location{
			Latitude:  locationEvent.Latitude,
			Longitude: locationEvent.Longitude,
		}

		err := consumer.tracker.Report(context.Background(), locationEvent.VehicleID, location, locationEvent.Speed, locationEvent.RecordedAt)

		switch {
		case errors.Is(err, fleetdf.ErrTripNotActive):
			// Expected while a driver's gateway keeps streaming after trip
			// end, worth recording but not an error
			indexTelemetryEvent(TelemetryElasticEvent{
				Timestamp: time.Now(),
				VehicleID: locationEvent.VehicleID,
				Accepted:  false,
				Reason:    "TRIP_NOT_ACTIVE",
			})
		case errors.Is(err, fleetdf.ErrNotFound):
			indexTelemetryEvent(TelemetryElasticEvent{
				Timestamp: time.Now(),
				VehicleID: locationEvent.VehicleID,
				Accepted:  false,
				Reason:    "NONREF_VEHICLE",
			})
		case err != nil:
			log.Error().Err(err).Str("vehicle", locationEvent.VehicleID).Msg("Failed to apply location event")
		}
	}

	if ackErrors := batch.Ack(); len(ackErrors) > 0 {
		for _, err := range ackErrors {
			log.Error().Err(err).Msg("Failed to ack location event batch")
		}
	}
}
