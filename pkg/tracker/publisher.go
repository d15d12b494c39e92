package tracker

import (
	"encoding/json"

	"github.com/adjust/rmq/v5"
	"github.com/kbus/kbus/pkg/redis_client"
)

// Publisher enqueues telemetry batches for the background consumers.
type Publisher struct {
	queue rmq.Queue
}

func NewPublisher() (*Publisher, error) {
	queue, err := redis_client.QueueConnection.OpenQueue(locationQueueName)
	if err != nil {
		return nil, err
	}

	return &Publisher{queue: queue}, nil
}

func (p *Publisher) Publish(events []LocationEvent) error {
	payloads := make([]string, 0, len(events))

	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			return err
		}

		payloads = append(payloads, string(payload))
	}

	return p.queue.Publish(payloads...)
}
