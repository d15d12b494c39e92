package tracker

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kbus/kbus/pkg/elastic_client"
)

type TelemetryElasticEvent struct {
	Timestamp time.Time

	VehicleID string
	Accepted  bool
	Reason    string
}

func indexTelemetryEvent(event TelemetryElasticEvent) {
	yearNumber, weekNumber := event.Timestamp.ISOWeek()
	indexName := fmt.Sprintf("kbus-telemetry-events-%d-%d", yearNumber, weekNumber)

	body, _ := json.Marshal(event)
	elastic_client.IndexRequest(indexName, bytes.NewReader(body))
}
