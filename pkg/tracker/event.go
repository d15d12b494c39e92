package tracker

import (
	"encoding/json"
	"time"
)

// LocationEvent is the queued telemetry payload published by driver gateways
// and drained by the batch consumers.
type LocationEvent struct {
	VehicleID string  `json:"vehicle_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Speed     float64 `json:"speed"`

	RecordedAt time.Time `json:"recorded_at"`
}

func (e LocationEvent) MarshalBinary() ([]byte, error) {
	return json.Marshal(e)
}
