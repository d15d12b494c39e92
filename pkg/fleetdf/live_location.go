package fleetdf

import "time"

// LiveLocation is a single overwritten row per vehicle, owned exclusively by
// the location ingest.
type LiveLocation struct {
	VehicleRef string `json:"vehicle_ref" bson:"vehicleref" groups:"basic"`

	Location Location `json:"location" bson:"location" groups:"basic"`

	// metres per second
	Speed float64 `json:"speed" bson:"speed" groups:"basic"`

	RecordedAt time.Time `json:"recorded_at" bson:"recordedat" groups:"basic"`
}
