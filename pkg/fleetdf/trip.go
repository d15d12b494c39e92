package fleetdf

import "time"

const TripIDFormat = "kbus-trip-%s-%d"

type Trip struct {
	PrimaryIdentifier string `json:"primary_identifier" bson:"primaryidentifier" groups:"basic"`

	VehicleRef string `json:"vehicle_ref" bson:"vehicleref" groups:"basic"`

	StartDateTime time.Time  `json:"start_datetime" bson:"startdatetime" groups:"basic"`
	EndDateTime   *time.Time `json:"end_datetime" bson:"enddatetime" groups:"basic"`
}

// Window returns the half-open billing interval [start, end or now).
func (t *Trip) Window(now time.Time) (time.Time, time.Time) {
	if t.EndDateTime != nil {
		return t.StartDateTime, *t.EndDateTime
	}

	return t.StartDateTime, now
}
