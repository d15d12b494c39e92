package fleetdf

import "time"

const TicketIDFormat = "kbus-ticket-%s-%d"

type Ticket struct {
	PrimaryIdentifier string `json:"primary_identifier" bson:"primaryidentifier" groups:"basic"`

	UserIdentifier string `json:"user_identifier" bson:"useridentifier" groups:"detailed"`
	VehicleRef     string `json:"vehicle_ref" bson:"vehicleref" groups:"basic"`
	RouteRef       string `json:"route_ref" bson:"routeref" groups:"basic"`

	SourceStop          string `json:"source_stop" bson:"sourcestop" groups:"basic"`
	SourceSequence      int    `json:"source_sequence" bson:"sourcesequence" groups:"detailed"`
	DestinationStop     string `json:"destination_stop" bson:"destinationstop" groups:"basic"`
	DestinationSequence int    `json:"destination_sequence" bson:"destinationsequence" groups:"detailed"`

	Fare float64 `json:"fare" bson:"fare" groups:"basic"`

	CreationDateTime time.Time `json:"creation_datetime" bson:"creationdatetime" groups:"basic"`
	ExpiryDateTime   time.Time `json:"expiry_datetime" bson:"expirydatetime" groups:"basic"`
}

// Expired is a derived predicate, never a stored mutation.
func (t *Ticket) Expired(now time.Time) bool {
	return !now.Before(t.ExpiryDateTime)
}
