package fleetdf

import "time"

const VehicleStatusActive = "active"

type Vehicle struct {
	PrimaryIdentifier string `json:"primary_identifier" bson:"primaryidentifier" groups:"basic"`

	RegistrationNumber string `json:"registration_number" bson:"registrationnumber" groups:"basic"`
	OperatorType       string `json:"operator_type" bson:"operatortype" groups:"detailed"`
	OperatorName       string `json:"operator_name" bson:"operatorname" groups:"detailed"`

	RouteRef string  `json:"route_ref" bson:"routeref" groups:"basic"`
	BaseFare float64 `json:"base_fare" bson:"basefare" groups:"detailed"`

	// 5 uppercase alphanumerics, unique among active vehicles
	OTPCode string `json:"-" bson:"otpcode"`

	Status string `json:"status" bson:"status" groups:"basic"`

	// Mutated only by the trip lifecycle manager and the location ingest
	TripActive          bool       `json:"trip_active" bson:"tripactive" groups:"detailed"`
	TripStartTime       *time.Time `json:"-" bson:"tripstarttime"`
	CurrentStopSequence *int       `json:"current_stop_sequence" bson:"currentstopsequence" groups:"detailed"`
}
