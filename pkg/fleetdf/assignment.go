package fleetdf

import "time"

// Assignment binds a driver to a vehicle for a shift. At most one assignment
// per vehicle is active at any instant.
type Assignment struct {
	DriverIdentifier string `json:"driver_identifier" bson:"driveridentifier" groups:"basic"`
	VehicleRef       string `json:"vehicle_ref" bson:"vehicleref" groups:"basic"`

	Active bool `json:"active" bson:"active" groups:"basic"`

	StartDateTime time.Time  `json:"start_datetime" bson:"startdatetime" groups:"basic"`
	EndDateTime   *time.Time `json:"end_datetime" bson:"enddatetime" groups:"basic"`
}

// DriverRegistration is the legacy one-to-one driver mapping, keyed on the
// vehicle's one-time code. Kept read-only for resolver fallback.
type DriverRegistration struct {
	DriverIdentifier string `json:"driver_identifier" bson:"driveridentifier"`
	OTPCode          string `json:"otp_code" bson:"otpcode"`

	CreationDateTime time.Time `json:"creation_datetime" bson:"creationdatetime"`
}
