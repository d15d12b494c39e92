package fleetdf

import "errors"

var (
	// ErrNotFound covers unknown otp, route, vehicle and trip lookups
	ErrNotFound = errors.New("not found")

	// ErrInvalidRequest covers malformed stop ordering and unknown stops
	ErrInvalidRequest = errors.New("invalid request")

	// ErrTripNotActive rejects a location report while the trip is idle
	ErrTripNotActive = errors.New("trip not active")
)
