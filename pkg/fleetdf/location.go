package fleetdf

import "math"

const earthRadiusMetres = 6371000

type Location struct {
	Latitude  float64 `json:"latitude" bson:"latitude" groups:"basic"`
	Longitude float64 `json:"longitude" bson:"longitude" groups:"basic"`
}

// Distance returns the great-circle (haversine) distance to the other
// location in metres.
func (l Location) Distance(other Location) float64 {
	phi1 := l.Latitude * math.Pi / 180
	phi2 := other.Latitude * math.Pi / 180
	deltaPhi := (other.Latitude - l.Latitude) * math.Pi / 180
	deltaLambda := (other.Longitude - l.Longitude) * math.Pi / 180

	a := math.Sin(deltaPhi/2)*math.Sin(deltaPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(deltaLambda/2)*math.Sin(deltaLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMetres * c
}

func (l Location) Valid() bool {
	return l.Latitude >= -90 && l.Latitude <= 90 && l.Longitude >= -180 && l.Longitude <= 180
}
