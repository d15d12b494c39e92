package fleetdf

import (
	"math"
	"testing"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name     string
		from     Location
		to       Location
		expected float64
	}{
		{
			name:     "same point",
			from:     Location{Latitude: 12.9716, Longitude: 77.5946},
			to:       Location{Latitude: 12.9716, Longitude: 77.5946},
			expected: 0,
		},
		{
			name:     "one degree of longitude at the equator",
			from:     Location{Latitude: 0, Longitude: 0},
			to:       Location{Latitude: 0, Longitude: 1},
			expected: 111194.9,
		},
		{
			name:     "one degree of latitude",
			from:     Location{Latitude: 0, Longitude: 0},
			to:       Location{Latitude: 1, Longitude: 0},
			expected: 111194.9,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			distance := test.from.Distance(test.to)

			if math.Abs(distance-test.expected) > 1 {
				t.Errorf("Distance = %f, want %f", distance, test.expected)
			}
		})
	}
}

func TestDistanceSymmetric(t *testing.T) {
	a := Location{Latitude: 12.9716, Longitude: 77.5946}
	b := Location{Latitude: 13.0827, Longitude: 80.2707}

	if a.Distance(b) != b.Distance(a) {
		t.Errorf("Distance is not symmetric: %f != %f", a.Distance(b), b.Distance(a))
	}
}

func TestLocationValid(t *testing.T) {
	tests := []struct {
		name     string
		location Location
		valid    bool
	}{
		{"origin", Location{}, true},
		{"poles", Location{Latitude: 90, Longitude: -180}, true},
		{"latitude too high", Location{Latitude: 90.1}, false},
		{"latitude too low", Location{Latitude: -90.1}, false},
		{"longitude too high", Location{Longitude: 180.1}, false},
		{"longitude too low", Location{Longitude: -180.1}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if test.location.Valid() != test.valid {
				t.Errorf("Valid() = %t, want %t", !test.valid, test.valid)
			}
		})
	}
}
