package fleetdf

import "testing"

func testRoute() *Route {
	return &Route{
		PrimaryIdentifier: "kbus-route-42",
		Stops: []Stop{
			{Name: "Depot", Sequence: 1, Location: Location{Latitude: 0, Longitude: 0}},
			{Name: "Market", Sequence: 2, Location: Location{Latitude: 0.01, Longitude: 0.01}},
			{Name: "Station", Sequence: 3, Location: Location{Latitude: 0, Longitude: 0.02}},
		},
	}
}

func TestStopByRef(t *testing.T) {
	route := testRoute()

	tests := []struct {
		ref      string
		expected string
		position int
	}{
		{"2", "Market", 1},
		{"Station", "Station", 2},
		{"Depot", "Depot", 0},
		{"99", "", -1},
		{"Nowhere", "", -1},
	}

	for _, test := range tests {
		t.Run(test.ref, func(t *testing.T) {
			stop, position := route.StopByRef(test.ref)

			if position != test.position {
				t.Errorf("position = %d, want %d", position, test.position)
			}
			if test.expected == "" {
				if stop != nil {
					t.Errorf("expected no stop, got %s", stop.Name)
				}
			} else if stop == nil || stop.Name != test.expected {
				t.Errorf("stop = %v, want %s", stop, test.expected)
			}
		})
	}
}

// The along-route distance goes via every intermediate stop, so it must be at
// least the straight line between the endpoints.
func TestPathDistanceViaIntermediateStops(t *testing.T) {
	route := testRoute()

	path := route.PathDistance(0, 2)
	straight := route.Stops[0].Location.Distance(route.Stops[2].Location)

	if path <= straight {
		t.Errorf("path distance %f should exceed straight line %f", path, straight)
	}

	expected := route.Stops[0].Location.Distance(route.Stops[1].Location) +
		route.Stops[1].Location.Distance(route.Stops[2].Location)
	if path != expected {
		t.Errorf("path distance %f, want sum of legs %f", path, expected)
	}
}

func TestPathDistanceSamePosition(t *testing.T) {
	route := testRoute()

	if distance := route.PathDistance(1, 1); distance != 0 {
		t.Errorf("zero-length path should be 0, got %f", distance)
	}
}
