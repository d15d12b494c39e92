package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/kbus/kbus/pkg/fleetdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateUndefinedWithoutSample(t *testing.T) {
	tracker, _ := newTestTracker(true)

	estimate, err := tracker.Estimate(context.Background(), "kbus-vehicle-1")

	require.NoError(t, err)
	assert.Nil(t, estimate)
}

func TestEstimateUndefinedWithoutInferredStop(t *testing.T) {
	tracker, _ := newTestTracker(true)
	ctx := context.Background()

	// Sample far from every stop, so no progress is inferred
	require.NoError(t, tracker.Report(ctx, "kbus-vehicle-1", fleetdf.Location{Latitude: 0, Longitude: 0.005}, 5, time.Now()))

	estimate, err := tracker.Estimate(ctx, "kbus-vehicle-1")

	require.NoError(t, err)
	assert.Nil(t, estimate)
}

func TestEstimateUndefinedAtFinalStop(t *testing.T) {
	tracker, _ := newTestTracker(true)
	ctx := context.Background()

	require.NoError(t, tracker.Report(ctx, "kbus-vehicle-1", fleetdf.Location{Latitude: 0, Longitude: 0.02}, 5, time.Now()))

	estimate, err := tracker.Estimate(ctx, "kbus-vehicle-1")

	require.NoError(t, err)
	assert.Nil(t, estimate)
}

func TestEstimateStationaryVehicle(t *testing.T) {
	tracker, _ := newTestTracker(true)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, tracker.Report(ctx, "kbus-vehicle-1", fleetdf.Location{Latitude: 0, Longitude: 0}, 0, now))
	// Second stationary sample so the speed estimate stays at zero
	require.NoError(t, tracker.Report(ctx, "kbus-vehicle-1", fleetdf.Location{Latitude: 0, Longitude: 0}, 0, now.Add(10*time.Second)))

	estimate, err := tracker.Estimate(ctx, "kbus-vehicle-1")

	require.NoError(t, err)
	require.NotNil(t, estimate)

	assert.Equal(t, "Market", estimate.NextStop.Name)
	assert.Nil(t, estimate.ETASeconds, "stationary vehicle has no projected arrival")
	assert.Nil(t, estimate.RouteETASeconds)
}

func TestEstimateMovingVehicle(t *testing.T) {
	tracker, _ := newTestTracker(true)
	ctx := context.Background()

	require.NoError(t, tracker.Report(ctx, "kbus-vehicle-1", fleetdf.Location{Latitude: 0, Longitude: 0}, 10, time.Now()))

	estimate, err := tracker.Estimate(ctx, "kbus-vehicle-1")

	require.NoError(t, err)
	require.NotNil(t, estimate)

	route := trackerTestRoute()
	position := fleetdf.Location{Latitude: 0, Longitude: 0}

	distanceToNext := position.Distance(route.Stops[1].Location)
	remainingPath := distanceToNext + route.PathDistance(1, 2)

	assert.Equal(t, "Depot", estimate.CurrentStop.Name)
	assert.Equal(t, "Market", estimate.NextStop.Name)
	assert.Equal(t, distanceToNext, estimate.DistanceToNextMetres)
	assert.Equal(t, remainingPath, estimate.RemainingPathMetres)

	require.NotNil(t, estimate.ETASeconds)
	assert.Equal(t, int(distanceToNext/10), *estimate.ETASeconds)

	require.NotNil(t, estimate.RouteETASeconds)
	assert.Equal(t, int(remainingPath/10), *estimate.RouteETASeconds)
}

func TestEstimateBelowMinimumSpeed(t *testing.T) {
	tracker, _ := newTestTracker(true)
	ctx := context.Background()

	require.NoError(t, tracker.Report(ctx, "kbus-vehicle-1", fleetdf.Location{Latitude: 0, Longitude: 0}, 0.4, time.Now()))

	estimate, err := tracker.Estimate(ctx, "kbus-vehicle-1")

	require.NoError(t, err)
	require.NotNil(t, estimate)
	assert.Nil(t, estimate.ETASeconds)
}
