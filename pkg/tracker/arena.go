package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/kbus/kbus/pkg/fleetdf"
	"golang.org/x/exp/maps"
)

// VehicleState is the per-vehicle tracking record. All mutation happens under
// the vehicle's own lock so progress can never regress and a vehicle can
// never hold two open trips.
type VehicleState struct {
	VehicleID string
	RouteRef  string

	TripActive          bool
	CurrentStopSequence *int

	HasLocation bool
	Location    fleetdf.Location
	Speed       float64
	RecordedAt  time.Time
}

type LoaderFunc func(ctx context.Context, vehicleID string) (*VehicleState, error)

// Arena keys vehicle state records by vehicle id with per-key mutual
// exclusion. Operations on different vehicles run fully in parallel.
type Arena struct {
	mu      sync.Mutex
	entries map[string]*arenaEntry

	loader LoaderFunc
}

type arenaEntry struct {
	mu    sync.Mutex
	state VehicleState
}

func NewArena(loader LoaderFunc) *Arena {
	return &Arena{
		entries: map[string]*arenaEntry{},
		loader:  loader,
	}
}

func (a *Arena) entry(ctx context.Context, vehicleID string) (*arenaEntry, error) {
	a.mu.Lock()
	if entry, ok := a.entries[vehicleID]; ok {
		a.mu.Unlock()
		return entry, nil
	}
	a.mu.Unlock()

	// Hydrate outside the arena lock, the loader can hit the database
	state, err := a.loader(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if entry, ok := a.entries[vehicleID]; ok {
		return entry, nil
	}

	entry := &arenaEntry{state: *state}
	a.entries[vehicleID] = entry

	return entry, nil
}

// Do runs fn with the vehicle's state held under its lock.
func (a *Arena) Do(ctx context.Context, vehicleID string, fn func(state *VehicleState) error) error {
	entry, err := a.entry(ctx, vehicleID)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	return fn(&entry.state)
}

// Snapshot returns a copy of the vehicle's state. Readers may observe either
// the pre or post image of an in-flight update.
func (a *Arena) Snapshot(ctx context.Context, vehicleID string) (VehicleState, error) {
	entry, err := a.entry(ctx, vehicleID)
	if err != nil {
		return VehicleState{}, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	return entry.state, nil
}

func (a *Arena) VehicleIDs() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	return maps.Keys(a.entries)
}
