package topology

import (
	"context"
	"encoding/json"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	redisstore "github.com/eko/gocache/store/redis/v4"
	"github.com/jinzhu/copier"
	"github.com/kbus/kbus/pkg/fleetdf"
	"github.com/kbus/kbus/pkg/redis_client"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/iter"
)

const routeCacheExpiration = 90 * time.Minute

// Cache is the read-only topology projection used by the rest of the engine.
// Route documents are cached in redis and invalidated when the registry
// reports a change.
type Cache struct {
	registry Registry

	routeCache *cache.Cache[string]
}

func NewCache() *Cache {
	redisStore := redisstore.NewRedis(redis_client.Client, store.WithExpiration(routeCacheExpiration))

	return &Cache{
		registry:   Registry{},
		routeCache: cache.New[string](redisStore),
	}
}

func (c *Cache) Route(ctx context.Context, routeID string) (*fleetdf.Route, error) {
	cacheKey := "topology-route-" + routeID

	cachedRoute, _ := c.routeCache.Get(ctx, cacheKey)
	if cachedRoute != "" {
		var route fleetdf.Route
		if err := json.Unmarshal([]byte(cachedRoute), &route); err == nil {
			return &route, nil
		}
	}

	route, err := c.registry.Route(ctx, routeID)
	if err != nil {
		return nil, err
	}

	routeJSON, err := json.Marshal(route)
	if err == nil {
		c.routeCache.Set(ctx, cacheKey, string(routeJSON))
	}

	// Hand out a deep copy so callers can never alias the cached snapshot
	var snapshot fleetdf.Route
	copier.CopyWithOption(&snapshot, route, copier.Option{DeepCopy: true})

	return &snapshot, nil
}

// StopsOf returns the ordered stop list for a route.
func (c *Cache) StopsOf(ctx context.Context, routeID string) ([]fleetdf.Stop, error) {
	route, err := c.Route(ctx, routeID)
	if err != nil {
		return nil, err
	}

	return route.Stops, nil
}

// Invalidate drops the cached snapshot for a route after a registry mutation.
func (c *Cache) Invalidate(ctx context.Context, routeID string) {
	c.routeCache.Delete(ctx, "topology-route-"+routeID)
}

// WarmUp prefetches every route into the cache.
func (c *Cache) WarmUp(ctx context.Context) {
	routeIDs, err := c.registry.RouteIdentifiers(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list routes for cache warm up")
		return
	}

	iter.ForEach(routeIDs, func(routeID *string) {
		if _, err := c.Route(ctx, *routeID); err != nil {
			log.Error().Err(err).Str("route", *routeID).Msg("Failed to warm route cache")
		}
	})

	log.Info().Int("routes", len(routeIDs)).Msg("Topology cache warmed")
}

func (c *Cache) Vehicle(ctx context.Context, vehicleID string) (*fleetdf.Vehicle, error) {
	return c.registry.Vehicle(ctx, vehicleID)
}

func (c *Cache) VehicleByOperatorName(ctx context.Context, operatorName string) (*fleetdf.Vehicle, error) {
	return c.registry.VehicleByOperatorName(ctx, operatorName)
}
