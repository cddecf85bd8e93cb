// Package cache adapts fastygo-backend's repository/redis/session_repo.go
// (Get/Save/Delete over a JSON blob with TTL) into a read-through cache for
// query.JourneyView, invalidated whenever a projection writes a new event
// for that journey.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/journeydynamics/backend/domain"
)

// JourneyCache caches marshaled query.JourneyView payloads keyed by
// journey id.
type JourneyCache struct {
	client *redislib.Client
	prefix string
	ttl    time.Duration
}

// New constructs a JourneyCache. ttl is the cache entry lifetime; entries
// are also actively invalidated by Invalidator on every new event, so ttl
// only bounds staleness after a missed invalidation.
func New(client *redislib.Client, ttl time.Duration) *JourneyCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &JourneyCache{client: client, prefix: "journey_view:", ttl: ttl}
}

// Get returns the cached payload for id, or (nil, nil) on a cache miss.
func (c *JourneyCache) Get(ctx context.Context, id string) ([]byte, error) {
	result, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		if err == redislib.Nil {
			return nil, nil
		}
		return nil, err
	}
	return result, nil
}

// Set stores view as the cached payload for id.
func (c *JourneyCache) Set(ctx context.Context, id string, view interface{}) error {
	payload, err := json.Marshal(view)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(id), payload, c.ttl).Err()
}

// Invalidate drops the cached entry for id.
func (c *JourneyCache) Invalidate(ctx context.Context, id string) error {
	return c.client.Del(ctx, c.key(id)).Err()
}

func (c *JourneyCache) key(id string) string {
	return fmt.Sprintf("%s%s", c.prefix, id)
}

// Invalidator is a projection.Projection that does nothing but drop the
// cache entry for whichever journey an event belongs to, registered last
// in the dispatcher chain so SQL projections commit before the cache is
// invalidated.
type Invalidator struct {
	cache *JourneyCache
}

func NewInvalidator(cache *JourneyCache) *Invalidator {
	return &Invalidator{cache: cache}
}

func (i *Invalidator) Name() string { return "journey_view_cache_invalidator" }

func (i *Invalidator) Handle(ctx context.Context, env domain.EventEnvelope) error {
	return i.cache.Invalidate(ctx, env.AggregateID)
}
