package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"fest-engine/internal/logger"
	"fest-engine/internal/models"
)

const listingKeyPrefix = "event_listing:"

// EventListCache keeps the public event listing in Redis for a short
// TTL. It is strictly a read-path accelerator: misses and Redis
// failures fall through to the DB, and writers invalidate it
// best-effort. It is never part of the registration consistency domain.
type EventListCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

func NewEventListCache(client *redis.Client, log *logger.Logger) *EventListCache {
	return &EventListCache{client: client, ttl: 30 * time.Second, log: log}
}

func listingKey(search, eventType string) string {
	return listingKeyPrefix + search + ":" + eventType
}

func (c *EventListCache) Get(ctx context.Context, search, eventType string) ([]*models.Event, bool) {
	val, err := c.client.Get(ctx, listingKey(search, eventType)).Result()
	if err != nil {
		return nil, false
	}
	var list []*models.Event
	if err := json.Unmarshal([]byte(val), &list); err != nil {
		return nil, false
	}
	return list, true
}

func (c *EventListCache) Put(ctx context.Context, search, eventType string, list []*models.Event) {
	data, err := json.Marshal(list)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, listingKey(search, eventType), data, c.ttl).Err(); err != nil && c.log != nil {
		c.log.Warn("CACHE", "Failed to cache event listing: "+err.Error())
	}
}

// Invalidate drops all cached listing variants.
func (c *EventListCache) Invalidate(ctx context.Context) {
	keys, err := c.client.Keys(ctx, listingKeyPrefix+"*").Result()
	if err != nil || len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil && c.log != nil {
		c.log.Warn("CACHE", "Failed to invalidate event listing: "+err.Error())
	}
}
