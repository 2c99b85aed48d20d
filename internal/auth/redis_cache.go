package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"fest-engine/internal/logger"
)

const claimsKeyPrefix = "auth_claims:"

// ClaimsCache is a best-effort Redis cache for verified token claims.
// A miss or a Redis failure just means the token is verified again.
type ClaimsCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

func NewClaimsCache(client *redis.Client, log *logger.Logger) *ClaimsCache {
	return &ClaimsCache{client: client, ttl: 5 * time.Minute, log: log}
}

// InitializeRedis connects to Redis and verifies the connection.
func InitializeRedis(addr string, log *logger.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		PoolSize: 10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Error("AUTH", "Failed to connect to Redis at "+addr)
		return nil, err
	}
	log.Info("AUTH", "Connected to Redis at "+addr)
	return client, nil
}

func claimsKey(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return claimsKeyPrefix + hex.EncodeToString(sum[:])
}

func (c *ClaimsCache) Get(ctx context.Context, rawToken string) (*Identity, bool) {
	val, err := c.client.Get(ctx, claimsKey(rawToken)).Result()
	if err != nil {
		return nil, false
	}
	var id Identity
	if err := json.Unmarshal([]byte(val), &id); err != nil {
		return nil, false
	}
	return &id, true
}

func (c *ClaimsCache) Put(ctx context.Context, rawToken string, id *Identity) {
	data, err := json.Marshal(id)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, claimsKey(rawToken), data, c.ttl).Err(); err != nil && c.log != nil {
		c.log.Warn("AUTH", "Failed to cache token claims: "+err.Error())
	}
}
