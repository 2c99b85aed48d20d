package cache

import (
	"context"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"fest-engine/internal/logger"
	"fest-engine/internal/models"
)

// TestEventListCacheIntegration exercises the listing cache against a
// real Redis container.
func TestEventListCacheIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping Redis integration test in short mode")
	}

	ctx := context.Background()
	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:latest",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}
	defer redisContainer.Terminate(ctx)

	host, err := redisContainer.Host(ctx)
	require.NoError(t, err)
	port, err := redisContainer.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})
	defer client.Close()

	c := NewEventListCache(client, &logger.Logger{})

	// Miss before anything is cached.
	_, ok := c.Get(ctx, "", "")
	assert.False(t, ok)

	list := []*models.Event{
		{ID: "evt-1", Name: "Tech Talk", Status: models.StatusPublished},
		{ID: "evt-2", Name: "Hack Night", Status: models.StatusOngoing},
	}
	c.Put(ctx, "", "", list)

	cached, ok := c.Get(ctx, "", "")
	require.True(t, ok)
	require.Len(t, cached, 2)
	assert.Equal(t, "Tech Talk", cached[0].Name)

	// Listing variants are cached under separate keys.
	_, ok = c.Get(ctx, "hack", models.EventHackathon)
	assert.False(t, ok)
	c.Put(ctx, "hack", models.EventHackathon, list[1:])

	// Invalidation drops every variant.
	c.Invalidate(ctx)
	_, ok = c.Get(ctx, "", "")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "hack", models.EventHackathon)
	assert.False(t, ok)
}
