// Package testenv provides ephemeral test infrastructure using testcontainers.
package testenv

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// RedisContainer is an ephemeral Redis used as the service's event cache.
type RedisContainer struct {
	// Container is the testcontainers container instance.
	Container testcontainers.Container

	// URL is the redis:// address handed to the service.
	URL string
}

// StartRedis spins up a Redis container for the event cache.
//
// There is no dedicated module import for Redis here; a generic container
// with a log wait strategy is enough for a cache that holds no schema.
func StartRedis(ctx context.Context, image string) (*RedisContainer, func(), error) {
	if image == "" {
		image = "redis:7-alpine"
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start redis container: %w", err)
	}

	cleanup := func() {
		_ = container.Terminate(context.Background())
	}

	host, err := container.Host(ctx)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to get mapped port: %w", err)
	}

	return &RedisContainer{
		Container: container,
		URL:       fmt.Sprintf("redis://%s:%s/0", host, port.Port()),
	}, cleanup, nil
}
