package history

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kilianp07/stintplan/config"
	corehistory "github.com/kilianp07/stintplan/core/history"
)

// redisAddr starts a Redis container when DOCKER_AVAILABLE is set and
// returns its address, or "" otherwise.
func redisAddr(t *testing.T) string {
	t.Helper()
	if os.Getenv("DOCKER_AVAILABLE") != "true" && os.Getenv("DOCKER_AVAILABLE") != "1" {
		return ""
	}
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })
	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)
	return fmt.Sprintf("%s:%s", host, port.Port())
}

func openRedis(t *testing.T) *RedisStore {
	t.Helper()
	addr := redisAddr(t)
	if addr == "" {
		return nil
	}
	store, err := NewRedisStore(config.RedisConfig{Addr: addr, Key: "runs:" + uuid.NewString()})
	require.NoError(t, err)
	return store
}

func TestScoreRange(t *testing.T) {
	checks := []struct {
		name   string
		q      corehistory.RunQuery
		lo, hi string
	}{
		{"open", corehistory.RunQuery{}, "-inf", "+inf"},
		{"whole millis", corehistory.RunQuery{Start: time.UnixMilli(1500), End: time.UnixMilli(2500)}, "1500", "2500"},
		{"widened", corehistory.RunQuery{Start: time.Unix(1, 500_400_000), End: time.Unix(2, 500_400_000)}, "1500", "2501"},
	}
	for _, c := range checks {
		lo, hi := scoreRange(c.q)
		assert.Equal(t, c.lo, lo, c.name)
		assert.Equal(t, c.hi, hi, c.name)
	}
}

func TestNewRedisStoreUnreachable(t *testing.T) {
	_, err := NewRedisStore(config.RedisConfig{Addr: "127.0.0.1:1", Key: "runs"})
	assert.Error(t, err)
}
