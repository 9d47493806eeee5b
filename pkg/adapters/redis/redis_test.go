package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/flowkit/internal/testutils"
	"github.com/aretw0/flowkit/pkg/adapters/redis"
	"github.com/aretw0/flowkit/pkg/domain"
	"github.com/aretw0/flowkit/pkg/ports"
	"github.com/aretw0/flowkit/pkg/ports/tests"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisLoader_Contract(t *testing.T) {
	_, client := setup(t)
	loader := redis.NewFromClient(client, "booking")

	flow := testutils.BookingFlow()
	require.NoError(t, loader.Publish(context.Background(), flow))

	tests.FlowLoaderContractTest(t, loader, flow)
}

func TestRedisLoader_YAMLValue(t *testing.T) {
	mr, client := setup(t)
	require.NoError(t, mr.Set("custom:flow:booking", testutils.BookingYAML))

	flow, err := redis.NewFromClient(client, "booking", redis.WithPrefix("custom:")).LoadFlow(context.Background())
	require.NoError(t, err)
	assert.Len(t, flow.Nodes, 3)
}

func TestRedisLoader_NotFound(t *testing.T) {
	_, client := setup(t)
	_, err := redis.NewFromClient(client, "nope").LoadFlow(context.Background())
	assert.ErrorIs(t, err, domain.ErrFlowNotFound)
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := redis.New("not a url", "f")
	assert.Error(t, err)
}

func TestRedisLocker_Contract(t *testing.T) {
	_, client := setup(t)
	ports.RunLockerContract(t, redis.NewLocker(client, "test:", redis.WithRetryInterval(5*time.Millisecond)))
}

func TestRedisLocker_LostLock(t *testing.T) {
	mr, client := setup(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "conv", time.Second)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)
	assert.False(t, mr.Exists("test:lock:conv"))

	assert.ErrorIs(t, unlock(ctx), redis.ErrLockLost)
}

func TestRedisLocker_DoesNotReleaseOthersLock(t *testing.T) {
	mr, client := setup(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "conv", time.Second)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)
	other, err := locker.Lock(ctx, "conv", time.Minute)
	require.NoError(t, err)

	assert.ErrorIs(t, unlock(ctx), redis.ErrLockLost)
	assert.True(t, mr.Exists("test:lock:conv"), "stale unlock must not drop the new holder")
	require.NoError(t, other(ctx))
}
