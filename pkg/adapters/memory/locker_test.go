package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/flowkit/pkg/adapters/memory"
	"github.com/aretw0/flowkit/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocker_Contract(t *testing.T) {
	ports.RunLockerContract(t, memory.NewLocker())
}

func TestLocker_ReleasesEntries(t *testing.T) {
	l := memory.NewLocker()
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		unlock, err := l.Lock(ctx, "conv", time.Second)
		require.NoError(t, err)
		require.NoError(t, unlock(ctx))
	}
	assert.Equal(t, 0, l.Held())
}

func TestLocker_TTLExpiry(t *testing.T) {
	l := memory.NewLocker()
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "conv", 10*time.Millisecond)
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	next, err := l.Lock(waitCtx, "conv", 0)
	require.NoError(t, err, "expired lock must be reacquirable")

	assert.ErrorIs(t, unlock(ctx), memory.ErrLockExpired)
	require.NoError(t, next(ctx))
	assert.Equal(t, 0, l.Held())
}
