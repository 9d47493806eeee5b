package ports

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunLockerContract runs a suite of tests to verify that a DistributedLocker implementation
// adheres to the defined interface contract.
func RunLockerContract(t *testing.T, locker DistributedLocker) {
	ctx := context.Background()
	key := "contract-test-lock-" + time.Now().Format("20060102150405")

	t.Run("Lock and Unlock", func(t *testing.T) {
		unlock, err := locker.Lock(ctx, key, time.Second)
		require.NoError(t, err, "Lock should not return error")
		require.NotNil(t, unlock)

		require.NoError(t, unlock(ctx), "Unlock should not return error")

		// Reacquire after release
		unlock, err = locker.Lock(ctx, key, time.Second)
		require.NoError(t, err)
		require.NoError(t, unlock(ctx))
	})

	t.Run("Mutual Exclusion", func(t *testing.T) {
		var inside, overlaps int32
		var wg sync.WaitGroup

		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock, err := locker.Lock(ctx, key+"-mutex", 5*time.Second)
				if !assert.NoError(t, err) {
					return
				}
				if atomic.AddInt32(&inside, 1) > 1 {
					atomic.AddInt32(&overlaps, 1)
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&inside, -1)
				assert.NoError(t, unlock(ctx))
			}()
		}
		wg.Wait()

		assert.Zero(t, atomic.LoadInt32(&overlaps), "critical sections must not overlap")
	})

	t.Run("Canceled Context", func(t *testing.T) {
		unlock, err := locker.Lock(ctx, key+"-held", 5*time.Second)
		require.NoError(t, err)
		defer func() { _ = unlock(ctx) }()

		cctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()

		_, err = locker.Lock(cctx, key+"-held", 5*time.Second)
		assert.Error(t, err, "Lock on a held key should fail once the context is done")
	})
}
