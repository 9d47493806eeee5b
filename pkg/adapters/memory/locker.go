package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aretw0/flowkit/pkg/ports"
)

// ErrLockExpired is returned by an UnlockFunc called after the TTL released the lock.
var ErrLockExpired = errors.New("lock expired before unlock")

// lockEntry holds the slot and the reference count.
type lockEntry struct {
	slot chan struct{}
	refs int
}

// Locker implements ports.DistributedLocker within a single process.
// Locks are reference counted and dropped when no caller holds or waits for them.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

// NewLocker creates an in-process locker.
func NewLocker() *Locker {
	return &Locker{locks: make(map[string]*lockEntry)}
}

// Lock blocks until key is free or ctx is done. A positive ttl releases the lock
// automatically if the holder never unlocks.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	entry := l.acquire(key)

	select {
	case entry.slot <- struct{}{}:
	case <-ctx.Done():
		l.release(key)
		return nil, ctx.Err()
	}

	var once sync.Once
	free := func() bool {
		freed := false
		once.Do(func() {
			<-entry.slot
			l.release(key)
			freed = true
		})
		return freed
	}

	var timer *time.Timer
	if ttl > 0 {
		timer = time.AfterFunc(ttl, func() { free() })
	}

	return func(context.Context) error {
		if timer != nil {
			timer.Stop()
		}
		if !free() {
			return ErrLockExpired
		}
		return nil
	}, nil
}

// Held returns the number of keys currently locked or awaited.
func (l *Locker) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

func (l *Locker) acquire(key string) *lockEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.locks[key]
	if !ok {
		entry = &lockEntry{slot: make(chan struct{}, 1)}
		l.locks[key] = entry
	}
	entry.refs++
	return entry
}

func (l *Locker) release(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.locks[key]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(l.locks, key)
	}
}

var _ ports.DistributedLocker = (*Locker)(nil)
