package callbacks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/flowkit/internal/logging"
	"github.com/aretw0/flowkit/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock outlives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Serialized runs callbacks one at a time per conversation.
// The conversation is taken from the context (see WithConversationID); callbacks
// without one share a single key. Locks are reference counted and dropped when idle.
type Serialized struct {
	transitioner ports.Transitioner
	collector    ports.DataCollector

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker ports.DistributedLocker
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

// SerializedOption configures Serialized.
type SerializedOption func(*Serialized)

// WithLocker also takes a distributed lock, for hosts running several replicas.
func WithLocker(locker ports.DistributedLocker) SerializedOption {
	return func(s *Serialized) {
		s.locker = locker
	}
}

// WithLockTTL sets the distributed lock TTL.
func WithLockTTL(ttl time.Duration) SerializedOption {
	return func(s *Serialized) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithKeyPrefix namespaces lock keys.
func WithKeyPrefix(prefix string) SerializedOption {
	return func(s *Serialized) {
		s.prefix = prefix
	}
}

// WithLogger configures the logger.
func WithLogger(logger *slog.Logger) SerializedOption {
	return func(s *Serialized) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSerialized wraps t and dc. Either may be nil if only the other is used.
func NewSerialized(t ports.Transitioner, dc ports.DataCollector, opts ...SerializedOption) *Serialized {
	s := &Serialized{
		transitioner: t,
		collector:    dc,
		locks:        make(map[string]*lockEntry),
		ttl:          DefaultLockTTL,
		prefix:       "flowkit:conversation:",
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Transition forwards to the wrapped Transitioner while holding the conversation lock.
func (s *Serialized) Transition(ctx context.Context, targetNodeID, edgeID string) error {
	if s.transitioner == nil {
		return fmt.Errorf("transition %s: no transitioner configured", edgeID)
	}
	return s.WithLock(ctx, ConversationID(ctx), func(ctx context.Context) error {
		return s.transitioner.Transition(ctx, targetNodeID, edgeID)
	})
}

// CollectData forwards to the wrapped DataCollector while holding the conversation lock.
func (s *Serialized) CollectData(ctx context.Context, data map[string]any, targetNodeID, edgeID string) error {
	if s.collector == nil {
		return fmt.Errorf("collect %s: no data collector configured", edgeID)
	}
	return s.WithLock(ctx, ConversationID(ctx), func(ctx context.Context) error {
		return s.collector.CollectData(ctx, data, targetNodeID, edgeID)
	})
}

// acquire gets or creates a lock entry and increments its reference count.
func (s *Serialized) acquire(key string) *lockEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.locks[key]
	if !ok {
		entry = &lockEntry{}
		s.locks[key] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (s *Serialized) release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.locks[key]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(s.locks, key)
	}
}

// WithLock executes fn while holding the lock for key.
func (s *Serialized) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	entry := s.acquire(key)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		s.release(key)
	}()

	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, s.prefix+key, s.ttl)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"conversation_id", key,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

var (
	_ ports.Transitioner  = (*Serialized)(nil)
	_ ports.DataCollector = (*Serialized)(nil)
)
