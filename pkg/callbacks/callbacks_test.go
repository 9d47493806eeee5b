package callbacks_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/flowkit/pkg/callbacks"
	"github.com/aretw0/flowkit/pkg/domain"
	"github.com/aretw0/flowkit/pkg/model"
	"github.com/aretw0/flowkit/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bookingFlow() *domain.Flow {
	return &domain.Flow{
		ID: "booking",
		Nodes: []domain.Node{
			{
				ID: "ask_name",
				Edges: []domain.Edge{{
					ID: "collect_name",
					InputSchema: map[string]any{
						"type": "object",
						"properties": map[string]any{
							"name": map[string]any{"type": "string"},
						},
						"required": []any{"name"},
					},
					TargetNodeID: "ask_guests",
				}},
			},
			{
				ID: "ask_guests",
				Edges: []domain.Edge{
					{
						ID: "collect_guests",
						InputSchema: map[string]any{
							"type": "object",
							"properties": map[string]any{
								"guests": map[string]any{"type": "integer", "minimum": 1},
								"notes":  map[string]any{"type": "string"},
							},
							"required": []any{"guests"},
						},
						TargetNodeID: "done",
					},
					{ID: "cancel", TargetNodeID: "done"},
				},
			},
			{ID: "done"},
		},
	}
}

func TestFuncAdapters(t *testing.T) {
	var got []string
	tr := callbacks.TransitionFunc(func(_ context.Context, target, edge string) error {
		got = append(got, edge+"->"+target)
		return nil
	})
	dc := callbacks.CollectFunc(func(_ context.Context, data map[string]any, target, edge string) error {
		got = append(got, edge+":"+data["name"].(string))
		return nil
	})

	require.NoError(t, tr.Transition(context.Background(), "done", "cancel"))
	require.NoError(t, dc.CollectData(context.Background(), map[string]any{"name": "Ada"}, "ask_guests", "collect_name"))
	assert.Equal(t, []string{"cancel->done", "collect_name:Ada"}, got)

	assert.NoError(t, callbacks.Discard.Transition(context.Background(), "x", "y"))
}

func TestValidator(t *testing.T) {
	var forwarded []map[string]any
	next := callbacks.CollectFunc(func(_ context.Context, data map[string]any, _, _ string) error {
		forwarded = append(forwarded, data)
		return nil
	})
	v := callbacks.NewValidator(next, callbacks.EdgeSchemas(bookingFlow()))
	ctx := context.Background()

	t.Run("valid data is forwarded", func(t *testing.T) {
		forwarded = nil
		err := v.CollectData(ctx, map[string]any{"guests": 2}, "done", "collect_guests")
		require.NoError(t, err)
		assert.Len(t, forwarded, 1)
	})

	t.Run("invalid data is rejected", func(t *testing.T) {
		forwarded = nil
		err := v.CollectData(ctx, map[string]any{"guests": 0}, "done", "collect_guests")

		var rejected *callbacks.RejectedError
		require.ErrorAs(t, err, &rejected)
		assert.Equal(t, "collect_guests", rejected.EdgeID)
		assert.Contains(t, rejected.Message(), "Validation error at guests")
		assert.False(t, rejected.Result.Unexpected())
		assert.Empty(t, forwarded)
	})

	t.Run("missing required field is reported at the root", func(t *testing.T) {
		err := v.CollectData(ctx, map[string]any{}, "ask_guests", "collect_name")
		var rejected *callbacks.RejectedError
		require.ErrorAs(t, err, &rejected)
		assert.Contains(t, rejected.Message(), "Validation error at :")
	})

	t.Run("edges without schema pass through", func(t *testing.T) {
		forwarded = nil
		require.NoError(t, v.CollectData(ctx, map[string]any{"anything": true}, "done", "cancel"))
		require.NoError(t, v.CollectData(ctx, nil, "done", "unknown"))
		assert.Len(t, forwarded, 2)
	})
}

func TestEdgeSchemas_NilFlow(t *testing.T) {
	_, ok := callbacks.EdgeSchemas(nil)("collect_name")
	assert.False(t, ok)
}

func TestSerialized_OneAtATimePerConversation(t *testing.T) {
	var inFlight, peak int32
	slow := callbacks.CollectFunc(func(context.Context, map[string]any, string, string) error {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return nil
	})
	s := callbacks.NewSerialized(callbacks.Discard, slow)
	ctx := callbacks.WithConversationID(context.Background(), "conv-1")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.CollectData(ctx, nil, "done", "collect_guests"))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&peak))
}

func TestSerialized_MissingCallback(t *testing.T) {
	s := callbacks.NewSerialized(nil, nil)
	assert.Error(t, s.Transition(context.Background(), "done", "cancel"))
	assert.Error(t, s.CollectData(context.Background(), nil, "done", "collect_name"))
}

type fakeLocker struct {
	mu        sync.Mutex
	keys      []string
	ttls      []time.Duration
	lockErr   error
	unlockErr error
	unlocked  int
}

func (f *fakeLocker) Lock(_ context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lockErr != nil {
		return nil, f.lockErr
	}
	f.keys = append(f.keys, key)
	f.ttls = append(f.ttls, ttl)
	return func(context.Context) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.unlocked++
		return f.unlockErr
	}, nil
}

func TestSerialized_DistributedLocker(t *testing.T) {
	locker := &fakeLocker{unlockErr: errors.New("lock expired")}
	called := false
	tr := callbacks.TransitionFunc(func(context.Context, string, string) error {
		called = true
		return nil
	})
	s := callbacks.NewSerialized(tr, nil,
		callbacks.WithLocker(locker),
		callbacks.WithKeyPrefix("test:"),
		callbacks.WithLockTTL(time.Second),
	)

	ctx := callbacks.WithConversationID(context.Background(), "conv-9")
	require.NoError(t, s.Transition(ctx, "done", "cancel"), "unlock failures are only logged")
	assert.True(t, called)
	assert.Equal(t, []string{"test:conv-9"}, locker.keys)
	assert.Equal(t, []time.Duration{time.Second}, locker.ttls)
	assert.Equal(t, 1, locker.unlocked)
}

func TestSerialized_LockFailure(t *testing.T) {
	boom := errors.New("redis down")
	called := false
	tr := callbacks.TransitionFunc(func(context.Context, string, string) error {
		called = true
		return nil
	})
	s := callbacks.NewSerialized(tr, nil, callbacks.WithLocker(&fakeLocker{lockErr: boom}))

	err := s.Transition(context.Background(), "done", "cancel")
	assert.ErrorIs(t, err, boom)
	assert.False(t, called)
}

func TestUserdata(t *testing.T) {
	m, err := model.Synthesize(bookingFlow(), "Booking")
	require.NoError(t, err)
	ud := callbacks.NewUserdata(m)

	a := callbacks.WithConversationID(context.Background(), "a")
	b := callbacks.WithConversationID(context.Background(), "b")

	require.NoError(t, ud.CollectData(a, map[string]any{"name": "Ada"}, "ask_guests", "collect_name"))
	assert.False(t, ud.Complete("a"))
	assert.Equal(t, []string{"guests"}, ud.Missing("a"))

	require.NoError(t, ud.CollectData(a, map[string]any{"guests": 3}, "done", "collect_guests"))
	assert.True(t, ud.Complete("a"))

	snap := ud.Snapshot("a")
	assert.Equal(t, model.Record{"name": "Ada", "guests": 3, "notes": nil}, snap)
	snap["name"] = "changed"
	assert.Equal(t, "Ada", ud.Snapshot("a")["name"])

	var rejected *callbacks.RejectedError
	require.ErrorAs(t, ud.CollectData(b, map[string]any{"guests": "many"}, "done", "collect_guests"), &rejected)
	assert.Equal(t, "collect_guests", rejected.EdgeID)
	assert.Contains(t, rejected.Message(), `field "guests"`)
	assert.Nil(t, ud.Snapshot("b"))

	require.NoError(t, ud.CollectData(b, map[string]any{"guests": 2, "coupon": "X1"}, "done", "collect_guests"))
	assert.Equal(t, model.Record{"name": nil, "guests": 2, "notes": nil}, ud.Snapshot("b"))

	ud.Reset("a")
	assert.Nil(t, ud.Snapshot("a"))
}

func TestChain_ValidatorSerializedUserdata(t *testing.T) {
	flow := bookingFlow()
	m, err := model.Synthesize(flow, "Booking")
	require.NoError(t, err)

	ud := callbacks.NewUserdata(m)
	s := callbacks.NewSerialized(callbacks.Discard, callbacks.NewValidator(ud, callbacks.EdgeSchemas(flow)))
	ctx := callbacks.WithConversationID(context.Background(), "c")

	var rejected *callbacks.RejectedError
	assert.ErrorAs(t, s.CollectData(ctx, map[string]any{"name": 7}, "ask_guests", "collect_name"), &rejected)
	assert.Nil(t, ud.Snapshot("c"))

	require.NoError(t, s.CollectData(ctx, map[string]any{"name": "Grace"}, "ask_guests", "collect_name"))
	assert.Equal(t, "Grace", ud.Snapshot("c")["name"])
}

func TestChain_ValidatedDataIsStored(t *testing.T) {
	flow := &domain.Flow{
		ID: "delivery",
		Nodes: []domain.Node{
			{
				ID: "ask_city",
				Edges: []domain.Edge{{
					ID: "collect_city",
					InputSchema: map[string]any{
						"type":       "object",
						"properties": map[string]any{"city": map[string]any{"type": "string"}},
					},
					TargetNodeID: "ask_code",
				}},
			},
			{
				ID: "ask_code",
				Edges: []domain.Edge{{
					ID: "collect_code",
					InputSchema: map[string]any{
						"type":       "object",
						"properties": map[string]any{"city": map[string]any{"type": "integer"}},
						"required":   []any{"city"},
					},
					TargetNodeID: "done",
				}},
			},
			{ID: "done"},
		},
	}
	m, err := model.Synthesize(flow, "Delivery")
	require.NoError(t, err)
	require.Equal(t, []string{"city"}, m.Conflicts())

	ud := callbacks.NewUserdata(m)
	chain := callbacks.NewValidator(ud, callbacks.EdgeSchemas(flow))
	ctx := callbacks.WithConversationID(context.Background(), "d")

	require.NoError(t, chain.CollectData(ctx, map[string]any{"city": "Lisbon", "extra": true}, "ask_code", "collect_city"))
	assert.Equal(t, model.Record{"city": "Lisbon"}, ud.Snapshot("d"))

	require.NoError(t, chain.CollectData(ctx, map[string]any{"city": 1100}, "done", "collect_code"))
	assert.Equal(t, 1100, ud.Snapshot("d")["city"])

	var rejected *callbacks.RejectedError
	assert.ErrorAs(t, chain.CollectData(ctx, map[string]any{"city": "Porto"}, "done", "collect_code"), &rejected)
	assert.Equal(t, 1100, ud.Snapshot("d")["city"])
}
