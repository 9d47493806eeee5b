package callbacks

import (
	"context"

	"github.com/aretw0/flowkit/pkg/ports"
)

// TransitionFunc adapts a function to ports.Transitioner.
type TransitionFunc func(ctx context.Context, targetNodeID, edgeID string) error

// Transition calls f.
func (f TransitionFunc) Transition(ctx context.Context, targetNodeID, edgeID string) error {
	return f(ctx, targetNodeID, edgeID)
}

// CollectFunc adapts a function to ports.DataCollector.
type CollectFunc func(ctx context.Context, data map[string]any, targetNodeID, edgeID string) error

// CollectData calls f.
func (f CollectFunc) CollectData(ctx context.Context, data map[string]any, targetNodeID, edgeID string) error {
	return f(ctx, data, targetNodeID, edgeID)
}

var (
	_ ports.Transitioner  = TransitionFunc(nil)
	_ ports.DataCollector = CollectFunc(nil)
)

// Discard accepts every callback and does nothing. Useful for inspection-only hosts.
var Discard = discard{}

type discard struct{}

func (discard) Transition(context.Context, string, string) error { return nil }

func (discard) CollectData(context.Context, map[string]any, string, string) error { return nil }
