package ports

import "context"

// Transitioner is invoked when a transition tool fires.
// It receives no data payload.
type Transitioner interface {
	Transition(ctx context.Context, targetNodeID, edgeID string) error
}

// DataCollector is invoked when a data-collection tool fires.
// data is a copy owned by the callee.
type DataCollector interface {
	CollectData(ctx context.Context, data map[string]any, targetNodeID, edgeID string) error
}
