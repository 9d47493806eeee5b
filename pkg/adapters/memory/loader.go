package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/flowkit/pkg/domain"
)

// Loader implements ports.FlowLoader over a flow held in memory.
// Safe for concurrent use; Set swaps the flow atomically.
type Loader struct {
	mu   sync.RWMutex
	flow *domain.Flow
}

// NewLoader creates a loader serving flow.
func NewLoader(flow *domain.Flow) *Loader {
	return &Loader{flow: flow}
}

// NewFromNodes creates a loader from domain nodes, improving DX for tests.
func NewFromNodes(id string, nodes ...domain.Node) (*Loader, error) {
	for i, n := range nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("nodes[%d]: node missing ID", i)
		}
	}
	return NewLoader(&domain.Flow{ID: id, Nodes: nodes}), nil
}

// LoadFlow returns the current flow.
func (l *Loader) LoadFlow(ctx context.Context) (*domain.Flow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.flow == nil {
		return nil, domain.ErrFlowNotFound
	}
	return l.flow, nil
}

// Set replaces the flow served by the loader.
func (l *Loader) Set(flow *domain.Flow) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.flow = flow
}
