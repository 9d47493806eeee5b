package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/flowkit/pkg/adapters/memory"
	"github.com/aretw0/flowkit/pkg/domain"
)

// Builder assembles a flow node by node. Nodes keep the order they were first added in.
type Builder struct {
	id    string
	order []string
	nodes map[string]*NodeBuilder
}

// New creates a builder for the flow with the given ID.
func New(flowID string) *Builder {
	return &Builder{
		id:    flowID,
		nodes: make(map[string]*NodeBuilder),
	}
}

// Add returns the builder for the node with the given ID, creating it on first use.
func (b *Builder) Add(id string) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		return nb
	}
	nb := &NodeBuilder{node: domain.Node{ID: id}}
	b.nodes[id] = nb
	b.order = append(b.order, id)
	return nb
}

// Flow returns the assembled flow, or the errors recorded while building it.
func (b *Builder) Flow() (*domain.Flow, error) {
	flow := &domain.Flow{ID: b.id, Nodes: make([]domain.Node, 0, len(b.order))}

	var errs []error
	for _, id := range b.order {
		nb := b.nodes[id]
		if id == "" {
			errs = append(errs, errors.New("node missing ID"))
			continue
		}
		for _, err := range nb.errs {
			errs = append(errs, fmt.Errorf("node %s: %w", id, err))
		}
		node := nb.node
		node.Edges = append([]domain.Edge(nil), nb.node.Edges...)
		flow.Nodes = append(flow.Nodes, node)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return flow, nil
}

// Build compiles the flow into an in-memory loader.
func (b *Builder) Build() (*memory.Loader, error) {
	flow, err := b.Flow()
	if err != nil {
		return nil, err
	}
	return memory.NewLoader(flow), nil
}
