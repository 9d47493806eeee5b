package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/flowkit/pkg/domain"
	"github.com/aretw0/flowkit/pkg/schema"
)

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node domain.Node
	errs []error
}

// Instructions sets the text shown to the agent while the conversation sits on the node.
func (n *NodeBuilder) Instructions(text string) *NodeBuilder {
	n.node.Instructions = text
	return n
}

// Go adds a transition edge to the target node.
func (n *NodeBuilder) Go(edgeID, target string) *NodeBuilder {
	return n.edge(domain.Edge{ID: edgeID, TargetNodeID: target})
}

// Collect adds a data-collection edge. The condition becomes the tool description.
// Chain To to also move the conversation once the data is accepted.
func (n *NodeBuilder) Collect(edgeID, condition string, inputSchema map[string]any) *NodeBuilder {
	if len(inputSchema) == 0 {
		n.errs = append(n.errs, fmt.Errorf("edge %s: %w", edgeID, domain.ErrMissingInputSchema))
	}
	return n.edge(domain.Edge{ID: edgeID, Condition: condition, InputSchema: inputSchema})
}

// CollectType is Collect with the input schema reflected from a Go type.
func (n *NodeBuilder) CollectType(edgeID, condition string, src schema.Source) *NodeBuilder {
	doc, err := schema.Resolve(src)
	if err != nil {
		n.errs = append(n.errs, fmt.Errorf("edge %s: %w", edgeID, err))
		return n.edge(domain.Edge{ID: edgeID, Condition: condition})
	}
	return n.Collect(edgeID, condition, doc)
}

// To sets the target of the most recently added edge.
func (n *NodeBuilder) To(target string) *NodeBuilder {
	if len(n.node.Edges) == 0 {
		n.errs = append(n.errs, errors.New("To called before any edge was added"))
		return n
	}
	n.node.Edges[len(n.node.Edges)-1].TargetNodeID = target
	return n
}

func (n *NodeBuilder) edge(e domain.Edge) *NodeBuilder {
	if e.ID == "" {
		n.errs = append(n.errs, errors.New("edge missing ID"))
	}
	n.node.Edges = append(n.node.Edges, e)
	return n
}
