package domain

import "fmt"

// Flow is an ordered collection of nodes.
// Flows are treated as immutable once loaded.
type Flow struct {
	ID    string `json:"id" yaml:"id" mapstructure:"id"`
	Nodes []Node `json:"nodes" yaml:"nodes" mapstructure:"nodes"`
}

// Node represents a point in the conversation.
type Node struct {
	ID string `json:"id" yaml:"id" mapstructure:"id"`

	// Instructions is free text shown to the agent while the conversation sits on this node.
	Instructions string `json:"instructions,omitempty" yaml:"instructions,omitempty" mapstructure:"instructions"`

	// Edges are the outgoing steps. Their order determines tool order.
	Edges []Edge `json:"edges" yaml:"edges" mapstructure:"edges"`
}

// Node returns the node with the given ID.
func (f *Flow) Node(id string) (*Node, error) {
	for i := range f.Nodes {
		if f.Nodes[i].ID == id {
			return &f.Nodes[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
}

// Edge returns the first edge with the given ID, searching nodes in order.
func (f *Flow) Edge(id string) (*Edge, error) {
	for i := range f.Nodes {
		for j := range f.Nodes[i].Edges {
			if f.Nodes[i].Edges[j].ID == id {
				return &f.Nodes[i].Edges[j], nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrEdgeNotFound, id)
}

// EdgeCount returns the number of edges across all nodes.
func (f *Flow) EdgeCount() int {
	n := 0
	for _, node := range f.Nodes {
		n += len(node.Edges)
	}
	return n
}
