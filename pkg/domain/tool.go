package domain

import "context"

// ToolKind distinguishes the two kinds of compiled tools.
type ToolKind string

const (
	// ToolKindDataCollection tools accept arguments and hand them to the data collector.
	ToolKindDataCollection ToolKind = "data_collection"
	// ToolKindTransition tools take no arguments and move the conversation to a target node.
	ToolKindTransition ToolKind = "transition"
)

// ToolHandler is the invocation target of a compiled tool.
type ToolHandler func(ctx context.Context, args map[string]any) error

// Tool describes an invocable action compiled from one edge.
// Tools are derived artifacts; they are rebuilt whenever the flow changes.
type Tool struct {
	Name        string   `json:"name" yaml:"name" mapstructure:"name"`
	Description string   `json:"description" yaml:"description" mapstructure:"description"`
	Kind        ToolKind `json:"kind" yaml:"kind" mapstructure:"kind"`

	// Parameters is the argument contract. It is nil for transition tools.
	Parameters map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty" mapstructure:"parameters"`

	EdgeID       string `json:"edge_id" yaml:"edge_id" mapstructure:"edge_id"`
	TargetNodeID string `json:"target_node_id,omitempty" yaml:"target_node_id,omitempty" mapstructure:"target_node_id"`

	Handler ToolHandler `json:"-" yaml:"-" mapstructure:"-"`
}

// Invoke runs the tool's handler.
func (t Tool) Invoke(ctx context.Context, args map[string]any) error {
	if t.Handler == nil {
		return ErrToolNotCallable
	}
	return t.Handler(ctx, args)
}
