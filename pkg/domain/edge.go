package domain

// Edge is a directed step out of a node.
//
// An edge with an input schema compiles to a data-collection tool, whether or not it
// also has a target. An edge with only a target compiles to a transition tool.
// An edge with neither is dead and compiles to nothing.
type Edge struct {
	ID string `json:"id" yaml:"id" mapstructure:"id"`

	// Condition is the natural-language description of when the edge fires.
	// It becomes the description of a data-collection tool.
	Condition string `json:"condition,omitempty" yaml:"condition,omitempty" mapstructure:"condition"`

	// InputSchema is a JSON-Schema-shaped contract for the data this edge collects.
	InputSchema map[string]any `json:"input_schema,omitempty" yaml:"input_schema,omitempty" mapstructure:"input_schema"`

	TargetNodeID string `json:"target_node_id,omitempty" yaml:"target_node_id,omitempty" mapstructure:"target_node_id"`
}

// HasInputSchema reports whether the edge carries a non-empty input schema.
// An empty schema object counts as absent.
func (e Edge) HasInputSchema() bool {
	return len(e.InputSchema) > 0
}

// HasTarget reports whether the edge names a target node.
func (e Edge) HasTarget() bool {
	return e.TargetNodeID != ""
}

// IsDead reports whether the edge produces no tool.
func (e Edge) IsDead() bool {
	return !e.HasInputSchema() && !e.HasTarget()
}

// Kind returns the kind of tool the edge compiles to, or "" for a dead edge.
func (e Edge) Kind() ToolKind {
	switch {
	case e.HasInputSchema():
		return ToolKindDataCollection
	case e.HasTarget():
		return ToolKindTransition
	default:
		return ""
	}
}
