package flowdef

// FlowDefinition is the on-disk shape of a flow.
// It uses "mapstructure" tags to match YAML/JSON keys, including the short aliases.
type FlowDefinition struct {
	ID    string           `json:"id" mapstructure:"id"`
	Nodes []NodeDefinition `json:"nodes" mapstructure:"nodes"`
}

// NodeDefinition is the on-disk shape of a node.
// Loam documents carry one node each, with Content as the fallback instructions.
type NodeDefinition struct {
	ID           string           `json:"id" mapstructure:"id"`
	Instructions string           `json:"instructions" mapstructure:"instructions"`
	Edges        []EdgeDefinition `json:"edges" mapstructure:"edges"`

	// Order positions the node within a directory of documents. Lower comes first.
	Order int `json:"order" mapstructure:"order"`
}

// EdgeDefinition is the on-disk shape of an edge.
type EdgeDefinition struct {
	ID          string         `json:"id" mapstructure:"id"`
	Condition   string         `json:"condition" mapstructure:"condition"`
	InputSchema map[string]any `json:"input_schema" mapstructure:"input_schema"`
	Schema      map[string]any `json:"schema" mapstructure:"schema"`
	To          string         `json:"to" mapstructure:"to"`
	ToFull      string         `json:"target_node_id" mapstructure:"target_node_id"`
	JumpTo      string         `json:"jump_to" mapstructure:"jump_to"`
}

func (e EdgeDefinition) target() string {
	switch {
	case e.ToFull != "":
		return e.ToFull
	case e.To != "":
		return e.To
	default:
		return e.JumpTo
	}
}

func (e EdgeDefinition) inputSchema() map[string]any {
	if len(e.InputSchema) > 0 {
		return e.InputSchema
	}
	return e.Schema
}
