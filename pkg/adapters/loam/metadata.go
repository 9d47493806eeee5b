package loam

import (
	"strings"

	"github.com/aretw0/flowkit/internal/flowdef"
)

// NodeMetadata is the frontmatter of a node document.
// It uses "mapstructure" tags to match standard Frontmatter/YAML keys.
type NodeMetadata struct {
	ID           string                   `json:"id" mapstructure:"id"`
	Instructions string                   `json:"instructions" mapstructure:"instructions"`
	Order        int                      `json:"order" mapstructure:"order"`
	Edges        []flowdef.EdgeDefinition `json:"edges" mapstructure:"edges"`

	// Transitions is accepted as an alias of Edges.
	Transitions []flowdef.EdgeDefinition `json:"transitions" mapstructure:"transitions"`
}

// definition merges the frontmatter with the document identity and body.
// The body is the fallback for instructions.
func (m NodeMetadata) definition(docID, content string) flowdef.NodeDefinition {
	id := m.ID
	if id == "" {
		id = docID
	}
	instructions := m.Instructions
	if instructions == "" {
		instructions = strings.TrimSpace(content)
	}
	edges := make([]flowdef.EdgeDefinition, 0, len(m.Edges)+len(m.Transitions))
	edges = append(edges, m.Edges...)
	edges = append(edges, m.Transitions...)
	return flowdef.NodeDefinition{
		ID:           flowdef.TrimExtension(id),
		Instructions: instructions,
		Edges:        edges,
		Order:        m.Order,
	}
}
