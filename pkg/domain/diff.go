package domain

import (
	"reflect"
)

// FlowDiff represents the changes between two versions of a flow.
// Tool sets are derived from nodes, so only nodes listed here need recompiling.
type FlowDiff struct {
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`

	// Changed lists nodes whose edges differ in any way (order included).
	Changed []string `json:"changed,omitempty"`

	// SchemasChanged is true when any input schema was added, removed or modified.
	// The synthesized model must be rebuilt when it is set.
	SchemasChanged bool `json:"schemas_changed,omitempty"`
}

// Diff calculates the difference between oldFlow and newFlow.
// If oldFlow is nil, every node of newFlow is reported as added.
func Diff(oldFlow, newFlow *Flow) *FlowDiff {
	if newFlow == nil {
		return nil
	}

	diff := &FlowDiff{}

	oldNodes := indexNodes(oldFlow)
	newNodes := indexNodes(newFlow)

	for _, node := range newFlow.Nodes {
		prev, exists := oldNodes[node.ID]
		if !exists {
			diff.Added = append(diff.Added, node.ID)
			if hasSchemas(node) {
				diff.SchemasChanged = true
			}
			continue
		}
		if !reflect.DeepEqual(prev.Edges, node.Edges) {
			diff.Changed = append(diff.Changed, node.ID)
			if !sameSchemas(prev, node) {
				diff.SchemasChanged = true
			}
		}
	}

	if oldFlow != nil {
		for _, node := range oldFlow.Nodes {
			if _, exists := newNodes[node.ID]; !exists {
				diff.Removed = append(diff.Removed, node.ID)
				if hasSchemas(node) {
					diff.SchemasChanged = true
				}
			}
		}
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func indexNodes(f *Flow) map[string]Node {
	idx := make(map[string]Node)
	if f == nil {
		return idx
	}
	// First definition wins for duplicate IDs, same as lookup.
	for _, n := range f.Nodes {
		if _, ok := idx[n.ID]; !ok {
			idx[n.ID] = n
		}
	}
	return idx
}

func hasSchemas(n Node) bool {
	for _, e := range n.Edges {
		if e.HasInputSchema() {
			return true
		}
	}
	return false
}

func sameSchemas(a, b Node) bool {
	var sa, sb []map[string]any
	for _, e := range a.Edges {
		if e.HasInputSchema() {
			sa = append(sa, e.InputSchema)
		}
	}
	for _, e := range b.Edges {
		if e.HasInputSchema() {
			sb = append(sb, e.InputSchema)
		}
	}
	return reflect.DeepEqual(sa, sb)
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *FlowDiff) IsEmpty() bool {
	return d == nil || len(d.Added) == 0 &&
		len(d.Removed) == 0 &&
		len(d.Changed) == 0 &&
		!d.SchemasChanged
}
