package validator

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/flowkit/pkg/domain"
	"github.com/aretw0/flowkit/pkg/model"
	"github.com/aretw0/flowkit/pkg/schema"
)

// Severity ranks an issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is a single finding about a flow.
type Issue struct {
	Severity Severity `json:"severity"`
	NodeID   string   `json:"node_id,omitempty"`
	EdgeID   string   `json:"edge_id,omitempty"`
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	var loc []string
	if i.NodeID != "" {
		loc = append(loc, "node "+i.NodeID)
	}
	if i.EdgeID != "" {
		loc = append(loc, "edge "+i.EdgeID)
	}
	if len(loc) == 0 {
		return i.Message
	}
	return strings.Join(loc, ", ") + ": " + i.Message
}

// Report collects the issues found in a flow.
type Report struct {
	FlowID string  `json:"flow_id"`
	Issues []Issue `json:"issues"`
}

// Errors returns the error-level issues.
func (r *Report) Errors() []Issue { return r.filter(SeverityError) }

// Warnings returns the warning-level issues.
func (r *Report) Warnings() []Issue { return r.filter(SeverityWarning) }

func (r *Report) filter(sev Severity) []Issue {
	var out []Issue
	for _, i := range r.Issues {
		if i.Severity == sev {
			out = append(out, i)
		}
	}
	return out
}

// Err summarizes the error-level issues, or returns nil when there are none.
func (r *Report) Err() error {
	errs := r.Errors()
	if len(errs) == 0 {
		return nil
	}
	lines := make([]string, len(errs))
	for i, e := range errs {
		lines[i] = e.String()
	}
	return fmt.Errorf("found %d errors:\n- %s", len(errs), strings.Join(lines, "\n- "))
}

func (r *Report) add(sev Severity, nodeID, edgeID, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{
		Severity: sev,
		NodeID:   nodeID,
		EdgeID:   edgeID,
		Message:  fmt.Sprintf(format, args...),
	})
}

// ValidateFlow checks a flow for problems that would surface at tool compilation or
// model synthesis time, plus structural smells:
//
//   - duplicate node IDs, and duplicate edge IDs within a node (tool names collide)
//   - targets that name no node
//   - input schemas that are not valid schemas
//   - dead edges, edge IDs reused across nodes, unreachable nodes
//   - fields defined differently by two edges (the first definition wins)
func ValidateFlow(ctx context.Context, flow *domain.Flow, v *schema.Validator) *Report {
	if v == nil {
		v = schema.NewValidator()
	}
	r := &Report{FlowID: flow.ID}
	if len(flow.Nodes) == 0 {
		r.add(SeverityWarning, "", "", "flow has no nodes")
		return r
	}

	nodes := make(map[string]bool, len(flow.Nodes))
	for _, n := range flow.Nodes {
		if nodes[n.ID] {
			r.add(SeverityError, n.ID, "", "duplicate node ID")
		}
		nodes[n.ID] = true
	}

	edgeOwner := make(map[string]string)
	schemasValid := true
	for _, n := range flow.Nodes {
		local := make(map[string]bool, len(n.Edges))
		for _, e := range n.Edges {
			if local[e.ID] {
				r.add(SeverityError, n.ID, e.ID, "duplicate edge ID within node")
			}
			local[e.ID] = true
			if owner, ok := edgeOwner[e.ID]; ok && owner != n.ID {
				r.add(SeverityWarning, n.ID, e.ID, "edge ID also used on node %s", owner)
			} else if !ok {
				edgeOwner[e.ID] = n.ID
			}

			if e.IsDead() {
				r.add(SeverityWarning, n.ID, e.ID, "edge has neither input schema nor target and produces no tool")
			}
			if e.HasTarget() && !nodes[e.TargetNodeID] {
				r.add(SeverityError, n.ID, e.ID, "target node %q does not exist", e.TargetNodeID)
			}
			if e.HasInputSchema() && !v.IsValidSchema(ctx, schema.Document(e.InputSchema)) {
				schemasValid = false
				r.add(SeverityError, n.ID, e.ID, "input schema is not a valid schema")
			}
		}
	}

	for _, id := range unreachable(flow) {
		r.add(SeverityWarning, id, "", "node is not reachable from %s", flow.Nodes[0].ID)
	}

	if schemasValid {
		synth := model.New(model.WithConflictHandler(func(c model.Conflict) {
			r.add(SeverityWarning, "", c.DiscardedEdgeID, "%s", c.String())
		}))
		if _, err := synth.BuildFieldMap(flow); err != nil {
			r.add(SeverityError, "", "", "model synthesis failed: %v", err)
		}
	}

	return r
}

// unreachable crawls the flow from its first node and returns the nodes never visited,
// in flow order.
func unreachable(flow *domain.Flow) []string {
	visited := make(map[string]bool)
	queue := []string{flow.Nodes[0].ID}

	for len(queue) > 0 {
		currentID := queue[0]
		queue = queue[1:]

		if visited[currentID] {
			continue
		}
		visited[currentID] = true

		node, err := flow.Node(currentID)
		if err != nil {
			continue
		}
		for _, e := range node.Edges {
			if e.HasTarget() && !visited[e.TargetNodeID] {
				queue = append(queue, e.TargetNodeID)
			}
		}
	}

	var out []string
	for _, n := range flow.Nodes {
		if !visited[n.ID] {
			out = append(out, n.ID)
		}
	}
	return out
}
