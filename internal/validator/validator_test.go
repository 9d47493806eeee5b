package validator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/flowkit/internal/testutils"
	"github.com/aretw0/flowkit/pkg/domain"
)

func messages(issues []Issue) []string {
	out := make([]string, len(issues))
	for i, is := range issues {
		out[i] = is.String()
	}
	return out
}

func TestValidateFlow_Clean(t *testing.T) {
	r := ValidateFlow(context.Background(), testutils.BookingFlow(), nil)
	assert.Empty(t, r.Issues)
	assert.NoError(t, r.Err())
	assert.Equal(t, "booking", r.FlowID)
}

func TestValidateFlow_Empty(t *testing.T) {
	r := ValidateFlow(context.Background(), &domain.Flow{ID: "empty"}, nil)
	require.Len(t, r.Warnings(), 1)
	assert.NoError(t, r.Err())
}

func TestValidateFlow_Issues(t *testing.T) {
	flow := &domain.Flow{
		ID: "broken",
		Nodes: []domain.Node{
			{
				ID: "start",
				Edges: []domain.Edge{
					{ID: "go", TargetNodeID: "middle"},
					{ID: "go", TargetNodeID: "ghost"},
					{ID: "nothing"},
					{ID: "bad_schema", InputSchema: map[string]any{"type": "strnig"}},
				},
			},
			{
				ID: "middle",
				Edges: []domain.Edge{
					{ID: "nothing", TargetNodeID: "start"},
				},
			},
			{ID: "middle"},
			{ID: "island"},
		},
	}

	r := ValidateFlow(context.Background(), flow, nil)

	errs := messages(r.Errors())
	assert.Contains(t, errs, "node middle: duplicate node ID")
	assert.Contains(t, errs, "node start, edge go: duplicate edge ID within node")
	assert.Contains(t, errs, `node start, edge go: target node "ghost" does not exist`)
	assert.Contains(t, errs, "node start, edge bad_schema: input schema is not a valid schema")

	warns := messages(r.Warnings())
	assert.Contains(t, warns, "node start, edge nothing: edge has neither input schema nor target and produces no tool")
	assert.Contains(t, warns, "node middle, edge nothing: edge ID also used on node start")
	assert.Contains(t, warns, "node island: node is not reachable from start")

	err := r.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "found 4 errors")
}

func TestValidateFlow_FieldConflicts(t *testing.T) {
	flow := &domain.Flow{
		ID: "conflicts",
		Nodes: []domain.Node{
			{ID: "a", Edges: []domain.Edge{{
				ID:           "first",
				InputSchema:  map[string]any{"type": "object", "properties": map[string]any{"age": map[string]any{"type": "integer"}}},
				TargetNodeID: "b",
			}}},
			{ID: "b", Edges: []domain.Edge{{
				ID:          "second",
				InputSchema: map[string]any{"type": "object", "properties": map[string]any{"age": map[string]any{"type": "string"}}},
			}}},
		},
	}

	r := ValidateFlow(context.Background(), flow, nil)
	assert.NoError(t, r.Err())
	require.Len(t, r.Warnings(), 1)
	assert.Equal(t, "second", r.Warnings()[0].EdgeID)
	assert.Contains(t, r.Warnings()[0].Message, `field "age"`)
}
