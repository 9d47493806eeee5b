package tests

import (
	"context"
	"testing"

	"github.com/aretw0/flowkit/pkg/domain"
	"github.com/aretw0/flowkit/pkg/ports"
)

// FlowLoaderContractTest is a reusable test suite that verifies if an adapter complies with ports.FlowLoader.
// want is the flow the adapter was seeded with.
func FlowLoaderContractTest(t *testing.T, loader ports.FlowLoader, want *domain.Flow) {
	t.Helper()

	var got *domain.Flow

	t.Run("LoadFlow_Success", func(t *testing.T) {
		var err error
		got, err = loader.LoadFlow(context.Background())
		if err != nil {
			t.Fatalf("unexpected error loading flow: %v", err)
		}
		if got.ID != want.ID {
			t.Errorf("flow ID mismatch. got %q, want %q", got.ID, want.ID)
		}
	})

	if got == nil {
		return
	}

	t.Run("NodeOrder", func(t *testing.T) {
		if len(got.Nodes) != len(want.Nodes) {
			t.Fatalf("expected %d nodes, got %d", len(want.Nodes), len(got.Nodes))
		}
		for i := range want.Nodes {
			if got.Nodes[i].ID != want.Nodes[i].ID {
				t.Errorf("node %d: got %q, want %q", i, got.Nodes[i].ID, want.Nodes[i].ID)
			}
		}
	})

	t.Run("EdgeOrderAndShape", func(t *testing.T) {
		for i, wn := range want.Nodes {
			if i >= len(got.Nodes) {
				break
			}
			gn := got.Nodes[i]
			if len(gn.Edges) != len(wn.Edges) {
				t.Errorf("node %s: expected %d edges, got %d", wn.ID, len(wn.Edges), len(gn.Edges))
				continue
			}
			for j, we := range wn.Edges {
				ge := gn.Edges[j]
				if ge.ID != we.ID {
					t.Errorf("node %s edge %d: got %q, want %q", wn.ID, j, ge.ID, we.ID)
				}
				if ge.TargetNodeID != we.TargetNodeID {
					t.Errorf("edge %s: target %q, want %q", we.ID, ge.TargetNodeID, we.TargetNodeID)
				}
				if ge.HasInputSchema() != we.HasInputSchema() {
					t.Errorf("edge %s: HasInputSchema %v, want %v", we.ID, ge.HasInputSchema(), we.HasInputSchema())
				}
				if ge.Kind() != we.Kind() {
					t.Errorf("edge %s: kind %q, want %q", we.ID, ge.Kind(), we.Kind())
				}
			}
		}
	})
}
