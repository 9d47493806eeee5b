package loam

import (
	"context"
	"testing"

	"github.com/aretw0/loam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/flowkit/internal/testutils"
	"github.com/aretw0/flowkit/pkg/domain"
	"github.com/aretw0/flowkit/pkg/ports/tests"
)

var bookingDocs = map[string]string{
	"ask_name.md": `---
id: ask_name
order: 1
edges:
  - id: collect_name
    condition: The user told us their name
    input_schema:
      type: object
      properties:
        name: {type: string}
      required: [name]
    to: ask_guests
---
Ask for the guest's name.`,
	"ask_guests.md": `---
order: 2
edges:
  - id: collect_guests
    condition: The user said how many guests are coming
    input_schema:
      type: object
      properties:
        guests: {type: integer, minimum: 1}
        email: {type: string, format: email}
      required: [guests]
    to: done
transitions:
  - id: cancel
    to: done.md
---
`,
	"done.json": `{"id": "done.json", "order": 3, "instructions": "Thank the guest."}`,
}

func TestLoader_Contract(t *testing.T) {
	dir, repo := testutils.SetupTestRepo(t)
	testutils.WriteFiles(t, dir, bookingDocs)

	loader := New(loam.NewTypedRepository[NodeMetadata](repo), WithFlowID("booking"))

	tests.FlowLoaderContractTest(t, loader, testutils.BookingFlow())
}

func TestLoader_InstructionsFromBody(t *testing.T) {
	dir, repo := testutils.SetupTestRepo(t)
	testutils.WriteFiles(t, dir, bookingDocs)

	flow, err := New(loam.NewTypedRepository[NodeMetadata](repo)).LoadFlow(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Ask for the guest's name.", flow.Nodes[0].Instructions)
	assert.Equal(t, "Thank the guest.", flow.Nodes[2].Instructions)
	assert.Empty(t, flow.Nodes[1].Instructions)
}

func TestLoader_OrdersByIDWithoutOrderKey(t *testing.T) {
	dir, repo := testutils.SetupTestRepo(t)
	testutils.WriteFiles(t, dir, map[string]string{
		"b.md": "---\nid: b\n---\nB",
		"a.md": "---\nid: a\n---\nA",
		"c.md": "---\nid: c\norder: -1\n---\nC",
	})

	flow, err := New(loam.NewTypedRepository[NodeMetadata](repo)).LoadFlow(context.Background())
	require.NoError(t, err)

	ids := make([]string, 0, len(flow.Nodes))
	for _, n := range flow.Nodes {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}

func TestLoader_DetectsCollisions(t *testing.T) {
	dir, repo := testutils.SetupTestRepo(t)
	testutils.WriteFiles(t, dir, map[string]string{
		"foo.md":   "---\nid: foo\n---\nExplicit ID",
		"foo.json": `{"id": "foo"}`,
	})

	_, err := New(loam.NewTypedRepository[NodeMetadata](repo)).LoadFlow(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collision detected")
}

func TestLoader_EmptyDirectory(t *testing.T) {
	_, repo := testutils.SetupTestRepo(t)

	_, err := New(loam.NewTypedRepository[NodeMetadata](repo)).LoadFlow(context.Background())
	assert.ErrorIs(t, err, domain.ErrFlowNotFound)
}

func TestOpen_DefaultsFlowIDToDirectory(t *testing.T) {
	dir := t.TempDir()
	testutils.WriteFiles(t, dir, bookingDocs)

	loader, err := Open(dir)
	require.NoError(t, err)

	flow, err := loader.LoadFlow(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, flow.ID)
	assert.Len(t, flow.Nodes, 3)
}
