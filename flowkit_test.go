package flowkit_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/flowkit"
	"github.com/aretw0/flowkit/internal/testutils"
	"github.com/aretw0/flowkit/pkg/adapters/memory"
	"github.com/aretw0/flowkit/pkg/callbacks"
	"github.com/aretw0/flowkit/pkg/domain"
	"github.com/aretw0/flowkit/pkg/schema"
)

func writeBookingFile(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	testutils.WriteFiles(t, dir, map[string]string{"booking.yaml": testutils.BookingYAML})
	return filepath.Join(dir, "booking.yaml")
}

func TestNew_File(t *testing.T) {
	kit, err := flowkit.New(writeBookingFile(t))
	require.NoError(t, err)

	assert.Equal(t, "booking.yaml", kit.Name)
	assert.Equal(t, testutils.BookingFlow(), kit.Flow())

	tools, err := kit.Tools("ask_guests")
	require.NoError(t, err)
	require.Len(t, tools, 2)
	assert.Equal(t, "collect_guests", tools[0].Name)
	assert.Equal(t, domain.ToolKindTransition, tools[1].Kind)
}

func TestNew_Directory(t *testing.T) {
	dir := t.TempDir()
	testutils.WriteFiles(t, dir, map[string]string{
		"start.md": "---\nid: start\norder: 1\nedges:\n  - id: next\n    to: end\n---\nSay hello.",
		"end.md":   "---\nid: end\norder: 2\n---\nSay goodbye.",
	})

	kit, err := flowkit.New(dir)
	require.NoError(t, err)

	flow := kit.Flow()
	require.Len(t, flow.Nodes, 2)
	assert.Equal(t, filepath.Base(dir), flow.ID)
	assert.Equal(t, "Say hello.", flow.Nodes[0].Instructions)

	node, err := kit.Node("start")
	require.NoError(t, err)
	assert.Equal(t, "end", node.Edges[0].TargetNodeID)
}

func TestNew_Errors(t *testing.T) {
	_, err := flowkit.New("")
	assert.Error(t, err)

	_, err = flowkit.New(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, domain.ErrFlowNotFound)

	_, err = flowkit.New("", flowkit.WithLoader(memory.NewLoader(nil)))
	assert.ErrorIs(t, err, domain.ErrFlowNotFound)
}

func TestKit_ToolsUnknownNode(t *testing.T) {
	kit, err := flowkit.New("", flowkit.WithLoader(memory.NewLoader(testutils.BookingFlow())))
	require.NoError(t, err)

	_, err = kit.Tools("nope")
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)
}

func TestKit_Model(t *testing.T) {
	kit, err := flowkit.New("", flowkit.WithLoader(memory.NewLoader(testutils.BookingFlow())))
	require.NoError(t, err)

	m, err := kit.Model("")
	require.NoError(t, err)
	assert.Equal(t, flowkit.DefaultModelName, m.Name())

	var names []string
	for _, f := range m.Fields() {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{"name", "guests", "email"}, names)
	assert.Equal(t, "name", names[0])
	assert.ElementsMatch(t, []string{"name", "guests"}, m.Required())
}

func TestKit_Validate(t *testing.T) {
	kit, err := flowkit.New("", flowkit.WithLoader(memory.NewLoader(testutils.BookingFlow())))
	require.NoError(t, err)
	ctx := context.Background()

	res, err := kit.Validate(ctx, "collect_guests", map[string]any{"guests": 2})
	require.NoError(t, err)
	assert.True(t, res.Valid)

	res, err = kit.Validate(ctx, "collect_guests", map[string]any{"guests": 0})
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Contains(t, res.Error, "Validation error at guests")

	_, err = kit.Validate(ctx, "cancel", nil)
	assert.ErrorIs(t, err, domain.ErrMissingInputSchema)

	_, err = kit.Validate(ctx, "nope", nil)
	assert.ErrorIs(t, err, domain.ErrEdgeNotFound)

	assert.True(t, kit.IsValidSchema(ctx, schema.Document{"type": "object"}))
	assert.False(t, kit.IsValidSchema(ctx, schema.Document{"type": "strnig"}))
}

func TestKit_Check(t *testing.T) {
	flow := testutils.BookingFlow()
	flow.Nodes[2].Edges = []domain.Edge{{ID: "dangling", TargetNodeID: "nowhere"}}

	kit, err := flowkit.New("", flowkit.WithLoader(memory.NewLoader(flow)))
	require.NoError(t, err)

	report := kit.Check(context.Background())
	require.Error(t, report.Err())
	assert.Len(t, report.Errors(), 1)
	assert.Equal(t, "dangling", report.Errors()[0].EdgeID)
}

func TestKit_Reload(t *testing.T) {
	loader := memory.NewLoader(testutils.BookingFlow())
	kit, err := flowkit.New("", flowkit.WithLoader(loader))
	require.NoError(t, err)

	diff, err := kit.Reload(context.Background())
	require.NoError(t, err)
	assert.Nil(t, diff)

	next := testutils.BookingFlow()
	next.Nodes = next.Nodes[:2]
	next.Nodes[1].Edges = next.Nodes[1].Edges[1:]
	loader.Set(next)

	diff, err = kit.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"done"}, diff.Removed)
	assert.Equal(t, []string{"ask_guests"}, diff.Changed)
	assert.True(t, diff.SchemasChanged)

	tools, err := kit.Tools("ask_guests")
	require.NoError(t, err)
	assert.Len(t, tools, 1)

	got, err := kit.LoadFlow(context.Background())
	require.NoError(t, err)
	assert.Same(t, next, got)
}

func TestKit_CallbacksAndValidation(t *testing.T) {
	var (
		mu          sync.Mutex
		transitions []string
		collected   []map[string]any
	)
	transition := callbacks.TransitionFunc(func(ctx context.Context, target, edgeID string) error {
		mu.Lock()
		defer mu.Unlock()
		transitions = append(transitions, edgeID+"->"+target)
		return nil
	})
	collect := callbacks.CollectFunc(func(ctx context.Context, data map[string]any, target, edgeID string) error {
		mu.Lock()
		defer mu.Unlock()
		collected = append(collected, data)
		return nil
	})

	kit, err := flowkit.New("",
		flowkit.WithLoader(memory.NewLoader(testutils.BookingFlow())),
		flowkit.WithCallbacks(transition, collect),
		flowkit.WithDataValidation(),
	)
	require.NoError(t, err)

	tools, err := kit.Tools("ask_guests")
	require.NoError(t, err)
	ctx := context.Background()

	err = tools[0].Invoke(ctx, map[string]any{"guests": "many"})
	var rejected *callbacks.RejectedError
	require.True(t, errors.As(err, &rejected), "got %v", err)
	assert.Equal(t, "collect_guests", rejected.EdgeID)

	require.NoError(t, tools[0].Invoke(ctx, map[string]any{"guests": 3}))
	require.NoError(t, tools[1].Invoke(ctx, nil))

	assert.Equal(t, []map[string]any{{"guests": 3}}, collected)
	assert.Equal(t, []string{"cancel->done"}, transitions)
}

func TestKit_Watch(t *testing.T) {
	kit, err := flowkit.New("", flowkit.WithLoader(memory.NewLoader(testutils.BookingFlow())))
	require.NoError(t, err)

	_, err = kit.Watch(context.Background())
	assert.Error(t, err)
}

func TestNew_FileIsReadOnReload(t *testing.T) {
	path := writeBookingFile(t)
	kit, err := flowkit.New(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("id: booking\nnodes:\n  - id: only\n"), 0o644))
	diff, err := kit.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, diff.Added)
	assert.Len(t, diff.Removed, 3)
}
