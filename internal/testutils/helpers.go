package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/flowkit/pkg/domain"
	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/stretchr/testify/require"
)

// SetupTestRepo creates a temporary directory and initializes a Loam repository in it.
// It returns the absolute path to the temp dir and the initialized repository.
// It fails the test immediately on error.
func SetupTestRepo(t *testing.T, opts ...loam.Option) (string, core.Repository) {
	t.Helper()

	absPath, err := filepath.Abs(t.TempDir())
	require.NoError(t, err, "Failed to get absolute path for temp dir")

	repo, err := loam.Init(absPath, opts...)
	require.NoError(t, err, "Failed to init loam repo")

	return absPath, repo
}

// WriteFiles writes name -> content pairs under dir.
func WriteFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

// BookingFlow returns the flow described by BookingYAML.
func BookingFlow() *domain.Flow {
	return &domain.Flow{
		ID: "booking",
		Nodes: []domain.Node{
			{
				ID:           "ask_name",
				Instructions: "Ask for the guest's name.",
				Edges: []domain.Edge{{
					ID:        "collect_name",
					Condition: "The user told us their name",
					InputSchema: map[string]any{
						"type": "object",
						"properties": map[string]any{
							"name": map[string]any{"type": "string"},
						},
						"required": []any{"name"},
					},
					TargetNodeID: "ask_guests",
				}},
			},
			{
				ID: "ask_guests",
				Edges: []domain.Edge{
					{
						ID:        "collect_guests",
						Condition: "The user said how many guests are coming",
						InputSchema: map[string]any{
							"type": "object",
							"properties": map[string]any{
								"guests": map[string]any{"type": "integer", "minimum": 1},
								"email":  map[string]any{"type": "string", "format": "email"},
							},
							"required": []any{"guests"},
						},
						TargetNodeID: "done",
					},
					{ID: "cancel", TargetNodeID: "done"},
				},
			},
			{ID: "done", Instructions: "Thank the guest."},
		},
	}
}

// BookingYAML is the YAML definition of BookingFlow.
const BookingYAML = `id: booking
nodes:
  - id: ask_name
    instructions: Ask for the guest's name.
    edges:
      - id: collect_name
        condition: The user told us their name
        input_schema:
          type: object
          properties:
            name: {type: string}
          required: [name]
        to: ask_guests
  - id: ask_guests
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
      - id: cancel
        to: done
  - id: done
    instructions: Thank the guest.
`
