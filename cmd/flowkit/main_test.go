package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/flowkit"
	"github.com/aretw0/flowkit/internal/testutils"
	"github.com/aretw0/flowkit/pkg/domain"
)

func bookingFile(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	testutils.WriteFiles(t, dir, map[string]string{"booking.yaml": testutils.BookingYAML})
	return filepath.Join(dir, "booking.yaml")
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	globalOpts.ConfigPath, globalOpts.Flow, globalOpts.LogLevel, globalOpts.Debug = "", "", "", false
	validateJSON, toolsJSON, modelSchema = false, false, false
	modelName = flowkit.DefaultModelName
	graphCurrent, graphVisited = "", nil

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "flowkit version "+flowkit.Version)
}

func TestValidateCmd(t *testing.T) {
	out, err := execute(t, "", "validate", bookingFile(t))
	require.NoError(t, err)
	assert.Contains(t, out, "No issues found")
	assert.Contains(t, out, "Flow is valid!")
}

func TestValidateCmd_Errors(t *testing.T) {
	dir := t.TempDir()
	testutils.WriteFiles(t, dir, map[string]string{
		"bad.yaml": "id: bad\nnodes:\n  - id: a\n    edges:\n      - id: e1\n        to: nowhere\n",
	})

	out, err := execute(t, "", "validate", "--json", filepath.Join(dir, "bad.yaml"))
	require.Error(t, err)

	var report struct {
		FlowID string `json:"flow_id"`
		Issues []struct {
			Severity string `json:"severity"`
			EdgeID   string `json:"edge_id"`
		} `json:"issues"`
	}
	require.NoError(t, json.NewDecoder(strings.NewReader(out)).Decode(&report))
	assert.Equal(t, "bad", report.FlowID)
	require.NotEmpty(t, report.Issues)
	assert.Equal(t, "e1", report.Issues[0].EdgeID)
}

func TestToolsCmd(t *testing.T) {
	path := bookingFile(t)

	out, err := execute(t, "", "tools", "--flow", path)
	require.NoError(t, err)
	assert.Contains(t, out, "# ask_name")
	assert.Contains(t, out, "`collect_name`")

	out, err = execute(t, "", "tools", "ask_guests", "--json", "--flow", path)
	require.NoError(t, err)
	var tools []domain.Tool
	require.NoError(t, json.Unmarshal([]byte(out), &tools))
	require.Len(t, tools, 2)
	assert.Equal(t, "cancel", tools[1].Name)
	assert.Equal(t, "Transition via cancel", tools[1].Description)

	_, err = execute(t, "", "tools", "nope", "--flow", path)
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)
}

func TestModelCmd(t *testing.T) {
	path := bookingFile(t)

	out, err := execute(t, "", "model", "--flow", path)
	require.NoError(t, err)
	assert.Contains(t, out, flowkit.DefaultModelName)
	assert.Contains(t, out, "guests")

	out, err = execute(t, "", "model", "--schema", "--name", "Booking", "--flow", path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "object", doc["type"])
	assert.Contains(t, doc["properties"], "email")
}

func TestCheckDataCmd(t *testing.T) {
	path := bookingFile(t)

	out, err := execute(t, "", "check-data", "collect_guests", `{"guests": 2}`, "--flow", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Data is valid for collect_guests")

	out, err = execute(t, `{"guests": 0}`, "check-data", "collect_guests", "-", "--flow", path)
	require.Error(t, err)
	assert.Contains(t, out, "Validation error at guests")

	dir := t.TempDir()
	testutils.WriteFiles(t, dir, map[string]string{"rec.json": `{"name": "Ada"}`})
	_, err = execute(t, "", "check-data", "collect_name", "@"+filepath.Join(dir, "rec.json"), "--flow", path)
	require.NoError(t, err)

	_, err = execute(t, "", "check-data", "collect_name", "[1]", "--flow", path)
	assert.Error(t, err)

	_, err = execute(t, "", "check-data", "cancel", "{}", "--flow", path)
	assert.ErrorIs(t, err, domain.ErrMissingInputSchema)
}

func TestGraphCmd(t *testing.T) {
	out, err := execute(t, "", "graph", "--current", "ask_guests", bookingFile(t))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "graph TD\n"))
	assert.Contains(t, out, "ask_guests")
}

func TestMissingFlow(t *testing.T) {
	_, err := execute(t, "", "tools", "--flow", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, domain.ErrFlowNotFound)
}
