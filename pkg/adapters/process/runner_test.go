package process

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/flowkit/pkg/callbacks"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("hooks tests use sh")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func sh(script string) *Command {
	return &Command{Command: "sh", Args: []string{"-c", script}}
}

func TestRunner_Transition(t *testing.T) {
	requireShell(t)
	out := filepath.Join(t.TempDir(), "out")

	r := NewRunner(Hooks{
		Transition: sh(`echo "$FLOWKIT_CONVERSATION_ID $FLOWKIT_EDGE_ID $FLOWKIT_TARGET_NODE_ID" > "$OUT"`),
	})
	r.hooks.Transition.Env = map[string]string{"OUT": out}

	ctx := callbacks.WithConversationID(context.Background(), "c1")
	require.NoError(t, r.Transition(ctx, "done", "cancel"))

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "c1 cancel done", strings.TrimSpace(string(got)))
}

func TestRunner_Collect(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()

	r := NewRunner(Hooks{
		Collect: sh(`cat > stdin.json; echo "$FLOWKIT_ARG_NAME $FLOWKIT_ARG_GUESTS $FLOWKIT_ARG_TAGS" > env.txt`),
	}, WithBaseDir(dir))

	data := map[string]any{"name": "Ada", "guests": 2, "tags": []any{"vip"}}
	require.NoError(t, r.CollectData(context.Background(), data, "done", "collect_guests"))

	stdin, err := os.ReadFile(filepath.Join(dir, "stdin.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Ada","guests":2,"tags":["vip"]}`, string(stdin))

	env, err := os.ReadFile(filepath.Join(dir, "env.txt"))
	require.NoError(t, err)
	assert.Equal(t, `Ada 2 ["vip"]`, strings.TrimSpace(string(env)))
}

func TestRunner_Failure(t *testing.T) {
	requireShell(t)
	r := NewRunner(Hooks{Collect: sh(`echo "no database" >&2; exit 3`)})

	err := r.CollectData(context.Background(), map[string]any{}, "", "e")
	var hookErr *HookError
	require.True(t, errors.As(err, &hookErr), "got %v", err)
	assert.Equal(t, "collect", hookErr.Hook)
	assert.Equal(t, "no database", hookErr.Stderr)

	var exitErr *exec.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 3, exitErr.ExitCode())
}

func TestRunner_Timeout(t *testing.T) {
	requireShell(t)
	r := NewRunner(Hooks{Transition: sh("sleep 5")}, WithTimeout(50*time.Millisecond))

	start := time.Now()
	assert.Error(t, r.Transition(context.Background(), "b", "e"))
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestRunner_NoHooks(t *testing.T) {
	r := NewRunner(Hooks{})
	assert.NoError(t, r.Transition(context.Background(), "b", "e"))
	assert.NoError(t, r.CollectData(context.Background(), map[string]any{"x": 1}, "b", "e"))
	assert.True(t, Hooks{}.Empty())
}

func TestLoadHooks(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "hooks.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("collect:\n  command: ./save.sh\n  args: [--db, x]\n"), 0o644))
	jsonPath := filepath.Join(dir, "hooks.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"transition": {"command": "./moved.sh"}}`), 0o644))
	badPath := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(badPath, []byte("collect:\n  args: [x]\n"), 0o644))

	hooks, err := LoadHooks(yamlPath)
	require.NoError(t, err)
	require.NotNil(t, hooks.Collect)
	assert.Equal(t, []string{"--db", "x"}, hooks.Collect.Args)
	assert.Nil(t, hooks.Transition)

	hooks, err = LoadHooks(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "./moved.sh", hooks.Transition.Command)

	hooks, err = LoadHooks(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.True(t, hooks.Empty())

	_, err = LoadHooks(badPath)
	assert.Error(t, err)
}
