package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/flowkit/internal/logging"
	"github.com/aretw0/flowkit/pkg/callbacks"
	"github.com/aretw0/flowkit/pkg/ports"
)

// HookError reports a hook that could not run or exited with a non-zero status.
type HookError struct {
	Hook   string
	Err    error
	Stderr string
}

func (e *HookError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s hook failed: %v", e.Hook, e.Err)
	}
	return fmt.Sprintf("%s hook failed: %v. Stderr: %s", e.Hook, e.Err, e.Stderr)
}

func (e *HookError) Unwrap() error {
	return e.Err
}

// Runner implements ports.Transitioner and ports.DataCollector by running local processes.
//
// Every hook gets FLOWKIT_EDGE_ID, FLOWKIT_TARGET_NODE_ID and FLOWKIT_CONVERSATION_ID.
// The collect hook also gets one FLOWKIT_ARG_<NAME> variable per collected field and the
// whole record as JSON on stdin. Arguments never become command-line flags.
type Runner struct {
	hooks   Hooks
	baseDir string
	timeout time.Duration
	logger  *slog.Logger
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithTimeout bounds each hook run. Zero means no bound beyond the caller's context.
func WithTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner creates a Runner for hooks.
func NewRunner(hooks Hooks, opts ...RunnerOption) *Runner {
	r := &Runner{
		hooks:  hooks,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Transition runs the transition hook.
func (r *Runner) Transition(ctx context.Context, targetNodeID, edgeID string) error {
	if r.hooks.Transition == nil {
		return nil
	}
	return r.run(ctx, "transition", r.hooks.Transition, baseEnv(ctx, targetNodeID, edgeID), nil)
}

// CollectData runs the collect hook.
func (r *Runner) CollectData(ctx context.Context, data map[string]any, targetNodeID, edgeID string) error {
	if r.hooks.Collect == nil {
		return nil
	}
	stdin, err := json.Marshal(data)
	if err != nil {
		return &HookError{Hook: "collect", Err: err}
	}
	env := append(baseEnv(ctx, targetNodeID, edgeID), argEnv(data)...)
	return r.run(ctx, "collect", r.hooks.Collect, env, stdin)
}

func (r *Runner) run(ctx context.Context, hook string, c *Command, env []string, stdin []byte) error {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.Command, c.Args...)
	cmd.Dir = r.baseDir
	cmd.Env = append(cmd.Environ(), env...)
	for k, v := range c.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	if err != nil {
		r.logger.WarnContext(ctx, "Hook failed", "hook", hook, "command", c.Command, "err", err)
		return &HookError{Hook: hook, Err: err, Stderr: strings.TrimSpace(stderr.String())}
	}
	r.logger.DebugContext(ctx, "Hook finished", "hook", hook, "command", c.Command,
		"elapsed", time.Since(start), "stdout", strings.TrimSpace(stdout.String()))
	return nil
}

func baseEnv(ctx context.Context, targetNodeID, edgeID string) []string {
	return []string{
		"FLOWKIT_EDGE_ID=" + edgeID,
		"FLOWKIT_TARGET_NODE_ID=" + targetNodeID,
		"FLOWKIT_CONVERSATION_ID=" + callbacks.ConversationID(ctx),
	}
}

// argEnv flattens data into FLOWKIT_ARG_<NAME> variables, sorted by name.
// Primitives are formatted as is; maps and slices as JSON.
func argEnv(data map[string]any) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys))
	for _, k := range keys {
		var val string
		switch v := data[k].(type) {
		case string, int, int64, float64, bool, json.Number:
			val = fmt.Sprintf("%v", v)
		case nil:
			val = ""
		default:
			if raw, err := json.Marshal(v); err == nil {
				val = string(raw)
			} else {
				val = fmt.Sprintf("%v", v)
			}
		}
		env = append(env, fmt.Sprintf("FLOWKIT_ARG_%s=%s", strings.ToUpper(k), val))
	}
	return env
}

var (
	_ ports.Transitioner  = (*Runner)(nil)
	_ ports.DataCollector = (*Runner)(nil)
)
