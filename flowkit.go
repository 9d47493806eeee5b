package flowkit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/aretw0/flowkit/internal/logging"
	"github.com/aretw0/flowkit/internal/metrics"
	"github.com/aretw0/flowkit/internal/validator"
	"github.com/aretw0/flowkit/pkg/adapters/file"
	loamAdapter "github.com/aretw0/flowkit/pkg/adapters/loam"
	"github.com/aretw0/flowkit/pkg/callbacks"
	"github.com/aretw0/flowkit/pkg/compiler"
	"github.com/aretw0/flowkit/pkg/domain"
	"github.com/aretw0/flowkit/pkg/model"
	"github.com/aretw0/flowkit/pkg/ports"
	"github.com/aretw0/flowkit/pkg/schema"
)

// Version is the library and CLI version.
const Version = "0.1.0"

// DefaultModelName is the name given to the synthesized model when none is requested.
const DefaultModelName = model.DefaultName

// Kit is the high-level entry point for the flowkit library.
// It owns a loaded flow and the compiler, synthesizer and validator built around it.
type Kit struct {
	loader ports.FlowLoader
	logger *slog.Logger

	metrics      *metrics.Recorder
	transitioner ports.Transitioner
	collector    ports.DataCollector
	validateData bool
	compilerOpts []compiler.Option

	validator   *schema.Validator
	synthesizer *model.Synthesizer

	mu       sync.RWMutex
	flow     *domain.Flow
	compiler *compiler.Compiler

	// Name is a descriptive label, usually the base name of the flow path.
	Name string
}

// Option defines a functional option for configuring the Kit.
type Option func(*Kit)

// WithLoader injects a custom FlowLoader, bypassing path-based loader selection.
func WithLoader(l ports.FlowLoader) Option {
	return func(k *Kit) {
		k.loader = l
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(k *Kit) {
		k.logger = logger
	}
}

// WithMetrics records compilation, invocation, validation and synthesis counters.
func WithMetrics(m *metrics.Recorder) Option {
	return func(k *Kit) {
		k.metrics = m
	}
}

// WithCallbacks sets the host callbacks invoked by compiled tools.
// Without them, tools are compiled against no-op callbacks.
func WithCallbacks(t ports.Transitioner, dc ports.DataCollector) Option {
	return func(k *Kit) {
		k.transitioner = t
		k.collector = dc
	}
}

// WithDataValidation makes data-collection tools validate their arguments against the
// edge's input schema before the collector sees them.
func WithDataValidation() Option {
	return func(k *Kit) {
		k.validateData = true
	}
}

// WithCompilerOptions passes extra options to the tool compiler.
func WithCompilerOptions(opts ...compiler.Option) Option {
	return func(k *Kit) {
		k.compilerOpts = append(k.compilerOpts, opts...)
	}
}

// New loads the flow at path and prepares a Kit around it.
// A directory is read with the Loam loader; a single file with the file loader.
// If WithLoader is provided, path is only used as a label and may be empty.
func New(path string, opts ...Option) (*Kit, error) {
	k := &Kit{}
	for _, opt := range opts {
		opt(k)
	}

	if k.loader == nil {
		if path == "" {
			return nil, errors.New("path is required when no custom loader is provided")
		}
		loader, err := loaderFor(path)
		if err != nil {
			return nil, err
		}
		k.loader = loader
	}
	if path != "" {
		k.Name = filepath.Base(path)
	}

	if k.logger == nil {
		k.logger = logging.NewNop()
	}
	if k.Name != "" {
		k.logger = k.logger.With("flow", k.Name)
	}

	k.validator = schema.NewValidator(schema.WithLogger(k.logger), schema.WithMetrics(k.metrics))
	k.synthesizer = model.New(model.WithLogger(k.logger), model.WithMetrics(k.metrics))

	if _, err := k.Reload(context.Background()); err != nil {
		return nil, err
	}
	return k, nil
}

func loaderFor(path string) (ports.FlowLoader, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrFlowNotFound, path)
		}
		return nil, err
	}
	if info.IsDir() {
		return loamAdapter.Open(abs)
	}
	return file.NewLoader(abs), nil
}

// Reload reads the flow again from the loader and rebuilds the compiler.
// The returned diff describes what changed relative to the previous flow; it is nil
// when nothing changed.
func (k *Kit) Reload(ctx context.Context) (*domain.FlowDiff, error) {
	flow, err := k.loader.LoadFlow(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load flow: %w", err)
	}
	if flow == nil {
		return nil, domain.ErrFlowNotFound
	}
	c, err := k.newCompiler()
	if err != nil {
		return nil, err
	}

	k.mu.Lock()
	prev := k.flow
	k.flow = flow
	k.compiler = c
	k.mu.Unlock()

	diff := domain.Diff(prev, flow)
	if prev != nil && diff != nil {
		k.logger.Debug("Flow reloaded",
			"added", len(diff.Added), "removed", len(diff.Removed), "changed", len(diff.Changed))
	}
	return diff, nil
}

func (k *Kit) newCompiler() (*compiler.Compiler, error) {
	var t ports.Transitioner = callbacks.Discard
	var dc ports.DataCollector = callbacks.Discard
	if k.transitioner != nil {
		t = k.transitioner
	}
	if k.collector != nil {
		dc = k.collector
	}
	if k.validateData {
		dc = callbacks.NewValidator(dc, k.edgeSchema, callbacks.WithSchemaValidator(k.validator))
	}

	opts := []compiler.Option{compiler.WithLogger(k.logger), compiler.WithMetrics(k.metrics)}
	opts = append(opts, k.compilerOpts...)
	return compiler.New(t, dc, opts...)
}

// edgeSchema resolves schemas against the current flow so validation follows reloads.
func (k *Kit) edgeSchema(edgeID string) (schema.Source, bool) {
	return callbacks.EdgeSchemas(k.Flow())(edgeID)
}

// Flow returns the currently loaded flow.
func (k *Kit) Flow() *domain.Flow {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.flow
}

// LoadFlow implements ports.FlowLoader by returning the currently loaded flow.
func (k *Kit) LoadFlow(ctx context.Context) (*domain.Flow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return k.Flow(), nil
}

// Loader returns the underlying FlowLoader.
func (k *Kit) Loader() ports.FlowLoader {
	return k.loader
}

// Compiler returns the tool compiler bound to the Kit's callbacks.
func (k *Kit) Compiler() *compiler.Compiler {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.compiler
}

// Node returns the node with the given ID.
func (k *Kit) Node(id string) (*domain.Node, error) {
	return k.Flow().Node(id)
}

// Tools compiles the tools exposed while the conversation sits on nodeID.
func (k *Kit) Tools(nodeID string) ([]domain.Tool, error) {
	node, err := k.Node(nodeID)
	if err != nil {
		return nil, err
	}
	return k.Compiler().CompileToolsForNode(*node)
}

// Model synthesizes the unified data model of the flow.
// An empty name falls back to DefaultModelName.
func (k *Kit) Model(name string) (*model.Model, error) {
	return k.synthesizer.Synthesize(k.Flow(), name)
}

// Validate checks data against the input schema of the edge with the given ID.
func (k *Kit) Validate(ctx context.Context, edgeID string, data map[string]any) (schema.Result, error) {
	edge, err := k.Flow().Edge(edgeID)
	if err != nil {
		return schema.Result{}, err
	}
	if !edge.HasInputSchema() {
		return schema.Result{}, &domain.ConfigurationError{Subject: edgeID, Err: domain.ErrMissingInputSchema}
	}
	return k.validator.Validate(ctx, data, schema.Document(edge.InputSchema)), nil
}

// IsValidSchema reports whether src is a usable schema.
func (k *Kit) IsValidSchema(ctx context.Context, src schema.Source) bool {
	return k.validator.IsValidSchema(ctx, src)
}

// Check lints the loaded flow.
func (k *Kit) Check(ctx context.Context) *validator.Report {
	return validator.ValidateFlow(ctx, k.Flow(), k.validator)
}

// Watch returns a channel that signals when the underlying flow changes.
// Returns an error if the loader does not support watching.
func (k *Kit) Watch(ctx context.Context) (<-chan string, error) {
	if w, ok := k.loader.(interface {
		Watch(ctx context.Context) (<-chan string, error)
	}); ok {
		return w.Watch(ctx)
	}
	return nil, errors.New("current loader does not support watching")
}
