package compiler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/flowkit/internal/logging"
	"github.com/aretw0/flowkit/internal/metrics"
	"github.com/aretw0/flowkit/internal/tracing"
	"github.com/aretw0/flowkit/pkg/domain"
	"github.com/aretw0/flowkit/pkg/ports"
)

// DescribeFunc produces the description of a transition tool.
type DescribeFunc func(edgeID string) string

// DefaultDescription is the transition description used when none is configured.
func DefaultDescription(edgeID string) string {
	return fmt.Sprintf("Transition via %s", edgeID)
}

// Compiler builds tools bound to a Transitioner and a DataCollector.
// It is stateless after construction and safe for concurrent use.
type Compiler struct {
	transitioner ports.Transitioner
	collector    ports.DataCollector
	describe     DescribeFunc
	logger       *slog.Logger
	metrics      *metrics.Recorder
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithTransitionDescriber sets the function describing transition tools.
func WithTransitionDescriber(fn DescribeFunc) Option {
	return func(c *Compiler) {
		if fn != nil {
			c.describe = fn
		}
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics sets the recorder for compile and invocation counters.
func WithMetrics(m *metrics.Recorder) Option {
	return func(c *Compiler) {
		c.metrics = m
	}
}

// New creates a Compiler. Both callbacks are required.
func New(t ports.Transitioner, dc ports.DataCollector, opts ...Option) (*Compiler, error) {
	if t == nil {
		return nil, &domain.ConfigurationError{Subject: "transitioner", Err: domain.ErrMissingCallback}
	}
	if dc == nil {
		return nil, &domain.ConfigurationError{Subject: "data collector", Err: domain.ErrMissingCallback}
	}

	c := &Compiler{
		transitioner: t,
		collector:    dc,
		describe:     DefaultDescription,
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// CompileDataCollectionTool compiles an edge carrying an input schema.
//
// The tool's parameters are the edge's input schema itself. On invocation the collector
// receives a shallow copy of the arguments with the edge's target and ID; nothing is
// validated here.
func (c *Compiler) CompileDataCollectionTool(edge domain.Edge) (domain.Tool, error) {
	if !edge.HasInputSchema() {
		return domain.Tool{}, &domain.ConfigurationError{Subject: edge.ID, Err: domain.ErrMissingInputSchema}
	}

	edgeID, targetNodeID := edge.ID, edge.TargetNodeID
	tool := domain.Tool{
		Name:         edge.ID,
		Description:  edge.Condition,
		Kind:         domain.ToolKindDataCollection,
		Parameters:   edge.InputSchema,
		EdgeID:       edgeID,
		TargetNodeID: targetNodeID,
	}
	tool.Handler = c.instrument(tool, func(ctx context.Context, args map[string]any) error {
		data := make(map[string]any, len(args))
		for k, v := range args {
			data[k] = v
		}
		return c.collector.CollectData(ctx, data, targetNodeID, edgeID)
	})

	c.metrics.ToolCompiled(string(tool.Kind))
	return tool, nil
}

// CompileTransitionTool compiles a parameterless tool moving to targetNodeID.
// Arguments passed on invocation are ignored.
func (c *Compiler) CompileTransitionTool(edgeID, targetNodeID string) domain.Tool {
	tool := domain.Tool{
		Name:         edgeID,
		Description:  c.describe(edgeID),
		Kind:         domain.ToolKindTransition,
		EdgeID:       edgeID,
		TargetNodeID: targetNodeID,
	}
	tool.Handler = c.instrument(tool, func(ctx context.Context, _ map[string]any) error {
		return c.transitioner.Transition(ctx, targetNodeID, edgeID)
	})

	c.metrics.ToolCompiled(string(tool.Kind))
	return tool
}

// CompileToolsForNode compiles the node's edges in order.
// An edge with an input schema yields a data-collection tool, else an edge with a target
// yields a transition tool, else it yields nothing. Duplicate names are kept.
func (c *Compiler) CompileToolsForNode(node domain.Node) ([]domain.Tool, error) {
	tools := make([]domain.Tool, 0, len(node.Edges))

	for _, edge := range node.Edges {
		switch {
		case edge.HasInputSchema():
			tool, err := c.CompileDataCollectionTool(edge)
			if err != nil {
				return nil, err
			}
			tools = append(tools, tool)
		case edge.HasTarget():
			tools = append(tools, c.CompileTransitionTool(edge.ID, edge.TargetNodeID))
		default:
			c.logger.Debug("edge compiles to no tool", "node_id", node.ID, "edge_id", edge.ID)
		}
	}

	return tools, nil
}

// instrument wraps fn with a span, metrics and debug logging.
// Callback errors are returned unchanged.
func (c *Compiler) instrument(tool domain.Tool, fn domain.ToolHandler) domain.ToolHandler {
	name, kind := tool.Name, string(tool.Kind)

	return func(ctx context.Context, args map[string]any) (err error) {
		ctx, span := tracing.StartSpan(ctx, "flowkit.tool.invoke", "tool", name, "kind", kind)
		start := time.Now()
		defer func() {
			c.metrics.ToolInvoked(kind, time.Since(start), err)
			span.SetStatus(err)
			span.End()
		}()

		c.logger.DebugContext(ctx, "invoking tool", "tool", name, "kind", kind)
		err = fn(ctx, args)
		if err != nil {
			c.logger.DebugContext(ctx, "tool callback failed", "tool", name, "error", err)
		}
		return err
	}
}
