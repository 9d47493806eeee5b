package model

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/flowkit/internal/logging"
	"github.com/aretw0/flowkit/internal/metrics"
	"github.com/aretw0/flowkit/pkg/domain"
	"github.com/aretw0/flowkit/pkg/schema"
)

// DefaultName is the model name used when none is given.
const DefaultName = "FlowUserData"

// Conflict describes a field definition discarded by the first-wins merge.
type Conflict struct {
	Field           string
	Kept            Field
	KeptEdgeID      string
	Discarded       Field
	DiscardedEdgeID string
}

func (c Conflict) String() string {
	return fmt.Sprintf("field %q: kept %s from edge %s, discarded %s from edge %s",
		c.Field, c.Kept, c.KeptEdgeID, c.Discarded, c.DiscardedEdgeID)
}

// Synthesizer builds unified field maps and models.
// It holds no mutable state and is safe for concurrent use.
type Synthesizer struct {
	logger     *slog.Logger
	metrics    *metrics.Recorder
	onConflict func(Conflict)
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithLogger sets the logger. Discarded definitions are logged at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Synthesizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Recorder) Option {
	return func(s *Synthesizer) {
		s.metrics = m
	}
}

// WithConflictHandler registers fn to be called for every discarded definition that
// differs from the kept one in type or requiredness. The merge result is unaffected.
func WithConflictHandler(fn func(Conflict)) Option {
	return func(s *Synthesizer) {
		s.onConflict = fn
	}
}

// New creates a Synthesizer.
func New(opts ...Option) *Synthesizer {
	s := &Synthesizer{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BuildFieldMap merges the fields of every non-empty input schema in flow order.
// The first definition of a name wins.
func (s *Synthesizer) BuildFieldMap(flow *domain.Flow) (*FieldMap, error) {
	return s.buildFieldMap(flow, nil)
}

func (s *Synthesizer) buildFieldMap(flow *domain.Flow, conflicts map[string]bool) (*FieldMap, error) {
	all := NewFieldMap()
	if flow == nil {
		return all, nil
	}

	origin := make(map[string]string)

	for _, node := range flow.Nodes {
		for _, edge := range node.Edges {
			if !edge.HasInputSchema() {
				continue
			}
			fields, err := ExtractFields(schema.Document(edge.InputSchema))
			if err != nil {
				return nil, fmt.Errorf("edge %s: %w", edge.ID, err)
			}

			for pair := fields.Oldest(); pair != nil; pair = pair.Next() {
				kept, exists := all.Get(pair.Key)
				if !exists {
					all.Set(pair.Key, pair.Value)
					origin[pair.Key] = edge.ID
					continue
				}
				if sameDefinition(kept, pair.Value) {
					continue
				}
				c := Conflict{
					Field:           pair.Key,
					Kept:            kept,
					KeptEdgeID:      origin[pair.Key],
					Discarded:       pair.Value,
					DiscardedEdgeID: edge.ID,
				}
				if conflicts != nil {
					conflicts[c.Field] = true
				}
				s.logger.Debug("field definition discarded", "field", c.Field, "kept_edge", c.KeptEdgeID, "edge_id", c.DiscardedEdgeID)
				if s.onConflict != nil {
					s.onConflict(c)
				}
			}
		}
	}
	return all, nil
}

// Synthesize builds the unified model of flow under name (DefaultName when empty).
// A flow without input schemas yields a valid model with no fields.
func (s *Synthesizer) Synthesize(flow *domain.Flow, name string) (*Model, error) {
	if name == "" {
		name = DefaultName
	}
	conflicts := make(map[string]bool)
	fields, err := s.buildFieldMap(flow, conflicts)
	if err != nil {
		return nil, err
	}
	s.metrics.ModelSynthesized()
	m := NewModel(name, fields)
	m.conflicts = conflicts
	return m, nil
}

// BuildFieldMap merges the fields of flow with a default Synthesizer.
func BuildFieldMap(flow *domain.Flow) (*FieldMap, error) {
	return New().BuildFieldMap(flow)
}

// Synthesize builds the unified model of flow with a default Synthesizer.
func Synthesize(flow *domain.Flow, name string) (*Model, error) {
	return New().Synthesize(flow, name)
}
