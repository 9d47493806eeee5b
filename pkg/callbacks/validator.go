package callbacks

import (
	"context"
	"fmt"

	"github.com/aretw0/flowkit/pkg/domain"
	"github.com/aretw0/flowkit/pkg/ports"
	"github.com/aretw0/flowkit/pkg/schema"
)

// RejectedError is returned when collected data does not satisfy the edge's contract.
// Hosts relay Message back to the conversation instead of failing the turn.
type RejectedError struct {
	EdgeID string
	Result schema.Result
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("edge %s: %s", e.EdgeID, e.Result.Error)
}

// Message is the text to show to the agent.
func (e *RejectedError) Message() string {
	return e.Result.Error
}

// SchemaLookup returns the input schema of an edge.
type SchemaLookup func(edgeID string) (schema.Source, bool)

// EdgeSchemas looks schemas up in flow. The first edge with a given ID wins.
func EdgeSchemas(flow *domain.Flow) SchemaLookup {
	idx := make(map[string]schema.Source)
	if flow != nil {
		for _, node := range flow.Nodes {
			for _, edge := range node.Edges {
				if _, seen := idx[edge.ID]; seen || !edge.HasInputSchema() {
					continue
				}
				idx[edge.ID] = schema.Document(edge.InputSchema)
			}
		}
	}
	return func(edgeID string) (schema.Source, bool) {
		src, ok := idx[edgeID]
		return src, ok
	}
}

// Validator is a DataCollector that validates data before handing it to the next collector.
type Validator struct {
	next      ports.DataCollector
	lookup    SchemaLookup
	validator *schema.Validator
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithSchemaValidator sets the schema validator (for logging and metrics).
func WithSchemaValidator(v *schema.Validator) ValidatorOption {
	return func(c *Validator) {
		if v != nil {
			c.validator = v
		}
	}
}

// NewValidator wraps next. Data for edges unknown to lookup passes through unchecked.
func NewValidator(next ports.DataCollector, lookup SchemaLookup, opts ...ValidatorOption) *Validator {
	c := &Validator{
		next:      next,
		lookup:    lookup,
		validator: schema.NewValidator(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CollectData validates data and forwards it. Invalid data yields a *RejectedError and
// never reaches the next collector.
func (c *Validator) CollectData(ctx context.Context, data map[string]any, targetNodeID, edgeID string) error {
	if src, ok := c.lookup(edgeID); ok {
		if res := c.validator.Validate(ctx, data, src); !res.Valid {
			return &RejectedError{EdgeID: edgeID, Result: res}
		}
	}
	return c.next.CollectData(ctx, data, targetNodeID, edgeID)
}
