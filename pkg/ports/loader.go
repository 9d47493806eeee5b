package ports

import (
	"context"

	"github.com/aretw0/flowkit/pkg/domain"
)

// FlowLoader defines how a flow definition is retrieved.
// This allows the storage layer (File, Loam, Redis, Postgres, Memory) to be decoupled.
type FlowLoader interface {
	// LoadFlow reads the whole flow. It returns domain.ErrFlowNotFound when the
	// definition does not exist.
	LoadFlow(ctx context.Context) (*domain.Flow, error)
}
