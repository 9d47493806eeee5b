// Package postgres loads flow definitions stored as JSONB rows.
//
// The expected table:
//
//	CREATE TABLE flows (
//	    definition JSONB NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/flowkit/internal/flowdef"
	"github.com/aretw0/flowkit/pkg/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgx used by the loader. *pgxpool.Pool, *pgx.Conn and
// pgx.Tx satisfy it.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Loader implements ports.FlowLoader over the flows table.
type Loader struct {
	db     Querier
	flowID string
	parser *flowdef.Parser
}

// New wraps an existing connection or pool.
func New(db Querier, flowID string) *Loader {
	return &Loader{db: db, flowID: flowID, parser: flowdef.NewParser()}
}

// Open creates a connection pool for url. The caller closes the pool.
func Open(ctx context.Context, url, flowID string) (*Loader, *pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return New(pool, flowID), pool, nil
}

// LoadFlow fetches the definition whose "id" matches the loader's flow ID.
func (l *Loader) LoadFlow(ctx context.Context) (*domain.Flow, error) {
	var definition []byte

	err := l.db.QueryRow(ctx, `
		SELECT definition
		FROM flows
		WHERE definition->>'id' = $1
	`, l.flowID).Scan(&definition)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrFlowNotFound, l.flowID)
		}
		return nil, fmt.Errorf("postgres query failed: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(definition, &raw); err != nil {
		return nil, fmt.Errorf("invalid flow format: %w", err)
	}
	return l.parser.Decode(raw)
}

// Publish replaces the stored definition of flow.ID, inserting it when absent.
func (l *Loader) Publish(ctx context.Context, flow *domain.Flow) error {
	definition, err := json.Marshal(flow)
	if err != nil {
		return fmt.Errorf("failed to marshal flow: %w", err)
	}

	tag, err := l.db.Exec(ctx, `
		UPDATE flows
		SET definition = $1,
		    updated_at = now()
		WHERE definition->>'id' = $2
	`, definition, flow.ID)
	if err != nil {
		return fmt.Errorf("postgres update failed: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	if _, err := l.db.Exec(ctx, `INSERT INTO flows (definition) VALUES ($1)`, definition); err != nil {
		return fmt.Errorf("postgres insert failed: %w", err)
	}
	return nil
}
