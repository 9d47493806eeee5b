package loam

import (
	"cmp"
	"context"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/aretw0/flowkit/internal/flowdef"
	"github.com/aretw0/flowkit/pkg/domain"
	"github.com/aretw0/loam"
)

// Loader adapts a Loam repository to ports.FlowLoader.
// Every document in the repository is a node; the flow is the whole directory.
type Loader struct {
	Repo   *loam.TypedRepository[NodeMetadata]
	flowID string
	parser *flowdef.Parser
}

// Option configures the Loader.
type Option func(*Loader)

// WithFlowID sets the flow ID. Open defaults it to the directory name.
func WithFlowID(id string) Option {
	return func(l *Loader) {
		l.flowID = id
	}
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[NodeMetadata], opts ...Option) *Loader {
	l := &Loader{
		Repo:   repo,
		parser: flowdef.NewParser(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Open initializes a read-only Loam repository at dir and wraps it.
func Open(dir string, opts ...Option) (*Loader, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	// Strict mode makes every serializer return json.Number, so integer schema
	// constraints keep their exact value.
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}

	opts = append([]Option{WithFlowID(filepath.Base(absPath))}, opts...)
	return New(loam.NewTypedRepository[NodeMetadata](repo), opts...), nil
}

// LoadFlow reads every document and assembles the flow.
// Nodes are ordered by their "order" key, then by ID.
func (l *Loader) LoadFlow(ctx context.Context) (*domain.Flow, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no node documents", domain.ErrFlowNotFound)
	}

	seen := make(map[string]string, len(docs))
	defs := make([]flowdef.NodeDefinition, 0, len(docs))
	for _, doc := range docs {
		def := doc.Data.definition(doc.ID, doc.Content)

		if existing, ok := seen[def.ID]; ok {
			return nil, fmt.Errorf("collision detected: ID '%s' is defined in both '%s' and '%s'", def.ID, existing, doc.ID)
		}
		seen[def.ID] = doc.ID
		defs = append(defs, def)
	}

	slices.SortStableFunc(defs, func(a, b flowdef.NodeDefinition) int {
		if c := cmp.Compare(a.Order, b.Order); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	flow := &domain.Flow{ID: l.flowID, Nodes: make([]domain.Node, 0, len(defs))}
	for _, def := range defs {
		node, err := l.parser.Node(def)
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", seen[def.ID], err)
		}
		flow.Nodes = append(flow.Nodes, *node)
	}
	return flow, nil
}

// Watch emits the ID of every changed document until ctx is done.
func (l *Loader) Watch(ctx context.Context) (<-chan string, error) {
	events, err := l.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)

	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- evt.ID:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}
