package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/flowkit/internal/flowdef"
	"github.com/aretw0/flowkit/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by this package.
const DefaultPrefix = "flowkit:"

// Loader implements ports.FlowLoader over a definition stored at <prefix>flow:<id>.
// The value is JSON or YAML.
type Loader struct {
	client *backend.Client
	prefix string
	flowID string
	parser *flowdef.Parser
}

// Option configures the Loader.
type Option func(*Loader)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(l *Loader) {
		l.prefix = prefix
	}
}

// NewClient creates a client for the Redis server at url (redis://...).
func NewClient(url string) (*backend.Client, error) {
	o, err := backend.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return backend.NewClient(o), nil
}

// New connects to the Redis server at url (redis://...).
func New(url, flowID string, opts ...Option) (*Loader, error) {
	client, err := NewClient(url)
	if err != nil {
		return nil, err
	}
	return NewFromClient(client, flowID, opts...), nil
}

// NewFromClient wraps an existing client.
func NewFromClient(client *backend.Client, flowID string, opts ...Option) *Loader {
	l := &Loader{
		client: client,
		prefix: DefaultPrefix,
		flowID: flowID,
		parser: flowdef.NewParser(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Client returns the underlying client.
func (l *Loader) Client() *backend.Client {
	return l.client
}

func (l *Loader) key() string {
	return l.prefix + "flow:" + l.flowID
}

// LoadFlow fetches and parses the definition.
func (l *Loader) LoadFlow(ctx context.Context) (*domain.Flow, error) {
	data, err := l.client.Get(ctx, l.key()).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, fmt.Errorf("%w: %s", domain.ErrFlowNotFound, l.flowID)
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	flow, err := l.parser.Parse(data)
	if err != nil {
		return nil, err
	}
	if flow.ID == "" {
		flow.ID = l.flowID
	}
	return flow, nil
}

// Publish stores flow as JSON under the loader's key, replacing any previous definition.
func (l *Loader) Publish(ctx context.Context, flow *domain.Flow) error {
	data, err := json.Marshal(flow)
	if err != nil {
		return fmt.Errorf("failed to marshal flow: %w", err)
	}
	if err := l.client.Set(ctx, l.key(), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}
