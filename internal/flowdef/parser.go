package flowdef

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aretw0/flowkit/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// ErrInvalidDefinition is returned for definitions that cannot form a flow.
var ErrInvalidDefinition = errors.New("invalid flow definition")

// Parser converts raw definitions into flows.
type Parser struct{}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// Parse decodes YAML or JSON content (JSON is valid YAML) into a Flow.
func (p *Parser) Parse(data []byte) (*domain.Flow, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse flow: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidDefinition)
	}
	return p.Decode(raw)
}

// Decode converts a generic map (as produced by JSON or YAML decoders) into a Flow.
func (p *Parser) Decode(raw map[string]any) (*domain.Flow, error) {
	var def FlowDefinition
	if err := decode(raw, &def); err != nil {
		return nil, fmt.Errorf("failed to decode flow: %w", err)
	}
	flow := &domain.Flow{ID: def.ID, Nodes: make([]domain.Node, 0, len(def.Nodes))}
	for i, nd := range def.Nodes {
		node, err := p.node(nd)
		if err != nil {
			return nil, fmt.Errorf("nodes[%d]: %w", i, err)
		}
		flow.Nodes = append(flow.Nodes, *node)
	}
	return flow, nil
}

// DecodeNode converts a single node document. fallbackID is used when the document
// carries no id (typically the file name).
func (p *Parser) DecodeNode(raw map[string]any, fallbackID string) (*domain.Node, error) {
	var def NodeDefinition
	if err := decode(raw, &def); err != nil {
		return nil, fmt.Errorf("failed to decode node: %w", err)
	}
	if def.ID == "" {
		def.ID = TrimExtension(fallbackID)
	}
	return p.node(def)
}

// Node converts an already decoded node definition.
func (p *Parser) Node(def NodeDefinition) (*domain.Node, error) {
	return p.node(def)
}

func (p *Parser) node(def NodeDefinition) (*domain.Node, error) {
	if def.ID == "" {
		return nil, fmt.Errorf("%w: node missing ID", ErrInvalidDefinition)
	}
	node := &domain.Node{
		ID:           TrimExtension(def.ID),
		Instructions: strings.TrimSpace(def.Instructions),
		Edges:        make([]domain.Edge, 0, len(def.Edges)),
	}
	for j, ed := range def.Edges {
		if ed.ID == "" {
			return nil, fmt.Errorf("%w: node %s: edges[%d] missing ID", ErrInvalidDefinition, node.ID, j)
		}
		node.Edges = append(node.Edges, domain.Edge{
			ID:           ed.ID,
			Condition:    strings.TrimSpace(ed.Condition),
			InputSchema:  Normalize(ed.inputSchema()),
			TargetNodeID: TrimExtension(ed.target()),
		})
	}
	return node, nil
}

func decode(input any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	return dec.Decode(Normalize(input))
}

// Normalize converts map[any]any values (as some YAML decoders produce) into
// map[string]any, recursively. Other values are returned as is.
func Normalize[T any](v T) T {
	out, _ := normalize(any(v)).(T)
	return out
}

func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		if val == nil {
			return val
		}
		out := make(map[string]any, len(val))
		for k, sub := range val {
			out[k] = normalize(sub)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, sub := range val {
			out[fmt.Sprintf("%v", k)] = normalize(sub)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, sub := range val {
			out[i] = normalize(sub)
		}
		return out
	default:
		return v
	}
}

// Extensions lists the document extensions a definition may be stored under.
var Extensions = []string{".md", ".json", ".yaml", ".yml"}

// TrimExtension strips a known document extension from an ID and uses forward slashes.
func TrimExtension(id string) string {
	ext := strings.ToLower(filepath.Ext(id))
	if slices.Contains(Extensions, ext) {
		id = id[:len(id)-len(ext)]
	}
	return filepath.ToSlash(id)
}
