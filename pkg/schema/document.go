package schema

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Document is a JSON-Schema-shaped object, as decoded from JSON or YAML.
type Document map[string]any

// Source is anything that resolves to a schema document: a Document itself or a
// structured type descriptor.
type Source interface {
	Document() (Document, error)
}

// Document returns d unchanged.
func (d Document) Document() (Document, error) {
	return d, nil
}

// Resolve returns the document behind src.
func Resolve(src Source) (Document, error) {
	if src == nil {
		return nil, ErrNilSchema
	}
	if d, ok := src.(Document); ok {
		if d == nil {
			return nil, ErrNilSchema
		}
		return d, nil
	}
	doc, err := src.Document()
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrNilSchema
	}
	return doc, nil
}

// Property is one entry of a document's "properties" object.
type Property struct {
	Name        string
	Kind        string // Declared "type"; empty when absent or not a single kind.
	Format      string
	Description string
	Required    bool
	Schema      map[string]any
}

// Properties returns the document's properties sorted by name.
// A missing "properties" key yields no properties.
func (d Document) Properties() ([]Property, error) {
	raw, ok := d["properties"]
	if !ok || raw == nil {
		return nil, nil
	}
	props, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: \"properties\" must be an object, got %T", ErrMalformedSchema, raw)
	}

	required, err := d.Required()
	if err != nil {
		return nil, err
	}
	isRequired := make(map[string]bool, len(required))
	for _, name := range required {
		isRequired[name] = true
	}

	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Property, 0, len(names))
	for _, name := range names {
		sub, ok := props[name].(map[string]any)
		if !ok {
			if props[name] != nil {
				return nil, fmt.Errorf("%w: property %q must be an object, got %T", ErrMalformedSchema, name, props[name])
			}
			sub = map[string]any{}
		}
		p := Property{
			Name:     name,
			Required: isRequired[name],
			Schema:   sub,
		}
		p.Kind, _ = sub["type"].(string)
		p.Format, _ = sub["format"].(string)
		p.Description, _ = sub["description"].(string)
		out = append(out, p)
	}
	return out, nil
}

// Required returns the names listed under "required".
func (d Document) Required() ([]string, error) {
	raw, ok := d["required"]
	if !ok || raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: \"required\" entries must be strings, got %T", ErrMalformedSchema, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: \"required\" must be a list, got %T", ErrMalformedSchema, raw)
	}
}

// Clone returns a deep copy of d through a JSON round-trip.
func (d Document) Clone() (Document, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	var out Document
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
