package schema

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
)

// TypeDescriptor is a structured type contract backed by a Go type.
// Exported fields become properties; fields without `omitempty` are required.
// Descriptions come from `jsonschema_description` or `jsonschema:"description=..."` tags.
type TypeDescriptor struct {
	typ reflect.Type
}

// TypeOf returns the descriptor for T.
func TypeOf[T any]() *TypeDescriptor {
	return TypeFor(reflect.TypeOf((*T)(nil)).Elem())
}

// TypeFor returns the descriptor for t. Pointer types are dereferenced.
func TypeFor(t reflect.Type) *TypeDescriptor {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return &TypeDescriptor{typ: t}
}

// Name returns the Go type name.
func (d *TypeDescriptor) Name() string {
	if d == nil || d.typ == nil {
		return ""
	}
	return d.typ.Name()
}

// Document converts the descriptor to its JSON-Schema-shaped representation.
// Nested types are inlined; no "$schema" or "$id" keys are emitted.
func (d *TypeDescriptor) Document() (doc Document, err error) {
	if d == nil || d.typ == nil {
		return nil, ErrNilSchema
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reflect %s: %v", d.typ, r)
		}
	}()

	r := &jsonschema.Reflector{
		Anonymous:                 true,
		DoNotReference:            true,
		ExpandedStruct:            d.typ.Kind() == reflect.Struct && d.typ.Name() != "",
		AllowAdditionalProperties: true,
	}
	s := r.ReflectFromType(d.typ)
	s.Version = ""

	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal %s schema: %w", d.typ, err)
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode %s schema: %w", d.typ, err)
	}
	return doc, nil
}
