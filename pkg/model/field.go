package model

import (
	"fmt"

	"github.com/aretw0/flowkit/pkg/schema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Field is one entry of the unified field map.
type Field struct {
	Name        string
	Type        schema.Type
	Required    bool
	Default     any // Always nil; optional fields start absent.
	Description string
	Format      string
}

// FieldMap maps field names to definitions, in order of first appearance.
type FieldMap = orderedmap.OrderedMap[string, Field]

// NewFieldMap returns an empty FieldMap.
func NewFieldMap() *FieldMap {
	return orderedmap.New[string, Field]()
}

// ExtractFields reads the field definitions of a schema or type descriptor.
// Unrecognized or absent kinds resolve to string; fields not listed under
// "required" are optional with a nil default.
//
// Properties of one schema come out sorted by name, not in declaration order:
// decoded documents are Go maps and keep no key order. Across edges the map keeps
// the order in which names first appear.
func ExtractFields(src schema.Source) (*FieldMap, error) {
	doc, err := schema.Resolve(src)
	if err != nil {
		return nil, err
	}
	props, err := doc.Properties()
	if err != nil {
		return nil, err
	}

	fields := NewFieldMap()
	for _, p := range props {
		fields.Set(p.Name, Field{
			Name:        p.Name,
			Type:        fieldType(p),
			Required:    p.Required,
			Default:     nil,
			Description: p.Description,
			Format:      p.Format,
		})
	}
	return fields, nil
}

// fieldType resolves a property's semantic type. Arrays keep a typed element when
// "items" declares a single kind.
func fieldType(p schema.Property) schema.Type {
	t := schema.TypeForKind(p.Kind)
	if p.Kind != schema.KindArray {
		return t
	}
	items, ok := p.Schema["items"].(map[string]any)
	if !ok {
		return t
	}
	kind, ok := items["type"].(string)
	if !ok {
		return t
	}
	elem, err := schema.ParseType(kind)
	if err != nil {
		return t
	}
	return schema.Slice(elem)
}

// sameDefinition reports whether two definitions agree on type and requiredness.
func sameDefinition(a, b Field) bool {
	return a.Required == b.Required && a.Type.Name() == b.Type.Name()
}

func (f Field) String() string {
	req := "optional"
	if f.Required {
		req = "required"
	}
	return fmt.Sprintf("%s %s (%s)", f.Name, f.Type.Name(), req)
}
