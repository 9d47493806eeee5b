package model

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/flowkit/pkg/schema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Model is a structural type synthesized from a field map.
// A Model is immutable and is itself a schema.Source.
type Model struct {
	name   string
	fields *FieldMap

	// conflicts names fields that edges define with different types or requiredness.
	conflicts map[string]bool
}

// Record is an instance of a Model.
type Record map[string]any

// NewModel builds a model named name with a copy of fields.
func NewModel(name string, fields *FieldMap) *Model {
	own := NewFieldMap()
	if fields != nil {
		for pair := fields.Oldest(); pair != nil; pair = pair.Next() {
			own.Set(pair.Key, pair.Value)
		}
	}
	return &Model{name: name, fields: own}
}

// Name returns the model name.
func (m *Model) Name() string { return m.name }

// Len returns the number of fields.
func (m *Model) Len() int { return m.fields.Len() }

// Fields returns the fields in order of first appearance.
func (m *Model) Fields() []Field {
	out := make([]Field, 0, m.fields.Len())
	for pair := m.fields.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// Conflicts returns the fields whose definitions disagree across edges, in field order.
func (m *Model) Conflicts() []string {
	var out []string
	for pair := m.fields.Oldest(); pair != nil; pair = pair.Next() {
		if m.conflicts[pair.Key] {
			out = append(out, pair.Key)
		}
	}
	return out
}

// Field returns the field called name.
func (m *Model) Field(name string) (Field, bool) {
	return m.fields.Get(name)
}

// Required returns the names of the required fields.
func (m *Model) Required() []string {
	var out []string
	for pair := m.fields.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.Required {
			out = append(out, pair.Key)
		}
	}
	return out
}

// New instantiates a record. Required fields must be present; optional fields default
// to nil. Values are checked against their field types and undeclared keys are rejected.
func (m *Model) New(values map[string]any) (Record, error) {
	if err := schema.CheckFields(m.typeMap(), values, m.Required()); err != nil {
		return nil, fmt.Errorf("%s: %w", m.name, err)
	}
	rec := make(Record, m.fields.Len())
	for pair := m.fields.Oldest(); pair != nil; pair = pair.Next() {
		if v, ok := values[pair.Key]; ok {
			rec[pair.Key] = v
		} else {
			rec[pair.Key] = pair.Value.Default
		}
	}
	return rec, nil
}

// Merge returns a copy of rec updated with data. Values are checked against their
// field types, except for conflicting fields, whose values only have to satisfy the
// contract of the edge that collected them. Requiredness is not enforced so records
// can be filled step by step.
func (m *Model) Merge(rec Record, data map[string]any) (Record, error) {
	checked := make(map[string]any, len(data))
	for k, v := range data {
		if !m.conflicts[k] {
			checked[k] = v
		}
	}
	if err := schema.CheckFields(m.typeMap(), checked, nil); err != nil {
		return nil, fmt.Errorf("%s: %w", m.name, err)
	}
	out := make(Record, m.fields.Len())
	for pair := m.fields.Oldest(); pair != nil; pair = pair.Next() {
		out[pair.Key] = pair.Value.Default
	}
	for k, v := range rec {
		out[k] = v
	}
	for k, v := range data {
		out[k] = v
	}
	return out, nil
}

// Missing returns the required fields that are absent or nil in rec.
func (m *Model) Missing(rec Record) []string {
	var out []string
	for _, name := range m.Required() {
		if rec[name] == nil {
			out = append(out, name)
		}
	}
	return out
}

func (m *Model) typeMap() schema.Fields {
	fields := make(schema.Fields, m.fields.Len())
	for pair := m.fields.Oldest(); pair != nil; pair = pair.Next() {
		fields[pair.Key] = pair.Value.Type
	}
	return fields
}

// Document returns the JSON-Schema representation of the model.
// Optional fields accept null and carry a null default.
func (m *Model) Document() (schema.Document, error) {
	props := make(map[string]any, m.fields.Len())
	for pair := m.fields.Oldest(); pair != nil; pair = pair.Next() {
		props[pair.Key] = propertyDocument(pair.Value)
	}
	doc := schema.Document{
		"type":       schema.KindObject,
		"title":      m.name,
		"properties": props,
	}
	if req := m.Required(); len(req) > 0 {
		list := make([]any, len(req))
		for i, name := range req {
			list[i] = name
		}
		doc["required"] = list
	}
	return doc, nil
}

// MarshalJSON emits the model's JSON-Schema document with properties in field order.
func (m *Model) MarshalJSON() ([]byte, error) {
	props := orderedmap.New[string, map[string]any]()
	for pair := m.fields.Oldest(); pair != nil; pair = pair.Next() {
		props.Set(pair.Key, propertyDocument(pair.Value))
	}

	root := orderedmap.New[string, any]()
	root.Set("title", m.name)
	root.Set("type", schema.KindObject)
	root.Set("properties", props)
	if req := m.Required(); len(req) > 0 {
		root.Set("required", req)
	}
	return json.Marshal(root)
}

func propertyDocument(f Field) map[string]any {
	kind := schema.KindOf(f.Type)
	p := map[string]any{}
	if f.Required {
		p["type"] = kind
	} else {
		p["type"] = []any{kind, "null"}
		p["default"] = f.Default
	}
	if f.Description != "" {
		p["description"] = f.Description
	}
	if f.Format != "" {
		p["format"] = f.Format
	}
	if st, ok := f.Type.(*schema.SliceType); ok && st.Elem() != nil {
		p["items"] = map[string]any{"type": schema.KindOf(st.Elem())}
	}
	return p
}
