// Package schema validates data records against JSON-Schema-shaped contracts.
//
// A contract is a Source: either a Document (a decoded JSON-Schema object) or a
// TypeDescriptor reflected from a Go struct. Validation follows Draft-07 semantics for
// type, properties, required, format and nested objects/arrays, and never fails with an
// error: the outcome is always a Result.
//
// Basic usage:
//
//	contract := schema.Document{
//	    "type": "object",
//	    "properties": map[string]any{
//	        "age": map[string]any{"type": "integer"},
//	    },
//	    "required": []any{"age"},
//	}
//
//	res := schema.Validate(map[string]any{"age": "ten"}, contract)
//	// res.Valid == false
//	// res.Error == "Validation error at age: value must be an integer"
//
// Contracts can also come from Go types:
//
//	type Address struct {
//	    City string `json:"city" jsonschema_description:"City name"`
//	    Zip  string `json:"zip,omitempty"`
//	}
//
//	res := schema.Validate(data, schema.TypeOf[Address]())
//
// The package also provides a small semantic type system (String, Int, Float, Bool,
// Slice, Array, Object, Custom) used to check field values of synthesized models:
//
//	fields := schema.Fields{
//	    "name": schema.String(),
//	    "tags": schema.Slice(schema.String()),
//	}
//
//	err := schema.CheckFields(fields, data, []string{"name"})
package schema
