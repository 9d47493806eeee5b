package schema

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// draft07Keywords are Draft-07 keywords the OpenAPI schema model does not know.
// They are tolerated next to known keywords but not enforced.
var draft07Keywords = []string{
	"$schema", "$id", "$comment", "examples", "contains", "propertyNames", "patternProperties",
	"dependencies", "if", "then", "else", "additionalItems",
	"contentMediaType", "contentEncoding",
}

// compile turns a document into a kin-openapi schema. doc is never modified.
func compile(doc Document) (*openapi3.Schema, error) {
	clone, err := doc.Clone()
	if err != nil {
		return nil, fmt.Errorf("encode schema: %w", err)
	}
	expanded, err := inlineRefs(clone)
	if err != nil {
		return nil, err
	}
	rewriteDraft07(expanded)

	raw, err := json.Marshal(expanded)
	if err != nil {
		return nil, fmt.Errorf("encode schema: %w", err)
	}
	s := &openapi3.Schema{}
	if err := json.Unmarshal(raw, s); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	return s, nil
}

// literalKeywords hold JSON values rather than subschemas.
var literalKeywords = map[string]bool{
	"enum": true, "const": true, "default": true, "examples": true, "example": true,
}

// inlineRefs returns a copy of root with every local "$ref" ("#" or "#/...") replaced by
// its target. Siblings of "$ref" are dropped and so are the definition containers.
// Other references are kept and surface later as unresolved.
func inlineRefs(root map[string]any) (map[string]any, error) {
	out, err := expandRefs(root, root, nil)
	if err != nil {
		return nil, err
	}
	m, ok := out.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: root reference must point to an object", ErrMalformedSchema)
	}
	return m, nil
}

// namedSchemas map names to subschemas, so their keys are never keywords.
var namedSchemas = map[string]bool{
	"properties": true, "patternProperties": true, "dependencies": true,
}

func expandRefs(root map[string]any, node any, seen []string) (any, error) {
	switch v := node.(type) {
	case map[string]any:
		if ref, ok := v["$ref"].(string); ok && strings.HasPrefix(ref, "#") {
			if slices.Contains(seen, ref) {
				return nil, fmt.Errorf("recursive schema reference %q", ref)
			}
			target, err := lookupPointer(root, ref)
			if err != nil {
				return nil, err
			}
			return expandRefs(root, target, append(seen, ref))
		}
		out := make(map[string]any, len(v))
		for k, child := range v {
			var err error
			switch {
			case k == "definitions" || k == "$defs":
				continue
			case literalKeywords[k]:
				out[k] = child
			case namedSchemas[k]:
				out[k], err = expandNamed(root, child, seen)
			default:
				out[k], err = expandRefs(root, child, seen)
			}
			if err != nil {
				return nil, err
			}
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, child := range v {
			expanded, err := expandRefs(root, child, seen)
			if err != nil {
				return nil, err
			}
			out[i] = expanded
		}
		return out, nil
	default:
		return node, nil
	}
}

func expandNamed(root map[string]any, node any, seen []string) (any, error) {
	named, ok := node.(map[string]any)
	if !ok {
		return node, nil
	}
	out := make(map[string]any, len(named))
	for name, child := range named {
		expanded, err := expandRefs(root, child, seen)
		if err != nil {
			return nil, err
		}
		out[name] = expanded
	}
	return out, nil
}

// lookupPointer resolves a "#/a/b" JSON pointer against root.
func lookupPointer(root map[string]any, ref string) (any, error) {
	pointer := strings.TrimPrefix(ref, "#")
	if pointer == "" {
		return root, nil
	}
	if !strings.HasPrefix(pointer, "/") {
		return nil, fmt.Errorf("unsupported schema reference %q", ref)
	}
	var cur any = root
	for _, token := range strings.Split(pointer[1:], "/") {
		token = strings.NewReplacer("~1", "/", "~0", "~").Replace(token)
		switch c := cur.(type) {
		case map[string]any:
			next, ok := c[token]
			if !ok {
				return nil, fmt.Errorf("unresolved schema reference %q", ref)
			}
			cur = next
		case []any:
			i, err := strconv.Atoi(token)
			if err != nil || i < 0 || i >= len(c) {
				return nil, fmt.Errorf("unresolved schema reference %q", ref)
			}
			cur = c[i]
		default:
			return nil, fmt.Errorf("unresolved schema reference %q", ref)
		}
	}
	return cur, nil
}

// rewriteDraft07 rewrites, in place, the Draft-07 constructs that the OpenAPI model spells
// differently: numeric exclusive bounds, "null" as a type, "const" and arrays without
// "items". Nodes that constrain no type accept null, as they do in Draft-07.
func rewriteDraft07(node map[string]any) {
	for _, kw := range [...]struct{ exclusive, bound string }{
		{"exclusiveMinimum", "minimum"},
		{"exclusiveMaximum", "maximum"},
	} {
		if n, ok := node[kw.exclusive].(float64); ok {
			node[kw.bound] = n
			node[kw.exclusive] = true
		}
	}

	if c, ok := node["const"]; ok {
		delete(node, "const")
		if _, hasEnum := node["enum"]; hasEnum {
			allOf, _ := node["allOf"].([]any)
			node["allOf"] = append(allOf, map[string]any{"enum": []any{c}})
		} else {
			node["enum"] = []any{c}
		}
	}

	switch t := node["type"].(type) {
	case string:
		if t == "null" {
			delete(node, "type")
			onlyNull(node)
		}
	case []any:
		kept := make([]any, 0, len(t))
		for _, item := range t {
			if item == "null" {
				node["nullable"] = true
				continue
			}
			kept = append(kept, item)
		}
		switch len(kept) {
		case 0:
			delete(node, "type")
			onlyNull(node)
		case 1:
			node["type"] = kept[0]
		default:
			node["type"] = kept
		}
	}

	if permitsArray(node["type"]) {
		if _, ok := node["items"]; !ok {
			node["items"] = map[string]any{}
		}
	}

	if props, ok := node["properties"].(map[string]any); ok {
		for _, p := range props {
			if m, ok := p.(map[string]any); ok {
				rewriteDraft07(m)
			}
		}
	}
	for _, key := range []string{"items", "additionalProperties", "not"} {
		if m, ok := node[key].(map[string]any); ok {
			rewriteDraft07(m)
		}
	}
	for _, key := range []string{"allOf", "anyOf", "oneOf"} {
		if list, ok := node[key].([]any); ok {
			for _, item := range list {
				if m, ok := item.(map[string]any); ok {
					rewriteDraft07(m)
				}
			}
		}
	}

	if enum, ok := node["enum"].([]any); ok && slices.Contains(enum, nil) {
		node["nullable"] = true
	}
	if _, typed := node["type"]; !typed && acceptsNull(node) {
		node["nullable"] = true
	}
}

// onlyNull restricts an untyped node to the null value.
func onlyNull(node map[string]any) {
	if _, ok := node["enum"]; !ok {
		node["enum"] = []any{nil}
	}
	node["nullable"] = true
}

// acceptsNull reports whether an untyped, already rewritten node lets null through.
// Enums and composition keywords decide for themselves; a lone "not" accepts null
// when its subschema does not.
func acceptsNull(node map[string]any) bool {
	for _, key := range [...]string{"enum", "allOf", "anyOf", "oneOf"} {
		if _, ok := node[key]; ok {
			return false
		}
	}
	if not, ok := node["not"].(map[string]any); ok {
		return not["nullable"] != true
	}
	return true
}

func permitsArray(t any) bool {
	switch v := t.(type) {
	case string:
		return v == KindArray
	case []any:
		for _, item := range v {
			if item == KindArray {
				return true
			}
		}
	}
	return false
}

func init() {
	// date, date-time and byte are registered by kin-openapi itself.
	openapi3.DefineStringFormatValidator("email", openapi3.NewRegexpFormatValidator(openapi3.FormatOfStringForEmail))
	openapi3.DefineIPv4Format()
	openapi3.DefineIPv6Format()
}
