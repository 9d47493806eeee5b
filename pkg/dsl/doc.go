/*
Package dsl provides a fluent Go builder for flows.

It is an alternative to YAML, JSON or Markdown definitions for flows that are
generated in code or written inline in tests.

Example usage:

	b := dsl.New("booking")

	b.Add("ask_name").
		Instructions("Ask for the guest's name.").
		Collect("collect_name", "The guest gave their name", map[string]any{
			"type":       "object",
			"properties": map[string]any{"name": map[string]any{"type": "string"}},
			"required":   []any{"name"},
		}).
		To("ask_guests")

	b.Add("ask_guests").
		CollectType("collect_guests", "The guest said how many people are coming", schema.TypeOf[Party]()).
		To("done").
		Go("cancel", "done")

	b.Add("done").Instructions("Thank the guest.")

	flow, err := b.Flow()
*/
package dsl
