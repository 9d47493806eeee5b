// Package flowdef decodes flow definitions written in YAML or JSON into domain flows.
//
// Edges accept "to", "jump_to" and "target_node_id" for the target, and "schema" as an
// alias of "input_schema". Node IDs with a document extension (.md, .json, .yaml, .yml)
// are trimmed so that a node can be referenced by its file name.
package flowdef
