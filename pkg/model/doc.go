/*
Package model synthesizes one unified data model from every input schema of a flow.

Fields are extracted from each edge's input schema and merged in flow order (nodes, then
edges, then properties sorted by name). The first definition of a field name wins; later
definitions are discarded, optionally reported through a conflict handler.

	m, err := model.Synthesize(flow, "FlowUserData")
	rec, err := m.New(map[string]any{"name": "Ann"})
*/
package model
