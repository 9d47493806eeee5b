// Package http exposes a flow over a JSON API: inspection of nodes and their compiled
// tools, tool invocation, model synthesis, schema validation, Prometheus metrics and a
// server-sent event stream of definition changes.
package http
