/*
Package compiler turns the outgoing edges of a flow node into invocable tools.

An edge with an input schema becomes a data-collection tool bound to a ports.DataCollector;
an edge with only a target becomes a transition tool bound to a ports.Transitioner. The
compiler never validates arguments and never serializes invocations: both are left to the
callbacks (see pkg/callbacks).

	c, err := compiler.New(transitioner, collector)
	tools, err := c.CompileToolsForNode(node)
	err = tools[0].Invoke(ctx, map[string]any{"name": "Ann"})
*/
package compiler
