/*
Package flowkit compiles a declarative conversation flow into callable, schema-validated tools.

A flow is a graph of nodes joined by edges. While a conversation sits on a node, the agent
driving it is offered one tool per outgoing edge:

  - An edge with an input schema becomes a data-collection tool. Its parameters are the
    schema; invoking it hands the arguments to the host's DataCollector.
  - An edge with only a target becomes a transition tool. It takes no arguments and asks the
    host's Transitioner to move the conversation.

flowkit also merges every input schema of a flow into one data model, and validates records
against JSON-Schema (Draft-07 style) contracts.

# Usage

	kit, err := flowkit.New("./booking",
		flowkit.WithCallbacks(host, host),
		flowkit.WithDataValidation(),
	)
	if err != nil {
		log.Fatal(err)
	}

	tools, err := kit.Tools("ask_name")
	if err != nil {
		log.Fatal(err)
	}
	for _, tool := range tools {
		fmt.Println(tool.Name, tool.Description)
	}

	m, err := kit.Model("Booking")

A directory is read with the Loam loader (one Markdown, JSON or YAML document per node);
a single file holds the whole flow. Inject any other ports.FlowLoader with WithLoader.

Flow state, persistence and the agent runtime belong to the host. The pkg/adapters/mcp and
pkg/adapters/http packages provide ready-made hosts.
*/
package flowkit
