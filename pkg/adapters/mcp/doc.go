// Package mcp serves compiled flow tools to agents over the Model Context Protocol.
//
// Only the tools of the active node are listed. With transition following enabled
// (the default), a successful transition tool call switches the listing to the
// target node. Data rejected by a callbacks.Validator is returned as a tool error
// so the agent can correct itself.
package mcp
