/*
Package domain contains the core models of a conversation flow.

It is kept pure and free of I/O: loaders in pkg/adapters produce these values and the
compiler, synthesizer and validator consume them.

# Key Entities

  - Flow: an ordered collection of nodes describing a guided dialogue.
  - Node: a point in the flow with its outgoing edges.
  - Edge: a directed step, gated by an input schema (data collection) and/or a target node (transition).
  - Tool: a descriptor compiled from one edge, invocable by the hosting agent runtime.
*/
package domain
