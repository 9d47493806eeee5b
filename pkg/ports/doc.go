/*
Package ports defines the driven ports (interfaces) around the flow compiler.

These interfaces decouple the compiler from the hosting agent runtime and from the
storage layer that holds flow definitions.

# Key Interfaces

  - Transitioner: moves the conversation to a target node when a transition tool fires.
  - DataCollector: records data supplied to a data-collection tool.
  - FlowLoader: loads a flow definition (e.g., from a file, Loam, Redis or Postgres).
  - DistributedLocker: optional mutual exclusion for callbacks sharing conversation state.
*/
package ports
