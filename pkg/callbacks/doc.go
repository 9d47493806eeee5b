/*
Package callbacks provides building blocks for the Transitioner and DataCollector a
host plugs into the compiler.

  - TransitionFunc and CollectFunc adapt plain functions.
  - Validator checks collected data against the edge's input schema before passing it on.
  - Serialized runs callbacks one at a time per conversation, optionally across replicas
    through a ports.DistributedLocker.
  - Userdata accumulates collected data in a record of the flow's synthesized model.

A typical chain:

	ud := callbacks.NewUserdata(m)
	collector := callbacks.NewValidator(ud, callbacks.EdgeSchemas(flow))
	s := callbacks.NewSerialized(transitioner, collector, callbacks.WithLocker(locker))
	c, err := compiler.New(s, s)
*/
package callbacks
