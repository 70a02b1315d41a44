// Package fsm provides a small declarative finite state machine engine.
//
// A machine is defined with a fluent builder: exactly one initial state, any
// number of intermediate states and zero or more final states. Each state may
// carry an entry listener, an exit listener and an ordered list of guarded
// transition rules keyed by event variant. Build validates the definition and
// returns a running Machine.
//
// States and events are caller-defined variants. Their Name method is the
// variant tag used for lookups, so a sealed interface with one struct per
// variant is the natural way to model them:
//
//	type State interface{ fsm.State }
//
//	type Init struct{}
//	type Loading struct{ Progress float64 }
//
//	func (Init) Name() string    { return "Init" }
//	func (Loading) Name() string { return "Loading" }
//
// A Machine handles one event at a time. Process returns the state reached
// once the event, listeners included, was fully handled; CurrentState streams
// the latest state to any number of subscribers and CurrentStateSnapshot reads
// it synchronously. When a final state is reached, Process becomes a no-op.
package fsm
