package fsm

// GuardFunc decides whether a transition rule applies to the current state and event
type GuardFunc[S State, E Event] func(state S, event E) bool

// ActionFunc computes the state the machine moves to
type ActionFunc[S State, E Event] func(state S, event E) S

// TransitionOption configures a single transition rule
type TransitionOption[S State, E Event] func(*transitionRule[S, E])

// transitionRule represents one guarded transition out of a state
type transitionRule[S State, E Event] struct {
	eventName string
	guard     GuardFunc[S, E]
	action    ActionFunc[S, E]
}

// WithGuard adds a guard condition to the transition
func WithGuard[S State, E Event](guard GuardFunc[S, E]) TransitionOption[S, E] {
	return func(r *transitionRule[S, E]) {
		r.guard = guard
	}
}

// allows reports whether the rule's guard passes. A rule without guard always applies.
func (r *transitionRule[S, E]) allows(state S, event E) bool {
	if r.guard == nil {
		return true
	}
	return r.guard(state, event)
}
