package fsm

// State is the contract every machine state satisfies. Name returns the
// variant tag: two values with the same name are the same state as far as
// the registry is concerned, whatever payload they carry.
type State interface {
	Name() string
}

// Event is the contract every machine input satisfies. Name returns the
// variant tag used for transition lookup; the full value, payload included,
// is handed to guards and actions.
type Event interface {
	Name() string
}

// EnterFunc is invoked after the machine moved into a state. previous is the
// state that was left and event the event that caused the move; both are the
// zero value for the entry into the initial state.
type EnterFunc[S State, E Event] func(previous S, event E, state S)

// ExitFunc is invoked with the state being left and the triggering event.
// When a final state is reached its exit listener runs once with a zero event.
type ExitFunc[S State, E Event] func(state S, event E)

// stateDefinition holds everything registered for one state variant
type stateDefinition[S State, E Event] struct {
	name    string
	kind    StateKind
	onEnter EnterFunc[S, E]
	onExit  ExitFunc[S, E]
	rules   []transitionRule[S, E]
}

// StateKind tells where a state sits in the machine's lifecycle
type StateKind int

const (
	// KindIntermediate is a regular state with at least one transition
	KindIntermediate StateKind = iota
	// KindInitial is the state the machine starts in
	KindInitial
	// KindFinal is a terminal state; processing becomes a no-op once reached
	KindFinal
)

// String returns the kind name
func (k StateKind) String() string {
	switch k {
	case KindInitial:
		return "initial"
	case KindFinal:
		return "final"
	default:
		return "intermediate"
	}
}

func (d *stateDefinition[S, E]) isFinal() bool {
	return d.kind == KindFinal
}

// enter runs the entry listener, if any
func (d *stateDefinition[S, E]) enter(previous S, event E, state S) {
	if d.onEnter != nil {
		d.onEnter(previous, event, state)
	}
}

// exit runs the exit listener, if any
func (d *stateDefinition[S, E]) exit(state S, event E) {
	if d.onExit != nil {
		d.onExit(state, event)
	}
}

// findRule returns the first rule matching the event whose guard passes
func (d *stateDefinition[S, E]) findRule(current S, event E) (*transitionRule[S, E], bool) {
	eventName := event.Name()
	for i := range d.rules {
		rule := &d.rules[i]
		if rule.eventName != eventName {
			continue
		}
		if rule.allows(current, event) {
			return rule, true
		}
	}
	return nil, false
}
