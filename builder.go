package fsm

import "context"

// Builder accumulates state definitions and validates them into a Machine.
//
//	m, err := fsm.NewMachine[State, Event]().
//		InitialState(Init{}, func(s *fsm.StateConfig[State, Event]) {
//			s.Transition(LoadData{}, func(State, Event) State { return Loading{} })
//		}).
//		State(Loading{}, func(s *fsm.StateConfig[State, Event]) {
//			s.Transition(LoadedData{}, func(State, Event) State { return Success{} })
//		}).
//		FinalState(Success{}, nil).
//		Build(ctx)
type Builder[S State, E Event] struct {
	initial          S
	hasInitial       bool
	redefinedInitial string
	registrations    []*stateDefinition[S, E]
}

// StateConfig configures listeners and transitions of a single state
type StateConfig[S State, E Event] struct {
	def *stateDefinition[S, E]
}

// NewMachine creates a new machine builder
func NewMachine[S State, E Event]() *Builder[S, E] {
	return &Builder[S, E]{
		registrations: make([]*stateDefinition[S, E], 0),
	}
}

// InitialState registers the state the machine starts in. The value itself,
// payload included, becomes the first current state.
func (b *Builder[S, E]) InitialState(state S, configure func(*StateConfig[S, E])) *Builder[S, E] {
	if b.hasInitial && b.initial.Name() != state.Name() {
		if b.redefinedInitial == "" {
			b.redefinedInitial = b.initial.Name()
		}
		return b
	}

	b.initial = state
	b.hasInitial = true
	b.register(state, KindInitial, configure)
	return b
}

// State registers an intermediate state
func (b *Builder[S, E]) State(state S, configure func(*StateConfig[S, E])) *Builder[S, E] {
	b.register(state, KindIntermediate, configure)
	return b
}

// FinalState registers a terminal state. configure may be nil.
func (b *Builder[S, E]) FinalState(state S, configure func(*StateConfig[S, E])) *Builder[S, E] {
	b.register(state, KindFinal, configure)
	return b
}

func (b *Builder[S, E]) register(state S, kind StateKind, configure func(*StateConfig[S, E])) {
	def := &stateDefinition[S, E]{
		name:  state.Name(),
		kind:  kind,
		rules: make([]transitionRule[S, E], 0),
	}

	if configure != nil {
		configure(&StateConfig[S, E]{def: def})
	}

	b.registrations = append(b.registrations, def)
}

// Registry validates the accumulated definitions and freezes them
func (b *Builder[S, E]) Registry() (*Registry[S, E], error) {
	if err := b.validate(); err != nil {
		return nil, err
	}

	registry := &Registry[S, E]{
		initial:     b.initial,
		order:       make([]string, 0, len(b.registrations)),
		definitions: make(map[string]*stateDefinition[S, E], len(b.registrations)),
	}

	for _, def := range b.registrations {
		rules := make([]transitionRule[S, E], len(def.rules))
		copy(rules, def.rules)

		registry.order = append(registry.order, def.name)
		registry.definitions[def.name] = &stateDefinition[S, E]{
			name:    def.name,
			kind:    def.kind,
			onEnter: def.onEnter,
			onExit:  def.onExit,
			rules:   rules,
		}
	}

	return registry, nil
}

// Build validates the definition and starts a machine in its initial state.
// ctx bounds the machine's lifetime: once it is done, Process stops accepting
// events and state subscriptions are closed.
func (b *Builder[S, E]) Build(ctx context.Context, opts ...MachineOption) (*Machine[S, E], error) {
	registry, err := b.Registry()
	if err != nil {
		return nil, err
	}
	return newMachine(ctx, registry, opts...), nil
}

// MustBuild is like Build but panics on an invalid definition
func (b *Builder[S, E]) MustBuild(ctx context.Context, opts ...MachineOption) *Machine[S, E] {
	m, err := b.Build(ctx, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

// validate checks the machine configuration
func (b *Builder[S, E]) validate() error {
	if !b.hasInitial {
		return ErrInitialStateRequired
	}

	seen := make(map[string]bool, len(b.registrations))
	for _, def := range b.registrations {
		if seen[def.name] {
			return NewStateAlreadyRegisteredError(def.name)
		}
		seen[def.name] = true
	}

	if b.redefinedInitial != "" {
		return NewInitialStateRedefinedError(b.redefinedInitial)
	}

	if len(b.registrations) < 2 {
		return ErrNotEnoughStates
	}

	transitions := 0
	for _, def := range b.registrations {
		transitions += len(def.rules)
	}
	if transitions == 0 {
		return ErrNoTransitions
	}

	var withoutTransitions []string
	for _, def := range b.registrations {
		if !def.isFinal() && len(def.rules) == 0 {
			withoutTransitions = append(withoutTransitions, def.name)
		}
	}
	if len(withoutTransitions) > 0 {
		return NewStatesWithoutTransitionsError(withoutTransitions)
	}

	return nil
}

// OnEnter sets the entry listener of the state
func (c *StateConfig[S, E]) OnEnter(listener EnterFunc[S, E]) *StateConfig[S, E] {
	c.def.onEnter = listener
	return c
}

// OnExit sets the exit listener of the state
func (c *StateConfig[S, E]) OnExit(listener ExitFunc[S, E]) *StateConfig[S, E] {
	c.def.onExit = listener
	return c
}

// Transition adds a rule fired by events of the same variant as on. Rules are
// evaluated in the order they are added; the first one whose guard passes wins.
func (c *StateConfig[S, E]) Transition(on E, action ActionFunc[S, E], opts ...TransitionOption[S, E]) *StateConfig[S, E] {
	if action == nil {
		panic("fsm: transition on " + on.Name() + " from " + c.def.name + " has no action")
	}

	rule := transitionRule[S, E]{
		eventName: on.Name(),
		action:    action,
	}
	for _, opt := range opts {
		opt(&rule)
	}

	c.def.rules = append(c.def.rules, rule)
	return c
}
