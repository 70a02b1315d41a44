package fsm

// Registry is the validated, immutable set of state definitions a machine runs on.
// It is built once by the Builder and shared read-only by the runtime.
type Registry[S State, E Event] struct {
	initial     S
	order       []string
	definitions map[string]*stateDefinition[S, E]
}

// StateDescription summarizes one registered state
type StateDescription struct {
	Name        string
	Kind        StateKind
	Events      []string // distinct event names with at least one rule, in registration order
	Transitions int
	HasEntry    bool
	HasExit     bool
}

// MachineDescription is a type-erased view of a registry, used by tooling such as DOT export
type MachineDescription struct {
	Initial string
	States  []StateDescription
}

// Initial returns the initial state value
func (r *Registry[S, E]) Initial() S {
	return r.initial
}

// States returns the registered state names in registration order
func (r *Registry[S, E]) States() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// IsFinal reports whether the state's variant is registered as final
func (r *Registry[S, E]) IsFinal(state S) bool {
	def, ok := r.lookup(state)
	return ok && def.isFinal()
}

// Kind returns the kind of the state's variant
func (r *Registry[S, E]) Kind(state S) (StateKind, bool) {
	def, ok := r.lookup(state)
	if !ok {
		return KindIntermediate, false
	}
	return def.kind, true
}

// Describe returns a snapshot of the registry without type parameters
func (r *Registry[S, E]) Describe() MachineDescription {
	desc := MachineDescription{
		Initial: r.initial.Name(),
		States:  make([]StateDescription, 0, len(r.order)),
	}

	for _, name := range r.order {
		def := r.definitions[name]
		sd := StateDescription{
			Name:        name,
			Kind:        def.kind,
			Transitions: len(def.rules),
			HasEntry:    def.onEnter != nil,
			HasExit:     def.onExit != nil,
		}

		seen := make(map[string]bool, len(def.rules))
		for _, rule := range def.rules {
			if !seen[rule.eventName] {
				seen[rule.eventName] = true
				sd.Events = append(sd.Events, rule.eventName)
			}
		}

		desc.States = append(desc.States, sd)
	}

	return desc
}

func (r *Registry[S, E]) lookup(state S) (*stateDefinition[S, E], bool) {
	def, ok := r.definitions[state.Name()]
	return def, ok
}
