package fsm

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/anggasct/fsm/pkg/stream"
)

// Machine is a running state machine instance.
//
// Events are handled one at a time on a single sequential queue; the entry
// into the initial state is the first job on that queue. A machine holds no
// external resources and needs no explicit teardown.
type Machine[S State, E Event] struct {
	id         string
	registry   *Registry[S, E]
	current    S
	terminated bool
	mutex      sync.RWMutex

	queue       chan struct{}
	initialized chan struct{}

	states    *stream.Latest[S]
	observers *observerManager
	logger    *zap.Logger
	ctx       context.Context
}

func newMachine[S State, E Event](ctx context.Context, registry *Registry[S, E], opts ...MachineOption) *Machine[S, E] {
	cfg := defaultMachineConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if ctx == nil {
		ctx = context.Background()
	}

	m := &Machine[S, E]{
		id:          cfg.id,
		registry:    registry,
		current:     registry.initial,
		queue:       make(chan struct{}, 1),
		initialized: make(chan struct{}),
		states:      stream.NewLatest(registry.initial, cfg.streamBuffer),
		observers:   newObserverManager(cfg.observers...),
		logger:      cfg.logger.With(zap.String("machine", cfg.id)),
		ctx:         ctx,
	}

	// The queue slot is taken here and handed to the initial entry, so it runs
	// before any event submitted through Process.
	m.queue <- struct{}{}
	go m.enterInitialState()

	if ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			_ = m.states.Close()
		}()
	}

	return m
}

// ID returns the machine identifier
func (m *Machine[S, E]) ID() string {
	return m.id
}

// Registry returns the validated definition the machine runs on
func (m *Machine[S, E]) Registry() *Registry[S, E] {
	return m.registry
}

// CurrentStateSnapshot returns the current state at call time
func (m *Machine[S, E]) CurrentStateSnapshot() S {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.current
}

// CurrentState subscribes to the current state. The subscription immediately
// delivers the latest state, then every change in transition order. It ends
// when ctx is done, when it is closed, or when the machine's context is done.
func (m *Machine[S, E]) CurrentState(ctx context.Context) *stream.Subscription[S] {
	return m.states.Subscribe(ctx)
}

// Subscribe is an alias of CurrentState
func (m *Machine[S, E]) Subscribe(ctx context.Context) *stream.Subscription[S] {
	return m.CurrentState(ctx)
}

// IsTerminated reports whether the machine reached a final state
func (m *Machine[S, E]) IsTerminated() bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.terminated
}

// Initialized is closed once the initial state's entry listener has run
func (m *Machine[S, E]) Initialized() <-chan struct{} {
	return m.initialized
}

// AddObserver adds an observer to the machine
func (m *Machine[S, E]) AddObserver(observer Observer) {
	if observer != nil {
		m.observers.add(observer)
	}
}

// RemoveObserver removes an observer from the machine
func (m *Machine[S, E]) RemoveObserver(observer Observer) {
	m.observers.remove(observer)
}

// Process hands event to the machine and returns the state after it was fully
// handled, listeners included. Once the machine is in a final state, Process
// is a no-op returning that state.
//
// Process waits for its turn if another event (or the initial entry) is being
// handled. The returned error is non-nil only when ctx or the machine's own
// context is done before the event got its turn; nothing happened in that case.
func (m *Machine[S, E]) Process(ctx context.Context, event E) (S, error) {
	if err := m.acquire(ctx); err != nil {
		return m.CurrentStateSnapshot(), err
	}
	defer m.release()

	return m.process(event), nil
}

func (m *Machine[S, E]) acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("fsm: event abandoned: %w", err)
	}
	if err := m.ctx.Err(); err != nil {
		return fmt.Errorf("fsm: machine stopped: %w", err)
	}

	select {
	case m.queue <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("fsm: event abandoned: %w", ctx.Err())
	case <-m.ctx.Done():
		return fmt.Errorf("fsm: machine stopped: %w", m.ctx.Err())
	}
}

func (m *Machine[S, E]) release() {
	<-m.queue
}

// enterInitialState runs the initial entry as the first job of the queue
func (m *Machine[S, E]) enterInitialState() {
	defer m.release()
	defer close(m.initialized)

	var (
		none    S
		noEvent E
	)
	initial := m.registry.initial

	if def, ok := m.registry.lookup(initial); ok {
		def.enter(none, noEvent, initial)
	}

	m.logger.Debug("entered initial state", zap.String("state", initial.Name()))
	m.observers.notifyStateEnter(initial, nil)
}

// process executes one step of the transition algorithm; it must only run while holding the queue
func (m *Machine[S, E]) process(event E) S {
	current := m.current

	if m.terminated {
		return current
	}

	if any(event) == nil {
		m.ignore(current, event, "nil event")
		return current
	}

	def, ok := m.registry.lookup(current)
	if !ok {
		m.ignore(current, event, "state is not registered")
		return current
	}

	rule, ok := def.findRule(current, event)
	if !ok {
		m.ignore(current, event, "no transition matched")
		return current
	}

	next := rule.action(current, event)

	def.exit(current, event)
	m.observers.notifyStateExit(current, event)

	nextDef, registered := m.registry.lookup(next)
	final := registered && nextDef.isFinal()

	m.mutex.Lock()
	m.current = next
	m.mutex.Unlock()
	m.states.Publish(next)

	m.logger.Debug("transition",
		zap.String("from", current.Name()),
		zap.String("to", next.Name()),
		zap.String("event", event.Name()),
	)
	m.observers.notifyTransition(current, next, event)

	if !registered {
		m.logger.Warn("transition target is not registered", zap.String("state", next.Name()))
		return next
	}

	nextDef.enter(current, event, next)
	m.observers.notifyStateEnter(next, event)

	if final {
		m.terminate(nextDef, next)
	}

	return next
}

// terminate leaves a final state for good: its exit listener runs once, without event
func (m *Machine[S, E]) terminate(def *stateDefinition[S, E], state S) {
	var noEvent E
	def.exit(state, noEvent)
	m.observers.notifyStateExit(state, nil)

	m.mutex.Lock()
	m.terminated = true
	m.mutex.Unlock()

	m.logger.Debug("reached final state", zap.String("state", state.Name()))
	m.observers.notifyMachineTerminated(state)
}

func (m *Machine[S, E]) ignore(current S, event E, reason string) {
	m.logger.Debug("event ignored",
		zap.String("state", current.Name()),
		zap.String("event", nameOf(event)),
		zap.String("reason", reason),
	)
	m.observers.notifyEventIgnored(current, event)
}

// nameOf returns the variant name, tolerating nil interface values
func nameOf[V interface{ Name() string }](v V) string {
	if any(v) == nil {
		return "<nil>"
	}
	return v.Name()
}
