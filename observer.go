package fsm

import (
	"fmt"
	"sync"
)

// Observer represents an entity that observes a machine's lifecycle.
// States and events are handed over as their interface values; a nil state
// or event means "none", as for the entry into the initial state.
type Observer interface {
	// OnTransition is called after the current state changed, before the new state's entry listener runs
	OnTransition(from State, to State, event Event)

	// OnStateEnter is called after a state's entry listener ran
	OnStateEnter(state State, event Event)
}

// ExtendedObserver provides additional optional observation methods
type ExtendedObserver interface {
	Observer

	// OnStateExit is called after a state's exit listener ran
	OnStateExit(state State, event Event)

	// OnEventIgnored is called when no transition rule matched the event
	OnEventIgnored(state State, event Event)

	// OnMachineTerminated is called once the machine reached a final state
	OnMachineTerminated(state State)

	// OnError is called when another observer callback panicked
	OnError(err error)
}

// BaseObserver provides a default implementation with no-op methods
type BaseObserver struct{}

// OnTransition implements the required Observer method
func (o *BaseObserver) OnTransition(from State, to State, event Event) {}

// OnStateEnter implements the required Observer method
func (o *BaseObserver) OnStateEnter(state State, event Event) {}

// OnStateExit implements the optional ExtendedObserver method
func (o *BaseObserver) OnStateExit(state State, event Event) {}

// OnEventIgnored implements the optional ExtendedObserver method
func (o *BaseObserver) OnEventIgnored(state State, event Event) {}

// OnMachineTerminated implements the optional ExtendedObserver method
func (o *BaseObserver) OnMachineTerminated(state State) {}

// OnError implements the optional ExtendedObserver method
func (o *BaseObserver) OnError(err error) {}

// observerManager fans lifecycle notifications out to observers, isolating their panics
type observerManager struct {
	observers []Observer
	mutex     sync.RWMutex
}

func newObserverManager(observers ...Observer) *observerManager {
	om := &observerManager{
		observers: make([]Observer, 0, len(observers)),
	}
	for _, o := range observers {
		if o != nil {
			om.observers = append(om.observers, o)
		}
	}
	return om
}

func (om *observerManager) add(observer Observer) {
	om.mutex.Lock()
	defer om.mutex.Unlock()
	om.observers = append(om.observers, observer)
}

func (om *observerManager) remove(observer Observer) {
	om.mutex.Lock()
	defer om.mutex.Unlock()
	for i, obs := range om.observers {
		if obs == observer {
			om.observers = append(om.observers[:i], om.observers[i+1:]...)
			break
		}
	}
}

func (om *observerManager) snapshot() []Observer {
	om.mutex.RLock()
	defer om.mutex.RUnlock()
	observers := make([]Observer, len(om.observers))
	copy(observers, om.observers)
	return observers
}

// each calls fn for every observer, turning a panic into an OnError notification
func (om *observerManager) each(method string, fn func(Observer)) {
	for _, observer := range om.snapshot() {
		func() {
			defer func() {
				if r := recover(); r != nil {
					if extObs, ok := observer.(ExtendedObserver); ok {
						func() {
							defer func() { _ = recover() }()
							extObs.OnError(fmt.Errorf("observer panic in %s: %v", method, r))
						}()
					}
				}
			}()
			fn(observer)
		}()
	}
}

// eachExtended is like each but only reaches observers implementing ExtendedObserver
func (om *observerManager) eachExtended(method string, fn func(ExtendedObserver)) {
	om.each(method, func(o Observer) {
		if extObs, ok := o.(ExtendedObserver); ok {
			fn(extObs)
		}
	})
}

func (om *observerManager) notifyTransition(from State, to State, event Event) {
	om.each("OnTransition", func(o Observer) { o.OnTransition(from, to, event) })
}

func (om *observerManager) notifyStateEnter(state State, event Event) {
	om.each("OnStateEnter", func(o Observer) { o.OnStateEnter(state, event) })
}

func (om *observerManager) notifyStateExit(state State, event Event) {
	om.eachExtended("OnStateExit", func(o ExtendedObserver) { o.OnStateExit(state, event) })
}

func (om *observerManager) notifyEventIgnored(state State, event Event) {
	om.eachExtended("OnEventIgnored", func(o ExtendedObserver) { o.OnEventIgnored(state, event) })
}

func (om *observerManager) notifyMachineTerminated(state State) {
	om.eachExtended("OnMachineTerminated", func(o ExtendedObserver) { o.OnMachineTerminated(state) })
}
