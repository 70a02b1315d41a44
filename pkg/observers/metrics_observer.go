package observers

import (
	"sync"
	"time"

	"github.com/anggasct/fsm"
)

// MetricsObserver collects metrics about state machine execution
type MetricsObserver struct {
	stateVisits      map[string]int
	stateTimeSpent   map[string]time.Duration
	eventCounts      map[string]int
	ignoredCounts    map[string]int
	transitionCounts map[string]int
	errorCount       int
	terminated       bool
	lastStateEntry   map[string]time.Time
	now              func() time.Time
	mutex            sync.RWMutex
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	o := &MetricsObserver{now: time.Now}
	o.reset()
	return o
}

// OnStateEnter records state entry metrics
func (o *MetricsObserver) OnStateEnter(state fsm.State, event fsm.Event) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	stateName := state.Name()
	o.stateVisits[stateName]++
	o.lastStateEntry[stateName] = o.now()
}

// OnStateExit records the time spent in the state being left
func (o *MetricsObserver) OnStateExit(state fsm.State, event fsm.Event) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	stateName := state.Name()
	if entryTime, ok := o.lastStateEntry[stateName]; ok {
		o.stateTimeSpent[stateName] += o.now().Sub(entryTime)
		delete(o.lastStateEntry, stateName)
	}
}

// OnTransition records transition and event metrics
func (o *MetricsObserver) OnTransition(from, to fsm.State, event fsm.Event) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.transitionCounts[name(from)+"->"+name(to)]++
	o.eventCounts[name(event)]++
}

// OnEventIgnored counts events that matched no transition
func (o *MetricsObserver) OnEventIgnored(state fsm.State, event fsm.Event) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.eventCounts[name(event)]++
	o.ignoredCounts[name(event)]++
}

// OnMachineTerminated records that a final state was reached
func (o *MetricsObserver) OnMachineTerminated(state fsm.State) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.terminated = true
}

// OnError records error metrics
func (o *MetricsObserver) OnError(err error) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.errorCount++
}

// GetStateVisitCounts returns the number of times each state was entered
func (o *MetricsObserver) GetStateVisitCounts() map[string]int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return copyMap(o.stateVisits)
}

// GetStateTimeSpent returns the time spent in each state that was left at least once
func (o *MetricsObserver) GetStateTimeSpent() map[string]time.Duration {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return copyMap(o.stateTimeSpent)
}

// GetEventCounts returns the number of times each event was processed, ignored ones included
func (o *MetricsObserver) GetEventCounts() map[string]int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return copyMap(o.eventCounts)
}

// GetIgnoredEventCounts returns the number of times each event matched no transition
func (o *MetricsObserver) GetIgnoredEventCounts() map[string]int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return copyMap(o.ignoredCounts)
}

// GetTransitionCounts returns the number of times each "from->to" transition occurred
func (o *MetricsObserver) GetTransitionCounts() map[string]int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return copyMap(o.transitionCounts)
}

// GetErrorCount returns the number of errors
func (o *MetricsObserver) GetErrorCount() int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return o.errorCount
}

// Terminated reports whether the observed machine reached a final state
func (o *MetricsObserver) Terminated() bool {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return o.terminated
}

// Reset resets all metrics
func (o *MetricsObserver) Reset() {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.reset()
}

func (o *MetricsObserver) reset() {
	o.stateVisits = make(map[string]int)
	o.stateTimeSpent = make(map[string]time.Duration)
	o.eventCounts = make(map[string]int)
	o.ignoredCounts = make(map[string]int)
	o.transitionCounts = make(map[string]int)
	o.errorCount = 0
	o.terminated = false
	o.lastStateEntry = make(map[string]time.Time)
}

func copyMap[V any](m map[string]V) map[string]V {
	result := make(map[string]V, len(m))
	for k, v := range m {
		result[k] = v
	}
	return result
}
