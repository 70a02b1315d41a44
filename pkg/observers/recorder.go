package observers

import (
	"fmt"
	"sync"

	"github.com/anggasct/fsm"
)

// Edge is one observed transition
type Edge struct {
	From  string
	To    string
	Event string
}

// Recorder records the path a machine takes and checks it against an
// optional set of allowed transitions. Its edges feed the DOT export.
type Recorder struct {
	path               []string
	edges              []Edge
	counts             map[Edge]int
	expectedStates     map[string]bool
	visitedStates      map[string]bool
	allowedTransitions map[string]map[string]bool
	violations         []string
	mutex              sync.RWMutex
}

// NewRecorder creates a new recorder
func NewRecorder() *Recorder {
	r := &Recorder{
		expectedStates:     make(map[string]bool),
		allowedTransitions: make(map[string]map[string]bool),
	}
	r.reset()
	return r
}

// AddExpectedState adds a state the machine is expected to visit
func (r *Recorder) AddExpectedState(stateName string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.expectedStates[stateName] = true
}

// AddAllowedTransition adds an allowed transition. Once a source state has an
// allowed transition, any other transition out of it is a violation.
func (r *Recorder) AddAllowedTransition(from, to string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.allowedTransitions[from]; !exists {
		r.allowedTransitions[from] = make(map[string]bool)
	}
	r.allowedTransitions[from][to] = true
}

// OnStateEnter records the visit
func (r *Recorder) OnStateEnter(state fsm.State, event fsm.Event) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.visitedStates[state.Name()] = true
	r.path = append(r.path, state.Name())
}

// OnTransition records the edge and validates it
func (r *Recorder) OnTransition(from, to fsm.State, event fsm.Event) {
	if from == nil || to == nil {
		return
	}

	edge := Edge{From: from.Name(), To: to.Name(), Event: name(event)}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.counts[edge] == 0 {
		r.edges = append(r.edges, edge)
	}
	r.counts[edge]++

	if allowed, exists := r.allowedTransitions[edge.From]; exists && !allowed[edge.To] {
		r.violations = append(r.violations, fmt.Sprintf(
			"invalid transition from '%s' to '%s' on event '%s'", edge.From, edge.To, edge.Event))
	}
}

// Edges returns the distinct observed transitions in the order they first occurred
func (r *Recorder) Edges() []Edge {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]Edge, len(r.edges))
	copy(result, r.edges)
	return result
}

// Count returns how many times edge was taken
func (r *Recorder) Count(edge Edge) int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.counts[edge]
}

// Path returns the entered states in order, the initial state first
func (r *Recorder) Path() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]string, len(r.path))
	copy(result, r.path)
	return result
}

// GetViolations returns all validation violations
func (r *Recorder) GetViolations() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]string, len(r.violations))
	copy(result, r.violations)
	return result
}

// GetUnvisitedStates returns states that were expected but not visited
func (r *Recorder) GetUnvisitedStates() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var unvisited []string
	for state := range r.expectedStates {
		if !r.visitedStates[state] {
			unvisited = append(unvisited, state)
		}
	}
	return unvisited
}

// HasViolations returns whether any violations occurred
func (r *Recorder) HasViolations() bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.violations) > 0
}

// Reset forgets the recorded run; expectations are kept
func (r *Recorder) Reset() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.reset()
}

func (r *Recorder) reset() {
	r.path = nil
	r.edges = nil
	r.counts = make(map[Edge]int)
	r.visitedStates = make(map[string]bool)
	r.violations = nil
}
