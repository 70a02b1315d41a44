package fsm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/anggasct/fsm/pkg/stream"
)

type Init struct{}
type Loading struct{ Progress int }
type Success struct{}
type ErrorState struct{}

func (Init) Name() string       { return "Init" }
func (Loading) Name() string    { return "Loading" }
func (Success) Name() string    { return "Success" }
func (ErrorState) Name() string { return "Error" }

type LoadData struct{}
type LoadedData struct{}
type Retry struct{ ForceRetry bool }
type Cancel struct{}
type Failure struct{}
type Progress struct{ Value int }

func (LoadData) Name() string   { return "LoadData" }
func (LoadedData) Name() string { return "LoadedData" }
func (Retry) Name() string      { return "Retry" }
func (Cancel) Name() string     { return "Cancel" }
func (Failure) Name() string    { return "Failure" }
func (Progress) Name() string   { return "Progress" }

const waitTimeout = time.Second

func to(s State) ActionFunc[State, Event] {
	return func(State, Event) State { return s }
}

// newLoaderBuilder returns Init -(LoadData)-> Loading -(LoadedData)-> Success(final),
// Loading -(Failure)-> Error -(Retry if forced)-> Loading
func newLoaderBuilder(hooks map[string]func(*StateConfig[State, Event])) *Builder[State, Event] {
	hook := func(name string, s *StateConfig[State, Event]) {
		if h, ok := hooks[name]; ok {
			h(s)
		}
	}

	return NewMachine[State, Event]().
		InitialState(Init{}, func(s *StateConfig[State, Event]) {
			hook("Init", s)
			s.Transition(LoadData{}, to(Loading{}))
		}).
		State(Loading{}, func(s *StateConfig[State, Event]) {
			hook("Loading", s)
			s.Transition(LoadedData{}, to(Success{}))
			s.Transition(Failure{}, to(ErrorState{}))
		}).
		State(ErrorState{}, func(s *StateConfig[State, Event]) {
			hook("Error", s)
			s.Transition(Retry{}, to(Loading{}), WithGuard(func(_ State, e Event) bool {
				return e.(Retry).ForceRetry
			}))
		}).
		FinalState(Success{}, func(s *StateConfig[State, Event]) {
			hook("Success", s)
		})
}

func buildReady(t *testing.T, b *Builder[State, Event], opts ...MachineOption) *Machine[State, Event] {
	t.Helper()
	m, err := b.Build(context.Background(), opts...)
	require.NoError(t, err)
	waitInitialized(t, m)
	return m
}

func waitInitialized(t *testing.T, m *Machine[State, Event]) {
	t.Helper()
	select {
	case <-m.Initialized():
	case <-time.After(waitTimeout):
		t.Fatal("initial state was not entered in time")
	}
}

func process(t *testing.T, m *Machine[State, Event], e Event) State {
	t.Helper()
	s, err := m.Process(context.Background(), e)
	require.NoError(t, err)
	return s
}

func awaitItem(t *testing.T, sub *stream.Subscription[State]) State {
	t.Helper()
	select {
	case s, ok := <-sub.C():
		require.True(t, ok, "subscription closed")
		return s
	case <-time.After(waitTimeout):
		t.Fatal("no state received in time")
		return nil
	}
}

func expectNoItems(t *testing.T, sub *stream.Subscription[State]) {
	t.Helper()
	select {
	case s, ok := <-sub.C():
		if ok {
			t.Fatalf("unexpected state %v", s)
		}
	case <-time.After(20 * time.Millisecond):
	}
}

// counter counts listener invocations per state name
type counter map[string]int

func (c counter) listen(name string) func(*StateConfig[State, Event]) {
	return func(s *StateConfig[State, Event]) {
		s.OnEnter(func(_ State, _ Event, _ State) { c[name+".enter"]++ })
		s.OnExit(func(_ State, _ Event) { c[name+".exit"]++ })
	}
}
