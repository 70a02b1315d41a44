package scenario

import (
	"context"

	"github.com/anggasct/fsm"
)

// LoaderState is a state of the reference loader machine
type LoaderState interface {
	fsm.State
	loaderState()
}

// LoaderEvent is an input of the reference loader machine
type LoaderEvent interface {
	fsm.Event
	loaderEvent()
}

type (
	// Init is the initial state, before anything was requested
	Init struct{}
	// Loading carries the progress in percent and the failures seen so far
	Loading struct {
		Progress int
		Attempts int
	}
	// Failed counts the failed attempts so far
	Failed struct{ Attempts int }
	// Success is final
	Success struct{}
	// Cancelled is final
	Cancelled struct{}
)

func (Init) Name() string      { return "Init" }
func (Loading) Name() string   { return "Loading" }
func (Failed) Name() string    { return "Error" }
func (Success) Name() string   { return "Success" }
func (Cancelled) Name() string { return "Cancelled" }

func (Init) loaderState()      {}
func (Loading) loaderState()   {}
func (Failed) loaderState()    {}
func (Success) loaderState()   {}
func (Cancelled) loaderState() {}

type (
	LoadData   struct{}
	LoadedData struct{}
	Progress   struct{ Value int }
	Failure    struct{}
	Retry      struct{ Force bool }
	Cancel     struct{}
)

func (LoadData) Name() string   { return "LoadData" }
func (LoadedData) Name() string { return "LoadedData" }
func (Progress) Name() string   { return "Progress" }
func (Failure) Name() string    { return "Failure" }
func (Retry) Name() string      { return "Retry" }
func (Cancel) Name() string     { return "Cancel" }

func (LoadData) loaderEvent()   {}
func (LoadedData) loaderEvent() {}
func (Progress) loaderEvent()   {}
func (Failure) loaderEvent()    {}
func (Retry) loaderEvent()      {}
func (Cancel) loaderEvent()     {}

// LoaderMachine is the machine scripts run against
type LoaderMachine = fsm.Machine[LoaderState, LoaderEvent]

// MaxAttempts is the number of failures after which only a forced retry leaves Error
const MaxAttempts = 3

// NewLoaderBuilder defines the loader lifecycle:
//
//	Init -LoadData-> Loading -LoadedData-> Success
//	Loading -Progress-> Loading (progress added, capped at 100)
//	Loading -Failure-> Error -Retry-> Loading (forced, or fewer than MaxAttempts failures)
//	Init, Error -Cancel-> Cancelled
func NewLoaderBuilder() *fsm.Builder[LoaderState, LoaderEvent] {
	type config = fsm.StateConfig[LoaderState, LoaderEvent]

	return fsm.NewMachine[LoaderState, LoaderEvent]().
		InitialState(Init{}, func(s *config) {
			s.Transition(LoadData{}, func(LoaderState, LoaderEvent) LoaderState { return Loading{} })
			s.Transition(Cancel{}, func(LoaderState, LoaderEvent) LoaderState { return Cancelled{} })
		}).
		State(Loading{}, func(s *config) {
			s.Transition(Progress{}, func(state LoaderState, event LoaderEvent) LoaderState {
				loading := state.(Loading)
				loading.Progress = min(loading.Progress+event.(Progress).Value, 100)
				return loading
			})
			s.Transition(LoadedData{}, func(LoaderState, LoaderEvent) LoaderState { return Success{} })
			s.Transition(Failure{}, func(state LoaderState, _ LoaderEvent) LoaderState {
				return Failed{Attempts: state.(Loading).Attempts + 1}
			})
		}).
		State(Failed{}, func(s *config) {
			s.Transition(Retry{}, func(state LoaderState, _ LoaderEvent) LoaderState {
				return Loading{Attempts: state.(Failed).Attempts}
			}, fsm.WithGuard(func(state LoaderState, event LoaderEvent) bool {
				return event.(Retry).Force || state.(Failed).Attempts < MaxAttempts
			}))
			s.Transition(Cancel{}, func(LoaderState, LoaderEvent) LoaderState { return Cancelled{} })
		}).
		FinalState(Success{}, nil).
		FinalState(Cancelled{}, nil)
}

// NewLoaderMachine builds and starts the loader machine
func NewLoaderMachine(ctx context.Context, opts ...fsm.MachineOption) (*LoaderMachine, error) {
	return NewLoaderBuilder().Build(ctx, opts...)
}
