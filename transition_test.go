package fsm

import "testing"

func TestTransitionRule_Allows(t *testing.T) {
	rule := transitionRule[State, Event]{eventName: "LoadData", action: to(Loading{})}
	if !rule.allows(Init{}, LoadData{}) {
		t.Error("Expected a rule without guard to allow every event")
	}

	WithGuard(func(s State, _ Event) bool { return s.Name() == "Error" })(&rule)

	if rule.allows(Init{}, LoadData{}) {
		t.Error("Expected the guard to reject Init")
	}
	if !rule.allows(ErrorState{}, LoadData{}) {
		t.Error("Expected the guard to accept Error")
	}
}

func TestTransition_OptionsApplyInOrder(t *testing.T) {
	b := NewMachine[State, Event]()
	b.InitialState(Init{}, func(s *StateConfig[State, Event]) {
		s.Transition(LoadData{}, to(Loading{}),
			WithGuard(func(State, Event) bool { return false }),
			WithGuard(func(State, Event) bool { return true }),
		)
	})

	rule := b.registrations[0].rules[0]
	if rule.eventName != "LoadData" {
		t.Errorf("Expected rule for LoadData, got %s", rule.eventName)
	}
	if !rule.allows(Init{}, LoadData{}) {
		t.Error("Expected the last guard option to win")
	}
}
