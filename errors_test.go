package fsm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigurationError_Messages(t *testing.T) {
	assert.EqualError(t, NewStateAlreadyRegisteredError("Loading"), "Loading is already registered as a state.")
	assert.EqualError(t, NewInitialStateRedefinedError("Init"), "Initial state is already defined as Init.")
	assert.EqualError(t,
		NewStatesWithoutTransitionsError([]string{"A", "B"}),
		"Only the final states can have no transitions. States without transaction: [ A, B ]",
	)
}

func TestConfigurationError_IsMatchesByCode(t *testing.T) {
	err := NewStateAlreadyRegisteredError("Loading")

	assert.ErrorIs(t, err, ErrStateAlreadyRegistered)
	assert.NotErrorIs(t, err, ErrNotEnoughStates)

	wrapped := fmt.Errorf("building loader: %w", err)
	assert.ErrorIs(t, wrapped, ErrStateAlreadyRegistered)
	assert.Equal(t, ErrCodeStateAlreadyRegistered, GetErrorCode(wrapped))
	assert.True(t, IsConfigurationError(wrapped))
}

func TestConfigurationError_States(t *testing.T) {
	err := NewStatesWithoutTransitionsError([]string{"Loading", "Error"})

	assert.Equal(t, ErrCodeStatesWithoutTransitions, err.Code)
	assert.Equal(t, []string{"Loading", "Error"}, err.States)
}

func TestGetErrorCode_OtherErrors(t *testing.T) {
	assert.Equal(t, ErrCodeNone, GetErrorCode(errors.New("boom")))
	assert.Equal(t, ErrCodeNone, GetErrorCode(nil))
	assert.False(t, IsConfigurationError(errors.New("boom")))
}
