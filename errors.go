package fsm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents specific configuration problems detected by Build
type ErrorCode int

const (
	// No error occurred
	ErrCodeNone ErrorCode = iota
	// No initial state was registered
	ErrCodeInitialStateRequired
	// A state variant was registered more than once
	ErrCodeStateAlreadyRegistered
	// InitialState was called twice with different variants
	ErrCodeInitialStateRedefined
	// Fewer than two states were registered
	ErrCodeNotEnoughStates
	// No transition was registered anywhere
	ErrCodeNoTransitions
	// A non-final state has no transitions
	ErrCodeStatesWithoutTransitions
)

// ConfigurationError represents an invalid machine definition. Error returns
// the message verbatim so callers can show or assert on it directly.
type ConfigurationError struct {
	Code    ErrorCode
	States  []string
	Message string
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

// Is matches configuration errors by code, so errors.Is works against the sentinels below
func (e *ConfigurationError) Is(target error) bool {
	var t *ConfigurationError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

var (
	// ErrInitialStateRequired is returned when Build is called without an initial state
	ErrInitialStateRequired = &ConfigurationError{Code: ErrCodeInitialStateRequired, Message: "Initial state is required."}

	// ErrStateAlreadyRegistered is returned when a state variant is registered twice
	ErrStateAlreadyRegistered = &ConfigurationError{Code: ErrCodeStateAlreadyRegistered, Message: "state is already registered"}

	// ErrInitialStateRedefined is returned when two different initial states are registered
	ErrInitialStateRedefined = &ConfigurationError{Code: ErrCodeInitialStateRedefined, Message: "initial state is already defined"}

	// ErrNotEnoughStates is returned when fewer than two states are registered
	ErrNotEnoughStates = &ConfigurationError{Code: ErrCodeNotEnoughStates, Message: "At least two states must be defined."}

	// ErrNoTransitions is returned when no transition is registered at all
	ErrNoTransitions = &ConfigurationError{Code: ErrCodeNoTransitions, Message: "At least one transition must be defined."}

	// ErrStatesWithoutTransitions is returned when a non-final state has no transitions
	ErrStatesWithoutTransitions = &ConfigurationError{Code: ErrCodeStatesWithoutTransitions, Message: "only the final states can have no transitions"}
)

// NewStateAlreadyRegisteredError creates an error for a duplicated state variant
func NewStateAlreadyRegisteredError(stateName string) *ConfigurationError {
	return &ConfigurationError{
		Code:    ErrCodeStateAlreadyRegistered,
		States:  []string{stateName},
		Message: fmt.Sprintf("%s is already registered as a state.", stateName),
	}
}

// NewInitialStateRedefinedError creates an error for a second, different initial state
func NewInitialStateRedefinedError(stateName string) *ConfigurationError {
	return &ConfigurationError{
		Code:    ErrCodeInitialStateRedefined,
		States:  []string{stateName},
		Message: fmt.Sprintf("Initial state is already defined as %s.", stateName),
	}
}

// NewStatesWithoutTransitionsError creates an error listing the non-final states that have no transitions
func NewStatesWithoutTransitionsError(stateNames []string) *ConfigurationError {
	return &ConfigurationError{
		Code:   ErrCodeStatesWithoutTransitions,
		States: stateNames,
		Message: fmt.Sprintf(
			"Only the final states can have no transitions. States without transaction: [ %s ]",
			strings.Join(stateNames, ", "),
		),
	}
}

// IsConfigurationError checks if an error is a ConfigurationError
func IsConfigurationError(err error) bool {
	var e *ConfigurationError
	return errors.As(err, &e)
}

// GetErrorCode returns the error code for configuration errors
func GetErrorCode(err error) ErrorCode {
	var e *ConfigurationError
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeNone
}
