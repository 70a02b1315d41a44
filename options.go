package fsm

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/anggasct/fsm/pkg/stream"
)

// MachineOption is a functional option for configuring a Machine
type MachineOption func(*machineConfig)

type machineConfig struct {
	id           string
	logger       *zap.Logger
	observers    []Observer
	streamBuffer int
}

func defaultMachineConfig() machineConfig {
	return machineConfig{
		id:           uuid.New().String(),
		logger:       zap.NewNop(),
		streamBuffer: stream.DefaultBufferSize,
	}
}

// WithID sets the machine identifier used in logs. A random UUID is used by default.
func WithID(id string) MachineOption {
	return func(c *machineConfig) {
		if id != "" {
			c.id = id
		}
	}
}

// WithLogger sets the logger for the machine. Transitions are logged at debug level.
func WithLogger(logger *zap.Logger) MachineOption {
	return func(c *machineConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver registers an observer before the initial state is entered
func WithObserver(observer Observer) MachineOption {
	return func(c *machineConfig) {
		if observer != nil {
			c.observers = append(c.observers, observer)
		}
	}
}

// WithStreamBuffer sets how many pending states each subscriber may hold
// before its oldest pending state is dropped
func WithStreamBuffer(size int) MachineOption {
	return func(c *machineConfig) {
		if size > 0 {
			c.streamBuffer = size
		}
	}
}
