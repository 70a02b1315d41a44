// Package observers provides observers for monitoring state machine events
package observers

import (
	"sync"

	"go.uber.org/zap"

	"github.com/anggasct/fsm"
)

// LogLevel represents the logging level
type LogLevel int

const (
	// LogError logs only errors
	LogError LogLevel = iota
	// LogWarning logs errors and warnings
	LogWarning
	// LogInfo logs errors, warnings, and info
	LogInfo
	// LogDebug logs errors, warnings, info, and debug
	LogDebug
)

// LoggingObserver logs state machine events through a zap logger
type LoggingObserver struct {
	level  LogLevel
	logger *zap.Logger
	mutex  sync.RWMutex
}

// NewLoggingObserver creates a new logging observer. prefix names the machine in every entry.
func NewLoggingObserver(logger *zap.Logger, level LogLevel, prefix string) *LoggingObserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if prefix != "" {
		logger = logger.Named(prefix)
	}
	return &LoggingObserver{
		level:  level,
		logger: logger,
	}
}

// NewDefaultLoggingObserver creates a logging observer at LogInfo level
func NewDefaultLoggingObserver(logger *zap.Logger) *LoggingObserver {
	return NewLoggingObserver(logger, LogInfo, "fsm")
}

// SetLevel changes the logging threshold
func (o *LoggingObserver) SetLevel(level LogLevel) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.level = level
}

func (o *LoggingObserver) log(level LogLevel, msg string, fields ...zap.Field) {
	o.mutex.RLock()
	threshold := o.level
	o.mutex.RUnlock()

	if level > threshold {
		return
	}

	switch level {
	case LogError:
		o.logger.Error(msg, fields...)
	case LogWarning:
		o.logger.Warn(msg, fields...)
	case LogInfo:
		o.logger.Info(msg, fields...)
	default:
		o.logger.Debug(msg, fields...)
	}
}

// OnStateEnter logs state entry
func (o *LoggingObserver) OnStateEnter(state fsm.State, event fsm.Event) {
	o.log(LogInfo, "entering state", zap.String("state", name(state)), zap.String("event", name(event)))
}

// OnStateExit logs state exit
func (o *LoggingObserver) OnStateExit(state fsm.State, event fsm.Event) {
	o.log(LogInfo, "exiting state", zap.String("state", name(state)), zap.String("event", name(event)))
}

// OnTransition logs transitions
func (o *LoggingObserver) OnTransition(from, to fsm.State, event fsm.Event) {
	o.log(LogInfo, "transition",
		zap.String("from", name(from)),
		zap.String("to", name(to)),
		zap.String("event", name(event)),
	)
}

// OnEventIgnored logs events no transition matched
func (o *LoggingObserver) OnEventIgnored(state fsm.State, event fsm.Event) {
	o.log(LogDebug, "event ignored", zap.String("state", name(state)), zap.String("event", name(event)))
}

// OnMachineTerminated logs the arrival in a final state
func (o *LoggingObserver) OnMachineTerminated(state fsm.State) {
	o.log(LogInfo, "machine terminated", zap.String("state", name(state)))
}

// OnError logs errors
func (o *LoggingObserver) OnError(err error) {
	o.log(LogError, "observer error", zap.Error(err))
}

// name returns the variant name of a state or event, "nil" when absent
func name(v interface{ Name() string }) string {
	if v == nil {
		return "nil"
	}
	return v.Name()
}
