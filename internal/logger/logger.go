// Package logger builds the zap loggers used by the fsmtrace command.
package logger

import (
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects where and how much the logger writes
type Options struct {
	Level      zapcore.Level
	File       string // empty means stderr
	MaxSizeMB  int
	MaxBackups int
	Compress   bool
}

// New returns a console-encoded logger writing to out at the given level
func New(out io.Writer, level zapcore.Level, opts ...zap.Option) *zap.Logger {
	if out == nil {
		out = os.Stderr
	}

	core := zapcore.NewCore(
		GetEncoder(),
		zapcore.AddSync(out),
		zap.NewAtomicLevelAt(level),
	)
	return zap.New(core, opts...)
}

// Open builds a logger from opts. When a file is configured it is rotated by
// size; the returned close function flushes the logger and releases the file.
func Open(opts Options) (*zap.Logger, func() error) {
	if opts.File == "" {
		l := New(os.Stderr, opts.Level, zap.AddCaller())
		return l, func() error {
			_ = l.Sync()
			return nil
		}
	}

	rotator := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		Compress:   opts.Compress,
	}

	l := New(rotator, opts.Level, zap.AddCaller())
	return l, func() error {
		_ = l.Sync()
		return rotator.Close()
	}
}

// GetEncoder returns the console encoder shared by all loggers
func GetEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(
		zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller_line",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    encodeLevel,
			EncodeTime:     encodeTime,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   encodeCaller,
			EncodeName:     zapcore.FullNameEncoder,
		})
}

func encodeLevel(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + level.CapitalString() + "]")
}

const defaultTimeFormat = "2006-01-02 15:04:05"

func encodeTime(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + t.Format(defaultTimeFormat) + "]")
}

func encodeCaller(caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + caller.TrimmedPath() + "]")
}
