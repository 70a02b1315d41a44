// Package config loads the fsmtrace configuration from the environment.
//
// Values come from FSM_* environment variables. An optional .env file is read
// first; variables already set in the environment win over the file.
//
//	FSM_LOG_LEVEL=debug
//	FSM_SCENARIO=./scenarios/retry.yaml
//	FSM_DOT_OUTPUT=./loader.dot
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

// Prefix is prepended to every variable name
const Prefix = "FSM_"

var (
	ErrParsingConfig = errors.New("failed to parse configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config holds the command configuration
type Config struct {
	LogLevel       zapcore.Level `env:"LOG_LEVEL" envDefault:"info"`
	LogFile        string        `env:"LOG_FILE"`
	LogMaxSizeMB   int           `env:"LOG_MAX_SIZE_MB" envDefault:"10"`
	LogMaxBackups  int           `env:"LOG_MAX_BACKUPS" envDefault:"3"`
	StreamBuffer   int           `env:"STREAM_BUFFER" envDefault:"16"`
	Scenario       string        `env:"SCENARIO"`
	DOTOutput      string        `env:"DOT_OUTPUT"`
	ProcessTimeout time.Duration `env:"PROCESS_TIMEOUT" envDefault:"5s"`
}

// Load reads the given .env files (".env" when none is given, skipped if
// missing) and parses the process environment on top of them.
func Load(files ...string) (Config, error) {
	environ := env.ToMap(os.Environ())

	optional := len(files) == 0
	if optional {
		files = []string{".env"}
	}

	for _, file := range files {
		values, err := godotenv.Read(file)
		if err != nil {
			if optional && errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return Config{}, fmt.Errorf("reading %s: %w", file, err)
		}
		for k, v := range values {
			if _, set := environ[k]; !set {
				environ[k] = v
			}
		}
	}

	return Parse(environ)
}

// Parse builds a Config from a set of environment variables
func Parse(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{
		Environment: environ,
		Prefix:      Prefix,
	}); err != nil {
		return Config{}, errors.Join(ErrParsingConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges env tags cannot express
func (c Config) Validate() error {
	var errs []error
	if c.LogMaxSizeMB < 1 {
		errs = append(errs, fmt.Errorf("%sLOG_MAX_SIZE_MB must be positive, got %d", Prefix, c.LogMaxSizeMB))
	}
	if c.LogMaxBackups < 0 {
		errs = append(errs, fmt.Errorf("%sLOG_MAX_BACKUPS must not be negative, got %d", Prefix, c.LogMaxBackups))
	}
	if c.StreamBuffer < 1 {
		errs = append(errs, fmt.Errorf("%sSTREAM_BUFFER must be positive, got %d", Prefix, c.StreamBuffer))
	}
	if c.ProcessTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%sPROCESS_TIMEOUT must be positive, got %s", Prefix, c.ProcessTimeout))
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
	}
	return nil
}
