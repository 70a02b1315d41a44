// Command fsmtrace runs a scripted event sequence against the reference loader
// machine and reports every state it goes through.
//
// Usage:
//
//	fsmtrace [-dot loader.dot] [-watch] scenario.yaml
//
// Settings come from FSM_* environment variables or a .env file, see internal/config.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/anggasct/fsm"
	"github.com/anggasct/fsm/internal/config"
	"github.com/anggasct/fsm/internal/logger"
	"github.com/anggasct/fsm/internal/scenario"
	"github.com/anggasct/fsm/pkg/observers"
	"github.com/anggasct/fsm/visualization"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "fsmtrace:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	flags := flag.NewFlagSet("fsmtrace", flag.ContinueOnError)
	dotOutput := flags.String("dot", cfg.DOTOutput, "write the observed graph in DOT format to this file")
	watch := flags.Bool("watch", false, "run the scenario again every time its file changes")
	if err := flags.Parse(args); err != nil {
		return err
	}

	scenarioPath := cfg.Scenario
	if flags.NArg() > 0 {
		scenarioPath = flags.Arg(0)
	}
	if scenarioPath == "" {
		return fmt.Errorf("no scenario given: pass a file or set %sSCENARIO", config.Prefix)
	}

	log, closeLog := logger.Open(logger.Options{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	})
	defer func() { _ = closeLog() }()

	t := &tracer{cfg: cfg, log: log, dotOutput: *dotOutput, stdout: stdout}

	script, err := scenario.Load(scenarioPath)
	if err != nil {
		return err
	}
	if err := t.trace(ctx, script); err != nil && !*watch {
		return err
	}
	if !*watch {
		return nil
	}

	log.Info("watching scenario", zap.String("file", scenarioPath))
	return scenario.Watch(ctx, scenarioPath, scenario.DefaultDebounce, func(script *scenario.Script, err error) {
		if err != nil {
			log.Error("scenario not reloaded", zap.Error(err))
			return
		}
		fmt.Fprintln(stdout, "---")
		if err := t.trace(ctx, script); err != nil {
			log.Error("scenario failed", zap.Error(err))
		}
	})
}

// tracer runs one script on a fresh loader machine and reports what happened
type tracer struct {
	cfg       config.Config
	log       *zap.Logger
	dotOutput string
	stdout    io.Writer
}

func (t *tracer) trace(ctx context.Context, script *scenario.Script) error {
	machineCtx, shutdown := context.WithCancel(ctx)
	defer shutdown()

	recorder := observers.NewRecorder()
	metrics := observers.NewMetricsObserver()

	m, err := scenario.NewLoaderMachine(machineCtx,
		fsm.WithLogger(t.log),
		fsm.WithStreamBuffer(t.cfg.StreamBuffer),
		fsm.WithObserver(observers.NewDefaultLoggingObserver(t.log)),
		fsm.WithObserver(recorder),
		fsm.WithObserver(metrics),
	)
	if err != nil {
		return err
	}

	t.log.Info("running scenario",
		zap.String("scenario", script.Name),
		zap.String("machine", m.ID()),
		zap.Int("events", len(script.Events)),
	)

	sub := m.CurrentState(machineCtx)
	defer sub.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for state := range sub.C() {
			fmt.Fprintf(t.stdout, "state: %s %+v\n", state.Name(), state)
		}
	}()

	result, runErr := scenario.NewRunner(t.cfg.ProcessTimeout, t.log).Run(ctx, m, script)

	shutdown()
	wg.Wait()

	if result != nil && result.Final != nil {
		fmt.Fprintf(t.stdout, "final: %s (terminated: %t)\n", result.Final.Name(), m.IsTerminated())
	}
	for transition, count := range metrics.GetTransitionCounts() {
		t.log.Debug("transition count", zap.String("transition", transition), zap.Int("count", count))
	}

	if t.dotOutput != "" {
		err := visualization.NewDOTGenerator(m.Registry().Describe()).
			WithMachineID(m.ID()).
			WithRecording(recorder).
			GenerateToFile(t.dotOutput)
		if err != nil {
			return fmt.Errorf("writing graph: %w", err)
		}
		t.log.Info("graph written", zap.String("file", t.dotOutput))
	}

	return runErr
}
