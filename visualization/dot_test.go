package visualization_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anggasct/fsm"
	"github.com/anggasct/fsm/pkg/observers"
	"github.com/anggasct/fsm/visualization"
)

type step string

func (s step) Name() string { return string(s) }

func goTo(s step) fsm.ActionFunc[fsm.State, fsm.Event] {
	return func(fsm.State, fsm.Event) fsm.State { return s }
}

func newRecordedMachine(t *testing.T) (*fsm.Machine[fsm.State, fsm.Event], *observers.Recorder) {
	t.Helper()

	recorder := observers.NewRecorder()
	m, err := fsm.NewMachine[fsm.State, fsm.Event]().
		InitialState(step("idle"), func(s *fsm.StateConfig[fsm.State, fsm.Event]) {
			s.Transition(step("start"), goTo("running"))
		}).
		State(step("running"), func(s *fsm.StateConfig[fsm.State, fsm.Event]) {
			s.Transition(step("pause"), goTo("idle"))
			s.Transition(step("stop"), goTo("stopped"))
		}).
		FinalState(step("stopped"), nil).
		Build(context.Background(), fsm.WithObserver(recorder), fsm.WithID("machine-1"))
	require.NoError(t, err)

	for _, e := range []string{"start", "pause", "start", "stop"} {
		_, err := m.Process(context.Background(), step(e))
		require.NoError(t, err)
	}
	return m, recorder
}

func TestDOTGeneration(t *testing.T) {
	m, recorder := newRecordedMachine(t)

	dotContent, err := visualization.NewDOTGenerator(m.Registry().Describe()).
		WithMachineID(m.ID()).
		WithRecording(recorder).
		Generate()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(dotContent, "digraph StateMachine {\n"))
	assert.Contains(t, dotContent, "// machine machine-1")
	assert.Contains(t, dotContent, `"idle" [shape=box style="filled" fillcolor=lightgreen label="idle\n(initial)\non: start"];`)
	assert.Contains(t, dotContent, `"running" [shape=box style="filled" fillcolor=lightblue label="running\non: pause, stop"];`)
	assert.Contains(t, dotContent, `"stopped" [shape=doublecircle style="filled" fillcolor=lightcoral label="stopped"];`)
	assert.Contains(t, dotContent, `"idle" -> "running" [label="start" style=solid];`)
	assert.Contains(t, dotContent, `"running" -> "stopped" [label="stop" style=solid];`)
	assert.Equal(t, 1, strings.Count(dotContent, `"idle" -> "running"`))
}

func TestDOTGeneration_Options(t *testing.T) {
	m, recorder := newRecordedMachine(t)

	opts := visualization.DefaultDOTOptions()
	opts.ShowEvents = false
	opts.ShowCounts = true
	opts.RankDirection = "LR"

	dotContent, err := visualization.NewDOTGenerator(m.Registry().Describe(), opts).
		WithRecording(recorder).
		Generate()
	require.NoError(t, err)

	assert.Contains(t, dotContent, "rankdir=LR;")
	assert.Contains(t, dotContent, `label="idle\n(initial)"]`)
	assert.Contains(t, dotContent, `"idle" -> "running" [label="start (2)" style=solid];`)
	assert.NotContains(t, dotContent, "// machine")
}

func TestDOTGeneration_WithoutRecording(t *testing.T) {
	m, _ := newRecordedMachine(t)

	dotContent, err := visualization.NewDOTGenerator(m.Registry().Describe()).Generate()
	require.NoError(t, err)

	assert.NotContains(t, dotContent, "->")
}

func TestDOTGeneration_UnregisteredTargetIsDashed(t *testing.T) {
	desc := fsm.MachineDescription{
		Initial: "idle",
		States:  []fsm.StateDescription{{Name: "idle", Kind: fsm.KindInitial, Events: []string{"go"}, Transitions: 1}},
	}
	recorder := observers.NewRecorder()
	recorder.OnTransition(step("idle"), step("nowhere"), step("go"))

	dotContent, err := visualization.NewDOTGenerator(desc).WithRecording(recorder).Generate()
	require.NoError(t, err)

	assert.Contains(t, dotContent, `"idle" -> "nowhere" [label="go" style=dashed];`)
}

func TestDOTGeneration_Errors(t *testing.T) {
	_, err := visualization.NewDOTGenerator(fsm.MachineDescription{}).Generate()
	assert.Error(t, err)

	recorder := observers.NewRecorder()
	recorder.OnTransition(step("ghost"), step("idle"), step("go"))
	desc := fsm.MachineDescription{Initial: "idle", States: []fsm.StateDescription{{Name: "idle", Kind: fsm.KindInitial}}}

	_, err = visualization.NewDOTGenerator(desc).WithRecording(recorder).Generate()
	assert.ErrorContains(t, err, `unknown state "ghost"`)
}

func TestDOTGenerator_GenerateToFile(t *testing.T) {
	m, recorder := newRecordedMachine(t)
	filename := filepath.Join(t.TempDir(), "machine.dot")

	err := visualization.NewDOTGenerator(m.Registry().Describe()).WithRecording(recorder).GenerateToFile(filename)
	require.NoError(t, err)

	content, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"running" -> "idle"`)
}

func TestSVGGenerator(t *testing.T) {
	if _, err := exec.LookPath("dot"); err != nil {
		t.Skip("Graphviz is not installed")
	}

	m, _ := newRecordedMachine(t)

	svgContent, err := visualization.NewSVGGenerator(m.Registry().Describe()).Generate()
	require.NoError(t, err)
	assert.Contains(t, svgContent, "<svg")
}
