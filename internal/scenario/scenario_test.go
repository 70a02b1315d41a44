package scenario

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const retryScript = `
name: retry after failure
expect: Success
events:
  - LoadData
  - event: Progress
    value: 40
  - Failure
  - event: Retry
    force: true
  - event: Progress
    value: 80
  - event: Progress
    value: 30
  - LoadedData
`

func newMachine(t *testing.T) *LoaderMachine {
	t.Helper()
	m, err := NewLoaderMachine(context.Background())
	require.NoError(t, err)
	return m
}

func TestParse_ScalarAndMappingSteps(t *testing.T) {
	script, err := Parse([]byte(retryScript))
	require.NoError(t, err)

	assert.Equal(t, "retry after failure", script.Name)
	assert.Equal(t, "Success", script.Expect)
	require.Len(t, script.Events, 7)
	assert.Equal(t, Step{Event: "LoadData"}, script.Events[0])
	assert.Equal(t, Step{Event: "Progress", Value: 40}, script.Events[1])
	assert.Equal(t, Step{Event: "Retry", Force: true}, script.Events[3])
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("name: empty\n"))
	assert.ErrorIs(t, err, ErrEmptyScript)

	_, err = Parse([]byte("events: [LoadData, Explode]\n"))
	assert.ErrorIs(t, err, ErrUnknownEvent)
	assert.ErrorContains(t, err, `event 2: unknown event "Explode"`)

	_, err = Parse([]byte("events: {LoadData: 1\n"))
	assert.ErrorContains(t, err, "decoding scenario")
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cancel.yaml")
	require.NoError(t, os.WriteFile(path, []byte("events: [Cancel]\nexpect: Cancelled\n"), 0o600))

	script, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, script.Name)
	assert.Equal(t, []Step{{Event: "Cancel"}}, script.Events)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "reading scenario")
}

func TestStep_LoaderEvent(t *testing.T) {
	event, err := Step{Event: "Progress", Value: 25}.LoaderEvent()
	require.NoError(t, err)
	assert.Equal(t, Progress{Value: 25}, event)

	event, err = Step{Event: "Retry", Force: true}.LoaderEvent()
	require.NoError(t, err)
	assert.Equal(t, Retry{Force: true}, event)

	_, err = Step{Event: "loaddata"}.LoaderEvent()
	assert.ErrorIs(t, err, ErrUnknownEvent)
}

func TestLoaderBuilder_IsValid(t *testing.T) {
	registry, err := NewLoaderBuilder().Registry()
	require.NoError(t, err)

	assert.Equal(t, []string{"Init", "Loading", "Error", "Success", "Cancelled"}, registry.States())
	assert.True(t, registry.IsFinal(Success{}))
	assert.True(t, registry.IsFinal(Cancelled{}))
}

func TestRunner_RetryScript(t *testing.T) {
	script, err := Parse([]byte(retryScript))
	require.NoError(t, err)

	result, err := NewRunner(time.Second, zaptest.NewLogger(t)).Run(context.Background(), newMachine(t), script)
	require.NoError(t, err)

	assert.Equal(t, []StepResult{
		{Event: "LoadData", State: Loading{}},
		{Event: "Progress", State: Loading{Progress: 40}},
		{Event: "Failure", State: Failed{Attempts: 1}},
		{Event: "Retry", State: Loading{Attempts: 1}},
		{Event: "Progress", State: Loading{Progress: 80, Attempts: 1}},
		{Event: "Progress", State: Loading{Progress: 100, Attempts: 1}},
		{Event: "LoadedData", State: Success{}},
	}, result.Steps)
	assert.Equal(t, Success{}, result.Final)
}

func TestRunner_RetryLimit(t *testing.T) {
	script := &Script{Events: []Step{
		{Event: "LoadData"},
		{Event: "Failure"}, {Event: "Retry"},
		{Event: "Failure"}, {Event: "Retry"},
		{Event: "Failure"}, {Event: "Retry"},
	}}

	result, err := NewRunner(time.Second, nil).Run(context.Background(), newMachine(t), script)
	require.NoError(t, err)

	assert.Equal(t, Failed{Attempts: 3}, result.Final)
	assert.Equal(t, Loading{Attempts: 2}, result.Steps[4].State)
}

func TestRunner_UnexpectedFinalState(t *testing.T) {
	script := &Script{Expect: "Success", Events: []Step{{Event: "Cancel"}, {Event: "LoadData"}}}

	result, err := NewRunner(time.Second, nil).Run(context.Background(), newMachine(t), script)

	assert.ErrorIs(t, err, ErrUnexpectedState)
	assert.ErrorContains(t, err, "got Cancelled, expected Success")
	assert.Equal(t, Cancelled{}, result.Final)
	assert.Len(t, result.Steps, 2)
}

func TestRunner_StopsWhenContextIsDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := NewRunner(time.Second, nil).Run(ctx, newMachine(t), &Script{Events: []Step{{Event: "LoadData"}}})

	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorContains(t, err, "event 1 (LoadData)")
	assert.Empty(t, result.Steps)
}

func TestWatch_ReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "live.yaml")
	require.NoError(t, os.WriteFile(path, []byte("events: [LoadData]\n"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Script, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, 10*time.Millisecond, func(s *Script, err error) {
			if err != nil {
				return
			}
			select {
			case reloaded <- s:
			default:
			}
		})
	}()

	assert.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("events: [LoadData, LoadedData]\nexpect: Success\n"), 0o600)
		select {
		case s := <-reloaded:
			return s.Expect == "Success" && len(s.Events) == 2
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestWatch_MissingDirectory(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "nope", "live.yaml"), 0, func(*Script, error) {})

	assert.ErrorContains(t, err, "add watch path failed")
}
