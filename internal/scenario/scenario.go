// Package scenario runs scripted event sequences against the reference
// loader machine. Scripts are YAML:
//
//	name: retry after failure
//	expect: Success
//	events:
//	  - LoadData
//	  - event: Progress
//	    value: 40
//	  - Failure
//	  - event: Retry
//	    force: true
//	  - LoadedData
package scenario

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	ErrEmptyScript  = errors.New("scenario has no events")
	ErrUnknownEvent = errors.New("unknown event")
)

// Script is a named list of events
type Script struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Expect      string `yaml:"expect"` // name of the state expected once all events ran, optional
	Events      []Step `yaml:"events"`
}

// Step is one scripted event. In YAML it is either the bare event name or a
// mapping with the event name and its payload.
type Step struct {
	Event string `yaml:"event"`
	Value int    `yaml:"value"`
	Force bool   `yaml:"force"`
}

// UnmarshalYAML accepts both the scalar and the mapping form
func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return node.Decode(&s.Event)
	}

	type plain Step
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*s = Step(p)
	return nil
}

// LoaderEvent converts the step into the machine event it names
func (s Step) LoaderEvent() (LoaderEvent, error) {
	switch s.Event {
	case "LoadData":
		return LoadData{}, nil
	case "LoadedData":
		return LoadedData{}, nil
	case "Progress":
		return Progress{Value: s.Value}, nil
	case "Failure":
		return Failure{}, nil
	case "Retry":
		return Retry{Force: s.Force}, nil
	case "Cancel":
		return Cancel{}, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownEvent, s.Event)
	}
}

// Parse decodes and validates a script
func Parse(data []byte) (*Script, error) {
	var script Script
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("decoding scenario: %w", err)
	}
	if err := script.Validate(); err != nil {
		return nil, err
	}
	return &script, nil
}

// Load reads a script from a file
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}

	script, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if script.Name == "" {
		script.Name = path
	}
	return script, nil
}

// Validate checks that the script has events and that every event is known
func (s *Script) Validate() error {
	if len(s.Events) == 0 {
		return ErrEmptyScript
	}
	for i, step := range s.Events {
		if _, err := step.LoaderEvent(); err != nil {
			return fmt.Errorf("event %d: %w", i+1, err)
		}
	}
	return nil
}
