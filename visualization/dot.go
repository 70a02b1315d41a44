package visualization

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/anggasct/fsm"
	"github.com/anggasct/fsm/pkg/observers"
)

// DOTGenerator generates Graphviz DOT format representations of state machines.
//
// Transition targets are computed by actions at runtime, so the graph's nodes
// come from the machine description while its edges come from recorded runs.
type DOTGenerator struct {
	description fsm.MachineDescription
	machineID   string
	edges       []observers.Edge
	counts      map[observers.Edge]int
	options     DOTOptions
}

// DOTOptions configures the DOT generation
type DOTOptions struct {
	ShowEvents      bool   // list the events each state reacts to in its node
	ShowCounts      bool   // label edges with how often they were taken
	RankDirection   string // "TB", "LR", "BT", "RL"
	NodeShape       string
	TransitionStyle string
}

// DefaultDOTOptions returns sensible default options for DOT generation
func DefaultDOTOptions() DOTOptions {
	return DOTOptions{
		ShowEvents:      true,
		ShowCounts:      false,
		RankDirection:   "TB",
		NodeShape:       "box",
		TransitionStyle: "solid",
	}
}

// NewDOTGenerator creates a new DOT generator for the given machine description
func NewDOTGenerator(description fsm.MachineDescription, options ...DOTOptions) *DOTGenerator {
	opts := DefaultDOTOptions()
	if len(options) > 0 {
		opts = options[0]
	}

	return &DOTGenerator{
		description: description,
		counts:      make(map[observers.Edge]int),
		options:     opts,
	}
}

// WithMachineID names the machine instance in a comment of the graph
func (g *DOTGenerator) WithMachineID(id string) *DOTGenerator {
	g.machineID = id
	return g
}

// WithRecording adds the transitions observed by recorder as edges
func (g *DOTGenerator) WithRecording(recorder *observers.Recorder) *DOTGenerator {
	for _, edge := range recorder.Edges() {
		if _, exists := g.counts[edge]; !exists {
			g.edges = append(g.edges, edge)
		}
		g.counts[edge] += recorder.Count(edge)
	}
	return g
}

// Generate creates a DOT representation of the state machine
func (g *DOTGenerator) Generate() (string, error) {
	if len(g.description.States) == 0 {
		return "", fmt.Errorf("machine description has no states")
	}

	var dot strings.Builder

	dot.WriteString("digraph StateMachine {\n")
	if g.machineID != "" {
		dot.WriteString(fmt.Sprintf("  // machine %s\n", g.machineID))
	}
	dot.WriteString(fmt.Sprintf("  rankdir=%s;\n", g.options.RankDirection))
	dot.WriteString(fmt.Sprintf("  node [shape=%s];\n", g.options.NodeShape))
	dot.WriteString("  edge [fontsize=10];\n\n")

	g.generateStates(&dot)

	if err := g.generateTransitions(&dot); err != nil {
		return "", fmt.Errorf("failed to generate transitions: %w", err)
	}

	dot.WriteString("}\n")

	return dot.String(), nil
}

func (g *DOTGenerator) generateStates(dot *strings.Builder) {
	dot.WriteString("  // States\n")

	for _, state := range g.description.States {
		g.generateStateNode(dot, state)
	}
}

func (g *DOTGenerator) generateStateNode(dot *strings.Builder, state fsm.StateDescription) {
	shape := g.options.NodeShape
	fillColor := "lightblue"
	label := state.Name

	switch state.Kind {
	case fsm.KindInitial:
		fillColor = "lightgreen"
		label += "\\n(initial)"
	case fsm.KindFinal:
		shape = "doublecircle"
		fillColor = "lightcoral"
	}

	if g.options.ShowEvents && len(state.Events) > 0 {
		label += "\\non: " + strings.Join(state.Events, ", ")
	}

	dot.WriteString(fmt.Sprintf("  \"%s\" [shape=%s style=\"filled\" fillcolor=%s label=\"%s\"];\n",
		state.Name, shape, fillColor, label))
}

func (g *DOTGenerator) generateTransitions(dot *strings.Builder) error {
	if len(g.edges) == 0 {
		return nil
	}

	known := make(map[string]bool, len(g.description.States))
	for _, state := range g.description.States {
		known[state.Name] = true
	}

	dot.WriteString("\n  // Transitions\n")

	for _, edge := range g.edges {
		if !known[edge.From] {
			return fmt.Errorf("recorded transition leaves unknown state %q", edge.From)
		}

		label := edge.Event
		if g.options.ShowCounts {
			label = fmt.Sprintf("%s (%d)", edge.Event, g.counts[edge])
		}

		style := g.options.TransitionStyle
		if !known[edge.To] {
			style = "dashed"
		}

		dot.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\" [label=\"%s\" style=%s];\n",
			edge.From, edge.To, label, style))
	}

	return nil
}

// GenerateToFile writes the DOT representation to a file
func (g *DOTGenerator) GenerateToFile(filename string) error {
	content, err := g.Generate()
	if err != nil {
		return err
	}

	return os.WriteFile(filename, []byte(content), 0644)
}

// SVGGenerator generates SVG representations by calling Graphviz
type SVGGenerator struct {
	dotGenerator *DOTGenerator
}

// NewSVGGenerator creates a new SVG generator
func NewSVGGenerator(description fsm.MachineDescription, options ...DOTOptions) *SVGGenerator {
	return &SVGGenerator{
		dotGenerator: NewDOTGenerator(description, options...),
	}
}

// Generate creates an SVG representation of the state machine
func (g *SVGGenerator) Generate() (string, error) {
	dotContent, err := g.dotGenerator.Generate()
	if err != nil {
		return "", err
	}

	cmd := exec.Command("dot", "-Tsvg")
	cmd.Stdin = strings.NewReader(dotContent)

	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to execute dot command: %w (make sure Graphviz is installed)", err)
	}

	return out.String(), nil
}

// GenerateSVG creates an SVG representation through the Graphviz dot command
func (g *DOTGenerator) GenerateSVG() (string, error) {
	svgGen := &SVGGenerator{dotGenerator: g}
	return svgGen.Generate()
}
