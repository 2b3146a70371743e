package harness

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/sebdah/goldie/v2"

	"github.com/roach88/marginalia/internal/interaction"
	"github.com/roach88/marginalia/internal/render"
)

// TraceSnapshot captures the intent trace for a scenario execution.
// Serialized as indented JSON with stable struct field order for
// deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string               `json:"scenario_name"`
	Session      string               `json:"session"`
	Intents      []interaction.Intent `json:"intents"`
}

// RunWithGolden executes a scenario and compares its surfaces against
// golden files. The scenario's golden list picks the surfaces; empty
// defaults to the intent trace.
//
// Golden files live in testdata/golden/{name}_{surface}.golden.
// To regenerate them, run:
//
//	go test ./internal/harness -update
//
// Golden files serve as the source of truth for expected render and
// trace output.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	surfaces := scenario.Golden
	if len(surfaces) == 0 {
		surfaces = []string{GoldenTrace}
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	for _, surface := range surfaces {
		data, err := GoldenSurface(scenario, result, surface)
		if err != nil {
			return nil, err
		}
		g.Assert(t, scenario.Name+"_"+surface, data)
	}

	return result, nil
}

// AssertGolden compares an already-run result's intent trace against a
// golden file. This is useful when a test has already run a scenario
// and wants to compare without re-running.
func AssertGolden(t *testing.T, scenarioName, session string, result *Result) error {
	t.Helper()

	data, err := TraceJSON(scenarioName, session, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName+"_"+GoldenTrace, data)

	return nil
}

// GoldenSurface serializes one comparison surface. The html and text
// surfaces capture the final layout, after scripted events applied;
// the text surface strips ANSI escapes so golden files stay readable.
func GoldenSurface(scenario *Scenario, result *Result, surface string) ([]byte, error) {
	switch surface {
	case GoldenHTML:
		return []byte(render.HTML(result.Final)), nil
	case GoldenText:
		out := render.NewTerminal().Render(result.Final)
		return []byte(ansi.Strip(out.Text)), nil
	case GoldenTrace:
		return TraceJSON(scenario.Name, scenario.SessionToken(), result)
	default:
		return nil, fmt.Errorf("unknown golden surface %q", surface)
	}
}

// TraceJSON serializes a result's intent trace as indented JSON.
func TraceJSON(scenarioName, session string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Session:      session,
		Intents:      result.Intents,
	}
	return json.MarshalIndent(snapshot, "", "  ")
}
