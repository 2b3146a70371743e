package harness

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/marginalia/internal/annotation"
	"github.com/roach88/marginalia/internal/engine"
	"github.com/roach88/marginalia/internal/interaction"
	"github.com/roach88/marginalia/internal/search"
	"github.com/roach88/marginalia/internal/testutil"
	"github.com/roach88/marginalia/internal/workspace"
)

// DefaultSession is the session token scenarios fall back to. A fixed
// default keeps golden traces stable without every scenario declaring
// one.
const DefaultSession = "test-session"

// Harness is the scenario execution engine.
// It runs scenarios with a fixed session token and manual timers.
type Harness struct {
	engine    *engine.Engine
	workspace *workspace.Workspace
	scheduler *interaction.ManualScheduler
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh workspace for isolation. Deterministic
// helpers ensure reproducible traces and render output.
//
// Execution flow:
// 1. Hydrate the scenario bundle into a fresh workspace
// 2. Apply the search step, if any
// 3. Render the initial layout
// 4. Script events against the layout, recording intents
// 5. Apply recorded intents and render the final layout
// 6. Evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	// Hydrate a copy; scenarios are reused across runs and Hydrate
	// writes the resolved text back into the bundle.
	b := scenario.Bundle
	if err := b.Hydrate(scenario.baseDir); err != nil {
		return nil, fmt.Errorf("failed to load scenario bundle: %w", err)
	}

	ws := workspace.FromBundle(&b,
		workspace.WithTokenGenerator(testutil.NewSequenceGenerator("memo")),
	)

	if s := scenario.Search; s != nil {
		ws.SetQuery(s.Query, search.Options{
			CaseSensitive: s.CaseSensitive,
			WholeWord:     s.WholeWord,
		})
		// The cursor lands on the first match; advance it to the
		// requested one. Navigation wraps, same as the viewer.
		for i := 0; i < s.Current; i++ {
			ws.NextMatch()
		}
	}

	h := &Harness{
		engine: engine.New(
			engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), // Suppress logs in tests
		),
		workspace: ws,
		scheduler: interaction.NewManualScheduler(),
	}

	snap := ws.Snapshot()
	layout, err := h.engine.Render(snap.Text, snap.Codebook, snap.Input, snap.View)
	if err != nil {
		return nil, fmt.Errorf("failed to render scenario: %w", err)
	}

	result := NewResult()
	result.Layout = layout

	if len(scenario.Events) > 0 {
		if err := h.executeEvents(scenario, layout, result); err != nil {
			return nil, err
		}
	}

	// Apply the recorded intents. Failures are scenario outcomes, not
	// harness errors: the trace stays intact for inspection.
	for i, in := range result.Intents {
		if err := ws.ApplyIntent(in); err != nil {
			result.AddError(fmt.Sprintf("intent %d (%s): %v", i+1, in.Type, err))
		}
	}

	if len(scenario.Events) > 0 {
		final := ws.Snapshot()
		layout, err := h.engine.Render(final.Text, final.Codebook, final.Input, final.View)
		if err != nil {
			return nil, fmt.Errorf("failed to render final state: %w", err)
		}
		result.Final = layout
		result.State = final
	} else {
		result.Final = layout
		result.State = snap
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

// executeEvents scripts the scenario's events against the rendered
// layout, feeding a controller whose intents land in the result.
func (h *Harness) executeEvents(scenario *Scenario, layout *engine.Layout, result *Result) error {
	ctrl := interaction.New(result.AddIntent,
		interaction.WithScheduler(h.scheduler),
		interaction.WithTokenGenerator(testutil.NewStaticSessionGenerator(scenario.SessionToken())),
	)
	defer ctrl.Close()

	markers := layout.AllMarkers()

	for i, step := range scenario.Events {
		switch step.Do {
		case StepHover, StepLeave, StepClick, StepToolbar:
			ref, ok := resolveMarker(markers, step.Marker)
			if !ok {
				return fmt.Errorf("events[%d]: marker %q not in layout", i, step.Marker)
			}
			switch step.Do {
			case StepHover:
				ctrl.Dispatch(interaction.Event{Type: interaction.EventPointerEnter, Marker: &ref})
			case StepLeave:
				ctrl.Dispatch(interaction.Event{Type: interaction.EventPointerLeave, Marker: &ref})
			case StepClick:
				ctrl.Dispatch(interaction.Event{Type: interaction.EventMarkerClick, Marker: &ref})
			case StepToolbar:
				ctrl.Dispatch(interaction.Event{
					Type:   interaction.EventToolbarAction,
					Marker: &ref,
					Action: toolbarAction(step.Action),
				})
			}
		case StepHeaderClick:
			ctrl.Dispatch(interaction.Event{
				Type:     interaction.EventHeaderClick,
				Modifier: step.Modifier,
				Seconds:  step.Seconds,
			})
		case StepSelection:
			ctrl.Dispatch(interaction.Event{
				Type:      interaction.EventSelectionChanged,
				Selecting: step.Selecting,
			})
		case StepTimer:
			if !h.scheduler.Fire() {
				return fmt.Errorf("events[%d]: timer step with no pending timer", i)
			}
		case StepReset:
			ctrl.Dispatch(interaction.Event{Type: interaction.EventReset})
		}
	}

	return nil
}

// SessionToken returns the scenario's fixed session token, falling
// back to DefaultSession when the scenario names none.
func (s *Scenario) SessionToken() string {
	if s.Session != "" {
		return s.Session
	}
	return DefaultSession
}

// resolveMarker finds the rendered marker with the given id and
// converts it to the snapshot form events carry.
func resolveMarker(markers []engine.Marker, id string) (interaction.MarkerRef, bool) {
	for _, m := range markers {
		if m.ID != id {
			continue
		}
		kind := annotation.KindCode
		if m.Kind == engine.MarkerMemo {
			kind = annotation.KindMemo
		}
		return interaction.MarkerRef{Kind: kind, ID: m.ID, Span: m.Span, Label: m.Label}, true
	}
	return interaction.MarkerRef{}, false
}

// toolbarAction maps a step's action name to the event form. Unknown
// names were rejected at load.
func toolbarAction(name string) interaction.ToolbarAction {
	switch name {
	case "reassign":
		return interaction.ActionReassign
	case "add_memo":
		return interaction.ActionAddMemo
	default:
		return interaction.ActionDelete
	}
}
