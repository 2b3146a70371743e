// Package harness provides conformance testing for the rendering pipeline.
//
// The harness loads annotated-document scenarios, renders them through
// the full engine pass, optionally scripts interaction traffic against
// the result, and validates layout and intent traces as executable
// contract tests.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	document:
//	  text: "The cat sat on the mat."
//	codebook:
//	  cd-trust: { name: Trust, color: "#e64a19" }
//	code_spans:
//	  - { id: cs-1, code: cd-trust, start: 4, end: 7 }
//	view:
//	  show_code_colors: true
//	search:
//	  query: "at"
//	  current: 1
//	events:
//	  - do: hover
//	    marker: cs-1
//	  - do: click
//	    marker: cs-1
//	assertions:
//	  - type: round_trip
//	  - type: fragment_count
//	    count: 3
//	  - type: intent_trace
//	    intents: [toggle_code]
//	golden: [html, text, trace]
//
// The document, codebook, annotation, and view fields are the bundle
// format inlined; anything a bundle file accepts, a scenario accepts.
//
// # Assertion Types
//
// The following assertion types are supported:
//
//   - round_trip: Verifies fragment concatenation reproduces the document
//   - mode: Verifies the detected layout mode (plain or transcript)
//   - fragment_count: Verifies the number of fragments
//   - fragment_spans: Verifies the exact fragment boundary list
//   - style_at: Verifies the resolved style of the fragment at an offset
//   - marker_at: Verifies a marker kind and id anchored at an offset
//   - unanchored: Verifies the unanchored memo side list
//   - match_count: Verifies the number of search matches
//   - block_count: Verifies the number of transcript blocks
//   - intent_trace: Verifies the intent sequence the events produced
//   - final_view: Verifies selection state after intents apply
//   - final_count: Verifies collection sizes after intents apply
//
// # Deterministic Testing
//
// All scenarios execute with a fixed session token, a manual timer
// scheduler, and sequential annotation id generation to ensure
// reproducible results and golden snapshot comparison.
//
// The harness uses:
//   - Fixed session tokens (testutil.StaticSessionGenerator, from
//     scenario.session or "test-session")
//   - Manual toolbar timers (interaction.ManualScheduler, fired only
//     by explicit timer steps)
//   - Sequential memo ids (testutil.SequenceGenerator: "memo-001",
//     "memo-002", ...)
//   - A true-color-pinned terminal renderer with escapes stripped
//
// This ensures identical traces and render output across runs.
//
// # Usage
//
// Load a scenario:
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/stacked_codes.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Execute with the harness:
//
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
