package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/kestrelworks/ruleflow/internal/canonical"
)

// snapshot builds the JSON-shaped form of an outcome for golden comparison.
// Only deterministic fields are included: no durations, no run tokens.
func snapshot(sc *Scenario, o *Outcome) map[string]any {
	trace := make([]any, len(o.Trace))
	for i, ev := range o.Trace {
		entry := map[string]any{
			"iteration": ev.Iteration,
			"rule":      ev.Rule,
		}
		if ev.Update != nil {
			entry["update"] = ev.Update
		}
		trace[i] = entry
	}

	snap := map[string]any{
		"scenario":     sc.Name,
		"iterations":   o.Iterations,
		"final_result": o.FinalResult,
		"trace":        trace,
	}
	if o.Err != nil {
		snap["error"] = o.Err.Error()
	}
	return snap
}

// RunWithGolden executes a scenario and compares its trace snapshot
// against a golden file in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./harness -update
//
// The snapshot uses canonical JSON, so the comparison is byte-exact and
// stable across runs.
func RunWithGolden(t *testing.T, lib *Library, sc *Scenario) *Outcome {
	t.Helper()

	outcome, err := Run(lib, sc)
	if err != nil {
		t.Fatalf("harness run: %v", err)
	}

	normalized, err := canonical.Normalize(snapshot(sc, outcome))
	if err != nil {
		t.Fatalf("normalize snapshot: %v", err)
	}
	data, err := canonical.Marshal(normalized)
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, sc.Name, data)

	return outcome
}
