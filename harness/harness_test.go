package harness

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelworks/ruleflow"
)

// newCounterLibrary registers the counter demo rules scenarios reference:
// initialize the count from facts, increment toward the target, flag
// arrival, plus a deliberately runaway rule for cap scenarios.
func newCounterLibrary(t *testing.T) *Library {
	t.Helper()
	lib := NewLibrary()

	lib.MustRegister(ruleflow.Rule[Facts]{
		Name: "initialize",
		When: func(_ context.Context, _ Facts, res ruleflow.Result, _ ruleflow.Swap) (bool, error) {
			_, ok := res["count"]
			return !ok, nil
		},
		Then: func(_ context.Context, facts Facts, _ ruleflow.Result, _ ruleflow.Swap) (ruleflow.Result, error) {
			return ruleflow.Result{"count": facts["startValue"], "flag": false}, nil
		},
	})

	lib.MustRegister(ruleflow.Rule[Facts]{
		Name: "increment",
		When: func(_ context.Context, facts Facts, res ruleflow.Result, _ ruleflow.Swap) (bool, error) {
			count, ok := res["count"].(int)
			flag, _ := res["flag"].(bool)
			end, _ := facts["endValue"].(int)
			return ok && !flag && count < end, nil
		},
		Then: func(_ context.Context, _ Facts, res ruleflow.Result, _ ruleflow.Swap) (ruleflow.Result, error) {
			return ruleflow.Result{"count": res["count"].(int) + 1}, nil
		},
	})

	lib.MustRegister(ruleflow.Rule[Facts]{
		Name: "finish",
		When: func(_ context.Context, facts Facts, res ruleflow.Result, _ ruleflow.Swap) (bool, error) {
			count, ok := res["count"].(int)
			flag, _ := res["flag"].(bool)
			end, _ := facts["endValue"].(int)
			return ok && !flag && count == end, nil
		},
		Then: func(_ context.Context, _ Facts, _ ruleflow.Result, _ ruleflow.Swap) (ruleflow.Result, error) {
			return ruleflow.Result{"flag": true}, nil
		},
	})

	lib.MustRegister(ruleflow.Rule[Facts]{
		Name: "spin",
		When: func(_ context.Context, _ Facts, _ ruleflow.Result, _ ruleflow.Swap) (bool, error) {
			return true, nil
		},
		Then: func(_ context.Context, _ Facts, res ruleflow.Result, _ ruleflow.Swap) (ruleflow.Result, error) {
			spins, _ := res["spins"].(int)
			return ruleflow.Result{"spins": spins + 1}, nil
		},
	})

	return lib
}

// =============================================================================
// Library
// =============================================================================

func TestLibrary_Register_RequiresName(t *testing.T) {
	lib := NewLibrary()
	err := lib.Register(ruleflow.Rule[Facts]{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be named")
}

func TestLibrary_Register_RejectsDuplicates(t *testing.T) {
	lib := NewLibrary()
	require.NoError(t, lib.Register(ruleflow.Rule[Facts]{Name: "once"}))

	err := lib.Register(ruleflow.Rule[Facts]{Name: "once"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate rule name")
}

func TestLibrary_MustRegister_PanicsOnError(t *testing.T) {
	lib := NewLibrary()
	assert.Panics(t, func() {
		lib.MustRegister(ruleflow.Rule[Facts]{})
	})
}

func TestLibrary_Lookup(t *testing.T) {
	lib := newCounterLibrary(t)

	rule, ok := lib.Rule("increment")
	require.True(t, ok)
	assert.Equal(t, "increment", rule.Name)

	_, ok = lib.Rule("absent")
	assert.False(t, ok)

	assert.Equal(t, []string{"finish", "increment", "initialize", "spin"}, lib.Names())
}

// =============================================================================
// Scenario runs
// =============================================================================

func TestRun_UnknownRuleName(t *testing.T) {
	lib := newCounterLibrary(t)
	sc := &Scenario{
		Name:        "bad-rules",
		Description: "references a rule the library does not have",
		Rules:       []string{"initialize", "teleport"},
	}

	_, err := Run(lib, sc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `rules[1]: unknown rule "teleport"`)
}

func TestRun_CounterReachesTarget(t *testing.T) {
	lib := newCounterLibrary(t)
	sc, err := LoadScenario("testdata/scenarios/counter-reaches-target.yaml")
	require.NoError(t, err)

	outcome, err := Run(lib, sc)
	require.NoError(t, err)

	assert.True(t, outcome.Pass, "expectation failures: %v", outcome.Errors)
	assert.NoError(t, outcome.Err)
	assert.Equal(t, 5, outcome.Iterations)
	assert.Equal(t, 3, outcome.FinalResult["count"])
	assert.Equal(t, true, outcome.FinalResult["flag"])

	require.Len(t, outcome.Trace, 5)
	assert.Equal(t, "initialize", outcome.Trace[0].Rule)
	assert.Equal(t, "increment", outcome.Trace[1].Rule)
	assert.Equal(t, "finish", outcome.Trace[4].Rule)
	assert.Equal(t, 1, outcome.Trace[0].Iteration)
	assert.Equal(t, 5, outcome.Trace[4].Iteration)
}

func TestRun_CounterOvershoot(t *testing.T) {
	lib := newCounterLibrary(t)
	sc, err := LoadScenario("testdata/scenarios/counter-overshoot.yaml")
	require.NoError(t, err)

	outcome, err := Run(lib, sc)
	require.NoError(t, err)

	assert.True(t, outcome.Pass, "expectation failures: %v", outcome.Errors)
	assert.Equal(t, 1, outcome.Iterations)
	assert.Equal(t, 1, outcome.FinalResult["count"])
	assert.Equal(t, false, outcome.FinalResult["flag"])
}

func TestRun_RunawayHitsCap(t *testing.T) {
	lib := newCounterLibrary(t)
	sc, err := LoadScenario("testdata/scenarios/runaway-hits-cap.yaml")
	require.NoError(t, err)

	outcome, err := Run(lib, sc)
	require.NoError(t, err)

	assert.True(t, outcome.Pass, "expectation failures: %v", outcome.Errors)
	require.Error(t, outcome.Err)
	assert.True(t, ruleflow.IsIterationLimitError(outcome.Err))
	assert.Equal(t, 4, outcome.Iterations, "cap of 4 allows exactly 4 executions")
}

func TestRun_ExpectationFailureRecorded(t *testing.T) {
	lib := newCounterLibrary(t)
	iterations := 99
	sc := &Scenario{
		Name:        "wrong-expectations",
		Description: "deliberately wrong expectations are reported, not fatal",
		Facts:       Facts{"startValue": 0, "endValue": 1},
		Rules:       []string{"initialize", "increment", "finish"},
		Expect: &ExpectClause{
			Result:     map[string]any{"count": 999, "missing": true},
			Iterations: &iterations,
		},
	}

	outcome, err := Run(lib, sc)
	require.NoError(t, err)

	assert.False(t, outcome.Pass)
	assert.Len(t, outcome.Errors, 3, "count mismatch, missing key, iteration mismatch")
}

func TestRun_NumericExpectationsCompareCanonically(t *testing.T) {
	// YAML may hand back an int where the engine produced an int, or a
	// float where integral; the subset match must not care.
	lib := newCounterLibrary(t)
	sc := &Scenario{
		Name:        "canonical-numbers",
		Description: "integral float expectation matches int result",
		Facts:       Facts{"startValue": 0, "endValue": 2},
		Rules:       []string{"initialize", "increment", "finish"},
		Expect: &ExpectClause{
			Result: map[string]any{"count": float64(2)},
		},
	}

	outcome, err := Run(lib, sc)
	require.NoError(t, err)
	assert.True(t, outcome.Pass, "expectation failures: %v", outcome.Errors)
}

func TestRun_NoExpectClause_RequiresCleanRun(t *testing.T) {
	lib := newCounterLibrary(t)
	sc := &Scenario{
		Name:          "spin-no-expect",
		Description:   "a capped runaway run without expectations must fail",
		Rules:         []string{"spin"},
		MaxIterations: 2,
	}

	outcome, err := Run(lib, sc)
	require.NoError(t, err)

	assert.False(t, outcome.Pass)
	require.Len(t, outcome.Errors, 1)
	assert.Contains(t, outcome.Errors[0], "run failed")
}

func TestRun_FailedActionCyclesCountedOnFatalRuns(t *testing.T) {
	// AfterRule never fires for the failing action, so the iteration count
	// must come from cycles entered, not trace events recorded.
	lib := NewLibrary()
	lib.MustRegister(ruleflow.Rule[Facts]{
		Name: "explode",
		When: func(_ context.Context, _ Facts, _ ruleflow.Result, _ ruleflow.Swap) (bool, error) {
			return true, nil
		},
		Then: func(_ context.Context, _ Facts, _ ruleflow.Result, _ ruleflow.Swap) (ruleflow.Result, error) {
			return nil, errors.New("kaboom")
		},
	})

	sc := &Scenario{
		Name:            "explode-until-cap",
		Description:     "failed actions still consume iterations toward the cap",
		Rules:           []string{"explode"},
		MaxIterations:   2,
		ContinueOnError: true,
		Expect: &ExpectClause{
			Error: "did not settle within 2 iterations",
		},
	}

	outcome, err := Run(lib, sc)
	require.NoError(t, err)

	assert.True(t, outcome.Pass, "expectation failures: %v", outcome.Errors)
	assert.Equal(t, 2, outcome.Iterations)
	assert.Empty(t, outcome.Trace, "failed actions produce no trace events")
}

func TestRun_InitialResultSeedsRun(t *testing.T) {
	lib := newCounterLibrary(t)
	sc := &Scenario{
		Name:        "pre-seeded",
		Description: "an initial count suppresses initialization",
		Facts:       Facts{"startValue": 0, "endValue": 2},
		Initial:     map[string]any{"count": 1, "flag": false},
		Rules:       []string{"initialize", "increment", "finish"},
	}

	outcome, err := Run(lib, sc)
	require.NoError(t, err)

	require.Len(t, outcome.Trace, 2, "increment once, then finish")
	assert.Equal(t, "increment", outcome.Trace[0].Rule)
	assert.Equal(t, "finish", outcome.Trace[1].Rule)
	assert.Equal(t, 2, outcome.FinalResult["count"])
}
