package harness

import (
	"context"
	"io"
	"log/slog"
	"maps"

	"github.com/kestrelworks/ruleflow"
)

// TraceEvent records one executed selection cycle.
type TraceEvent struct {
	// Iteration is the 1-based ordinal of the executed cycle.
	Iteration int

	// Rule is the executed rule's name.
	Rule string

	// Update is the raw delta the action returned; nil when the action
	// returned no update.
	Update map[string]any
}

// Outcome is the result of running a scenario.
type Outcome struct {
	// Pass indicates all expectations held.
	Pass bool

	// FinalResult is the engine's result after the run, including merges
	// applied before any error.
	FinalResult ruleflow.Result

	// Iterations is the number of executed selection cycles, including
	// cycles whose action failed under continue_on_error.
	Iterations int

	// Err is the run error, nil on normal completion.
	Err error

	// Trace lists executed rules in order.
	Trace []TraceEvent

	// Errors contains expectation failure messages. Empty when Pass.
	Errors []string
}

// addError records an expectation failure and marks the outcome failed.
func (o *Outcome) addError(msg string) {
	o.Errors = append(o.Errors, msg)
	o.Pass = false
}

// Run executes a scenario against the library's rules and evaluates its
// expectations. The returned error covers harness-level problems (unknown
// rule names); run errors land in Outcome.Err and are judged against the
// scenario's expect clause.
//
// Each scenario runs on a fresh engine with a fixed run token and a
// discarded logger, so outcomes and traces are deterministic.
func Run(lib *Library, sc *Scenario) (*Outcome, error) {
	rules, err := lib.resolve(sc.Rules)
	if err != nil {
		return nil, err
	}

	eng := ruleflow.New(Facts(sc.Facts)).
		SetRules(rules).
		SetInitialResult(maps.Clone(sc.Initial)).
		SetTokenGenerator(ruleflow.NewFixedGenerator(sc.Name + "-run")).
		SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	outcome := &Outcome{Pass: true}

	// Iterations are counted in BeforeRule: AfterRule is skipped for
	// actions that fail under continue_on_error, and those cycles still
	// count toward the cap.
	iteration := 0
	opts := &ruleflow.RunOptions[Facts]{
		MaxIterations:   sc.MaxIterations,
		ContinueOnError: sc.ContinueOnError,
		CollectStats:    true,
		BeforeRule: func(_ *ruleflow.Rule[Facts], _ Facts, _ ruleflow.Result) {
			iteration++
		},
		AfterRule: func(rule *ruleflow.Rule[Facts], _ Facts, _ ruleflow.Result, update ruleflow.Result) {
			outcome.Trace = append(outcome.Trace, TraceEvent{
				Iteration: iteration,
				Rule:      rule.Name,
				Update:    update,
			})
		},
	}

	final, runErr := eng.Run(context.Background(), opts)
	outcome.FinalResult = final
	outcome.Err = runErr

	if stats := eng.Statistics(); stats != nil && runErr == nil {
		outcome.Iterations = stats.TotalIterations
	} else {
		outcome.Iterations = iteration
	}

	evaluateExpect(outcome, sc.Expect)
	return outcome, nil
}
