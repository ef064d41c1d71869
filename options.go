package ruleflow

// DefaultMaxIterations is the default iteration cap per run.
// This prevents runaway rule sets from spinning forever.
const DefaultMaxIterations = 1000

// BeforeRuleHook runs immediately before a selected rule's action.
type BeforeRuleHook[C any] func(rule *Rule[C], facts C, result Result)

// AfterRuleHook runs after a selected rule's action and the merge of its
// update. result is the merged result; update is the raw delta the action
// returned, which may be nil.
type AfterRuleHook[C any] func(rule *Rule[C], facts C, result Result, update Result)

// ErrorHook runs when a rule's predicate or action fails. err is the
// wrapped *RuleError. The hook fires whether or not ContinueOnError is
// set; it observes failures, it does not decide them.
type ErrorHook[C any] func(rule *Rule[C], phase Phase, err error)

// RunOptions configures a single Run call. The zero value (or a nil
// pointer) selects all defaults. Options are scoped to one run and never
// persisted on the engine.
//
// Hooks are invoked synchronously at well-defined points: BeforeRule,
// the action, then AfterRule, strictly in that sequence. At most one
// handler per event per run.
type RunOptions[C any] struct {
	// MaxIterations caps the number of executed selection cycles.
	// Zero or negative means DefaultMaxIterations.
	MaxIterations int

	// Debug enables line-oriented progress logging on the engine's logger:
	// start-of-run rule count, per-rule evaluation outcome, per-rule
	// execution entry with iteration number, the merged update payload,
	// and end-of-run iteration count and elapsed time.
	Debug bool

	// CollectStats enables per-run ExecutionStatistics, retrievable via
	// Statistics() after the run completes.
	CollectStats bool

	// ContinueOnError skips a failing rule instead of aborting the run.
	// A failed predicate is treated as non-matching; a failed action
	// applies no update. The iteration cap and facts-mutation failures
	// stay fatal regardless.
	ContinueOnError bool

	BeforeRule BeforeRuleHook[C]
	AfterRule  AfterRuleHook[C]
	OnError    ErrorHook[C]
}

// withDefaults resolves a possibly-nil options pointer into a concrete
// configuration with defaults applied.
func (o *RunOptions[C]) withDefaults() RunOptions[C] {
	var cfg RunOptions[C]
	if o != nil {
		cfg = *o
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	return cfg
}
