package ruleflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kestrelworks/ruleflow/internal/canonical"
)

// Engine drives forward-chaining evaluation of an ordered rule list over
// frozen facts, accumulating a partial result by shallow merge.
//
// INVARIANTS:
//   - Rule list order is the sole priority; the first match each cycle wins
//   - Facts never change for the engine's lifetime (or until RebindFacts);
//     the canonical hash snapshotted at construction enforces this
//   - The result only grows: merges overwrite keys, nothing deletes them
//
// Thread-safety model:
//   - Run must not be called concurrently on the same engine
//   - Setters are intended for use between runs, not mid-run; calling them
//     during an in-flight run is undefined behavior
type Engine[C any] struct {
	facts  C
	rules  []Rule[C]
	result Result
	stats  *ExecutionStatistics
	logger *slog.Logger
	tokens TokenGenerator

	// factsHash guards the frozen facts. Empty when the facts cannot be
	// canonicalized, in which case the guard is disabled.
	factsHash string
}

// New creates an engine over the given facts with an optional initial rule
// list. The rules are copied so later mutation of the caller's slice cannot
// change evaluation order. The initial result is empty; seed it with
// SetInitialResult.
func New[C any](facts C, rules ...Rule[C]) *Engine[C] {
	e := &Engine[C]{
		facts:  facts,
		result: make(Result),
		logger: slog.Default(),
		tokens: UUIDv7Generator{},
	}
	e.SetRules(rules)
	e.factsHash = snapshotFacts(facts)
	return e
}

// snapshotFacts computes the integrity hash for the facts guard.
// Returns "" when the facts cannot be canonicalized (funcs, channels, ...);
// the guard is then disabled and mutation goes undetected.
func snapshotFacts(facts any) string {
	h, err := canonical.Hash(canonical.DomainFacts, facts)
	if err != nil {
		return ""
	}
	return h
}

// SetRules replaces the rule list wholesale and returns the engine for
// chaining. The slice is copied to preserve the declaration-order
// invariant. Passing nil or an empty slice clears the list.
func (e *Engine[C]) SetRules(rules []Rule[C]) *Engine[C] {
	if len(rules) == 0 {
		e.rules = nil
		return e
	}
	e.rules = make([]Rule[C], len(rules))
	copy(e.rules, rules)
	return e
}

// SetInitialResult replaces the result wholesale and returns the engine
// for chaining. A nil result is replaced with an empty one. Intended for
// use before a run; calling it mid-run is undefined behavior.
func (e *Engine[C]) SetInitialResult(r Result) *Engine[C] {
	if r == nil {
		r = make(Result)
	}
	e.result = r
	return e
}

// SetLogger replaces the logger used for debug output and returns the
// engine for chaining. Defaults to slog.Default().
func (e *Engine[C]) SetLogger(l *slog.Logger) *Engine[C] {
	if l != nil {
		e.logger = l
	}
	return e
}

// SetTokenGenerator replaces the run-token generator and returns the
// engine for chaining. Defaults to UUIDv7Generator.
func (e *Engine[C]) SetTokenGenerator(g TokenGenerator) *Engine[C] {
	if g != nil {
		e.tokens = g
	}
	return e
}

// RebindFacts replaces the frozen facts and re-snapshots the integrity
// hash. This is the only sanctioned way to change facts after
// construction. Returns the engine for chaining.
func (e *Engine[C]) RebindFacts(facts C) *Engine[C] {
	e.facts = facts
	e.factsHash = snapshotFacts(facts)
	return e
}

// Facts returns the engine's frozen facts.
func (e *Engine[C]) Facts() C {
	return e.facts
}

// FactsGuarded reports whether the facts integrity guard is active.
// The guard is disabled when the facts cannot be canonicalized.
func (e *Engine[C]) FactsGuarded() bool {
	return e.factsHash != ""
}

// Rules returns a copy of the registered rules in declaration order.
// Used for testing and introspection; mutating the returned slice does not
// affect the engine.
func (e *Engine[C]) Rules() []Rule[C] {
	out := make([]Rule[C], len(e.rules))
	copy(out, e.rules)
	return out
}

// Result returns the current partial result. The returned map is the
// engine's live state: a read-only view by convention, not enforced.
func (e *Engine[C]) Result() Result {
	return e.result
}

// Statistics returns the statistics captured by the most recently
// completed run with CollectStats enabled, or nil if never collected.
func (e *Engine[C]) Statistics() *ExecutionStatistics {
	return e.stats
}

// selection carries the winner of one rule scan into execution.
type selection[C any] struct {
	rule *Rule[C]
	name string
	swap Swap
}

// Run executes the evaluation loop until no rule matches or the iteration
// cap is exceeded, and returns the accumulated result.
//
// A nil opts selects all defaults. On error the result reflects every
// merge applied before the failure; there is no rollback.
//
// ctx is passed through to predicates, actions and hooks. The loop itself
// has no cancellation point: a run proceeds to completion, a fatal error,
// or the iteration cap. Callers wanting early termination do it through a
// rule's own logic or through ctx-aware rules.
func (e *Engine[C]) Run(ctx context.Context, opts *RunOptions[C]) (Result, error) {
	cfg := opts.withDefaults()
	token := e.tokens.Generate()
	logger := e.logger.With("run", token)

	var stats *ExecutionStatistics
	if cfg.CollectStats {
		stats = newStatistics(token)
	}
	start := time.Now()
	iterations := 0

	if cfg.Debug {
		logger.Info("rule engine run started", "rules", len(e.rules))
	}

	for {
		if err := e.verifyFacts(); err != nil {
			return e.result, err
		}

		sel, err := e.selectRule(ctx, &cfg, stats, logger)
		if err != nil {
			return e.result, err
		}
		if sel == nil {
			break
		}

		iterations++
		if iterations > cfg.MaxIterations {
			return e.result, &IterationLimitError{Limit: cfg.MaxIterations}
		}

		if cfg.Debug {
			logger.Info("executing rule", "rule", sel.name, "iteration", iterations)
		}
		if cfg.BeforeRule != nil {
			cfg.BeforeRule(sel.rule, e.facts, e.result)
		}

		began := time.Now()
		update, err := executeAction(ctx, sel.rule, e.facts, e.result, sel.swap)
		if stats != nil {
			stats.ruleStats(sel.name).recordExecution(time.Since(began))
		}
		if err != nil {
			rerr := &RuleError{Rule: sel.name, Phase: PhaseAction, Err: err}
			if cfg.OnError != nil {
				cfg.OnError(sel.rule, PhaseAction, rerr)
			}
			if !cfg.ContinueOnError {
				return e.result, rerr
			}
			if cfg.Debug {
				logger.Info("rule action failed, continuing", "rule", sel.name, "error", rerr)
			}
			continue
		}

		if update != nil {
			e.merge(update)
		}
		if cfg.Debug {
			logger.Info("rule executed", "rule", sel.name, "update", update)
		}
		if cfg.AfterRule != nil {
			cfg.AfterRule(sel.rule, e.facts, e.result, update)
		}
	}

	elapsed := time.Since(start)
	if stats != nil {
		stats.TotalIterations = iterations
		stats.TotalTime = elapsed
		e.stats = stats
	}
	if cfg.Debug {
		logger.Info("rule engine run complete", "iterations", iterations, "elapsed", elapsed)
	}
	return e.result, nil
}

// selectRule scans the rules in declaration order and returns the first
// whose predicate holds, or nil if the scan exhausts the list.
//
// Predicates are awaited strictly in list order; candidates are never
// evaluated concurrently, since later predicates may rely on the
// first-match ordering guarantee.
func (e *Engine[C]) selectRule(ctx context.Context, cfg *RunOptions[C], stats *ExecutionStatistics, logger *slog.Logger) (*selection[C], error) {
	for i := range e.rules {
		rule := &e.rules[i]
		name := rule.displayName(i)

		// Fresh scratch per evaluation pass so stale values never leak
		// across iterations.
		swap := make(Swap)

		began := time.Now()
		matched, err := evaluatePredicate(ctx, rule, e.facts, e.result, swap)
		if stats != nil {
			stats.ruleStats(name).recordEvaluation(time.Since(began))
		}

		// Re-verify after every predicate, not just at the loop top: a
		// predicate that mutates the facts mid-scan must be caught before
		// any later rule in the same scan can observe the change, and
		// before a selected rule's action can merge an update derived from
		// the mutated facts.
		if verr := e.verifyFacts(); verr != nil {
			return nil, verr
		}

		if err != nil {
			rerr := &RuleError{Rule: name, Phase: PhaseEvaluate, Err: err}
			if cfg.OnError != nil {
				cfg.OnError(rule, PhaseEvaluate, rerr)
			}
			if cfg.ContinueOnError {
				if cfg.Debug {
					logger.Info("rule evaluation failed, continuing", "rule", name, "error", rerr)
				}
				continue
			}
			return nil, rerr
		}

		if cfg.Debug {
			logger.Info("rule evaluated", "rule", name, "matched", matched)
		}
		if matched {
			return &selection[C]{rule: rule, name: name, swap: swap}, nil
		}
	}
	return nil, nil
}

// evaluatePredicate invokes a rule's predicate, converting panics into
// errors so a misbehaving rule cannot take down the caller.
func evaluatePredicate[C any](ctx context.Context, rule *Rule[C], facts C, result Result, swap Swap) (matched bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			matched = false
			err = fmt.Errorf("predicate panicked: %v", r)
		}
	}()
	if rule.When == nil {
		return false, nil
	}
	return rule.When(ctx, facts, result, swap)
}

// executeAction invokes a rule's action, converting panics into errors.
func executeAction[C any](ctx context.Context, rule *Rule[C], facts C, result Result, swap Swap) (update Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			update = nil
			err = fmt.Errorf("action panicked: %v", r)
		}
	}()
	if rule.Then == nil {
		return nil, nil
	}
	return rule.Then(ctx, facts, result, swap)
}

// merge shallow-merges an action's update onto the result: present keys
// overwrite, absent keys are preserved, nothing is deleted.
func (e *Engine[C]) merge(update Result) {
	if e.result == nil {
		e.result = make(Result, len(update))
	}
	for k, v := range update {
		e.result[k] = v
	}
}

// verifyFacts re-hashes the facts and compares against the snapshot taken
// at construction or rebind. Checked at every loop top and after every
// predicate invocation. Mutation is always fatal: it must not be observable
// by subsequent rules, even under ContinueOnError.
func (e *Engine[C]) verifyFacts() error {
	if e.factsHash == "" {
		return nil
	}
	h := snapshotFacts(e.facts)
	if h != e.factsHash {
		return &FactsMutatedError{Want: e.factsHash, Got: h}
	}
	return nil
}
