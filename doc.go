// Package ruleflow implements a forward-chaining, first-match rule engine.
//
// The engine owns an immutable set of facts, an ordered rule list, and a
// partial result that rule actions extend by shallow merge. A run repeatedly
// scans the rules in declaration order, executes the first rule whose
// predicate holds, merges the returned update, and rescans from the top.
// The run ends when no rule matches or the iteration cap is exceeded.
//
// ARCHITECTURE:
//
// Sequential Evaluation Loop:
// A run is a single logical thread of control. Predicates, actions and
// hooks are invoked strictly one at a time, in order. This ensures:
//   - Predictable rule evaluation order (list order is the only priority)
//   - Reproducible traces for golden-file comparison
//   - Simple reasoning about which rule fired and why
//
// Selection Cycle:
//  1. Scan rules from index 0; invoke each predicate with a fresh swap buffer
//  2. First predicate returning true wins; scan never resumes mid-list
//  3. The winning rule's action runs with the same swap buffer
//  4. The returned update is shallow-merged onto the result
//  5. Rescan from index 0 (an earlier rule that became eligible wins next)
//
// Facts are treated as frozen for the lifetime of the engine. Go cannot
// prevent mutation of shared maps or pointers, so the engine snapshots a
// canonical hash of the facts at construction and verifies it before every
// selection scan and after every predicate invocation. A detected mutation
// aborts the run with FactsMutatedError before any later rule can observe
// the change.
//
// Termination is guaranteed by the per-run iteration cap (default 1000).
// Exceeding the cap is always fatal, even under ContinueOnError: it signals
// a runaway rule set, not a data problem.
//
// The engine is not safe for concurrent runs on the same instance.
package ruleflow
