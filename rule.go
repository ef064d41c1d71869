package ruleflow

import (
	"context"
	"fmt"
)

// Result is a partial mapping of result fields. Actions return a Result
// holding only the delta to merge; the engine never deletes keys, only
// adds or overwrites them.
type Result = map[string]any

// Swap is rule-local scratch space for passing intermediate values from a
// rule's predicate to its own action within one selection cycle.
//
// The engine allocates a fresh Swap for every rule before each predicate
// invocation in a scan and hands the same instance to the paired action if
// that rule is selected. Values stashed during evaluation are visible to
// the action, and never to any other rule or any later cycle.
type Swap map[string]any

// Predicate decides whether a rule is eligible. It must be free of side
// effects on facts and result; intermediate values belong in swap.
//
// ctx is the caller's context, passed through unchanged. The engine itself
// has no cancellation point; ctx-aware predicates may return ctx.Err() to
// abort a run early.
type Predicate[C any] func(ctx context.Context, facts C, result Result, swap Swap) (bool, error)

// Action produces a rule's effect as a partial result. It must not mutate
// facts or result in place; the returned delta is shallow-merged by the
// engine. A nil delta applies no update.
type Action[C any] func(ctx context.Context, facts C, result Result, swap Swap) (Result, error)

// Rule pairs a predicate with an action.
//
// Name is optional; unnamed rules are reported positionally as
// "Rule #<n>" (1-based) in errors, hooks, statistics and debug output.
//
// A rule with a nil When never matches. A rule with a nil Then matches but
// applies no update; combined with a predicate that stays true this loops
// until the iteration cap, so it is almost always a caller bug.
type Rule[C any] struct {
	Name string
	When Predicate[C]
	Then Action[C]
}

// displayName returns the rule's name, falling back to the 1-based list
// position for unnamed rules.
func (r *Rule[C]) displayName(index int) string {
	if r.Name != "" {
		return r.Name
	}
	return fmt.Sprintf("Rule #%d", index+1)
}
