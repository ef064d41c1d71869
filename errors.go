package ruleflow

import (
	"errors"
	"fmt"
)

// Phase identifies which half of a rule failed.
type Phase string

const (
	// PhaseEvaluate means the rule's predicate returned or raised an error.
	PhaseEvaluate Phase = "evaluate"

	// PhaseAction means the rule's action returned or raised an error.
	PhaseAction Phase = "action"
)

// RuleError wraps a failure from a rule's predicate or action, identifying
// the rule by name (or its positional fallback name) and the phase.
//
// Under ContinueOnError a RuleError is reported through the OnError hook
// and the run proceeds; otherwise it aborts the run and propagates to the
// caller.
type RuleError struct {
	// Rule is the failing rule's display name.
	Rule string

	// Phase is "evaluate" or "action".
	Phase Phase

	// Err is the original error from the rule.
	Err error
}

// Error implements the error interface.
func (e *RuleError) Error() string {
	return fmt.Sprintf("rule %q: %s: %v", e.Rule, e.Phase, e.Err)
}

// Unwrap returns the original rule error.
func (e *RuleError) Unwrap() error {
	return e.Err
}

// IterationLimitError is returned when a run exceeds its iteration cap.
//
// This error is always fatal, regardless of ContinueOnError. It signals a
// runaway rule set (a rule that never stops matching), not a data problem.
type IterationLimitError struct {
	// Limit is the configured maximum iteration count.
	Limit int
}

// Error implements the error interface.
func (e *IterationLimitError) Error() string {
	return fmt.Sprintf("iteration limit exceeded: rule selection did not settle within %d iterations", e.Limit)
}

// FactsMutatedError is returned when the engine detects that the frozen
// facts changed since construction (or the last rebind). Always fatal:
// a mutated context must not be observable by subsequent rules.
type FactsMutatedError struct {
	// Want is the integrity hash snapshotted at construction or rebind.
	Want string

	// Got is the hash observed during the run.
	Got string
}

// Error implements the error interface.
func (e *FactsMutatedError) Error() string {
	return fmt.Sprintf("facts mutated during run: integrity hash %s, expected %s", e.Got, e.Want)
}

// IsRuleError returns true if the error is a RuleError.
// Uses errors.As to handle wrapped errors.
func IsRuleError(err error) bool {
	var re *RuleError
	return errors.As(err, &re)
}

// IsIterationLimitError returns true if the error is an IterationLimitError.
// Uses errors.As to handle wrapped errors.
func IsIterationLimitError(err error) bool {
	var le *IterationLimitError
	return errors.As(err, &le)
}

// IsFactsMutatedError returns true if the error is a FactsMutatedError.
// Uses errors.As to handle wrapped errors.
func IsFactsMutatedError(err error) bool {
	var fe *FactsMutatedError
	return errors.As(err, &fe)
}
