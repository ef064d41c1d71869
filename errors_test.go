package ruleflow

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleError_Format(t *testing.T) {
	err := &RuleError{Rule: "increment", Phase: PhaseAction, Err: errors.New("boom")}
	assert.Equal(t, `rule "increment": action: boom`, err.Error())
}

func TestRuleError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &RuleError{Rule: "increment", Phase: PhaseEvaluate, Err: cause}
	assert.ErrorIs(t, err, cause)
}

func TestIterationLimitError_Format(t *testing.T) {
	err := &IterationLimitError{Limit: 7}
	assert.Equal(t, "iteration limit exceeded: rule selection did not settle within 7 iterations", err.Error())
}

func TestFactsMutatedError_Format(t *testing.T) {
	err := &FactsMutatedError{Want: "aaa", Got: "bbb"}
	assert.Contains(t, err.Error(), "facts mutated during run")
	assert.Contains(t, err.Error(), "aaa")
	assert.Contains(t, err.Error(), "bbb")
}

func TestErrorPredicates_MatchWrapped(t *testing.T) {
	rule := fmt.Errorf("run failed: %w", &RuleError{Rule: "r", Phase: PhaseAction, Err: errors.New("x")})
	limit := fmt.Errorf("run failed: %w", &IterationLimitError{Limit: 10})
	mutated := fmt.Errorf("run failed: %w", &FactsMutatedError{Want: "a", Got: "b"})

	assert.True(t, IsRuleError(rule))
	assert.True(t, IsIterationLimitError(limit))
	assert.True(t, IsFactsMutatedError(mutated))
}

func TestErrorPredicates_RejectOthers(t *testing.T) {
	plain := errors.New("plain")

	assert.False(t, IsRuleError(plain))
	assert.False(t, IsIterationLimitError(plain))
	assert.False(t, IsFactsMutatedError(plain))
	assert.False(t, IsRuleError(nil))
}

func TestErrorPredicates_DistinguishTypes(t *testing.T) {
	var err error = &IterationLimitError{Limit: 5}
	require.True(t, IsIterationLimitError(err))
	assert.False(t, IsRuleError(err))
	assert.False(t, IsFactsMutatedError(err))
}
