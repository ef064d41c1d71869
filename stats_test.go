package ruleflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutionStatistics_RuleStats_CreatesOnFirstUse(t *testing.T) {
	stats := newStatistics("token")
	require.Empty(t, stats.Rules)

	rs := stats.ruleStats("increment")
	require.NotNil(t, rs)
	assert.Same(t, rs, stats.ruleStats("increment"))
	assert.Len(t, stats.Rules, 1)
}

func TestRuleStatistics_Accumulates(t *testing.T) {
	var rs RuleStatistics

	rs.recordEvaluation(2 * time.Millisecond)
	rs.recordEvaluation(3 * time.Millisecond)
	rs.recordExecution(5 * time.Millisecond)

	assert.Equal(t, 2, rs.Evaluations)
	assert.Equal(t, 1, rs.Executions)
	assert.Equal(t, 5*time.Millisecond, rs.EvaluationTime)
	assert.Equal(t, 5*time.Millisecond, rs.ExecutionTime)
}
