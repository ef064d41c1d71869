package ruleflow

import "time"

// RuleStatistics aggregates evaluation and execution activity for a single
// rule within one run.
type RuleStatistics struct {
	// Evaluations counts predicate invocations, including failed ones.
	Evaluations int

	// Executions counts action invocations, including failed ones.
	Executions int

	// EvaluationTime is the cumulative time spent in the predicate.
	EvaluationTime time.Duration

	// ExecutionTime is the cumulative time spent in the action.
	ExecutionTime time.Duration
}

// ExecutionStatistics is the run-scoped aggregate collected when
// RunOptions.CollectStats is set. A fresh value is created per run and
// published on the engine when the run completes; the next stats-enabled
// run overwrites it.
type ExecutionStatistics struct {
	// RunToken identifies the run that produced these statistics.
	RunToken string

	// TotalIterations is the number of executed selection cycles.
	TotalIterations int

	// TotalTime is the wall time of the whole run.
	TotalTime time.Duration

	// Rules holds per-rule records keyed by display name.
	Rules map[string]*RuleStatistics
}

func newStatistics(token string) *ExecutionStatistics {
	return &ExecutionStatistics{
		RunToken: token,
		Rules:    make(map[string]*RuleStatistics),
	}
}

// ruleStats returns the record for a rule, creating it on first use.
func (s *ExecutionStatistics) ruleStats(name string) *RuleStatistics {
	rs, ok := s.Rules[name]
	if !ok {
		rs = &RuleStatistics{}
		s.Rules[name] = rs
	}
	return rs
}

func (r *RuleStatistics) recordEvaluation(d time.Duration) {
	r.Evaluations++
	r.EvaluationTime += d
}

func (r *RuleStatistics) recordExecution(d time.Duration) {
	r.Executions++
	r.ExecutionTime += d
}
