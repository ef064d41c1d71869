package harness

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/kestrelworks/ruleflow/internal/canonical"
)

// evaluateExpect checks a scenario's expectations against the outcome,
// recording each failure on the outcome.
//
// A nil expect clause means the run must simply complete without error.
func evaluateExpect(o *Outcome, expect *ExpectClause) {
	if expect == nil {
		if o.Err != nil {
			o.addError(fmt.Sprintf("run failed: %v", o.Err))
		}
		return
	}

	if expect.Error != "" {
		if o.Err == nil {
			o.addError(fmt.Sprintf("expected error containing %q, run completed without error", expect.Error))
		} else if !strings.Contains(o.Err.Error(), expect.Error) {
			o.addError(fmt.Sprintf("expected error containing %q, got %q", expect.Error, o.Err.Error()))
		}
	} else if o.Err != nil {
		o.addError(fmt.Sprintf("run failed: %v", o.Err))
	}

	if expect.Iterations != nil && o.Iterations != *expect.Iterations {
		o.addError(fmt.Sprintf("expected %d iterations, got %d", *expect.Iterations, o.Iterations))
	}

	// Subset match: only the keys the scenario names are validated.
	for key, want := range expect.Result {
		got, exists := o.FinalResult[key]
		if !exists {
			o.addError(fmt.Sprintf("result[%q]: missing, expected %v", key, want))
			continue
		}
		if !valuesEqual(want, got) {
			o.addError(fmt.Sprintf("result[%q]: expected %v, got %v", key, want, got))
		}
	}
}

// valuesEqual compares two values by canonical JSON form, so a YAML int
// and a Go int (or an integral float) compare equal.
func valuesEqual(a, b any) bool {
	ab, err := canonicalBytes(a)
	if err != nil {
		return false
	}
	bb, err := canonicalBytes(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}

func canonicalBytes(v any) ([]byte, error) {
	n, err := canonical.Normalize(v)
	if err != nil {
		return nil, err
	}
	return canonical.Marshal(n)
}
