package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGolden_CounterReachesTarget(t *testing.T) {
	lib := newCounterLibrary(t)
	sc, err := LoadScenario("testdata/scenarios/counter-reaches-target.yaml")
	require.NoError(t, err)

	outcome := RunWithGolden(t, lib, sc)
	assert.True(t, outcome.Pass, "expectation failures: %v", outcome.Errors)
}

func TestGolden_CounterOvershoot(t *testing.T) {
	lib := newCounterLibrary(t)
	sc, err := LoadScenario("testdata/scenarios/counter-overshoot.yaml")
	require.NoError(t, err)

	outcome := RunWithGolden(t, lib, sc)
	assert.True(t, outcome.Pass, "expectation failures: %v", outcome.Errors)
}
