// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-bench/pkg/types"
)

func resultWith(outcomes ...types.ExampleOutcome) types.TrialResult {
	return types.TrialResult{Outcomes: outcomes}
}

func TestQuality_ExcludesIncomplete(t *testing.T) {
	r := resultWith(
		types.ExampleOutcome{Correctness: 1.0},
		types.ExampleOutcome{Correctness: 0.0},
		types.ExampleOutcome{Incomplete: true},
	)
	// Two graded outcomes, the incomplete one drops out of the denominator.
	assert.Equal(t, 0.5, Quality(r))

	assert.Zero(t, Quality(resultWith()))
	assert.Zero(t, Quality(resultWith(types.ExampleOutcome{Incomplete: true})))
}

func TestSpeed_LinearDecay(t *testing.T) {
	cfg := types.ScoringConfig{TargetLatency: 10 * time.Second}

	at := func(d time.Duration) float64 {
		return Speed(resultWith(types.ExampleOutcome{Elapsed: d}), cfg)
	}

	assert.Equal(t, 1.0, at(5*time.Second))
	assert.Equal(t, 1.0, at(10*time.Second))
	assert.InDelta(t, 0.5, at(55*time.Second), 1e-9)
	assert.Equal(t, 0.0, at(100*time.Second))
	assert.Equal(t, 0.0, at(500*time.Second))
}

func TestResource_LinearDecay(t *testing.T) {
	cfg := types.ScoringConfig{TokenBudget: 1000}

	at := func(tokens int) float64 {
		return Resource(resultWith(types.ExampleOutcome{Tokens: tokens}), cfg)
	}

	assert.Equal(t, 1.0, at(500))
	assert.Equal(t, 1.0, at(1000))
	assert.InDelta(t, 0.5, at(5500), 1e-9)
	assert.Equal(t, 0.0, at(10000))
}

func TestComposite_DefaultsToQuality(t *testing.T) {
	r := resultWith(types.ExampleOutcome{Correctness: 0.75, Elapsed: time.Hour, Tokens: 1 << 20})

	score, err := Composite(r, types.Weights{}, types.ScoringConfig{})
	require.NoError(t, err)
	// Terrible speed and resource numbers are invisible without weights.
	assert.Equal(t, 0.75, score)
}

func TestComposite_NormalizesWeights(t *testing.T) {
	r := resultWith(types.ExampleOutcome{Correctness: 1.0, Elapsed: time.Second, Tokens: 10})
	cfg := types.ScoringConfig{TargetLatency: time.Minute, TokenBudget: 1000}

	// All three metrics are 1.0, so any positive weighting scores 1.0.
	score, err := Composite(r, types.Weights{Quality: 2, Speed: 5, Resource: 3}, cfg)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-9)

	// Scaling all weights by a constant changes nothing.
	r2 := resultWith(types.ExampleOutcome{Correctness: 0.5, Elapsed: time.Second, Tokens: 5500})
	a, err := Composite(r2, types.Weights{Quality: 1, Resource: 1}, cfg)
	require.NoError(t, err)
	b, err := Composite(r2, types.Weights{Quality: 10, Resource: 10}, cfg)
	require.NoError(t, err)
	assert.InDelta(t, a, b, 1e-9)
}

func TestComposite_CheaperConfigScoresHigher(t *testing.T) {
	cfg := types.ScoringConfig{TargetLatency: time.Minute, TokenBudget: 10}
	w := types.Weights{Quality: 1, Resource: 1}

	expensive := resultWith(types.ExampleOutcome{Correctness: 0.8, Tokens: 100})
	cheap := resultWith(types.ExampleOutcome{Correctness: 0.8, Tokens: 50})

	se, err := Composite(expensive, w, cfg)
	require.NoError(t, err)
	sc, err := Composite(cheap, w, cfg)
	require.NoError(t, err)
	assert.Greater(t, sc, se)
}

func TestComposite_RejectsBadWeights(t *testing.T) {
	r := resultWith(types.ExampleOutcome{Correctness: 1})

	_, err := Composite(r, types.Weights{Quality: -1, Speed: 2}, types.ScoringConfig{})
	assert.ErrorContains(t, err, "negative weight")

	_, err = Composite(r, types.Weights{Quality: 1, Speed: -1}, types.ScoringConfig{})
	assert.Error(t, err)
}

func TestResourceCost(t *testing.T) {
	r := resultWith(
		types.ExampleOutcome{Tokens: 100, Requests: 5},
		types.ExampleOutcome{Tokens: 200, Requests: 10},
	)
	assert.Equal(t, 315.0, ResourceCost(r))
}

func TestMetrics_Deterministic(t *testing.T) {
	r := resultWith(
		types.ExampleOutcome{Correctness: 0.7, Elapsed: 42 * time.Second, Tokens: 1234},
		types.ExampleOutcome{Correctness: 0.3, Elapsed: 7 * time.Second, Tokens: 987},
	)
	cfg := types.ScoringConfig{TargetLatency: 20 * time.Second, TokenBudget: 500}
	w := types.Weights{Quality: 3, Speed: 2, Resource: 1}

	first, err := Composite(r, w, cfg)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Composite(r, w, cfg)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
