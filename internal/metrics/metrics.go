// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics turns trial results into scalar scores. Every function is
// pure: the same result and config always produce the same score.
package metrics

import (
	"fmt"
	"time"

	"github.com/pdiddy/research-bench/pkg/types"
)

// decayCeiling is the multiple of the target at which a decaying metric
// reaches zero.
const decayCeiling = 10.0

// Quality is the mean correctness over graded outcomes. Incomplete outcomes
// are excluded entirely rather than counted as zero. No graded outcomes
// scores zero.
func Quality(result types.TrialResult) float64 {
	var sum float64
	var n int
	for _, o := range result.Outcomes {
		if o.Incomplete {
			continue
		}
		sum += o.Correctness
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Speed scores the mean per-example latency against the target: 1.0 at or
// below the target, decaying linearly to 0.0 at ten times the target.
func Speed(result types.TrialResult, cfg types.ScoringConfig) float64 {
	target := cfg.TargetLatency
	if target <= 0 {
		target = 30 * time.Second
	}
	return decay(meanElapsed(result).Seconds(), target.Seconds())
}

// Resource scores the mean per-example token consumption against the budget
// with the same linear decay as Speed.
func Resource(result types.TrialResult, cfg types.ScoringConfig) float64 {
	budget := cfg.TokenBudget
	if budget <= 0 {
		budget = 8192
	}
	return decay(meanTokens(result), float64(budget))
}

// Composite combines the three metrics under normalized weights. Zero-value
// weights mean quality only. A non-positive weight total is rejected.
func Composite(result types.TrialResult, w types.Weights, cfg types.ScoringConfig) (float64, error) {
	if w.IsZero() {
		return Quality(result), nil
	}
	if w.Quality < 0 || w.Speed < 0 || w.Resource < 0 {
		return 0, fmt.Errorf("negative weight in %+v", w)
	}
	total := w.Total()
	if total <= 0 {
		return 0, fmt.Errorf("weight total must be positive, got %g", total)
	}

	score := w.Quality*Quality(result) +
		w.Speed*Speed(result, cfg) +
		w.Resource*Resource(result, cfg)
	return score / total, nil
}

// ResourceCost is the raw token plus request total for a trial, used to
// break composite-score ties in favor of the cheaper config.
func ResourceCost(result types.TrialResult) float64 {
	var cost float64
	for _, o := range result.Outcomes {
		cost += float64(o.Tokens) + float64(o.Requests)
	}
	return cost
}

// decay maps value against target: 1.0 at or below target, linear to 0.0 at
// decayCeiling times target.
func decay(value, target float64) float64 {
	if value <= target {
		return 1.0
	}
	ceiling := target * decayCeiling
	if value >= ceiling {
		return 0.0
	}
	return (ceiling - value) / (ceiling - target)
}

func meanElapsed(result types.TrialResult) time.Duration {
	var sum time.Duration
	var n int
	for _, o := range result.Outcomes {
		if o.Incomplete {
			continue
		}
		sum += o.Elapsed
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / time.Duration(n)
}

func meanTokens(result types.TrialResult) float64 {
	var sum float64
	var n int
	for _, o := range result.Outcomes {
		if o.Incomplete {
			continue
		}
		sum += float64(o.Tokens)
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
