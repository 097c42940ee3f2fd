// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package optimizer

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-bench/internal/benchmark"
	"github.com/pdiddy/research-bench/internal/provider"
	"github.com/pdiddy/research-bench/internal/strategy"
	"github.com/pdiddy/research-bench/pkg/types"
)

func init() {
	provider.RetryBaseDelay = 1 * time.Millisecond
	provider.RateLimitBaseDelay = 1 * time.Millisecond
}

type cannedCompleter struct{}

func (cannedCompleter) Complete(_ context.Context, prompt string, _ int) (string, error) {
	switch {
	case strings.Contains(prompt, "taking notes"):
		return "Completed in 1889.", nil
	case strings.Contains(prompt, "final, cited answer"):
		return "The Eiffel Tower was completed in 1889 [1].", nil
	default:
		return `{"questions": ["eiffel tower completion year"]}`, nil
	}
}

type cannedBackend struct{ name string }

func (b cannedBackend) Name() string { return b.name }

func (cannedBackend) Search(context.Context, string, int) ([]types.SourceDocument, error) {
	return []types.SourceDocument{
		{URL: "https://example.com/tower", Title: "Eiffel Tower", Snippet: "completed in 1889"},
	}, nil
}

func smallSpace() Space {
	return Space{
		Strategies:            []types.StrategyKind{types.StrategyStandard, types.StrategyRapid},
		Iterations:            []int{1},
		QuestionsPerIteration: []int{1},
		Providers:             []string{"canned"},
	}
}

func optimizerExamples() []types.BenchmarkExample {
	return []types.BenchmarkExample{
		{ID: "ex-1", Question: "When was the Eiffel Tower completed?", Expected: "1889"},
	}
}

func newTestOptimizer(t *testing.T, dir string, cfg types.OptimizerConfig) *Optimizer {
	t.Helper()
	gw, err := provider.NewGateway(types.SearchConfig{MaxRetries: 1}, cannedBackend{name: "canned"})
	require.NoError(t, err)
	engine := strategy.New(cannedCompleter{}, gw, types.EngineConfig{}, types.LLMConfig{MaxRetries: 1})

	log, err := benchmark.OpenResultLog(filepath.Join(dir, "results.jsonl"))
	require.NoError(t, err)
	t.Cleanup(func() { log.Close() })

	runner := benchmark.NewRunner(engine, benchmark.LiteralGrader{}, log, types.BenchmarkConfig{Parallelism: 2})
	if cfg.CheckpointPath == "" {
		cfg.CheckpointPath = filepath.Join(dir, "checkpoint.yaml")
	}
	return NewOptimizer(runner, cfg, types.ScoringConfig{})
}

func TestRun_ExhaustsSmallSpace(t *testing.T) {
	dir := t.TempDir()
	o := newTestOptimizer(t, dir, types.OptimizerConfig{TrialBudget: 10})

	state, err := o.Run(context.Background(), smallSpace(), optimizerExamples(), io.Discard)
	require.NoError(t, err)

	// Two configs in the space, both tried, both perfectly correct.
	require.Len(t, state.Trials, 2)
	require.NotNil(t, state.Best())
	assert.Equal(t, 1.0, state.Best().Composite)
	// Equal composites keep the earlier trial as best.
	assert.Equal(t, 0, state.BestIndex)

	// The checkpoint on disk matches the returned state.
	data, err := os.ReadFile(filepath.Join(dir, "checkpoint.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "best_index: 0")
}

func TestRun_ResumesFromCheckpoint(t *testing.T) {
	dir := t.TempDir()

	o := newTestOptimizer(t, dir, types.OptimizerConfig{TrialBudget: 1})
	state, err := o.Run(context.Background(), smallSpace(), optimizerExamples(), io.Discard)
	require.NoError(t, err)
	require.Len(t, state.Trials, 1)
	firstID := state.Trials[0].ConfigID

	// A fresh optimizer over the same checkpoint picks up at trial 1.
	o2 := newTestOptimizer(t, dir, types.OptimizerConfig{TrialBudget: 2})
	state, err = o2.Run(context.Background(), smallSpace(), optimizerExamples(), io.Discard)
	require.NoError(t, err)

	require.Len(t, state.Trials, 2)
	assert.Equal(t, firstID, state.Trials[0].ConfigID)
	assert.NotEqual(t, firstID, state.Trials[1].ConfigID)
}

func TestRun_EarlyStopOnPatience(t *testing.T) {
	dir := t.TempDir()
	o := newTestOptimizer(t, dir, types.OptimizerConfig{TrialBudget: 10, Patience: 1})

	var out strings.Builder
	state, err := o.Run(context.Background(), smallSpace(), optimizerExamples(), &out)
	require.NoError(t, err)

	// Trial 0 sets the best; trial 1 ties, which is not an improvement.
	require.Len(t, state.Trials, 2)
	assert.Contains(t, out.String(), "early stop")
}

func TestRun_RejectsBadWeights(t *testing.T) {
	dir := t.TempDir()
	o := newTestOptimizer(t, dir, types.OptimizerConfig{
		Weights: types.Weights{Quality: -1, Speed: 2},
	})

	_, err := o.Run(context.Background(), smallSpace(), optimizerExamples(), io.Discard)
	var ce *types.ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "weights", ce.Field)
}

func TestRun_RejectsWeightsChangedSinceCheckpoint(t *testing.T) {
	dir := t.TempDir()

	o := newTestOptimizer(t, dir, types.OptimizerConfig{
		TrialBudget: 1,
		Weights:     types.Weights{Quality: 1},
	})
	_, err := o.Run(context.Background(), smallSpace(), optimizerExamples(), io.Discard)
	require.NoError(t, err)

	o2 := newTestOptimizer(t, dir, types.OptimizerConfig{
		TrialBudget: 2,
		Weights:     types.Weights{Quality: 1, Resource: 1},
	})
	_, err = o2.Run(context.Background(), smallSpace(), optimizerExamples(), io.Discard)
	assert.ErrorContains(t, err, "checkpoint")
}

func TestRecordTrial_TieBreaks(t *testing.T) {
	o := NewOptimizer(nil, types.OptimizerConfig{}, types.ScoringConfig{})
	state := &Checkpoint{BestIndex: -1}

	o.recordTrial(state, Trial{Index: 0, Composite: 0.8, Resource: 100})
	require.Equal(t, 0, state.BestIndex)

	// Equal composite, cheaper trial takes over.
	o.recordTrial(state, Trial{Index: 1, Composite: 0.8, Resource: 50})
	assert.Equal(t, 1, state.BestIndex)

	// Full tie keeps the earlier trial.
	o.recordTrial(state, Trial{Index: 2, Composite: 0.8, Resource: 50})
	assert.Equal(t, 1, state.BestIndex)

	// Strictly better composite wins regardless of cost.
	o.recordTrial(state, Trial{Index: 3, Composite: 0.9, Resource: 900})
	assert.Equal(t, 3, state.BestIndex)
}

func TestRun_CancelledContextSurfacesLastGoodState(t *testing.T) {
	dir := t.TempDir()

	o := newTestOptimizer(t, dir, types.OptimizerConfig{TrialBudget: 1})
	_, err := o.Run(context.Background(), smallSpace(), optimizerExamples(), io.Discard)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o2 := newTestOptimizer(t, dir, types.OptimizerConfig{TrialBudget: 5})
	state, err := o2.Run(ctx, smallSpace(), optimizerExamples(), io.Discard)
	require.Error(t, err)

	// The completed trial is still there to report on.
	require.NotNil(t, state)
	assert.Len(t, state.Trials, 1)
}
