// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package optimizer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-bench/internal/benchmark"
	"github.com/pdiddy/research-bench/internal/metrics"
	"github.com/pdiddy/research-bench/pkg/types"
)

// Trial is one history entry: a config, its composite score, and the raw
// resource cost used for tie-breaks.
type Trial struct {
	Index     int               `yaml:"index"`
	Config    types.TrialConfig `yaml:"config"`
	ConfigID  string            `yaml:"config_id"`
	Composite float64           `yaml:"composite"`
	Quality   float64           `yaml:"quality"`
	Resource  float64           `yaml:"resource_cost"`
}

// Checkpoint is the full resumable run state, written to disk after every
// trial. BestIndex is -1 until a trial completes.
type Checkpoint struct {
	Proposer  string        `yaml:"proposer"`
	Seed      int64         `yaml:"seed"`
	Weights   types.Weights `yaml:"weights"`
	Trials    []Trial       `yaml:"trials"`
	BestIndex int           `yaml:"best_index"`
}

// Best returns the best trial so far, or nil before the first completes.
func (c *Checkpoint) Best() *Trial {
	if c.BestIndex < 0 || c.BestIndex >= len(c.Trials) {
		return nil
	}
	return &c.Trials[c.BestIndex]
}

// Optimizer runs sequential trials through the benchmark runner and tracks
// the best-scoring config.
type Optimizer struct {
	runner  *benchmark.Runner
	cfg     types.OptimizerConfig
	scoring types.ScoringConfig
}

// NewOptimizer creates an optimizer over a benchmark runner.
func NewOptimizer(runner *benchmark.Runner, cfg types.OptimizerConfig, scoring types.ScoringConfig) *Optimizer {
	return &Optimizer{runner: runner, cfg: cfg, scoring: scoring}
}

// Run executes trials until the budget is spent, the space is exhausted, or
// patience runs out. An existing checkpoint resumes the run: completed
// trials are never re-proposed. The checkpoint on disk is always the last
// fully scored state, so a failed run still surfaces the best config found.
func (o *Optimizer) Run(ctx context.Context, space Space, examples []types.BenchmarkExample, w io.Writer) (*Checkpoint, error) {
	if w == nil {
		w = io.Discard
	}
	if err := validateWeights(o.cfg.Weights); err != nil {
		return nil, err
	}

	budget := o.cfg.TrialBudget
	if budget <= 0 {
		budget = 20
	}

	state, err := o.loadOrInitCheckpoint()
	if err != nil {
		return nil, err
	}
	if len(state.Trials) > 0 {
		fmt.Fprintf(w, "resuming from checkpoint: %d trial(s) done, best composite %.4f\n",
			len(state.Trials), bestComposite(state))
	}

	proposer, err := NewProposer(state.Proposer, space, state.Seed)
	if err != nil {
		return state, err
	}

	sinceImprove := trailingNonImproving(state, o.cfg.MinDelta)

	for len(state.Trials) < budget {
		if err := ctx.Err(); err != nil {
			return state, err
		}
		if o.cfg.Patience > 0 && sinceImprove >= o.cfg.Patience {
			fmt.Fprintf(w, "early stop: %d trial(s) without improvement over %.4f\n",
				sinceImprove, bestComposite(state))
			break
		}

		cfg, ok, err := proposer.Propose(state.Trials)
		if err != nil {
			return state, fmt.Errorf("proposing trial %d: %w", len(state.Trials), err)
		}
		if !ok {
			fmt.Fprintln(w, "search space exhausted")
			break
		}

		trial, err := o.runTrial(ctx, cfg, examples, len(state.Trials), w)
		if err != nil {
			return state, err
		}

		improved := o.recordTrial(state, trial)
		if improved {
			sinceImprove = 0
		} else {
			sinceImprove++
		}

		if err := o.saveCheckpoint(state); err != nil {
			return state, err
		}
		fmt.Fprintf(w, "trial %d: config %s composite %.4f (best %.4f)\n",
			trial.Index, trial.ConfigID, trial.Composite, bestComposite(state))
	}

	return state, nil
}

// runTrial benchmarks one config and scores it.
func (o *Optimizer) runTrial(ctx context.Context, cfg types.TrialConfig, examples []types.BenchmarkExample, index int, w io.Writer) (Trial, error) {
	result, err := o.runner.Run(ctx, cfg, examples, w)
	if err != nil {
		return Trial{}, fmt.Errorf("trial %d: %w", index, err)
	}

	composite, err := metrics.Composite(result, o.cfg.Weights, o.scoring)
	if err != nil {
		return Trial{}, fmt.Errorf("scoring trial %d: %w", index, err)
	}

	return Trial{
		Index:     index,
		Config:    cfg,
		ConfigID:  result.ConfigID,
		Composite: composite,
		Quality:   metrics.Quality(result),
		Resource:  metrics.ResourceCost(result),
	}, nil
}

// recordTrial appends the trial and updates the best selection. Ties on
// composite go to the lower resource cost; a full tie keeps the earlier
// trial. Returns whether the trial improved the best composite by at least
// MinDelta.
func (o *Optimizer) recordTrial(state *Checkpoint, trial Trial) bool {
	prevBest := state.Best()
	state.Trials = append(state.Trials, trial)

	if prevBest == nil {
		state.BestIndex = trial.Index
		return true
	}

	switch {
	case trial.Composite > prevBest.Composite:
		state.BestIndex = trial.Index
	case trial.Composite == prevBest.Composite && trial.Resource < prevBest.Resource:
		state.BestIndex = trial.Index
	}

	return trial.Composite > prevBest.Composite+o.cfg.MinDelta
}

// loadOrInitCheckpoint reads an existing checkpoint or starts a fresh one
// stamped with the configured proposer and seed.
func (o *Optimizer) loadOrInitCheckpoint() (*Checkpoint, error) {
	data, err := os.ReadFile(o.cfg.CheckpointPath)
	if os.IsNotExist(err) {
		return &Checkpoint{
			Proposer:  o.cfg.Proposer,
			Seed:      o.cfg.Seed,
			Weights:   o.cfg.Weights,
			BestIndex: -1,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading checkpoint: %w", err)
	}

	var state Checkpoint
	if err := yaml.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parsing checkpoint: %w", err)
	}
	if state.Weights != o.cfg.Weights {
		return nil, &types.ConfigurationError{
			Field:  "weights",
			Reason: "differ from the checkpoint's; scores would not be comparable",
		}
	}
	return &state, nil
}

// saveCheckpoint writes the state atomically next to its final path.
func (o *Optimizer) saveCheckpoint(state *Checkpoint) error {
	if o.cfg.CheckpointPath == "" {
		return nil
	}
	data, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding checkpoint: %w", err)
	}

	dir := filepath.Dir(o.cfg.CheckpointPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating checkpoint directory: %w", err)
	}
	tmp := o.cfg.CheckpointPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing checkpoint: %w", err)
	}
	if err := os.Rename(tmp, o.cfg.CheckpointPath); err != nil {
		return fmt.Errorf("replacing checkpoint: %w", err)
	}
	return nil
}

func validateWeights(w types.Weights) error {
	if w.IsZero() {
		return nil
	}
	if w.Quality < 0 || w.Speed < 0 || w.Resource < 0 || w.Total() <= 0 {
		return &types.ConfigurationError{Field: "weights", Reason: "must be non-negative with a positive total"}
	}
	return nil
}

func bestComposite(state *Checkpoint) float64 {
	if b := state.Best(); b != nil {
		return b.Composite
	}
	return 0
}

// trailingNonImproving counts how many trials at the tail of a restored
// history failed to improve the running best, so patience carries across a
// resume.
func trailingNonImproving(state *Checkpoint, minDelta float64) int {
	best := -1.0
	count := 0
	for _, t := range state.Trials {
		improved := best < 0 || t.Composite > best+minDelta
		if t.Composite > best {
			best = t.Composite
		}
		if improved {
			count = 0
		} else {
			count++
		}
	}
	return count
}
