// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package benchmark

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/pdiddy/research-bench/internal/strategy"
	"github.com/pdiddy/research-bench/pkg/types"
)

// Runner evaluates trial configurations over example batches. Examples run
// independently with bounded parallelism; one example's failure never stops
// the batch.
type Runner struct {
	engine *strategy.Engine
	grader Grader
	log    *ResultLog
	cfg    types.BenchmarkConfig
}

// NewRunner creates a runner. A nil grader defaults to LiteralGrader.
func NewRunner(engine *strategy.Engine, grader Grader, log *ResultLog, cfg types.BenchmarkConfig) *Runner {
	if grader == nil {
		grader = LiteralGrader{}
	}
	return &Runner{engine: engine, grader: grader, log: log, cfg: cfg}
}

// Run evaluates one config over the examples and returns the trial result.
// Examples already graded in the results log are skipped, so an interrupted
// trial resumes where it left off. Outcomes come back in dataset order
// regardless of worker scheduling.
func (r *Runner) Run(ctx context.Context, trial types.TrialConfig, examples []types.BenchmarkExample, w io.Writer) (types.TrialResult, error) {
	if w == nil {
		w = io.Discard
	}
	result := types.TrialResult{Config: trial, ConfigID: trial.ID()}

	if err := trial.Validate(); err != nil {
		return result, err
	}

	done, err := r.log.Completed(result.ConfigID)
	if err != nil {
		return result, err
	}

	var pending []types.BenchmarkExample
	for _, ex := range examples {
		if _, ok := done[ex.ID]; !ok {
			pending = append(pending, ex)
		}
	}
	if len(done) > 0 {
		fmt.Fprintf(w, "config %s: resuming, %d of %d examples already graded\n",
			result.ConfigID, len(examples)-len(pending), len(examples))
	}

	start := time.Now()
	fresh := r.runPending(ctx, trial, pending, w)
	result.Elapsed = time.Since(start)

	// Stitch logged and fresh outcomes back into dataset order.
	for _, ex := range examples {
		if o, ok := done[ex.ID]; ok {
			result.Outcomes = append(result.Outcomes, o)
		} else if o, ok := fresh[ex.ID]; ok {
			result.Outcomes = append(result.Outcomes, o)
		}
	}
	return result, nil
}

// runPending grades the not-yet-logged examples with a bounded worker pool
// and appends each outcome to the log exactly once.
func (r *Runner) runPending(ctx context.Context, trial types.TrialConfig, pending []types.BenchmarkExample, w io.Writer) map[string]types.ExampleOutcome {
	parallelism := r.cfg.Parallelism
	if parallelism <= 0 {
		parallelism = 1
	}

	fresh := make(map[string]types.ExampleOutcome, len(pending))
	var mu sync.Mutex
	sem := make(chan struct{}, parallelism)
	var wg sync.WaitGroup

	for _, ex := range pending {
		wg.Add(1)
		go func(ex types.BenchmarkExample) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			outcome := r.runExample(ctx, trial, ex)
			if err := r.log.Append(outcome); err != nil {
				fmt.Fprintf(w, "warning: logging %s/%s: %v\n", outcome.ConfigID, ex.ID, err)
			}

			mu.Lock()
			fresh[ex.ID] = outcome
			mu.Unlock()
		}(ex)
	}

	wg.Wait()
	return fresh
}

// runExample drives one session and grades its answer. Session failures and
// grading failures score zero with an annotation; cancellation marks the
// outcome incomplete instead of incorrect.
func (r *Runner) runExample(ctx context.Context, trial types.TrialConfig, ex types.BenchmarkExample) types.ExampleOutcome {
	outcome := types.ExampleOutcome{
		ConfigID:  trial.ID(),
		ExampleID: ex.ID,
	}
	start := time.Now()

	run, err := r.engine.Execute(ctx, trial, ex.Question, io.Discard)
	outcome.Elapsed = time.Since(start)
	if run != nil {
		outcome.Tokens = run.Usage.Tokens
		outcome.Requests = run.Usage.Requests
	}
	if err != nil {
		// A cancelled context is an interruption, not a graded failure:
		// the outcome must stay incomplete so a resumed run retries it.
		if ctx.Err() != nil {
			outcome.Incomplete = true
			return outcome
		}
		outcome.Err = fmt.Sprintf("session: %v", err)
		return outcome
	}
	if run.Session.Status == types.SessionCancelled {
		outcome.Incomplete = true
		return outcome
	}

	outcome.Answer = run.Session.Answer
	score, err := r.grader.Grade(ctx, ex.Question, run.Session.Answer, ex.Expected)
	outcome.Elapsed = time.Since(start)
	if err != nil {
		if ctx.Err() != nil {
			outcome.Incomplete = true
			return outcome
		}
		gerr := &types.GradingError{ExampleID: ex.ID, Err: err}
		outcome.Err = gerr.Error()
		return outcome
	}

	outcome.Correctness = score
	return outcome
}
