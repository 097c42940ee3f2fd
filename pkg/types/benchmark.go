// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// BenchmarkExample is a labeled (question, expected-answer) pair drawn from a
// fixed dataset such as SimpleQA or BrowseComp. Immutable once loaded.
type BenchmarkExample struct {
	// ID uniquely identifies the example within its dataset.
	ID string `json:"id" yaml:"id"`

	// Question is the input to the strategy engine.
	Question string `json:"question" yaml:"question"`

	// Expected is the reference answer used for grading.
	Expected string `json:"expected" yaml:"expected"`
}

// TrialConfig is one point in the optimizer's search space. Immutable once
// created; its ID uniquely identifies one benchmark runner invocation.
type TrialConfig struct {
	// Strategy selects the research loop policy.
	Strategy StrategyKind `json:"strategy" yaml:"strategy"`

	// Iterations is the session's max iteration count.
	Iterations int `json:"iterations" yaml:"iterations"`

	// QuestionsPerIteration is how many sub-questions each round generates.
	QuestionsPerIteration int `json:"questions_per_iteration" yaml:"questions_per_iteration"`

	// Provider names the search backend to use (e.g. "searxng", "wikipedia").
	Provider string `json:"provider" yaml:"provider"`
}

// ID returns a deterministic identifier derived from the config's field
// values: the first 12 hex characters of SHA-256 over the canonical string
// form. Identical configs always share an ID, which keys the results log.
func (c TrialConfig) ID() string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|%d|%s", c.Strategy, c.Iterations, c.QuestionsPerIteration, c.Provider)
	return fmt.Sprintf("%x", h.Sum(nil))[:12]
}

// Validate rejects configs that cannot drive a session.
func (c TrialConfig) Validate() error {
	if !c.Strategy.Valid() {
		return &ConfigurationError{Field: "strategy", Reason: fmt.Sprintf("unknown strategy %q", c.Strategy)}
	}
	if c.Iterations < 1 {
		return &ConfigurationError{Field: "iterations", Reason: "must be at least 1"}
	}
	if c.QuestionsPerIteration < 1 {
		return &ConfigurationError{Field: "questions_per_iteration", Reason: "must be at least 1"}
	}
	if c.Provider == "" {
		return &ConfigurationError{Field: "provider", Reason: "must name a search provider"}
	}
	return nil
}

// ExampleOutcome is the graded result of one benchmark example under one
// TrialConfig. Appended to the results log exactly once; never mutated.
type ExampleOutcome struct {
	// ConfigID ties the outcome to a TrialConfig.
	ConfigID string `json:"config_id" yaml:"config_id"`

	// ExampleID ties the outcome to a BenchmarkExample.
	ExampleID string `json:"example_id" yaml:"example_id"`

	// Correctness is the grading score in [0,1].
	Correctness float64 `json:"correctness" yaml:"correctness"`

	// Answer is the session's produced answer.
	Answer string `json:"answer,omitempty" yaml:"answer,omitempty"`

	// Elapsed is the wall-clock duration of the session plus grading.
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`

	// Tokens estimates language-model tokens consumed.
	Tokens int `json:"tokens" yaml:"tokens"`

	// Requests counts search and completion requests issued.
	Requests int `json:"requests" yaml:"requests"`

	// Incomplete marks a cancelled example: excluded from quality, not
	// graded as incorrect.
	Incomplete bool `json:"incomplete,omitempty" yaml:"incomplete,omitempty"`

	// Err annotates a failed session or grading error.
	Err string `json:"error,omitempty" yaml:"error,omitempty"`
}

// TrialResult is the outcome of running one TrialConfig over a batch of
// examples. Created once per trial and appended to the trial history.
type TrialResult struct {
	Config   TrialConfig      `json:"config" yaml:"config"`
	ConfigID string           `json:"config_id" yaml:"config_id"`
	Outcomes []ExampleOutcome `json:"outcomes" yaml:"outcomes"`

	// Elapsed is the wall-clock duration of the whole trial.
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
}

// Weights are the optimizer's objective weights. They must sum to a positive
// total; they need not sum to 1 (scoring normalizes internally).
type Weights struct {
	Quality  float64 `json:"quality" yaml:"quality"`
	Speed    float64 `json:"speed" yaml:"speed"`
	Resource float64 `json:"resource" yaml:"resource"`
}

// IsZero reports whether no weight was supplied.
func (w Weights) IsZero() bool {
	return w.Quality == 0 && w.Speed == 0 && w.Resource == 0
}

// Total returns the weight sum.
func (w Weights) Total() float64 {
	return w.Quality + w.Speed + w.Resource
}
