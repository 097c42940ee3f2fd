// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network
// requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout. Calls that exceed it are
	// treated as transient provider failures and retried.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "research-bench/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchConfig holds settings for the search provider gateway.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults is the per-query result limit (default 10).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// MaxRetries bounds gateway retries for transient failures (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// SearxURL is the base URL of a SearxNG instance for the web
	// aggregator backend.
	SearxURL string `json:"searx_url,omitempty" yaml:"searx_url,omitempty"`

	// OpenAlexEmail is sent in the mailto parameter for the polite pool.
	OpenAlexEmail string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty"`

	// LocalIndexPath is the SQLite index file for the local-documents
	// backend.
	LocalIndexPath string `json:"local_index_path,omitempty" yaml:"local_index_path,omitempty"`
}

// LLMConfig holds settings for the language-model capability.
type LLMConfig struct {
	// Model is the model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxTokens caps completion length (default 4096).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// MaxRetries is the number of retry attempts for failed API calls
	// (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// EngineConfig holds settings for the strategy engine shared by all
// strategies. Per-session knobs (strategy, iterations, questions per
// iteration) live in TrialConfig.
type EngineConfig struct {
	// SearchConcurrency bounds concurrent sub-question dispatch within one
	// iteration (default 4). Never unbounded: providers rate-limit.
	SearchConcurrency int `json:"search_concurrency" yaml:"search_concurrency"`

	// ContextBudget caps the accumulated notes passed to the model, in
	// characters (default 24000). Oldest iterations are truncated first.
	ContextBudget int `json:"context_budget" yaml:"context_budget"`
}

// BenchmarkConfig holds settings for the benchmark runner.
type BenchmarkConfig struct {
	// DatasetPath is the examples file (JSONL or YAML).
	DatasetPath string `json:"dataset_path" yaml:"dataset_path"`

	// ResultsPath is the append-only JSONL results log.
	ResultsPath string `json:"results_path" yaml:"results_path"`

	// Parallelism bounds concurrent example execution (default 1).
	Parallelism int `json:"parallelism" yaml:"parallelism"`

	// Grader selects grading: "literal" or "llm" (default "literal").
	Grader string `json:"grader" yaml:"grader"`
}

// OptimizerConfig holds settings for the parameter optimizer.
type OptimizerConfig struct {
	// SpacePath is the YAML file declaring the parameter search space.
	SpacePath string `json:"space_path" yaml:"space_path"`

	// CheckpointPath is where the resumable run state is written.
	CheckpointPath string `json:"checkpoint_path" yaml:"checkpoint_path"`

	// TrialBudget is the maximum number of trials (default 20).
	TrialBudget int `json:"trial_budget" yaml:"trial_budget"`

	// Patience is the number of consecutive non-improving trials before
	// early stop (0 disables early stopping).
	Patience int `json:"patience" yaml:"patience"`

	// MinDelta is the composite improvement below which a trial counts as
	// non-improving.
	MinDelta float64 `json:"min_delta" yaml:"min_delta"`

	// Proposer selects the search model: "grid" or "random" (default "grid").
	Proposer string `json:"proposer" yaml:"proposer"`

	// Seed makes the random proposer reproducible.
	Seed int64 `json:"seed" yaml:"seed"`

	// Weights are the composite-score objective weights.
	Weights Weights `json:"weights" yaml:"weights"`
}

// ScoringConfig holds normalization ceilings for the speed and resource
// metrics.
type ScoringConfig struct {
	// TargetLatency is the per-example latency at or below which the speed
	// metric is 1.0 (default 30s). The metric decays linearly to 0 at
	// 10x the target.
	TargetLatency time.Duration `json:"target_latency" yaml:"target_latency"`

	// TokenBudget is the per-example token count at or below which the
	// resource metric is 1.0 (default 8192). Decays linearly to 0 at 10x.
	TokenBudget int `json:"token_budget" yaml:"token_budget"`
}

// PipelineConfig groups all component configurations.
type PipelineConfig struct {
	Search    SearchConfig    `json:"search" yaml:"search"`
	LLM       LLMConfig       `json:"llm" yaml:"llm"`
	Engine    EngineConfig    `json:"engine" yaml:"engine"`
	Benchmark BenchmarkConfig `json:"benchmark" yaml:"benchmark"`
	Optimizer OptimizerConfig `json:"optimizer" yaml:"optimizer"`
	Scoring   ScoringConfig   `json:"scoring" yaml:"scoring"`
}
