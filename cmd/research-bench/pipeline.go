// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/research-bench/internal/benchmark"
	"github.com/pdiddy/research-bench/internal/docindex"
	"github.com/pdiddy/research-bench/internal/llm"
	"github.com/pdiddy/research-bench/internal/provider"
	"github.com/pdiddy/research-bench/internal/secrets"
	"github.com/pdiddy/research-bench/internal/strategy"
	"github.com/pdiddy/research-bench/pkg/types"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "research-bench/0.1"
	defaultModel     = "claude-sonnet-4-5-20250929"
)

// addStackFlags registers the provider and model flags shared by every
// command that runs sessions.
func addStackFlags(cmd *cobra.Command) {
	cmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 30s)")
	cmd.Flags().Int("max-results", 0, "per-query search result limit (default 10)")
	cmd.Flags().Int("search-retries", 0, "retries for transient provider failures (default 3)")
	cmd.Flags().String("searx-url", "", "SearxNG instance URL (enables the searxng provider)")
	cmd.Flags().String("openalex-email", "", "email for the OpenAlex polite pool")
	cmd.Flags().String("index-path", "", "SQLite index file (enables the localdocs provider)")
	cmd.Flags().String("model", "", "completion model identifier")
	cmd.Flags().String("api-key", "", "Anthropic API key (default: .secrets/anthropic-api-key)")
	cmd.Flags().Int("search-concurrency", 0, "concurrent sub-question searches (default 4)")
	cmd.Flags().Int("context-budget", 0, "accumulated notes budget in characters (default 24000)")
}

func searchConfigFromFlags(cmd *cobra.Command) types.SearchConfig {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = viper.GetDuration("search.timeout")
	}
	if timeout == 0 {
		timeout = defaultTimeout
	}
	maxResults, _ := cmd.Flags().GetInt("max-results")
	retries, _ := cmd.Flags().GetInt("search-retries")

	searxURL, _ := cmd.Flags().GetString("searx-url")
	if searxURL == "" {
		searxURL = viper.GetString("search.searx_url")
	}
	email, _ := cmd.Flags().GetString("openalex-email")
	if email == "" {
		email = viper.GetString("search.openalex_email")
	}
	indexPath, _ := cmd.Flags().GetString("index-path")
	if indexPath == "" {
		indexPath = viper.GetString("search.local_index_path")
	}

	return types.SearchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		MaxResults:     maxResults,
		MaxRetries:     retries,
		SearxURL:       secretDefault(secrets.KeySearxURL, searxURL),
		OpenAlexEmail:  secretDefault(secrets.KeyOpenAlexEmail, email),
		LocalIndexPath: indexPath,
	}
}

// buildGateway assembles the provider gateway from the configured backends.
// Wikipedia and OpenAlex are always available; searxng and localdocs join
// when configured. The returned closer releases the local index, if any.
func buildGateway(cfg types.SearchConfig) (*provider.Gateway, func(), error) {
	client := &http.Client{Timeout: cfg.Timeout}
	closer := func() {}

	backends := []provider.Backend{
		&provider.WikipediaBackend{Client: client, UserAgent: cfg.UserAgent},
		&provider.OpenAlexBackend{Client: client, Email: cfg.OpenAlexEmail, UserAgent: cfg.UserAgent},
	}
	if cfg.SearxURL != "" {
		backends = append(backends, &provider.SearxBackend{Client: client, BaseURL: cfg.SearxURL, UserAgent: cfg.UserAgent})
	}
	if cfg.LocalIndexPath != "" {
		idx, err := docindex.Open(cfg.LocalIndexPath)
		if err != nil {
			return nil, nil, err
		}
		closer = func() { idx.Close() }
		backends = append(backends, &provider.LocalDocsBackend{Index: idx})
	}

	gw, err := provider.NewGateway(cfg, backends...)
	if err != nil {
		closer()
		return nil, nil, err
	}
	return gw, closer, nil
}

func llmConfigFromFlags(cmd *cobra.Command) (types.LLMConfig, error) {
	model, _ := cmd.Flags().GetString("model")
	if model == "" {
		model = viper.GetString("llm.model")
	}
	if model == "" {
		model = defaultModel
	}
	apiKey, _ := cmd.Flags().GetString("api-key")
	apiKey = secretDefault(secrets.KeyAnthropicAPIKey, apiKey)
	if apiKey == "" {
		return types.LLMConfig{}, fmt.Errorf("no API key: pass --api-key or create .secrets/anthropic-api-key")
	}

	return types.LLMConfig{
		Model:      model,
		APIKey:     apiKey,
		MaxTokens:  viper.GetInt("llm.max_tokens"),
		MaxRetries: viper.GetInt("llm.max_retries"),
	}, nil
}

// buildCompleter creates the Claude Messages API client.
func buildCompleter(cmd *cobra.Command) (*llm.ClaudeClient, types.LLMConfig, error) {
	llmCfg, err := llmConfigFromFlags(cmd)
	if err != nil {
		return nil, types.LLMConfig{}, err
	}
	client := &llm.ClaudeClient{
		APIKey: llmCfg.APIKey,
		Model:  llmCfg.Model,
		Client: &http.Client{Timeout: 2 * time.Minute},
	}
	return client, llmCfg, nil
}

// buildEngine wires the completer, gateway, and engine config into a
// session engine.
func buildEngine(cmd *cobra.Command) (*strategy.Engine, func(), error) {
	completer, llmCfg, err := buildCompleter(cmd)
	if err != nil {
		return nil, nil, err
	}

	gw, closer, err := buildGateway(searchConfigFromFlags(cmd))
	if err != nil {
		return nil, nil, err
	}

	concurrency, _ := cmd.Flags().GetInt("search-concurrency")
	budget, _ := cmd.Flags().GetInt("context-budget")
	engineCfg := types.EngineConfig{
		SearchConcurrency: concurrency,
		ContextBudget:     budget,
	}
	return strategy.New(completer, gw, engineCfg, llmCfg), closer, nil
}

// trialFromFlags reads the session configuration knobs.
func trialFromFlags(cmd *cobra.Command) types.TrialConfig {
	strategyName, _ := cmd.Flags().GetString("strategy")
	iterations, _ := cmd.Flags().GetInt("iterations")
	questions, _ := cmd.Flags().GetInt("questions-per-iteration")
	providerID, _ := cmd.Flags().GetString("provider")

	return types.TrialConfig{
		Strategy:              types.StrategyKind(strategyName),
		Iterations:            iterations,
		QuestionsPerIteration: questions,
		Provider:              providerID,
	}
}

func addTrialFlags(cmd *cobra.Command) {
	cmd.Flags().String("strategy", "standard", "research strategy: standard, rapid, iterdrag, focused-iteration, source-based")
	cmd.Flags().Int("iterations", 2, "maximum research iterations")
	cmd.Flags().Int("questions-per-iteration", 2, "sub-questions generated per iteration")
	cmd.Flags().String("provider", "wikipedia", "search provider: wikipedia, openalex, searxng, localdocs")
}

// buildGrader selects the grading mode. The llm grader reuses the session
// completer as the judge.
func buildGrader(name string, completer llm.Completer) (benchmark.Grader, error) {
	switch name {
	case "", "literal":
		return benchmark.LiteralGrader{}, nil
	case "llm":
		return &benchmark.LLMGrader{Completer: completer}, nil
	default:
		return nil, fmt.Errorf("unsupported grader %q: use literal or llm", name)
	}
}

func scoringConfig() types.ScoringConfig {
	return types.ScoringConfig{
		TargetLatency: viper.GetDuration("scoring.target_latency"),
		TokenBudget:   viper.GetInt("scoring.token_budget"),
	}
}

// signalContext cancels on SIGINT or SIGTERM so interrupted runs reach a
// clean terminal state and resume later.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
