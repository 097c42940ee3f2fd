// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package strategy

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-bench/internal/provider"
	"github.com/pdiddy/research-bench/internal/sourcestore"
	"github.com/pdiddy/research-bench/pkg/types"
)

func init() {
	// Tiny gateway backoffs so degradation tests finish quickly.
	provider.RetryBaseDelay = 1 * time.Millisecond
	provider.RateLimitBaseDelay = 1 * time.Millisecond
}

// fakeCompleter answers each prompt family with a canned response and
// records every prompt it sees.
type fakeCompleter struct {
	mu      sync.Mutex
	prompts []string

	questionsJSON string
	notes         string
	answer        string
	err           error
}

func (c *fakeCompleter) Complete(_ context.Context, prompt string, _ int) (string, error) {
	c.mu.Lock()
	c.prompts = append(c.prompts, prompt)
	c.mu.Unlock()

	if c.err != nil {
		return "", c.err
	}
	switch {
	case strings.Contains(prompt, "taking notes"):
		return c.notes, nil
	case strings.Contains(prompt, "final, cited answer"):
		return c.answer, nil
	default:
		return c.questionsJSON, nil
	}
}

func (c *fakeCompleter) recorded() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.prompts...)
}

// fakeBackend serves fixed documents, or a fixed error, for every query.
type fakeBackend struct {
	mu      sync.Mutex
	queries []string
	docs    []types.SourceDocument
	err     error
}

func (b *fakeBackend) Name() string { return "fake" }

func (b *fakeBackend) Search(_ context.Context, query string, _ int) ([]types.SourceDocument, error) {
	b.mu.Lock()
	b.queries = append(b.queries, query)
	b.mu.Unlock()
	if b.err != nil {
		return nil, b.err
	}
	return b.docs, nil
}

func (b *fakeBackend) recorded() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.queries...)
}

func newTestEngine(t *testing.T, c *fakeCompleter, b provider.Backend) *Engine {
	t.Helper()
	gw, err := provider.NewGateway(types.SearchConfig{MaxResults: 5, MaxRetries: 1}, b)
	require.NoError(t, err)
	return New(c, gw, types.EngineConfig{SearchConcurrency: 2}, types.LLMConfig{MaxRetries: 1})
}

func defaultCompleter() *fakeCompleter {
	return &fakeCompleter{
		questionsJSON: `{"questions": ["when was the eiffel tower built", "eiffel tower completion year"]}`,
		notes:         "The tower was completed in 1889.",
		answer:        "The Eiffel Tower was completed in 1889 [1].",
	}
}

func towerDocs() []types.SourceDocument {
	return []types.SourceDocument{
		{URL: "https://example.com/eiffel", Title: "Eiffel Tower", Snippet: "completed in 1889"},
	}
}

func trial(kind types.StrategyKind, iterations, qpi int) types.TrialConfig {
	return types.TrialConfig{
		Strategy:              kind,
		Iterations:            iterations,
		QuestionsPerIteration: qpi,
		Provider:              "fake",
	}
}

func TestExecute_IterationTermination(t *testing.T) {
	c := defaultCompleter()
	e := newTestEngine(t, c, &fakeBackend{docs: towerDocs()})

	r, err := e.Execute(context.Background(), trial(types.StrategyStandard, 3, 2), "When was the Eiffel Tower completed?", io.Discard)
	require.NoError(t, err)

	assert.Equal(t, types.SessionCompleted, r.Session.Status)
	// Exactly max_iterations rounds, never one more or fewer.
	require.Len(t, r.Session.Iterations, 3)
	for i, iter := range r.Session.Iterations {
		assert.Equal(t, i, iter.Index)
		assert.Len(t, iter.SubQuestions, 2)
	}
}

func TestExecute_AnswerAndCitations(t *testing.T) {
	c := defaultCompleter()
	e := newTestEngine(t, c, &fakeBackend{docs: towerDocs()})

	r, err := e.Execute(context.Background(), trial(types.StrategyStandard, 1, 1), "When was the Eiffel Tower completed?", io.Discard)
	require.NoError(t, err)

	assert.Contains(t, r.Session.Answer, "1889")
	require.Len(t, r.Session.Citations, 1)
	assert.Equal(t, 1, r.Session.Citations[0].Index)
	assert.Equal(t, "https://example.com/eiffel", r.Session.Citations[0].URL)
	assert.Equal(t, 1, r.Store.Len())

	assert.Positive(t, r.Usage.Tokens)
	assert.Positive(t, r.Usage.Requests)
}

func TestExecute_GracefulDegradation(t *testing.T) {
	c := defaultCompleter()
	backend := &fakeBackend{err: &types.ProviderError{Provider: "fake", Err: errors.New("unreachable")}}
	e := newTestEngine(t, c, backend)

	r, err := e.Execute(context.Background(), trial(types.StrategyStandard, 2, 2), "When was the Eiffel Tower completed?", io.Discard)
	require.NoError(t, err)

	// Every search failed, yet the session completed with zero sources.
	assert.Equal(t, types.SessionCompleted, r.Session.Status)
	require.Len(t, r.Session.Iterations, 2)
	assert.Equal(t, 0, r.Store.Len())
	for _, iter := range r.Session.Iterations {
		assert.NotEmpty(t, iter.Warnings)
	}
}

func TestExecute_CompletionErrorFailsSession(t *testing.T) {
	c := &fakeCompleter{err: errors.New("model down")}
	e := newTestEngine(t, c, &fakeBackend{docs: towerDocs()})

	r, err := e.Execute(context.Background(), trial(types.StrategyStandard, 2, 1), "question", io.Discard)
	require.Error(t, err)

	var ce *types.CompletionError
	assert.ErrorAs(t, err, &ce)
	assert.Equal(t, types.SessionFailed, r.Session.Status)
	assert.NotEmpty(t, r.Session.Err)
}

func TestExecute_CancelledBeforeFirstIteration(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := defaultCompleter()
	e := newTestEngine(t, c, &fakeBackend{docs: towerDocs()})

	r, err := e.Execute(ctx, trial(types.StrategyStandard, 2, 1), "question", io.Discard)
	require.NoError(t, err)

	assert.Equal(t, types.SessionCancelled, r.Session.Status)
	assert.Empty(t, r.Session.Iterations)
	assert.Empty(t, r.Session.Answer)
}

// interruptingCompleter cancels the session's context from inside planning,
// standing in for Ctrl-C arriving while an iteration is in flight.
type interruptingCompleter struct {
	cancel context.CancelFunc
}

func (c *interruptingCompleter) Complete(ctx context.Context, _ string, _ int) (string, error) {
	c.cancel()
	return "", ctx.Err()
}

func TestExecute_CancelledMidIteration(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	e := newTestEngine(t, defaultCompleter(), &fakeBackend{docs: towerDocs()})
	e.completer = &interruptingCompleter{cancel: cancel}

	r, err := e.Execute(ctx, trial(types.StrategyStandard, 2, 1), "question", io.Discard)
	require.NoError(t, err)

	// The in-flight error came from the cancelled context, so the session
	// lands in Cancelled, not Failed.
	assert.Equal(t, types.SessionCancelled, r.Session.Status)
	assert.Empty(t, r.Session.Err)
	assert.Empty(t, r.Session.Answer)
}

func TestExecute_UnknownStrategyRejected(t *testing.T) {
	c := defaultCompleter()
	e := newTestEngine(t, c, &fakeBackend{})

	_, err := e.Execute(context.Background(), trial(types.StrategyKind("mystery"), 1, 1), "question", io.Discard)
	assert.ErrorContains(t, err, `unknown strategy "mystery"`)
}

func TestRapid_SingleIterationDoubleQuestions(t *testing.T) {
	c := &fakeCompleter{
		questionsJSON: `{"questions": ["q1", "q2", "q3", "q4"]}`,
		notes:         "notes",
		answer:        "answer",
	}
	e := newTestEngine(t, c, &fakeBackend{docs: towerDocs()})

	r, err := e.Execute(context.Background(), trial(types.StrategyRapid, 3, 2), "question", io.Discard)
	require.NoError(t, err)

	// Rapid ignores the iteration budget and stops after one round.
	require.Len(t, r.Session.Iterations, 1)
	assert.Len(t, r.Session.Iterations[0].SubQuestions, 4)
}

func TestIterDRAG_DrillsIntoPreviousSynthesis(t *testing.T) {
	c := defaultCompleter()
	e := newTestEngine(t, c, &fakeBackend{docs: towerDocs()})

	_, err := e.Execute(context.Background(), trial(types.StrategyIterDRAG, 2, 1), "question", io.Discard)
	require.NoError(t, err)

	var gapPrompts int
	for _, p := range c.recorded() {
		if strings.Contains(p, "drilling into the gaps") {
			gapPrompts++
			assert.Contains(t, p, c.notes)
		}
	}
	// Round 1 plans like standard; round 2 drills into round 1's synthesis.
	assert.Equal(t, 1, gapPrompts)
}

func TestFocused_TargetsHighestUncertainty(t *testing.T) {
	c := defaultCompleter()
	e := newTestEngine(t, c, &fakeBackend{docs: towerDocs()})

	_, err := e.Execute(context.Background(), trial(types.StrategyFocused, 1, 2), "question", io.Discard)
	require.NoError(t, err)

	var focused bool
	for _, p := range c.recorded() {
		if strings.Contains(p, "most uncertain aspect") {
			focused = true
		}
	}
	assert.True(t, focused)
}

func TestSourceBased_SearchesBeforePlanning(t *testing.T) {
	c := defaultCompleter()
	backend := &fakeBackend{docs: towerDocs()}
	e := newTestEngine(t, c, backend)

	r, err := e.Execute(context.Background(), trial(types.StrategySourceBased, 1, 1), "When was the Eiffel Tower completed?", io.Discard)
	require.NoError(t, err)

	queries := backend.recorded()
	require.NotEmpty(t, queries)
	// The seed search uses the original question, before any sub-questions.
	assert.Equal(t, "When was the Eiffel Tower completed?", queries[0])
	assert.Equal(t, types.SessionCompleted, r.Session.Status)
	assert.Equal(t, 1, r.Store.Len())
}

func TestNotes_TruncatesOldestRounds(t *testing.T) {
	c := defaultCompleter()
	e := New(c, mustGateway(t), types.EngineConfig{ContextBudget: 80}, types.LLMConfig{})

	long := strings.Repeat("facts and figures ", 20) + "\n\nsecond paragraph"
	r := &Run{
		Session: &types.ResearchSession{
			Iterations: []types.Iteration{
				{Index: 0, SynthesizedNotes: long},
				{Index: 1, SynthesizedNotes: "newest notes"},
			},
		},
		engine: e,
	}

	notes := r.Notes()
	assert.Contains(t, notes, "newest notes")
	assert.Contains(t, notes, "Round 1 (truncated):")
	// The oldest round is condensed, not dropped.
	assert.Contains(t, notes, "facts and figures")
	assert.NotContains(t, notes, "second paragraph")
}

func mustGateway(t *testing.T) *provider.Gateway {
	t.Helper()
	gw, err := provider.NewGateway(types.SearchConfig{}, &fakeBackend{})
	require.NoError(t, err)
	return gw
}

func TestParseQuestions(t *testing.T) {
	qs := parseQuestions(`{"questions": ["a", "b", "c"]}`, 2)
	assert.Equal(t, []string{"a", "b"}, qs)

	qs = parseQuestions("Here you go:\n{\"questions\": [\"a\"]}\nthanks", 3)
	assert.Equal(t, []string{"a"}, qs)

	qs = parseQuestions("- first question\n- second question\n", 5)
	assert.Equal(t, []string{"first question", "second question"}, qs)

	assert.Empty(t, parseQuestions("", 3))
}

func TestResolveCitations_OrderAndBounds(t *testing.T) {
	store := sourcestore.New(nil)
	require.True(t, store.Add(types.SourceDocument{URL: "https://example.com/a", Title: "A"}))
	require.True(t, store.Add(types.SourceDocument{URL: "https://example.com/b", Title: "B"}))

	citations := ResolveCitations("B first [2], then A [1], bogus [9], repeat [2].", store)
	require.Len(t, citations, 2)
	assert.Equal(t, 1, citations[0].Index)
	assert.Equal(t, "https://example.com/a", citations[0].URL)
	assert.Equal(t, 2, citations[1].Index)
}
