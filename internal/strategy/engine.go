// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package strategy

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/research-bench/internal/llm"
	"github.com/pdiddy/research-bench/internal/provider"
	"github.com/pdiddy/research-bench/internal/sourcestore"
	"github.com/pdiddy/research-bench/pkg/types"
)

// Engine executes research sessions. One engine is shared across sessions;
// all per-session state lives in the Run.
type Engine struct {
	completer llm.Completer
	gateway   *provider.Gateway
	cfg       types.EngineConfig
	llmCfg    types.LLMConfig
}

// New creates an engine. All configuration is explicit; the engine reads no
// ambient global state.
func New(completer llm.Completer, gateway *provider.Gateway, cfg types.EngineConfig, llmCfg types.LLMConfig) *Engine {
	return &Engine{
		completer: completer,
		gateway:   gateway,
		cfg:       cfg,
		llmCfg:    llmCfg,
	}
}

// Usage accumulates resource consumption for one session. Search requests
// are tallied after each iteration's fan-out completes, completions as they
// happen, so plain ints suffice.
type Usage struct {
	Tokens   int
	Requests int
}

// Run is one session in flight: the session record, its private source
// store, and resource counters. Strategies receive the Run to plan with.
type Run struct {
	Trial   types.TrialConfig
	Session *types.ResearchSession
	Store   *sourcestore.Store
	Usage   *Usage

	engine *Engine
	w      io.Writer
}

// Execute drives a session to a terminal state. Provider failures degrade
// to iteration warnings; completion failures mark the session failed and
// are returned. Cancellation yields a Cancelled session with a nil error:
// between iterations directly, and mid-iteration by folding the error the
// cancelled context provoked into the Cancelled state rather than Failed.
func (e *Engine) Execute(ctx context.Context, trial types.TrialConfig, question string, w io.Writer) (*Run, error) {
	strat, err := ForKind(trial.Strategy)
	if err != nil {
		return nil, err
	}
	if w == nil {
		w = io.Discard
	}

	r := &Run{
		Trial: trial,
		Session: &types.ResearchSession{
			ID:                    uuid.NewString(),
			Question:              question,
			Strategy:              trial.Strategy,
			MaxIterations:         trial.Iterations,
			QuestionsPerIteration: trial.QuestionsPerIteration,
			Status:                types.SessionPending,
			StartedAt:             time.Now(),
		},
		Store:  sourcestore.New(nil),
		Usage:  &Usage{},
		engine: e,
		w:      w,
	}

	r.Session.Status = types.SessionRunning

	for i := 0; ; i++ {
		if ctx.Err() != nil {
			return r.cancel(), nil
		}

		if err := e.runIteration(ctx, strat, r, i); err != nil {
			if ctx.Err() != nil {
				return r.cancel(), nil
			}
			return r.fail(err), err
		}

		if !strat.Continue(r) {
			break
		}
	}

	if err := e.finalize(ctx, r); err != nil {
		if ctx.Err() != nil {
			return r.cancel(), nil
		}
		return r.fail(err), err
	}

	r.Session.Status = types.SessionCompleted
	r.Session.FinishedAt = time.Now()
	return r, nil
}

// runIteration performs one round: plan sub-questions, search them, and
// synthesize notes from the newly discovered sources.
func (e *Engine) runIteration(ctx context.Context, strat Strategy, r *Run, index int) error {
	iter := types.Iteration{
		Index:      index,
		ResultURLs: make(map[string][]string),
	}

	questions, err := strat.PlanQuestions(ctx, r)
	if err != nil {
		return err
	}
	if len(questions) == 0 {
		// A model that returns nothing usable still gets one search.
		questions = []string{r.Session.Question}
	}
	iter.SubQuestions = questions

	results := e.fanOutSearch(ctx, r, questions)
	r.Usage.Requests += len(questions)

	var newDocs []types.SourceDocument
	for i, res := range results {
		q := questions[i]
		if res.err != nil {
			warning := fmt.Sprintf("search %q: %v", q, res.err)
			iter.Warnings = append(iter.Warnings, warning)
			fmt.Fprintf(r.w, "warning: %s\n", warning)
			continue
		}
		for _, doc := range res.docs {
			if r.Store.Add(doc) {
				newDocs = append(newDocs, doc)
			}
			iter.ResultURLs[q] = append(iter.ResultURLs[q], doc.URL)
		}
	}

	notes, err := e.synthesize(ctx, r, newDocs)
	if err != nil {
		return err
	}
	iter.SynthesizedNotes = notes

	r.Session.Iterations = append(r.Session.Iterations, iter)
	fmt.Fprintf(r.w, "iteration %d: %d sub-questions, %d new sources\n",
		index, len(questions), len(newDocs))
	return nil
}

// searchResult pairs one sub-question's documents with its error.
type searchResult struct {
	docs []types.SourceDocument
	err  error
}

// fanOutSearch dispatches sub-questions concurrently through the gateway,
// bounded by the configured concurrency. Results come back in sub-question
// order so source-store insertion stays deterministic.
func (e *Engine) fanOutSearch(ctx context.Context, r *Run, questions []string) []searchResult {
	concurrency := e.cfg.SearchConcurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	results := make([]searchResult, len(questions))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, q := range questions {
		wg.Add(1)
		go func(i int, q string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			docs, err := e.gateway.Search(ctx, r.Trial.Provider, q, 0)
			results[i] = searchResult{docs: docs, err: err}
		}(i, q)
	}

	wg.Wait()
	return results
}

// synthesize asks the model for notes over the iteration's new sources.
func (e *Engine) synthesize(ctx context.Context, r *Run, newDocs []types.SourceDocument) (string, error) {
	sources := digestDocs(newDocs)
	if sources == "" {
		sources = "(no new sources were retrieved this round)"
	}

	prompt, err := render(synthesisPromptTmpl, struct {
		Question, Notes, Sources string
	}{r.Session.Question, r.Notes(), sources})
	if err != nil {
		return "", err
	}
	return r.Complete(ctx, prompt)
}

// finalize produces the cited answer from the accumulated notes and the
// session's source list.
func (e *Engine) finalize(ctx context.Context, r *Run) error {
	prompt, err := render(answerPromptTmpl, struct {
		Question, Notes, Sources string
	}{r.Session.Question, r.Notes(), numberedSources(r.Store)})
	if err != nil {
		return err
	}

	answer, err := r.Complete(ctx, prompt)
	if err != nil {
		return err
	}

	r.Session.Answer = answer
	r.Session.Citations = ResolveCitations(answer, r.Store)
	return nil
}

// Complete calls the completion capability with retry and tallies usage.
func (r *Run) Complete(ctx context.Context, prompt string) (string, error) {
	text, err := llm.CompleteWithRetry(ctx, r.engine.completer, prompt,
		r.engine.llmCfg.MaxTokens, r.engine.llmCfg.MaxRetries)
	if err != nil {
		return "", err
	}
	r.Usage.Tokens += llm.EstimateTokens(prompt) + llm.EstimateTokens(text)
	r.Usage.Requests++
	return text, nil
}

// Search issues one query through the gateway on the run's provider,
// tallying the request.
func (r *Run) Search(ctx context.Context, query string) ([]types.SourceDocument, error) {
	r.Usage.Requests++
	return r.engine.gateway.Search(ctx, r.Trial.Provider, query, 0)
}

// LastNotes returns the most recent iteration's synthesized notes.
func (r *Run) LastNotes() string {
	n := len(r.Session.Iterations)
	if n == 0 {
		return ""
	}
	return r.Session.Iterations[n-1].SynthesizedNotes
}

// truncatedNoteLen caps the excerpt kept for an over-budget iteration.
const truncatedNoteLen = 240

// Notes returns the accumulated synthesis notes, bounded by the context
// budget. Newest iterations keep their full notes; once the budget would be
// exceeded, each older iteration is represented by the first paragraph of
// its notes (capped at truncatedNoteLen characters) behind a truncation
// marker. Older rounds are condensed, never silently dropped.
func (r *Run) Notes() string {
	budget := r.engine.cfg.ContextBudget
	if budget <= 0 {
		budget = 24000
	}

	iters := r.Session.Iterations
	blocks := make([]string, len(iters))
	used := 0
	truncating := false

	for i := len(iters) - 1; i >= 0; i-- {
		notes := iters[i].SynthesizedNotes
		block := fmt.Sprintf("Round %d:\n%s", i+1, notes)

		if truncating || used+len(block) > budget {
			truncating = true
			block = fmt.Sprintf("Round %d (truncated):\n%s", i+1, firstParagraph(notes))
		}
		used += len(block)
		blocks[i] = block
	}

	return strings.TrimSpace(strings.Join(blocks, "\n\n"))
}

// firstParagraph returns the text up to the first blank line, capped at
// truncatedNoteLen characters.
func firstParagraph(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.Index(text, "\n\n"); idx >= 0 {
		text = text[:idx]
	}
	if len(text) > truncatedNoteLen {
		text = text[:truncatedNoteLen]
	}
	return text
}

func (r *Run) cancel() *Run {
	r.Session.Status = types.SessionCancelled
	r.Session.FinishedAt = time.Now()
	fmt.Fprintf(r.w, "session cancelled after %d iteration(s)\n", len(r.Session.Iterations))
	return r
}

func (r *Run) fail(err error) *Run {
	r.Session.Status = types.SessionFailed
	r.Session.Err = err.Error()
	r.Session.FinishedAt = time.Now()
	return r
}

// digestDocs renders documents for a prompt: title, URL, and snippet per
// line.
func digestDocs(docs []types.SourceDocument) string {
	var b strings.Builder
	for _, doc := range docs {
		text := doc.Snippet
		if doc.FullText != "" {
			text = doc.FullText
		}
		fmt.Fprintf(&b, "- %s (%s): %s\n", doc.Title, doc.URL, text)
	}
	return strings.TrimSpace(b.String())
}

// numberedSources renders the store in citation order for the answer prompt.
func numberedSources(store *sourcestore.Store) string {
	docs := store.All()
	if len(docs) == 0 {
		return "(no sources were retrieved)"
	}
	var b strings.Builder
	for i, doc := range docs {
		fmt.Fprintf(&b, "[%d] %s - %s\n", i+1, doc.Title, doc.URL)
	}
	return strings.TrimSpace(b.String())
}
