// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package strategy

import (
	"context"

	"github.com/pdiddy/research-bench/pkg/types"
)

// standardStrategy runs a fixed iteration count with equal questions per
// round, conditioning each round on all accumulated notes.
type standardStrategy struct{}

func (standardStrategy) Kind() types.StrategyKind { return types.StrategyStandard }

func (standardStrategy) PlanQuestions(ctx context.Context, r *Run) ([]string, error) {
	prompt, err := render(questionsPromptTmpl, struct {
		Question, Notes string
		Count           int
	}{r.Session.Question, r.Notes(), r.Session.QuestionsPerIteration})
	if err != nil {
		return nil, err
	}
	text, err := r.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return parseQuestions(text, r.Session.QuestionsPerIteration), nil
}

func (standardStrategy) Continue(r *Run) bool {
	return len(r.Session.Iterations) < r.Session.MaxIterations
}

// rapidStrategy trades depth for wall-clock time: a single round with a
// doubled question budget and no iterative refinement.
type rapidStrategy struct{}

func (rapidStrategy) Kind() types.StrategyKind { return types.StrategyRapid }

func (rapidStrategy) PlanQuestions(ctx context.Context, r *Run) ([]string, error) {
	count := r.Session.QuestionsPerIteration * 2
	prompt, err := render(questionsPromptTmpl, struct {
		Question, Notes string
		Count           int
	}{r.Session.Question, "", count})
	if err != nil {
		return nil, err
	}
	text, err := r.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return parseQuestions(text, count), nil
}

func (rapidStrategy) Continue(*Run) bool { return false }

// iterDRAGStrategy conditions each round's sub-questions on the gaps
// detected in the previous round's synthesis rather than on the notes as a
// whole. The first round plans like standard, since there is nothing to
// drill into yet.
type iterDRAGStrategy struct{}

func (iterDRAGStrategy) Kind() types.StrategyKind { return types.StrategyIterDRAG }

func (iterDRAGStrategy) PlanQuestions(ctx context.Context, r *Run) ([]string, error) {
	last := r.LastNotes()
	if last == "" {
		return standardStrategy{}.PlanQuestions(ctx, r)
	}

	prompt, err := render(gapQuestionsPromptTmpl, struct {
		Question, LastNotes string
		Count               int
	}{r.Session.Question, last, r.Session.QuestionsPerIteration})
	if err != nil {
		return nil, err
	}
	text, err := r.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return parseQuestions(text, r.Session.QuestionsPerIteration), nil
}

func (iterDRAGStrategy) Continue(r *Run) bool {
	return len(r.Session.Iterations) < r.Session.MaxIterations
}

// focusedStrategy biases every round toward the single highest-uncertainty
// aspect of the question.
type focusedStrategy struct{}

func (focusedStrategy) Kind() types.StrategyKind { return types.StrategyFocused }

func (focusedStrategy) PlanQuestions(ctx context.Context, r *Run) ([]string, error) {
	prompt, err := render(focusedQuestionsPromptTmpl, struct {
		Question, Notes string
		Count           int
	}{r.Session.Question, r.Notes(), r.Session.QuestionsPerIteration})
	if err != nil {
		return nil, err
	}
	text, err := r.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return parseQuestions(text, r.Session.QuestionsPerIteration), nil
}

func (focusedStrategy) Continue(r *Run) bool {
	return len(r.Session.Iterations) < r.Session.MaxIterations
}

// sourceBasedStrategy searches before refining: each round first issues the
// original question to the gateway, then derives sub-questions from what
// the sources actually say. Typically converges in fewer rounds.
type sourceBasedStrategy struct{}

func (sourceBasedStrategy) Kind() types.StrategyKind { return types.StrategySourceBased }

func (sourceBasedStrategy) PlanQuestions(ctx context.Context, r *Run) ([]string, error) {
	seed, err := r.Search(ctx, r.Session.Question)
	if err != nil {
		// Degrade like any other provider failure: plan from the
		// question alone.
		seed = nil
	}
	for _, doc := range seed {
		r.Store.Add(doc)
	}

	sources := digestDocs(seed)
	if sources == "" {
		return standardStrategy{}.PlanQuestions(ctx, r)
	}

	prompt, err := render(sourceQuestionsPromptTmpl, struct {
		Question, Sources string
		Count             int
	}{r.Session.Question, sources, r.Session.QuestionsPerIteration})
	if err != nil {
		return nil, err
	}
	text, err := r.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return parseQuestions(text, r.Session.QuestionsPerIteration), nil
}

func (sourceBasedStrategy) Continue(r *Run) bool {
	return len(r.Session.Iterations) < r.Session.MaxIterations
}
