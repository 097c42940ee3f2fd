// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package strategy drives research sessions through an iterative loop:
// generate sub-questions, search, synthesize, decide whether to continue.
// Strategy variants differ in the policy of those steps, never in the state
// machine shape.
package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/research-bench/pkg/types"
)

// Strategy is the per-variant policy behind the engine's four-step loop.
// One implementation exists per StrategyKind, selected once at session
// creation.
type Strategy interface {
	Kind() types.StrategyKind

	// PlanQuestions produces the sub-questions for the iteration being
	// started. Policies may search through the run's gateway before
	// planning (the source-based variant does).
	PlanQuestions(ctx context.Context, r *Run) ([]string, error)

	// Continue reports whether the engine should start another iteration
	// after the current one.
	Continue(r *Run) bool
}

// ForKind returns the strategy implementing a StrategyKind.
func ForKind(kind types.StrategyKind) (Strategy, error) {
	switch kind {
	case types.StrategyStandard:
		return standardStrategy{}, nil
	case types.StrategyRapid:
		return rapidStrategy{}, nil
	case types.StrategyIterDRAG:
		return iterDRAGStrategy{}, nil
	case types.StrategyFocused:
		return focusedStrategy{}, nil
	case types.StrategySourceBased:
		return sourceBasedStrategy{}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", kind)
	}
}

// questionsResponse is the JSON shape the planning prompts request.
type questionsResponse struct {
	Questions []string `json:"questions"`
}

// parseQuestions extracts sub-questions from a model response: JSON first,
// then a line-splitting fallback for models that ignore the format
// instruction. At most count questions are returned.
func parseQuestions(text string, count int) []string {
	var qr questionsResponse
	if err := json.Unmarshal([]byte(extractJSON(text)), &qr); err == nil && len(qr.Questions) > 0 {
		return capQuestions(qr.Questions, count)
	}

	var questions []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "- ")
		line = strings.TrimPrefix(line, "* ")
		if line == "" || strings.HasPrefix(line, "{") || strings.HasPrefix(line, "}") {
			continue
		}
		questions = append(questions, line)
	}
	return capQuestions(questions, count)
}

// capQuestions trims whitespace, drops empties, and caps the list length.
func capQuestions(questions []string, count int) []string {
	var out []string
	for _, q := range questions {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		out = append(out, q)
		if len(out) == count {
			break
		}
	}
	return out
}

// extractJSON returns the first top-level JSON object in text. Models often
// wrap JSON in prose or code fences.
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return text
	}
	return text[start : end+1]
}
