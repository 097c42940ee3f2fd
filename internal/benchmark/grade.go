// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package benchmark

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/research-bench/internal/llm"
)

// Grader scores a produced answer against the expected one, returning a
// correctness value in [0, 1].
type Grader interface {
	Grade(ctx context.Context, question, produced, expected string) (float64, error)
}

// LiteralGrader scores 1.0 when the normalized expected answer appears in
// the produced answer, 0.0 otherwise. Deterministic and free, suitable for
// short factual datasets.
type LiteralGrader struct{}

func (LiteralGrader) Grade(_ context.Context, _, produced, expected string) (float64, error) {
	if expected == "" {
		return 0, fmt.Errorf("empty expected answer")
	}
	if strings.Contains(normalizeAnswer(produced), normalizeAnswer(expected)) {
		return 1.0, nil
	}
	return 0.0, nil
}

// normalizeAnswer lowercases and collapses whitespace and punctuation so
// cosmetic differences never count against an answer.
func normalizeAnswer(s string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

var gradePromptTmpl = template.Must(template.New("grade").Parse(`You are grading an answer to a research question.

Question: {{.Question}}

Expected answer: {{.Expected}}

Produced answer: {{.Produced}}

Does the produced answer contain the expected answer's factual content? Minor
wording differences do not matter. Respond with JSON only, in the form
{"verdict": "correct"} or {"verdict": "incorrect"}.`))

// LLMGrader asks a completion model whether the produced answer matches the
// expected one in substance. Verdicts map to 1.0 and 0.0.
type LLMGrader struct {
	Completer  llm.Completer
	MaxRetries int
}

func (g *LLMGrader) Grade(ctx context.Context, question, produced, expected string) (float64, error) {
	var buf strings.Builder
	err := gradePromptTmpl.Execute(&buf, struct {
		Question, Expected, Produced string
	}{question, expected, produced})
	if err != nil {
		return 0, fmt.Errorf("rendering grading prompt: %w", err)
	}

	text, err := llm.CompleteWithRetry(ctx, g.Completer, buf.String(), 256, g.MaxRetries)
	if err != nil {
		return 0, err
	}
	return parseVerdict(text)
}

// parseVerdict extracts the JSON verdict from a model response that may
// carry surrounding prose.
func parseVerdict(text string) (float64, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return 0, fmt.Errorf("no verdict in grader response %q", text)
	}

	var v struct {
		Verdict string `json:"verdict"`
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &v); err != nil {
		return 0, fmt.Errorf("parsing grader verdict: %w", err)
	}

	switch strings.ToLower(v.Verdict) {
	case "correct":
		return 1.0, nil
	case "incorrect":
		return 0.0, nil
	default:
		return 0, fmt.Errorf("unexpected grader verdict %q", v.Verdict)
	}
}
