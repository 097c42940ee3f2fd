// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package benchmark

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiteralGrader(t *testing.T) {
	g := LiteralGrader{}

	score, err := g.Grade(context.Background(), "q", "The Eiffel Tower was completed in 1889 [1].", "1889")
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)

	// Case and punctuation never count against an answer.
	score, err = g.Grade(context.Background(), "q", "It was WILLIAM SHAKESPEARE!", "William Shakespeare")
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)

	score, err = g.Grade(context.Background(), "q", "completed in 1887", "1889")
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)

	_, err = g.Grade(context.Background(), "q", "anything", "")
	assert.Error(t, err)
}

// verdictCompleter returns a fixed grading response.
type verdictCompleter struct {
	text string
	err  error
}

func (c verdictCompleter) Complete(context.Context, string, int) (string, error) {
	return c.text, c.err
}

func TestLLMGrader(t *testing.T) {
	g := &LLMGrader{Completer: verdictCompleter{text: `Looking at both answers: {"verdict": "correct"}`}}
	score, err := g.Grade(context.Background(), "q", "produced", "expected")
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)

	g = &LLMGrader{Completer: verdictCompleter{text: `{"verdict": "incorrect"}`}}
	score, err = g.Grade(context.Background(), "q", "produced", "expected")
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)

	g = &LLMGrader{Completer: verdictCompleter{text: "I cannot decide."}}
	_, err = g.Grade(context.Background(), "q", "produced", "expected")
	assert.ErrorContains(t, err, "no verdict")

	g = &LLMGrader{Completer: verdictCompleter{err: errors.New("model down")}}
	_, err = g.Grade(context.Background(), "q", "produced", "expected")
	assert.Error(t, err)
}

func TestParseVerdict_UnexpectedValue(t *testing.T) {
	_, err := parseVerdict(`{"verdict": "maybe"}`)
	assert.ErrorContains(t, err, `unexpected grader verdict "maybe"`)
}
