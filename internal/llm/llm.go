// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm abstracts the language-model completion capability. The rest
// of the pipeline treats the model as opaque: given a prompt, return text.
package llm

import (
	"context"
	"math"
	"time"

	"github.com/pdiddy/research-bench/pkg/types"
)

// Completer is the language-model capability. Implementations must be safe
// for concurrent use; the benchmark runner shares one across examples.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// CompleteWithRetry calls the completer with exponential backoff. After
// exhausting retries it returns a CompletionError, which is fatal to the
// calling session.
func CompleteWithRetry(ctx context.Context, c Completer, prompt string, maxTokens, maxRetries int) (string, error) {
	if maxRetries <= 0 {
		maxRetries = 3
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		text, err := c.Complete(ctx, prompt, maxTokens)
		if err == nil {
			return text, nil
		}
		lastErr = err
	}
	return "", &types.CompletionError{Err: lastErr}
}

// EstimateTokens approximates the token count of a text. Four characters
// per token is close enough for resource accounting.
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}
