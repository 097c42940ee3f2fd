// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// ProviderError is a transient search backend failure. The gateway retries
// it with exponential backoff; after exhaustion the strategy engine records
// a warning and treats the sub-question as answered with zero evidence.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// RateLimitedError reports provider throttling. Retried like ProviderError
// but with a longer backoff base.
type RateLimitedError struct {
	Provider string
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("provider %s: rate limited", e.Provider)
}

// CompletionError reports that the language-model capability is unavailable.
// Fatal to the session: sub-question generation and synthesis cannot proceed.
type CompletionError struct {
	Err error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("completion: %v", e.Err)
}

func (e *CompletionError) Unwrap() error { return e.Err }

// GradingError reports a grading failure for one example. It fails that
// example's outcome, never the batch.
type GradingError struct {
	ExampleID string
	Err       error
}

func (e *GradingError) Error() string {
	return fmt.Sprintf("grading example %s: %v", e.ExampleID, e.Err)
}

func (e *GradingError) Unwrap() error { return e.Err }

// ConfigurationError rejects an invalid TrialConfig before any trial work
// begins.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid config: %s: %s", e.Field, e.Reason)
}
