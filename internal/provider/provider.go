// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package provider gives the strategy engine a uniform interface over
// heterogeneous search backends. Backends differ only in request shaping and
// result parsing; retry, backoff, and timeout policy live in the Gateway.
package provider

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/pdiddy/research-bench/pkg/types"
)

// Backend searches a single source. Each backend (SearxNG, Wikipedia,
// OpenAlex, local documents) implements this interface per the Strategy
// pattern. Zero matches is an empty slice, never an error.
type Backend interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]types.SourceDocument, error)
}

// Backoff bases for gateway retries. Rate limiting backs off longer than
// ordinary transient failures. Tests override these to avoid real sleeps.
var (
	RetryBaseDelay     = 500 * time.Millisecond
	RateLimitBaseDelay = 5 * time.Second
)

// Gateway dispatches queries to named backends, applying per-attempt
// timeouts and bounded retry with exponential backoff for transient
// failures.
type Gateway struct {
	backends map[string]Backend
	cfg      types.SearchConfig
}

// NewGateway wraps the given backends. Backend names must be unique.
func NewGateway(cfg types.SearchConfig, backends ...Backend) (*Gateway, error) {
	m := make(map[string]Backend, len(backends))
	for _, b := range backends {
		if _, ok := m[b.Name()]; ok {
			return nil, fmt.Errorf("duplicate backend %q", b.Name())
		}
		m[b.Name()] = b
	}
	return &Gateway{backends: m, cfg: cfg}, nil
}

// Providers returns the names of the registered backends.
func (g *Gateway) Providers() []string {
	names := make([]string, 0, len(g.backends))
	for name := range g.backends {
		names = append(names, name)
	}
	return names
}

// Has reports whether a backend with the given name is registered.
func (g *Gateway) Has(name string) bool {
	_, ok := g.backends[name]
	return ok
}

// Search issues a query to the named backend. Transient failures
// (ProviderError, RateLimitedError) are retried up to the configured count;
// after exhaustion the last error is returned and the caller degrades the
// sub-question to zero evidence instead of aborting the session.
func (g *Gateway) Search(ctx context.Context, providerID, query string, limit int) ([]types.SourceDocument, error) {
	backend, ok := g.backends[providerID]
	if !ok {
		return nil, fmt.Errorf("unknown search provider %q", providerID)
	}

	if limit <= 0 {
		limit = g.cfg.MaxResults
	}
	if limit <= 0 {
		limit = 10
	}

	maxRetries := g.cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			base := RetryBaseDelay
			var rl *types.RateLimitedError
			if errors.As(lastErr, &rl) {
				base = RateLimitBaseDelay
			}
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * base

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		docs, err := g.searchOnce(ctx, backend, query, limit)
		if err == nil {
			return docs, nil
		}
		if !transient(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}

// searchOnce runs one attempt under the configured timeout. A deadline hit
// counts as a transient provider failure.
func (g *Gateway) searchOnce(ctx context.Context, backend Backend, query string, limit int) ([]types.SourceDocument, error) {
	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	docs, err := backend.Search(ctx, query, limit)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &types.ProviderError{Provider: backend.Name(), Err: err}
		}
		return nil, err
	}
	return docs, nil
}

// transient reports whether an error is worth retrying.
func transient(err error) bool {
	var pe *types.ProviderError
	var rl *types.RateLimitedError
	return errors.As(err, &pe) || errors.As(err, &rl)
}

// classifyStatus converts a non-200 HTTP status into the error taxonomy:
// 429 is rate limiting, 5xx a transient provider failure, anything else a
// permanent error.
func classifyStatus(name string, statusCode int) error {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return &types.RateLimitedError{Provider: name}
	case statusCode >= 500:
		return &types.ProviderError{Provider: name, Err: fmt.Errorf("HTTP %d", statusCode)}
	default:
		return fmt.Errorf("provider %s returned HTTP %d", name, statusCode)
	}
}

// wrapTransportErr converts a transport-level failure into a retryable
// ProviderError.
func wrapTransportErr(name string, err error) error {
	return &types.ProviderError{Provider: name, Err: err}
}
