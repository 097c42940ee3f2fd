// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-bench/pkg/types"
)

func init() {
	// Use tiny base delays so gateway retry tests finish quickly.
	RetryBaseDelay = 1 * time.Millisecond
	RateLimitBaseDelay = 1 * time.Millisecond
}

// scriptedBackend returns canned responses/errors in sequence and counts
// calls.
type scriptedBackend struct {
	name  string
	errs  []error
	docs  []types.SourceDocument
	calls int
}

func (b *scriptedBackend) Name() string { return b.name }

func (b *scriptedBackend) Search(_ context.Context, _ string, _ int) ([]types.SourceDocument, error) {
	b.calls++
	if b.calls <= len(b.errs) && b.errs[b.calls-1] != nil {
		return nil, b.errs[b.calls-1]
	}
	return b.docs, nil
}

func testConfig() types.SearchConfig {
	return types.SearchConfig{
		MaxResults: 5,
		MaxRetries: 3,
	}
}

func TestGateway_Search(t *testing.T) {
	backend := &scriptedBackend{
		name: "fake",
		docs: []types.SourceDocument{{URL: "https://example.com/a", Title: "A"}},
	}
	g, err := NewGateway(testConfig(), backend)
	require.NoError(t, err)

	docs, err := g.Search(context.Background(), "fake", "query", 5)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "A", docs[0].Title)
	assert.Equal(t, 1, backend.calls)
}

func TestGateway_UnknownProvider(t *testing.T) {
	g, err := NewGateway(testConfig())
	require.NoError(t, err)

	_, err = g.Search(context.Background(), "nope", "query", 5)
	assert.ErrorContains(t, err, `unknown search provider "nope"`)
}

func TestGateway_RetriesTransientThenSucceeds(t *testing.T) {
	backend := &scriptedBackend{
		name: "flaky",
		errs: []error{
			&types.ProviderError{Provider: "flaky", Err: errors.New("connection reset")},
			&types.RateLimitedError{Provider: "flaky"},
		},
		docs: []types.SourceDocument{{URL: "https://example.com/a"}},
	}
	g, err := NewGateway(testConfig(), backend)
	require.NoError(t, err)

	docs, err := g.Search(context.Background(), "flaky", "query", 5)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
	assert.Equal(t, 3, backend.calls)
}

func TestGateway_ExhaustsRetries(t *testing.T) {
	var errs []error
	for i := 0; i < 10; i++ {
		errs = append(errs, &types.ProviderError{Provider: "down", Err: errors.New("unreachable")})
	}
	backend := &scriptedBackend{name: "down", errs: errs}
	g, err := NewGateway(testConfig(), backend)
	require.NoError(t, err)

	_, err = g.Search(context.Background(), "down", "query", 5)
	require.Error(t, err)

	var pe *types.ProviderError
	assert.ErrorAs(t, err, &pe)
	// 1 initial + 3 retries.
	assert.Equal(t, 4, backend.calls)
}

func TestGateway_PermanentErrorNotRetried(t *testing.T) {
	backend := &scriptedBackend{
		name: "strict",
		errs: []error{fmt.Errorf("provider strict returned HTTP 400")},
	}
	g, err := NewGateway(testConfig(), backend)
	require.NoError(t, err)

	_, err = g.Search(context.Background(), "strict", "query", 5)
	require.Error(t, err)
	assert.Equal(t, 1, backend.calls)
}

func TestGateway_EmptyResultIsNotAnError(t *testing.T) {
	backend := &scriptedBackend{name: "empty"}
	g, err := NewGateway(testConfig(), backend)
	require.NoError(t, err)

	docs, err := g.Search(context.Background(), "empty", "query", 5)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestGateway_DuplicateBackendRejected(t *testing.T) {
	_, err := NewGateway(testConfig(),
		&scriptedBackend{name: "dup"},
		&scriptedBackend{name: "dup"},
	)
	assert.ErrorContains(t, err, `duplicate backend "dup"`)
}

func TestClassifyStatus(t *testing.T) {
	var rl *types.RateLimitedError
	assert.ErrorAs(t, classifyStatus("x", 429), &rl)

	var pe *types.ProviderError
	assert.ErrorAs(t, classifyStatus("x", 503), &pe)

	err := classifyStatus("x", 404)
	assert.False(t, transient(err))
}
