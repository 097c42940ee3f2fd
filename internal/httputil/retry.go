// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across components.
package httputil

import (
	"context"
	"io"
	"math"
	"net/http"
	"time"
)

// Backoff bases for transient failures. HTTP 429 gets a much longer base
// than server errors because providers that throttle expect callers to back
// off for seconds, not milliseconds. Tests override these to avoid real
// sleeps.
var (
	RetryBaseDelay     = 500 * time.Millisecond
	RateLimitBaseDelay = 10 * time.Second
)

const defaultMaxRetries = 3

// Retryable reports whether an HTTP status code indicates a transient
// failure worth retrying: 429 or any 5xx.
func Retryable(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || statusCode >= 500
}

// DoWithRetry executes an HTTP request and retries transient failures with
// exponential backoff. Transport errors and 5xx responses back off from
// RetryBaseDelay; HTTP 429 backs off from RateLimitBaseDelay. The delay
// doubles each attempt.
//
// When maxRetries is 0 the default (3) is used. On each retried response the
// body is drained and closed before sleeping. If the context is cancelled
// during a backoff wait the function returns ctx.Err(). After exhausting
// retries the last response (or transport error) is returned so the caller
// can classify it.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))

		if err == nil && !Retryable(resp.StatusCode) {
			return resp, nil
		}

		if attempt >= maxRetries {
			// Exhausted, hand back whatever happened last.
			return resp, err
		}

		base := RetryBaseDelay
		if err == nil {
			if resp.StatusCode == http.StatusTooManyRequests {
				base = RateLimitBaseDelay
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}

		backoff := time.Duration(math.Pow(2, float64(attempt))) * base

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}
