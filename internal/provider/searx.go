// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pdiddy/research-bench/pkg/types"
)

// SearxBackend queries a SearxNG instance, aggregating general web engines
// behind one JSON API.
type SearxBackend struct {
	Client *http.Client
	// BaseURL is the SearxNG instance root (e.g. "https://searx.example.org").
	BaseURL   string
	UserAgent string
}

// Name returns the backend identifier.
func (b *SearxBackend) Name() string { return "searxng" }

// Search queries the SearxNG JSON API.
func (b *SearxBackend) Search(ctx context.Context, query string, limit int) ([]types.SourceDocument, error) {
	if b.BaseURL == "" {
		return nil, fmt.Errorf("searxng base URL not configured")
	}

	params := url.Values{
		"q":      {query},
		"format": {"json"},
	}
	reqURL := b.BaseURL + "/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", b.UserAgent)

	resp, err := b.Client.Do(req)
	if err != nil {
		return nil, wrapTransportErr(b.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(b.Name(), resp.StatusCode)
	}

	var sr searxResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing searxng response: %w", err)
	}

	now := time.Now()
	var docs []types.SourceDocument
	for _, r := range sr.Results {
		if r.URL == "" {
			continue
		}
		docs = append(docs, types.SourceDocument{
			URL:         r.URL,
			Title:       r.Title,
			Snippet:     r.Content,
			Provider:    b.Name(),
			RetrievedAt: now,
		})
		if len(docs) >= limit {
			break
		}
	}
	return docs, nil
}

// SearxNG JSON API structures.
type searxResponse struct {
	Results []searxResult `json:"results"`
}

type searxResult struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
}
