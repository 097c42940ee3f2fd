// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/pdiddy/research-bench/pkg/types"
)

// wikipediaAPIBase is the MediaWiki search endpoint. Declared as a var so
// tests can substitute an httptest server.
var wikipediaAPIBase = "https://en.wikipedia.org/w/api.php"

// htmlTagRe strips the highlight markup MediaWiki embeds in snippets.
var htmlTagRe = regexp.MustCompile(`<[^>]+>`)

// WikipediaBackend queries the MediaWiki full-text search API.
type WikipediaBackend struct {
	Client    *http.Client
	UserAgent string
}

// Name returns the backend identifier.
func (b *WikipediaBackend) Name() string { return "wikipedia" }

// Search queries the MediaWiki list=search API.
func (b *WikipediaBackend) Search(ctx context.Context, query string, limit int) ([]types.SourceDocument, error) {
	params := url.Values{
		"action":   {"query"},
		"list":     {"search"},
		"srsearch": {query},
		"srlimit":  {fmt.Sprintf("%d", limit)},
		"format":   {"json"},
	}
	reqURL := wikipediaAPIBase + "?" + params.Encode()

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

	var wr wikipediaResponse
	if err := json.NewDecoder(resp.Body).Decode(&wr); err != nil {
		return nil, fmt.Errorf("parsing wikipedia response: %w", err)
	}

	now := time.Now()
	var docs []types.SourceDocument
	for _, page := range wr.Query.Search {
		if page.Title == "" {
			continue
		}
		docs = append(docs, types.SourceDocument{
			URL:         pageURL(page.Title),
			Title:       page.Title,
			Snippet:     stripTags(page.Snippet),
			Provider:    b.Name(),
			RetrievedAt: now,
		})
	}
	return docs, nil
}

// pageURL builds the canonical article URL from a page title.
func pageURL(title string) string {
	return "https://en.wikipedia.org/wiki/" + url.PathEscape(strings.ReplaceAll(title, " ", "_"))
}

// stripTags removes HTML highlight markup from a search snippet.
func stripTags(s string) string {
	return htmlTagRe.ReplaceAllString(s, "")
}

// MediaWiki API JSON structures.
type wikipediaResponse struct {
	Query wikipediaQuery `json:"query"`
}

type wikipediaQuery struct {
	Search []wikipediaPage `json:"search"`
}

type wikipediaPage struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	PageID  int    `json:"pageid"`
}
