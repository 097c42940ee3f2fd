// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sourcestore deduplicates and owns the documents retrieved during
// one research session. Citation numbering is derived from first-insertion
// order, so the store must keep that order stable.
package sourcestore

import (
	"net/url"
	"strings"

	"github.com/pdiddy/research-bench/pkg/types"
)

// Estimator assigns a quality score in [0,1] to a document. Implementations
// must run in bounded time independent of how many documents the store holds:
// a heavyweight estimator here was a known failure mode.
type Estimator interface {
	Score(doc types.SourceDocument) float64
}

// Store holds the documents for a single session. Lifetime is the session's;
// it is never shared between sessions or kept process-wide.
type Store struct {
	estimator Estimator
	byKey     map[string]int // normalized URL → index in docs
	docs      []types.SourceDocument
}

// New creates an empty store. A nil estimator falls back to the venue
// heuristic.
func New(estimator Estimator) *Store {
	if estimator == nil {
		estimator = VenueEstimator{}
	}
	return &Store{
		estimator: estimator,
		byKey:     make(map[string]int),
	}
}

// Add inserts a document unless its normalized URL is already present.
// The quality score is computed once, at first insertion; a later duplicate
// never recomputes or overwrites it. Returns true if the document was
// inserted, false for a duplicate.
func (s *Store) Add(doc types.SourceDocument) bool {
	key := NormalizeURL(doc.URL)
	if key == "" {
		return false
	}
	if _, ok := s.byKey[key]; ok {
		return false
	}

	doc.QualityScore = s.estimator.Score(doc)
	s.byKey[key] = len(s.docs)
	s.docs = append(s.docs, doc)
	return true
}

// All returns the stored documents in first-insertion order. The returned
// slice is a copy; mutating it does not affect the store.
func (s *Store) All() []types.SourceDocument {
	out := make([]types.SourceDocument, len(s.docs))
	copy(out, s.docs)
	return out
}

// Len returns the number of stored documents.
func (s *Store) Len() int { return len(s.docs) }

// Get returns the document at citation index n (1-based, first-insertion
// order).
func (s *Store) Get(n int) (types.SourceDocument, bool) {
	if n < 1 || n > len(s.docs) {
		return types.SourceDocument{}, false
	}
	return s.docs[n-1], true
}

// Index returns the 1-based citation index for a URL, or 0 if absent.
func (s *Store) Index(rawURL string) int {
	if idx, ok := s.byKey[NormalizeURL(rawURL)]; ok {
		return idx + 1
	}
	return 0
}

// NormalizeURL canonicalizes a URL for deduplication: lowercased scheme and
// host, default ports and fragments stripped, trailing slash removed.
// Unparseable input falls back to the trimmed raw string.
func NormalizeURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return strings.TrimSpace(rawURL)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	switch {
	case u.Scheme == "http" && strings.HasSuffix(u.Host, ":80"):
		u.Host = strings.TrimSuffix(u.Host, ":80")
	case u.Scheme == "https" && strings.HasSuffix(u.Host, ":443"):
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}

	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String()
}
