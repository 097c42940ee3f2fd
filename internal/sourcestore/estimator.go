// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sourcestore

import (
	"net/url"
	"strings"

	"github.com/pdiddy/research-bench/pkg/types"
)

// venueScores maps a host suffix to a reputation score. The table is fixed
// size, so scoring stays O(1) per document regardless of corpus size.
var venueScores = map[string]float64{
	"wikipedia.org":       0.85,
	"arxiv.org":           0.85,
	"openalex.org":        0.80,
	"nature.com":          0.90,
	"sciencedirect.com":   0.85,
	"acm.org":             0.85,
	"ieee.org":            0.85,
	"nih.gov":             0.90,
	"stackoverflow.com":   0.65,
	"medium.com":          0.40,
	"reddit.com":          0.30,
	"facebook.com":        0.20,
	"twitter.com":         0.25,
	"x.com":               0.25,
}

// VenueEstimator scores documents by publication venue using a fixed host
// reputation table, with small adjustments for TLD class and snippet length.
type VenueEstimator struct{}

// Score implements Estimator.
func (VenueEstimator) Score(doc types.SourceDocument) float64 {
	score := 0.5 // unknown venues start neutral

	if host := hostOf(doc.URL); host != "" {
		matched := false
		for suffix, s := range venueScores {
			if host == suffix || strings.HasSuffix(host, "."+suffix) {
				score = s
				matched = true
				break
			}
		}
		if !matched {
			switch {
			case strings.HasSuffix(host, ".gov"), strings.HasSuffix(host, ".edu"):
				score = 0.8
			case strings.HasSuffix(host, ".org"):
				score = 0.6
			}
		}
	}

	// Thin snippets carry less evidence.
	if len(doc.Snippet) < 40 && doc.FullText == "" {
		score -= 0.1
	}

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score
}

// hostOf returns the lowercased host of a URL, without a www. prefix.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}
