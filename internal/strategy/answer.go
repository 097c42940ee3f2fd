// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package strategy

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/pdiddy/research-bench/internal/sourcestore"
	"github.com/pdiddy/research-bench/pkg/types"
)

// numericCiteRe matches inline numeric citations like [1], [2], [12].
var numericCiteRe = regexp.MustCompile(`\[(\d+)\]`)

// ResolveCitations scans an answer for numeric citation markers and
// resolves them against the source store's first-insertion order. Markers
// that point outside the store are dropped. Each cited source appears once,
// in citation-index order.
func ResolveCitations(answer string, store *sourcestore.Store) []types.Citation {
	seen := make(map[int]bool)
	var citations []types.Citation

	for _, match := range numericCiteRe.FindAllStringSubmatch(answer, -1) {
		n, err := strconv.Atoi(match[1])
		if err != nil || seen[n] {
			continue
		}
		doc, ok := store.Get(n)
		if !ok {
			continue
		}
		seen[n] = true
		citations = append(citations, types.Citation{
			Index: n,
			URL:   doc.URL,
			Title: doc.Title,
		})
	}

	sort.Slice(citations, func(i, j int) bool {
		return citations[i].Index < citations[j].Index
	})
	return citations
}
