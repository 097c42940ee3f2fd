// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package benchmark

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/pdiddy/research-bench/pkg/types"
)

// Summary aggregates one config's logged outcomes. Derived purely from the
// results log, so a report can be produced long after the run.
type Summary struct {
	ConfigID string `json:"config_id" yaml:"config_id"`

	// Graded counts outcomes that produced a correctness score.
	Graded     int `json:"graded" yaml:"graded"`
	Incomplete int `json:"incomplete" yaml:"incomplete"`
	Failed     int `json:"failed" yaml:"failed"`

	// Accuracy is the mean correctness over graded outcomes.
	Accuracy float64 `json:"accuracy" yaml:"accuracy"`

	// MeanElapsed and MeanTokens average over graded outcomes.
	MeanElapsed time.Duration `json:"mean_elapsed" yaml:"mean_elapsed"`
	MeanTokens  int           `json:"mean_tokens" yaml:"mean_tokens"`
}

// Summarize groups outcomes by config ID and aggregates each group. Results
// come back sorted by config ID for stable output.
func Summarize(outcomes []types.ExampleOutcome) []Summary {
	byConfig := make(map[string][]types.ExampleOutcome)
	for _, o := range outcomes {
		byConfig[o.ConfigID] = append(byConfig[o.ConfigID], o)
	}

	ids := make([]string, 0, len(byConfig))
	for id := range byConfig {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	summaries := make([]Summary, 0, len(ids))
	for _, id := range ids {
		summaries = append(summaries, summarizeConfig(id, byConfig[id]))
	}
	return summaries
}

func summarizeConfig(id string, outcomes []types.ExampleOutcome) Summary {
	s := Summary{ConfigID: id}

	var correctness float64
	var elapsed time.Duration
	var tokens int

	for _, o := range outcomes {
		switch {
		case o.Incomplete:
			s.Incomplete++
			continue
		case o.Err != "":
			s.Failed++
		}
		s.Graded++
		correctness += o.Correctness
		elapsed += o.Elapsed
		tokens += o.Tokens
	}

	if s.Graded > 0 {
		s.Accuracy = correctness / float64(s.Graded)
		s.MeanElapsed = elapsed / time.Duration(s.Graded)
		s.MeanTokens = tokens / s.Graded
	}
	return s
}

// WriteTable renders summaries as an aligned text table.
func WriteTable(w io.Writer, summaries []Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CONFIG\tGRADED\tACCURACY\tMEAN TIME\tMEAN TOKENS\tINCOMPLETE\tFAILED")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%d\t%.3f\t%s\t%d\t%d\t%d\n",
			s.ConfigID, s.Graded, s.Accuracy, s.MeanElapsed.Round(time.Millisecond),
			s.MeanTokens, s.Incomplete, s.Failed)
	}
	return tw.Flush()
}
