package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-bench/internal/benchmark"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize a results log per configuration",
	Long: `Report reads an outcomes log and prints per-configuration aggregates:
accuracy, mean latency, mean token consumption, and incomplete or failed
example counts. It runs no sessions; the log alone is the input.`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().String("results", "results/outcomes.jsonl", "results log to summarize")
	reportCmd.Flags().Bool("json", false, "output summaries as JSON")

	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	resultsPath, _ := cmd.Flags().GetString("results")

	outcomes, err := benchmark.ReadOutcomes(resultsPath)
	if err != nil {
		return err
	}
	if len(outcomes) == 0 {
		fmt.Println("No outcomes recorded.")
		return nil
	}

	summaries := benchmark.Summarize(outcomes)

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	}
	return benchmark.WriteTable(os.Stdout, summaries)
}
