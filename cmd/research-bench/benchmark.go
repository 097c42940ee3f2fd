package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/research-bench/internal/benchmark"
	"github.com/pdiddy/research-bench/pkg/types"
)

var benchmarkCmd = &cobra.Command{
	Use:   "benchmark",
	Short: "Evaluate one configuration over a labeled question set",
	Long: `Benchmark runs the configured strategy over every example in a dataset,
grades each answer, and appends per-example outcomes to a JSONL results log.
Examples already logged for the same configuration are skipped, so an
interrupted run resumes where it left off.`,
	RunE: runBenchmark,
}

func init() {
	addTrialFlags(benchmarkCmd)
	addStackFlags(benchmarkCmd)
	benchmarkCmd.Flags().String("dataset", "", "examples file, JSONL or YAML (required)")
	benchmarkCmd.Flags().String("results", "results/outcomes.jsonl", "append-only results log")
	benchmarkCmd.Flags().Int("parallelism", 1, "concurrent example sessions")
	benchmarkCmd.Flags().String("grader", "literal", "grading mode: literal or llm")
	benchmarkCmd.Flags().Bool("json", false, "output the trial result as JSON")

	rootCmd.AddCommand(benchmarkCmd)
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	datasetPath, _ := cmd.Flags().GetString("dataset")
	if datasetPath == "" {
		datasetPath = viper.GetString("benchmark.dataset_path")
	}
	if datasetPath == "" {
		return fmt.Errorf("provide a dataset with --dataset")
	}

	trial := trialFromFlags(cmd)
	if err := trial.Validate(); err != nil {
		return err
	}

	examples, err := benchmark.LoadExamples(datasetPath)
	if err != nil {
		return err
	}
	if len(examples) == 0 {
		return fmt.Errorf("dataset %s holds no examples", datasetPath)
	}

	runner, log, closer, err := buildRunner(cmd)
	if err != nil {
		return err
	}
	defer closer()
	defer log.Close()

	ctx, stop := signalContext()
	defer stop()

	result, err := runner.Run(ctx, trial, examples, os.Stderr)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	return benchmark.WriteTable(os.Stdout, benchmark.Summarize(result.Outcomes))
}

// buildRunner assembles the engine, grader, and results log into a
// benchmark runner.
func buildRunner(cmd *cobra.Command) (*benchmark.Runner, *benchmark.ResultLog, func(), error) {
	engine, closer, err := buildEngine(cmd)
	if err != nil {
		return nil, nil, nil, err
	}

	graderName, _ := cmd.Flags().GetString("grader")
	completer, _, err := buildCompleter(cmd)
	if err != nil {
		closer()
		return nil, nil, nil, err
	}
	grader, err := buildGrader(graderName, completer)
	if err != nil {
		closer()
		return nil, nil, nil, err
	}

	resultsPath, _ := cmd.Flags().GetString("results")
	if v := viper.GetString("benchmark.results_path"); resultsPath == "results/outcomes.jsonl" && v != "" {
		resultsPath = v
	}
	log, err := benchmark.OpenResultLog(resultsPath)
	if err != nil {
		closer()
		return nil, nil, nil, err
	}

	parallelism, _ := cmd.Flags().GetInt("parallelism")
	cfg := types.BenchmarkConfig{
		ResultsPath: resultsPath,
		Parallelism: parallelism,
		Grader:      graderName,
	}
	return benchmark.NewRunner(engine, grader, log, cfg), log, closer, nil
}
