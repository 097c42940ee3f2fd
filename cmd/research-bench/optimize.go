package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-bench/internal/benchmark"
	"github.com/pdiddy/research-bench/internal/optimizer"
	"github.com/pdiddy/research-bench/pkg/types"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Search the configuration space for the best-scoring setup",
	Long: `Optimize runs benchmark trials over configurations drawn from a YAML
search space, scores each trial against the weighted objective, and tracks
the best configuration found. State is checkpointed after every trial, so
an interrupted or failed run resumes without repeating completed work.`,
	RunE: runOptimize,
}

func init() {
	addStackFlags(optimizeCmd)
	optimizeCmd.Flags().String("space", "", "YAML search space declaration (required)")
	optimizeCmd.Flags().String("checkpoint", "results/checkpoint.yaml", "resumable run state file")
	optimizeCmd.Flags().String("dataset", "", "examples file, JSONL or YAML (required)")
	optimizeCmd.Flags().String("results", "results/outcomes.jsonl", "append-only results log")
	optimizeCmd.Flags().Int("budget", 20, "maximum number of trials")
	optimizeCmd.Flags().Int("patience", 0, "non-improving trials before early stop (0 = off)")
	optimizeCmd.Flags().Float64("min-delta", 0, "composite improvement below which a trial does not count")
	optimizeCmd.Flags().String("proposer", "grid", "search model: grid or random")
	optimizeCmd.Flags().Int64("seed", 0, "seed for the random proposer")
	optimizeCmd.Flags().Float64("weight-quality", 0, "objective weight for answer quality")
	optimizeCmd.Flags().Float64("weight-speed", 0, "objective weight for latency")
	optimizeCmd.Flags().Float64("weight-resource", 0, "objective weight for token consumption")
	optimizeCmd.Flags().Int("parallelism", 1, "concurrent example sessions within a trial")
	optimizeCmd.Flags().String("grader", "literal", "grading mode: literal or llm")

	rootCmd.AddCommand(optimizeCmd)
}

func runOptimize(cmd *cobra.Command, args []string) error {
	spacePath, _ := cmd.Flags().GetString("space")
	if spacePath == "" {
		spacePath = viper.GetString("optimizer.space_path")
	}
	if spacePath == "" {
		return fmt.Errorf("provide a search space with --space")
	}
	datasetPath, _ := cmd.Flags().GetString("dataset")
	if datasetPath == "" {
		datasetPath = viper.GetString("benchmark.dataset_path")
	}
	if datasetPath == "" {
		return fmt.Errorf("provide a dataset with --dataset")
	}

	space, err := optimizer.LoadSpace(spacePath)
	if err != nil {
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

	opt := optimizer.NewOptimizer(runner, optimizerConfigFromFlags(cmd, spacePath), scoringConfig())

	ctx, stop := signalContext()
	defer stop()

	state, runErr := opt.Run(ctx, space, examples, os.Stderr)

	// Report the best configuration found even when the run was cut short:
	// the checkpoint holds every scored trial.
	if state != nil {
		if best := state.Best(); best != nil {
			fmt.Printf("best configuration after %d trial(s):\n", len(state.Trials))
			data, err := yaml.Marshal(best)
			if err != nil {
				return err
			}
			os.Stdout.Write(data)
		}
	}
	return runErr
}

func optimizerConfigFromFlags(cmd *cobra.Command, spacePath string) types.OptimizerConfig {
	checkpoint, _ := cmd.Flags().GetString("checkpoint")
	budget, _ := cmd.Flags().GetInt("budget")
	patience, _ := cmd.Flags().GetInt("patience")
	minDelta, _ := cmd.Flags().GetFloat64("min-delta")
	proposer, _ := cmd.Flags().GetString("proposer")
	seed, _ := cmd.Flags().GetInt64("seed")
	wq, _ := cmd.Flags().GetFloat64("weight-quality")
	ws, _ := cmd.Flags().GetFloat64("weight-speed")
	wr, _ := cmd.Flags().GetFloat64("weight-resource")

	return types.OptimizerConfig{
		SpacePath:      spacePath,
		CheckpointPath: checkpoint,
		TrialBudget:    budget,
		Patience:       patience,
		MinDelta:       minDelta,
		Proposer:       proposer,
		Seed:           seed,
		Weights:        types.Weights{Quality: wq, Speed: ws, Resource: wr},
	}
}
