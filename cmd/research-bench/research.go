package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var researchCmd = &cobra.Command{
	Use:   "research [question]",
	Short: "Run one research session and print the cited answer",
	Long: `Research runs a single iterative research session: the strategy plans
sub-questions, searches the configured provider, synthesizes notes each
round, and produces a final answer with numeric citations into the sources
it retrieved.

Interrupting with Ctrl-C cancels cleanly between iterations.`,
	RunE: runResearch,
}

func init() {
	addTrialFlags(researchCmd)
	addStackFlags(researchCmd)
	researchCmd.Flags().Bool("json", false, "output the full session record as JSON")

	rootCmd.AddCommand(researchCmd)
}

func runResearch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide a research question")
	}
	question := strings.Join(args, " ")

	trial := trialFromFlags(cmd)
	if err := trial.Validate(); err != nil {
		return err
	}

	engine, closer, err := buildEngine(cmd)
	if err != nil {
		return err
	}
	defer closer()

	ctx, stop := signalContext()
	defer stop()

	run, err := engine.Execute(ctx, trial, question, os.Stderr)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run.Session)
	}

	fmt.Println(run.Session.Answer)
	if len(run.Session.Citations) > 0 {
		fmt.Println("\nSources:")
		for _, c := range run.Session.Citations {
			fmt.Printf("  [%d] %s (%s)\n", c.Index, c.Title, c.URL)
		}
	}
	fmt.Fprintf(os.Stderr, "\n%s in %d iteration(s), %d sources, ~%d tokens, %d requests\n",
		run.Session.Status, len(run.Session.Iterations), run.Store.Len(),
		run.Usage.Tokens, run.Usage.Requests)
	return nil
}
