package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-bench/internal/docindex"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the local document index (build, search)",
	Long: `Index maintains a SQLite FTS5 index over a directory of Markdown and
text documents. The localdocs search provider queries this index, so
research sessions can run entirely offline against a private corpus.`,
}

var indexBuildCmd = &cobra.Command{
	Use:   "build [directory]",
	Short: "Index or re-index documents from a directory",
	Long: `Build walks a directory for .md and .txt files and upserts them into
the index. Unchanged files are skipped on subsequent runs.`,
	RunE: runIndexBuild,
}

func runIndexBuild(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("provide exactly one directory to index")
	}

	idx, err := openIndex(cmd)
	if err != nil {
		return err
	}
	defer idx.Close()

	ctx, stop := signalContext()
	defer stop()

	summary, err := idx.Build(ctx, args[0], os.Stdout)
	if err != nil {
		return err
	}
	fmt.Printf("%d indexed, %d updated, %d unchanged, %d failed\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)
	if summary.Failed > 0 {
		return fmt.Errorf("%d document(s) failed indexing", summary.Failed)
	}
	return nil
}

var indexSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Query the document index with full-text search",
	RunE:  runIndexSearch,
}

func runIndexSearch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide a search query")
	}
	query := strings.Join(args, " ")
	limit, _ := cmd.Flags().GetInt("limit")

	idx, err := openIndex(cmd)
	if err != nil {
		return err
	}
	defer idx.Close()

	ctx, stop := signalContext()
	defer stop()

	hits, err := idx.Search(ctx, query, limit)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	for i, h := range hits {
		fmt.Printf("%2d. %s (%s)\n    %s\n", i+1, h.Title, h.Path, h.Snippet)
	}
	return nil
}

func openIndex(cmd *cobra.Command) (*docindex.Index, error) {
	path, _ := cmd.Flags().GetString("index-path")
	if path == "" {
		path = "docs/index.db"
	}
	return docindex.Open(path)
}

func init() {
	indexCmd.PersistentFlags().String("index-path", "docs/index.db", "SQLite index file")
	indexSearchCmd.Flags().Int("limit", 10, "maximum results")

	indexCmd.AddCommand(indexBuildCmd)
	indexCmd.AddCommand(indexSearchCmd)

	rootCmd.AddCommand(indexCmd)
}
