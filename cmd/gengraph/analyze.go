package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"gengraph/pkg/indexer"
)

const timeRounding = time.Millisecond

var (
	analyzePath      string
	analyzeOutput    string
	analyzeExternals bool
	analyzeExclude   []string
	analyzeWorkers   int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a source tree and write its dependency context document",
	RunE: func(cmd *cobra.Command, args []string) error {
		root := config.rootOr(analyzePath, ".")
		output := config.outputOr(analyzeOutput, "output/context.json")

		idx, err := newIndexer(analyzeExternals, analyzeWorkers)
		if err != nil {
			return err
		}
		defer idx.Close()

		doc, stats, err := idx.Run(root, scanOptions(analyzeExclude), nil)
		if err != nil {
			return err
		}

		if dir := filepath.Dir(output); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}
		if err := doc.Save(output); err != nil {
			return err
		}

		fmt.Printf("Analyzed %d files (%d failed), %d symbols in %s\n",
			stats.FilesAnalyzed, stats.FilesFailed, stats.SymbolsFound, stats.Duration.Round(timeRounding))
		fmt.Printf("Context written to %s\n", output)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzePath, "path", "p", "", "source tree to analyze (default \".\")")
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "", "context document path (default \"output/context.json\")")
	analyzeCmd.Flags().BoolVar(&analyzeExternals, "externals", false, "track external dependencies per symbol")
	analyzeCmd.Flags().StringSliceVar(&analyzeExclude, "exclude", nil, "glob patterns to exclude (relative to the root)")
	analyzeCmd.Flags().IntVar(&analyzeWorkers, "workers", 0, "analysis worker count (0 = auto)")
}

// newIndexer builds an Indexer honoring config-level defaults.
func newIndexer(externals bool, workers int) (*indexer.Indexer, error) {
	if workers == 0 {
		workers = config.Workers
	}

	return indexer.NewIndexer(indexer.Config{
		TrackExternals: externals || config.Externals,
		Workers:        workers,
		Logger:         logger,
	})
}

// scanOptions extends the default scan exclusions with config and flag
// glob patterns.
func scanOptions(extraExcludes []string) indexer.ScanOptions {
	opts := indexer.DefaultScanOptions()
	opts.Exclude = append(opts.Exclude, config.Exclude...)
	opts.Exclude = append(opts.Exclude, extraExcludes...)
	return opts
}
