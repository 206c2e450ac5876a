package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"gengraph/pkg/graph"
	"gengraph/pkg/indexer"
)

var (
	watchPath      string
	watchOutput    string
	watchExternals bool
	watchExclude   []string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Analyze a source tree and keep its context document fresh on changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		root := config.rootOr(watchPath, ".")
		output := config.outputOr(watchOutput, "output/context.json")

		idx, err := newIndexer(watchExternals, 0)
		if err != nil {
			return err
		}
		defer idx.Close()

		doc, stats, err := idx.Run(root, scanOptions(watchExclude), nil)
		if err != nil {
			return err
		}
		if err := saveDocument(doc, output); err != nil {
			return err
		}
		fmt.Printf("Analyzed %d files, %d symbols; watching %s\n",
			stats.FilesAnalyzed, stats.SymbolsFound, root)

		watchOpts := indexer.DefaultWatchOptions()
		watchOpts.ExcludeDirs = scanOptions(watchExclude).ExcludeDirs

		watcher, err := indexer.NewWatcher(idx, watchOpts, func(updated *graph.ContextDocument) {
			if err := saveDocument(updated, output); err != nil {
				logger.Error("failed to update context document", "error", err)
				return
			}
			logger.Info("context document updated", "path", output)
		}, logger)
		if err != nil {
			return err
		}

		absRoot, err := filepath.Abs(root)
		if err != nil {
			return err
		}
		if err := watcher.Start(absRoot); err != nil {
			return err
		}
		defer watcher.Stop()

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig

		return nil
	},
}

func init() {
	watchCmd.Flags().StringVarP(&watchPath, "path", "p", "", "source tree to watch (default \".\")")
	watchCmd.Flags().StringVarP(&watchOutput, "output", "o", "", "context document path (default \"output/context.json\")")
	watchCmd.Flags().BoolVar(&watchExternals, "externals", false, "track external dependencies per symbol")
	watchCmd.Flags().StringSliceVar(&watchExclude, "exclude", nil, "glob patterns to exclude (relative to the root)")
}

func saveDocument(doc *graph.ContextDocument, output string) error {
	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	return doc.Save(output)
}
