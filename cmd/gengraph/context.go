package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"gengraph/pkg/graph"
)

var (
	contextFunction    string
	contextDepth       string
	contextFile        string
	contextOutput      string
	contextIncludeCode bool
	contextNoFiles     bool
)

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Report the dependency context of one function or component",
	Long: `Reads a previously generated context document and reports the target's
callers, callees, and the files involved, to the requested depths.

Depth is PARENTS:CHILDREN where each side is a number or * (unbounded).
A bare number applies to both directions; a child depth of 0 skips the
child traversal.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		depth, err := graph.ParseDepth(contextDepth)
		if err != nil {
			return err
		}

		doc, err := graph.LoadDocument(config.outputOr(contextFile, "output/context.json"))
		if err != nil {
			return err
		}

		result := graph.NewQueryService(doc).Context(contextFunction, depth)
		text := graph.Format(result, graph.FormatOptions{
			IncludeCode:  contextIncludeCode,
			IncludeFiles: !contextNoFiles,
		})

		if contextOutput == "" {
			fmt.Println(text)
			return nil
		}

		if dir := filepath.Dir(contextOutput); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}
		if err := os.WriteFile(contextOutput, []byte(text), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", contextOutput, err)
		}

		fmt.Printf("Context saved to %s\n", contextOutput)
		return nil
	},
}

func init() {
	contextCmd.Flags().StringVarP(&contextFunction, "function-name", "n", "", "function or component name")
	contextCmd.Flags().StringVarP(&contextDepth, "depth", "d", "*:*", "depth as PARENTS:CHILDREN")
	contextCmd.Flags().StringVarP(&contextFile, "full-context-file", "f", "", "context document path (default \"output/context.json\")")
	contextCmd.Flags().StringVarP(&contextOutput, "output-file", "o", "", "write the report to this file instead of stdout")
	contextCmd.Flags().BoolVarP(&contextIncludeCode, "include-function-code", "c", false, "include function code in the report")
	contextCmd.Flags().BoolVarP(&contextNoFiles, "no-files-content", "C", false, "exclude file contents from the report")

	_ = contextCmd.MarkFlagRequired("function-name")
}
