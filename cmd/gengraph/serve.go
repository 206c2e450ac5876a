package main

import (
	"github.com/spf13/cobra"

	"gengraph/pkg/graph"
	"gengraph/pkg/mcp"
)

var (
	serveFile    string
	servePath    string
	serveToolLog string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve dependency-context queries over MCP (stdio)",
	Long: `Serves get_context, list_functions, and get_record tools over the Model
Context Protocol. By default it answers from an existing context document;
with --path it analyzes the tree first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadOrAnalyze()
		if err != nil {
			return err
		}

		srv, err := mcp.NewServer(graph.NewQueryService(doc), mcp.Config{
			Version:     version,
			ToolLogPath: serveToolLog,
			Logger:      logger,
		})
		if err != nil {
			return err
		}
		defer srv.Close()

		return srv.Serve()
	},
}

func loadOrAnalyze() (*graph.ContextDocument, error) {
	if servePath == "" {
		return graph.LoadDocument(config.outputOr(serveFile, "output/context.json"))
	}

	idx, err := newIndexer(config.Externals, 0)
	if err != nil {
		return nil, err
	}
	defer idx.Close()

	doc, _, err := idx.Run(servePath, scanOptions(nil), nil)
	return doc, err
}

func init() {
	serveCmd.Flags().StringVarP(&serveFile, "full-context-file", "f", "", "context document path (default \"output/context.json\")")
	serveCmd.Flags().StringVarP(&servePath, "path", "p", "", "analyze this tree instead of loading a document")
	serveCmd.Flags().StringVar(&serveToolLog, "tool-log", "", "append JSONL tool-call logs to this file")
}
