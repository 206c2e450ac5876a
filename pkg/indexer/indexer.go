package indexer

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gengraph/pkg/analyzer"
	"gengraph/pkg/graph"
	"gengraph/pkg/parser"
	"gengraph/pkg/util"
)

// Config controls Indexer construction.
type Config struct {
	// TrackExternals enables the dependenciesExternal field on records.
	TrackExternals bool

	// Workers is the analysis worker count; 0 auto-detects.
	Workers int

	Logger *slog.Logger
}

// Indexer orchestrates a full analysis run: discovery, parallel per-file
// analysis, registry publication, and document assembly.
//
// Analysis runs in two phases. Phase one analyzes files concurrently and
// publishes each file's declared symbols to the registry as it completes.
// Phase two computes dependency closures sequentially, after every file
// has been published, so cross-file expansion sees the full registry and
// the opaque-alias fallback only fires for files that genuinely failed.
type Indexer struct {
	parsers   *parser.Manager
	analyzer  *analyzer.Analyzer
	registry  *graph.Registry
	builder   *graph.Builder
	fileCache util.FileCache
	logger    *slog.Logger
	workers   int

	mu       sync.Mutex
	analyses map[string]*analyzer.FileAnalysis
	order    []string
}

// NewIndexer wires up the full analysis pipeline.
func NewIndexer(config Config) (*Indexer, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	resolver, err := analyzer.NewImportResolver(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create import resolver: %w", err)
	}

	cacheConfig := util.DefaultFileCacheConfig()
	cacheConfig.Logger = logger
	fileCache := util.NewFileCache(cacheConfig)

	parsers := parser.NewManager(logger)
	registry := graph.NewRegistry()

	return &Indexer{
		parsers:  parsers,
		analyzer: analyzer.NewAnalyzer(parsers, resolver, logger),
		registry: registry,
		builder: graph.NewBuilder(
			graph.NewResolver(registry, logger),
			fileCache,
			graph.BuilderConfig{TrackExternals: config.TrackExternals, Logger: logger},
		),
		fileCache: fileCache,
		logger:    logger,
		workers:   config.Workers,
		analyses:  make(map[string]*analyzer.FileAnalysis),
	}, nil
}

// Close releases parser and file cache resources.
func (i *Indexer) Close() error {
	err := i.parsers.Close()
	if cerr := i.fileCache.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// Run analyzes every matching file under root and returns the assembled
// context document plus run statistics. Per-file failures are collected in
// the stats; only discovery failure aborts the run.
func (i *Indexer) Run(root string, opts ScanOptions, progress ProgressCallback) (*graph.ContextDocument, *ScanStats, error) {
	start := time.Now()

	paths, err := DiscoverFiles(root, opts)
	if err != nil {
		return nil, nil, err
	}

	stats := &ScanStats{FilesDiscovered: len(paths)}
	i.logger.Info("starting analysis", "root", root, "files", len(paths))

	pool := newWorkerPool(i.workers, i.analyzeFile, i.logger)
	pool.start()

	go func() {
		for _, path := range paths {
			pool.submit(path)
		}
		pool.finishSubmitting()
	}()

	analyses := make(map[string]*analyzer.FileAnalysis, len(paths))
	done := 0
	for result := range pool.results {
		done++
		if progress != nil {
			progress(done, len(paths), result.path)
		}

		if result.err != nil {
			stats.FilesFailed++
			stats.Errors = append(stats.Errors, FileError{Path: result.path, Err: result.err})
			i.logger.Warn("skipping file", "path", result.path, "error", result.err)
			continue
		}

		analyses[result.path] = result.analysis
		i.registry.Publish(result.path, result.analysis.SymbolNames())
		stats.FilesAnalyzed++
		stats.SymbolsFound += len(result.analysis.Symbols)
	}

	i.mu.Lock()
	i.analyses = analyses
	i.order = paths
	i.mu.Unlock()

	doc := i.Document()
	stats.Duration = time.Since(start)

	i.logger.Info("analysis complete",
		"analyzed", stats.FilesAnalyzed,
		"failed", stats.FilesFailed,
		"symbols", stats.SymbolsFound,
		"parses", i.parsers.Stats().Parses,
		"duration", stats.Duration)

	return doc, stats, nil
}

// Document assembles the context document from the current analysis state.
// Closure computation happens here, against the fully populated registry.
func (i *Indexer) Document() *graph.ContextDocument {
	i.mu.Lock()
	order := make([]string, len(i.order))
	copy(order, i.order)
	analyses := make(map[string]*analyzer.FileAnalysis, len(i.analyses))
	for path, fa := range i.analyses {
		analyses[path] = fa
	}
	i.mu.Unlock()

	doc := &ContextDocumentBuilder{builder: i.builder, logger: i.logger}
	for _, path := range order {
		fa, ok := analyses[path]
		if !ok {
			continue
		}
		doc.Add(fa)
	}
	return doc.Document()
}

// ReanalyzeFile re-runs analysis for one changed file and republishes its
// symbols. On parse failure the file drops out of the document; the
// registry keeps its previous entry (append-only).
func (i *Indexer) ReanalyzeFile(path string) error {
	i.fileCache.Invalidate(path)

	analysis, err := i.analyzeFile(path)
	if err != nil {
		i.mu.Lock()
		delete(i.analyses, path)
		i.mu.Unlock()
		return err
	}

	i.mu.Lock()
	if _, known := i.analyses[path]; !known {
		i.order = append(i.order, path)
	}
	i.analyses[path] = analysis
	i.mu.Unlock()

	i.registry.Publish(path, analysis.SymbolNames())
	return nil
}

// RemoveFile drops a deleted file from the analysis state. Its registry
// entry is replaced with an empty symbol set so importers stop expanding
// into it.
func (i *Indexer) RemoveFile(path string) {
	i.fileCache.Invalidate(path)

	i.mu.Lock()
	delete(i.analyses, path)
	i.mu.Unlock()

	i.registry.Publish(path, nil)
}

func (i *Indexer) analyzeFile(path string) (*analyzer.FileAnalysis, error) {
	mf, err := i.fileCache.Get(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return i.analyzer.AnalyzeFile(path, mf.Bytes())
}

// ContextDocumentBuilder accumulates records and file contents in
// discovery order.
type ContextDocumentBuilder struct {
	builder *graph.Builder
	logger  *slog.Logger
	doc     graph.ContextDocument
}

// Add appends one analyzed file's records and content.
func (b *ContextDocumentBuilder) Add(fa *analyzer.FileAnalysis) {
	b.doc.Nodes = append(b.doc.Nodes, b.builder.BuildRecords(fa)...)

	fc, err := b.builder.FileContent(fa.Path)
	if err != nil {
		b.logger.Warn("failed to embed file content", "path", fa.Path, "error", err)
		return
	}
	b.doc.FilesContent = append(b.doc.FilesContent, fc)
}

// Document returns the accumulated document.
func (b *ContextDocumentBuilder) Document() *graph.ContextDocument {
	return &b.doc
}
