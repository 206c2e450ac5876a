package graph

import (
	"log/slog"

	"gengraph/pkg/analyzer"
	"gengraph/pkg/util"
)

// BuilderConfig controls record construction.
type BuilderConfig struct {
	// TrackExternals enables the dependenciesExternal field on records.
	TrackExternals bool

	Logger *slog.Logger
}

// Builder turns file analyses into dependency records, slicing raw source
// through the file cache.
type Builder struct {
	resolver       *Resolver
	fileCache      util.FileCache
	trackExternals bool
	logger         *slog.Logger
}

// NewBuilder creates a Builder over the given resolver and file cache.
func NewBuilder(resolver *Resolver, fileCache util.FileCache, config BuilderConfig) *Builder {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Builder{
		resolver:       resolver,
		fileCache:      fileCache,
		trackExternals: config.TrackExternals,
		logger:         logger,
	}
}

// BuildRecords computes the dependency closure of every symbol declared in
// the file and emits one record per symbol, in sorted symbol order.
func (b *Builder) BuildRecords(fa *analyzer.FileAnalysis) []DependencyRecord {
	names := fa.SymbolNames()
	records := make([]DependencyRecord, 0, len(names))

	fileContent, err := b.fileCache.Content(fa.Path)
	if err != nil {
		b.logger.Warn("failed to read file content", "file", fa.Path, "error", err)
	}

	for _, name := range names {
		local, external := b.resolver.Closure(fa, name)
		if local == nil {
			local = []string{}
		}

		record := DependencyRecord{
			File:         fa.Path,
			Function:     name,
			Dependencies: local,
			Code:         b.fetchCode(fa, name),
			FileContent:  fileContent,
		}
		if b.trackExternals {
			record.DependenciesExternal = external
		}

		records = append(records, record)
	}

	return records
}

// FileContent returns the full source of an analyzed file for embedding in
// the output document.
func (b *Builder) FileContent(path string) (FileContent, error) {
	content, err := b.fileCache.Content(path)
	if err != nil {
		return FileContent{}, err
	}
	return FileContent{Path: path, Content: content}, nil
}

// fetchCode slices the symbol's declaration out of the source. Bookkeeping
// should make this infallible, but a failed slice degrades to the sentinel
// instead of dropping the record.
func (b *Builder) fetchCode(fa *analyzer.FileAnalysis, name string) string {
	info, ok := fa.Symbols[name]
	if !ok {
		return CodeNotFound
	}

	code, err := b.fileCache.FetchCode(fa.Path, info.Location.StartByte, info.Location.EndByte)
	if err != nil {
		b.logger.Warn("failed to slice symbol source",
			"file", fa.Path,
			"symbol", name,
			"error", err)
		return CodeNotFound
	}

	return code
}
