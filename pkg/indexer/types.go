// Package indexer discovers source files, runs per-file analysis across a
// worker pool, and assembles the dependency context document.
package indexer

import (
	"time"
)

// ScanOptions controls file discovery under a root directory.
type ScanOptions struct {
	// Include is the set of doublestar glob patterns (relative to the
	// root) a file must match to be analyzed.
	Include []string

	// ExcludeDirs is a set of directory names pruned from the walk
	// entirely, wherever they appear.
	ExcludeDirs []string

	// Exclude is an optional set of glob patterns removing individual
	// files that Include matched.
	Exclude []string
}

// DefaultScanOptions covers the supported source extensions and prunes the
// usual dependency and build output directories.
func DefaultScanOptions() ScanOptions {
	return ScanOptions{
		Include: []string{
			"**/*.js",
			"**/*.jsx",
			"**/*.ts",
			"**/*.tsx",
		},
		ExcludeDirs: []string{
			"node_modules",
			".git",
			"dist",
			"build",
			"coverage",
			".next",
		},
	}
}

// FileError pairs a file path with the error it produced. Per-file errors
// never abort a run.
type FileError struct {
	Path string
	Err  error
}

// ScanStats summarizes one indexing run.
type ScanStats struct {
	FilesDiscovered int
	FilesAnalyzed   int
	FilesFailed     int
	SymbolsFound    int
	Duration        time.Duration
	Errors          []FileError
}

// ProgressCallback reports per-file progress during analysis. May be nil.
type ProgressCallback func(done, total int, path string)
