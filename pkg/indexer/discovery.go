package indexer

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// DiscoverFiles walks root and returns the absolute paths of every file
// matching the scan options, sorted for deterministic processing order.
//
// A root that does not exist or is not a directory is a fatal error; the
// caller has nothing to analyze.
func DiscoverFiles(root string, opts ScanOptions) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %s: %w", root, err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("root path %s does not exist: %w", absRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path %s is not a directory", absRoot)
	}

	excludedDirs := make(map[string]struct{}, len(opts.ExcludeDirs))
	for _, name := range opts.ExcludeDirs {
		excludedDirs[name] = struct{}{}
	}

	var files []string
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Unreadable entries are skipped, not fatal.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if _, pruned := excludedDirs[d.Name()]; pruned && path != absRoot {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if matchAny(opts.Include, rel) && !matchAny(opts.Exclude, rel) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", absRoot, err)
	}

	sort.Strings(files)
	return files, nil
}

func matchAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}
