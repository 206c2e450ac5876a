package analyzer

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"gengraph/pkg/parser"
)

// importCacheSize bounds the resolution cache. Specifier resolution hits the
// filesystem up to once per supported extension, so repeated imports of the
// same module across a project are worth caching.
const importCacheSize = 4096

// ImportResolver resolves import specifiers to absolute file paths on disk.
//
// A specifier is project-local when it starts with "." or "/"; everything
// else (bare package names) is external and never touches the filesystem.
type ImportResolver struct {
	cache  *lru.Cache[string, string]
	logger *slog.Logger
}

// NewImportResolver creates a resolver with an LRU-backed probe cache.
func NewImportResolver(logger *slog.Logger) (*ImportResolver, error) {
	if logger == nil {
		logger = slog.Default()
	}

	cache, err := lru.New[string, string](importCacheSize)
	if err != nil {
		return nil, err
	}

	return &ImportResolver{
		cache:  cache,
		logger: logger,
	}, nil
}

// IsLocalSpecifier reports whether an import specifier refers to a
// project-local file rather than an external package.
func IsLocalSpecifier(specifier string) bool {
	return strings.HasPrefix(specifier, ".") || strings.HasPrefix(specifier, "/")
}

// Resolve maps a project-local import specifier to the absolute path of an
// existing file, probing supported extensions in fixed order when the
// literal path does not exist. Returns ok=false when no candidate exists
// (the alias then stays out of the binding map and classifies as external
// at closure time) or when the specifier is not project-local.
func (r *ImportResolver) Resolve(specifier, fromFile string) (string, bool) {
	if !IsLocalSpecifier(specifier) {
		return "", false
	}

	base := specifier
	if !filepath.IsAbs(base) {
		base = filepath.Join(filepath.Dir(fromFile), specifier)
	}
	base = filepath.Clean(base)

	if cached, ok := r.cache.Get(base); ok {
		return cached, cached != ""
	}

	resolved := r.probe(base)
	r.cache.Add(base, resolved)

	if resolved == "" {
		r.logger.Debug("unresolved import specifier",
			"specifier", specifier,
			"from", fromFile)
		return "", false
	}

	return resolved, true
}

// probe checks the literal path first, then each supported extension in
// order. First match wins.
func (r *ImportResolver) probe(base string) string {
	if isFile(base) {
		return base
	}

	for _, ext := range parser.SupportedExtensions {
		candidate := base + ext
		if isFile(candidate) {
			return candidate
		}
	}

	return ""
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
