// Package parser wraps tree-sitter parsing for JavaScript and TypeScript
// sources behind per-grammar parser pools.
package parser

import (
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	ts "github.com/tree-sitter/go-tree-sitter"
	ts_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	ts_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"gengraph/pkg/util"
)

// poolKey uniquely identifies a parser pool (language + TSX variant).
type poolKey struct {
	lang  Language
	isTSX bool
}

// Manager manages tree-sitter parsers with lazy pool initialization and
// thread-safe concurrent access.
//
// Callers own returned Tree instances and must call tree.Close() after use.
// The Manager itself must be closed via Close() to free pooled parsers.
type Manager struct {
	pools  map[poolKey]*parserPool
	mutex  sync.RWMutex
	logger *slog.Logger

	parsesCalled int
}

// NewManager creates a new parser Manager.
//
// The returned manager must be closed via Close() to free resources.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		pools:  make(map[poolKey]*parserPool),
		logger: logger,
	}
}

// Parse parses source code using the specified language grammar.
//
// isTSX selects the TSX dialect and is only meaningful for TypeScript;
// the JavaScript grammar always accepts JSX.
//
// The returned Tree MUST be closed by the caller. A tree is returned even
// when the source contains syntax errors; callers check RootNode().HasError()
// and apply their own skip policy.
func (m *Manager) Parse(source []byte, lang Language, isTSX bool) (*ts.Tree, error) {
	if lang == LanguageUnknown {
		return nil, fmt.Errorf("cannot parse unknown language")
	}

	m.mutex.Lock()
	m.parsesCalled++
	m.mutex.Unlock()

	pool, err := m.getOrCreatePool(lang, isTSX)
	if err != nil {
		return nil, fmt.Errorf("failed to get pool for %s: %w", lang, err)
	}

	parser, err := pool.acquire()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire parser: %w", err)
	}

	tree := parser.Parse(source, nil)
	pool.release(parser)

	if tree == nil {
		return nil, fmt.Errorf("parser returned nil tree")
	}

	return tree, nil
}

// ParseFile parses a file's content, detecting its dialect from the path.
func (m *Manager) ParseFile(source []byte, filePath string) (*ts.Tree, error) {
	lang := DetectLanguage(filePath)
	if lang == LanguageUnknown {
		return nil, fmt.Errorf("unsupported file extension: %s", filePath)
	}

	return m.Parse(source, lang, IsTSXFile(filePath))
}

// Stats is a snapshot of parser activity.
type Stats struct {
	// Parses counts parse requests for a known language.
	Parses int

	// Pools counts grammar pools created so far.
	Pools int
}

// Stats returns a snapshot of parser activity.
func (m *Manager) Stats() Stats {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return Stats{
		Parses: m.parsesCalled,
		Pools:  len(m.pools),
	}
}

// Close releases all parser pool resources. After Close() the Manager
// cannot be used.
func (m *Manager) Close() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for key, pool := range m.pools {
		if pool != nil {
			pool.close()
			m.logger.Debug("closed parser pool",
				"language", key.lang.String(),
				"isTSX", key.isTSX)
		}
	}
	m.pools = make(map[poolKey]*parserPool)

	return nil
}

// getOrCreatePool returns an existing parser pool or creates a new one,
// using double-checked locking.
func (m *Manager) getOrCreatePool(lang Language, isTSX bool) (*parserPool, error) {
	key := poolKey{lang: lang, isTSX: isTSX}

	m.mutex.RLock()
	pool, exists := m.pools[key]
	m.mutex.RUnlock()

	if exists {
		return pool, nil
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if pool, exists = m.pools[key]; exists {
		return pool, nil
	}

	langPtr, err := languagePointer(lang, isTSX)
	if err != nil {
		return nil, err
	}

	pool = newParserPool(lang, langPtr, isTSX, util.GetOptimalPoolSize(), m.logger)
	m.pools[key] = pool

	return pool, nil
}

// languagePointer returns the tree-sitter grammar pointer for a language.
// isTSX selects the TSX grammar variant of TypeScript.
func languagePointer(lang Language, isTSX bool) (unsafe.Pointer, error) {
	switch lang {
	case LanguageJavaScript:
		return ts_javascript.Language(), nil

	case LanguageTypeScript:
		if isTSX {
			return ts_typescript.LanguageTSX(), nil
		}
		return ts_typescript.LanguageTypescript(), nil

	default:
		return nil, fmt.Errorf("unsupported language: %s", lang.String())
	}
}
