// Package analyzer builds per-file symbol tables, call-site records, and
// import bindings from a single tree-sitter traversal.
package analyzer

import (
	"fmt"
	"sort"
)

// SymbolKind identifies what kind of declaration introduced a symbol.
type SymbolKind string

const (
	SymbolKindFunction SymbolKind = "function"
	SymbolKindClass    SymbolKind = "class"
	// SymbolKindFunctionVariable is a variable bound to a function, arrow
	// function, or class expression (const f = () => {...}).
	SymbolKindFunctionVariable SymbolKind = "function-variable"
)

// Location is a byte/line range into the original source text.
//
// Byte offsets are 0-based and half-open ([StartByte, EndByte)), enabling
// O(1) code slicing; line/column numbers are 1-based for human output.
type Location struct {
	StartLine   uint32 `json:"start_line"`
	StartColumn uint32 `json:"start_column"`
	EndLine     uint32 `json:"end_line"`
	EndColumn   uint32 `json:"end_column"`
	StartByte   uint32 `json:"start_byte"`
	EndByte     uint32 `json:"end_byte"`
}

// SymbolInfo is one declared symbol: a named function, class, or
// function-valued variable. Symbols are keyed by (file, name); redeclaring
// a name within one file overwrites the previous entry.
type SymbolInfo struct {
	Name string
	Kind SymbolKind
	// Location covers the whole declaration (including the body), so the
	// raw source slice of the symbol can be fetched by byte offset.
	Location Location
}

// FileAnalysis is everything extracted from one file in a single traversal:
// the symbol table, the lexical scope shape, per-scope local variables,
// per-scope call edges, and import bindings.
type FileAnalysis struct {
	// Path is the absolute path of the analyzed file.
	Path string

	// Symbols maps declared symbol name to its info.
	Symbols map[string]*SymbolInfo

	// ScopeParent maps a scope name (== the symbol that introduced it) to
	// its enclosing scope name. "" is the top level.
	ScopeParent map[string]string

	// ScopeVars maps a scope name to the set of plain local variables
	// declared directly inside it. The "" key holds top-level variables.
	// Function-valued variable names are symbols, not entries here.
	ScopeVars map[string]map[string]struct{}

	// Calls maps a scope name to the set of identifiers referenced in call
	// position (or as a capitalized JSX tag) inside that scope. Top-level
	// call sites are not recorded.
	Calls map[string]map[string]struct{}

	// Imports maps a local import alias to the resolved absolute path of
	// the project-local file it came from.
	Imports map[string]string

	// Externals is the set of aliases imported from non-project sources.
	Externals map[string]struct{}
}

// NewFileAnalysis returns an empty analysis for the given path.
func NewFileAnalysis(path string) *FileAnalysis {
	return &FileAnalysis{
		Path:        path,
		Symbols:     make(map[string]*SymbolInfo),
		ScopeParent: make(map[string]string),
		ScopeVars:   make(map[string]map[string]struct{}),
		Calls:       make(map[string]map[string]struct{}),
		Imports:     make(map[string]string),
		Externals:   make(map[string]struct{}),
	}
}

// SymbolNames returns the declared symbol names in sorted order.
func (fa *FileAnalysis) SymbolNames() []string {
	names := make([]string, 0, len(fa.Symbols))
	for name := range fa.Symbols {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (fa *FileAnalysis) addVariable(scope, name string) {
	vars, ok := fa.ScopeVars[scope]
	if !ok {
		vars = make(map[string]struct{})
		fa.ScopeVars[scope] = vars
	}
	vars[name] = struct{}{}
}

func (fa *FileAnalysis) addCall(scope, name string) {
	calls, ok := fa.Calls[scope]
	if !ok {
		calls = make(map[string]struct{})
		fa.Calls[scope] = calls
	}
	calls[name] = struct{}{}
}

// ParseError reports a file whose source could not be parsed. The file is
// excluded from the registry and from output; the run continues.
type ParseError struct {
	Path string
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Msg)
}
