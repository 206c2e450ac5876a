package analyzer

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	ts "github.com/tree-sitter/go-tree-sitter"

	"gengraph/pkg/parser"
)

// Analyzer turns one source file into a FileAnalysis via a single
// depth-first traversal of its syntax tree.
type Analyzer struct {
	parsers  *parser.Manager
	resolver *ImportResolver
	logger   *slog.Logger
}

// NewAnalyzer creates an Analyzer backed by the given parser manager and
// import resolver.
func NewAnalyzer(parsers *parser.Manager, resolver *ImportResolver, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}

	return &Analyzer{
		parsers:  parsers,
		resolver: resolver,
		logger:   logger,
	}
}

// AnalyzeFile parses source and extracts symbols, scopes, variables, call
// edges, and import bindings. filePath must be absolute; it keys the
// resulting analysis and anchors relative import resolution.
//
// Returns *ParseError when the source contains syntax errors; the caller
// skips such files and keeps them out of the registry.
func (a *Analyzer) AnalyzeFile(filePath string, source []byte) (*FileAnalysis, error) {
	tree, err := a.parsers.ParseFile(source, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filePath, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, &ParseError{Path: filePath, Msg: "source contains syntax errors"}
	}

	w := &fileWalker{
		analysis: NewFileAnalysis(filePath),
		source:   source,
		resolver: a.resolver,
	}
	w.walk(root)

	if w.scopes.depth() != 0 {
		// Unbalanced enter/exit would misattribute every record after the
		// imbalance point; treat it as a hard bug.
		panic(fmt.Sprintf("scope stack not drained after walking %s", filePath))
	}

	a.logger.Debug("analyzed file",
		"path", filePath,
		"symbols", len(w.analysis.Symbols),
		"imports", len(w.analysis.Imports),
		"externals", len(w.analysis.Externals))

	return w.analysis, nil
}

// fileWalker holds the traversal state for one file.
type fileWalker struct {
	analysis *FileAnalysis
	source   []byte
	resolver *ImportResolver
	scopes   scopeStack
}

func (w *fileWalker) walk(node *ts.Node) {
	switch node.Kind() {
	case "function_declaration", "generator_function_declaration":
		w.walkNamedDeclaration(node, SymbolKindFunction)

	case "class_declaration":
		w.walkNamedDeclaration(node, SymbolKindClass)

	case "variable_declarator":
		w.walkDeclarator(node)

	case "import_statement":
		w.recordImport(node)

	case "call_expression":
		w.recordCall(node)
		w.walkChildren(node)

	case "jsx_opening_element", "jsx_self_closing_element":
		w.recordJSXTag(node)
		w.walkChildren(node)

	default:
		w.walkChildren(node)
	}
}

func (w *fileWalker) walkChildren(node *ts.Node) {
	count := node.NamedChildCount()
	for i := uint(0); i < count; i++ {
		w.walk(node.NamedChild(i))
	}
}

// walkNamedDeclaration registers a function or class declaration as a
// symbol, then descends into its body under a scope keyed by the name. The
// parent scope is recorded before entering, so a symbol never parents
// itself.
func (w *fileWalker) walkNamedDeclaration(node *ts.Node, kind SymbolKind) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		// Anonymous (e.g. export default function() {}); nothing to key a
		// scope by, so its contents attribute to the enclosing scope.
		w.walkChildren(node)
		return
	}

	name := nameNode.Utf8Text(w.source)
	w.registerSymbol(name, kind, node)

	w.scopes.push(name)
	w.walkChildren(node)
	w.scopes.pop()
}

// walkDeclarator handles a variable declarator. A declarator binding a
// single identifier to a function, arrow function, or class expression
// becomes a declared symbol with its own scope; every other declarator
// registers its pattern's identifiers as local variables of the current
// scope.
func (w *fileWalker) walkDeclarator(node *ts.Node) {
	nameNode := node.ChildByFieldName("name")
	valueNode := node.ChildByFieldName("value")

	if nameNode != nil && nameNode.Kind() == "identifier" && isFunctionValued(valueNode) {
		name := nameNode.Utf8Text(w.source)
		w.registerSymbol(name, SymbolKindFunctionVariable, declarationExtent(node))

		w.scopes.push(name)
		w.walk(valueNode)
		w.scopes.pop()
		return
	}

	if nameNode != nil {
		w.collectPatternNames(nameNode)
	}
	if valueNode != nil {
		// Initializer expressions can contain call sites.
		w.walk(valueNode)
	}
}

func isFunctionValued(node *ts.Node) bool {
	if node == nil {
		return false
	}
	switch node.Kind() {
	case "arrow_function", "function_expression", "function", "generator_function", "class":
		return true
	}
	return false
}

// declarationExtent widens a declarator to its enclosing declaration
// statement when present, so the recorded source slice includes the
// const/let/var keyword.
func declarationExtent(node *ts.Node) *ts.Node {
	parent := node.Parent()
	if parent == nil {
		return node
	}
	switch parent.Kind() {
	case "lexical_declaration", "variable_declaration":
		return parent
	}
	return node
}

func (w *fileWalker) registerSymbol(name string, kind SymbolKind, node *ts.Node) {
	start := node.StartPosition()
	end := node.EndPosition()

	w.analysis.Symbols[name] = &SymbolInfo{
		Name: name,
		Kind: kind,
		Location: Location{
			StartLine:   uint32(start.Row) + 1,
			StartColumn: uint32(start.Column) + 1,
			EndLine:     uint32(end.Row) + 1,
			EndColumn:   uint32(end.Column) + 1,
			StartByte:   uint32(node.StartByte()),
			EndByte:     uint32(node.EndByte()),
		},
	}
	w.analysis.ScopeParent[name] = w.scopes.current()
}

// collectPatternNames registers every identifier bound by a (possibly
// destructured) binding pattern as a local variable of the current scope.
func (w *fileWalker) collectPatternNames(node *ts.Node) {
	switch node.Kind() {
	case "identifier", "shorthand_property_identifier_pattern":
		w.analysis.addVariable(w.scopes.current(), node.Utf8Text(w.source))

	case "object_pattern", "array_pattern", "rest_pattern":
		count := node.NamedChildCount()
		for i := uint(0); i < count; i++ {
			w.collectPatternNames(node.NamedChild(i))
		}

	case "pair_pattern":
		// {key: binding}; only the value side introduces a name.
		if value := node.ChildByFieldName("value"); value != nil {
			w.collectPatternNames(value)
		}

	case "assignment_pattern", "object_assignment_pattern":
		// {x = default}; the default expression may contain call sites.
		if left := node.ChildByFieldName("left"); left != nil {
			w.collectPatternNames(left)
		}
		if right := node.ChildByFieldName("right"); right != nil {
			w.walk(right)
		}
	}
}

// recordCall records a call edge from the current scope. A bare identifier
// callee is recorded as-is; for a member access (ns.method()) the object
// identifier is the dependency of interest, not the method name. Top-level
// calls are ignored.
func (w *fileWalker) recordCall(node *ts.Node) {
	scope := w.scopes.current()
	if scope == "" {
		return
	}

	fn := node.ChildByFieldName("function")
	if fn == nil {
		return
	}

	switch fn.Kind() {
	case "identifier":
		w.analysis.addCall(scope, fn.Utf8Text(w.source))

	case "member_expression":
		if object := fn.ChildByFieldName("object"); object != nil && object.Kind() == "identifier" {
			w.analysis.addCall(scope, object.Utf8Text(w.source))
		}
	}
}

// recordJSXTag records component-style usage (<Button />) as a call edge.
// Only capitalized identifier tags count; lowercase tags are intrinsic
// elements, and member tags (Lib.Button) are skipped.
func (w *fileWalker) recordJSXTag(node *ts.Node) {
	scope := w.scopes.current()
	if scope == "" {
		return
	}

	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}

	switch nameNode.Kind() {
	case "identifier", "jsx_identifier":
		name := nameNode.Utf8Text(w.source)
		if name != "" && unicode.IsUpper(rune(name[0])) {
			w.analysis.addCall(scope, name)
		}
	}
}

// recordImport resolves an import statement and registers each bound alias
// as either a project-local binding (alias -> absolute path) or an external
// alias.
func (w *fileWalker) recordImport(node *ts.Node) {
	sourceNode := node.ChildByFieldName("source")
	if sourceNode == nil {
		return
	}
	specifier := strings.Trim(sourceNode.Utf8Text(w.source), "\"'`")

	aliases := w.importAliases(node)
	if len(aliases) == 0 {
		// Side-effect import (import "./polyfill"); binds nothing.
		return
	}

	if !IsLocalSpecifier(specifier) {
		for _, alias := range aliases {
			w.analysis.Externals[alias] = struct{}{}
		}
		return
	}

	resolved, ok := w.resolver.Resolve(specifier, w.analysis.Path)
	if !ok {
		// Unresolved local specifier: leave the aliases unbound so calls
		// through them classify as external references at closure time.
		return
	}

	for _, alias := range aliases {
		w.analysis.Imports[alias] = resolved
	}
}

// importAliases extracts every local alias bound by an import statement.
// Default, namespace, and named imports are treated uniformly by alias.
func (w *fileWalker) importAliases(node *ts.Node) []string {
	var aliases []string

	count := node.NamedChildCount()
	for i := uint(0); i < count; i++ {
		child := node.NamedChild(i)
		if child.Kind() != "import_clause" {
			continue
		}

		clauseCount := child.NamedChildCount()
		for j := uint(0); j < clauseCount; j++ {
			part := child.NamedChild(j)

			switch part.Kind() {
			case "identifier":
				// Default import.
				aliases = append(aliases, part.Utf8Text(w.source))

			case "namespace_import":
				nsCount := part.NamedChildCount()
				for k := uint(0); k < nsCount; k++ {
					if id := part.NamedChild(k); id.Kind() == "identifier" {
						aliases = append(aliases, id.Utf8Text(w.source))
					}
				}

			case "named_imports":
				specCount := part.NamedChildCount()
				for k := uint(0); k < specCount; k++ {
					spec := part.NamedChild(k)
					if spec.Kind() != "import_specifier" {
						continue
					}
					// "name as alias" binds the alias; otherwise the name.
					bound := spec.ChildByFieldName("alias")
					if bound == nil {
						bound = spec.ChildByFieldName("name")
					}
					if bound != nil {
						aliases = append(aliases, bound.Utf8Text(w.source))
					}
				}
			}
		}
	}

	return aliases
}
