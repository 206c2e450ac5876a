package analyzer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gengraph/pkg/parser"
)

// setupAnalyzer creates an analyzer for testing
func setupAnalyzer(t *testing.T) *Analyzer {
	pm := parser.NewManager(nil)
	t.Cleanup(func() { pm.Close() })

	resolver, err := NewImportResolver(nil)
	require.NoError(t, err)

	return NewAnalyzer(pm, resolver, nil)
}

func analyze(t *testing.T, name, source string) *FileAnalysis {
	a := setupAnalyzer(t)

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(source), 0644))

	fa, err := a.AnalyzeFile(path, []byte(source))
	require.NoError(t, err)
	require.NotNil(t, fa)
	return fa
}

func TestAnalyzeFile_DeclaredSymbols(t *testing.T) {
	fa := analyze(t, "symbols.js", `
function plain() {}
function* gen() {}
class Widget {}
const arrow = () => {};
const expr = function() {};
const notASymbol = 42;
`)

	assert.Equal(t, []string{"Widget", "arrow", "expr", "gen", "plain"}, fa.SymbolNames())

	assert.Equal(t, SymbolKindFunction, fa.Symbols["plain"].Kind)
	assert.Equal(t, SymbolKindFunction, fa.Symbols["gen"].Kind)
	assert.Equal(t, SymbolKindClass, fa.Symbols["Widget"].Kind)
	assert.Equal(t, SymbolKindFunctionVariable, fa.Symbols["arrow"].Kind)
	assert.Equal(t, SymbolKindFunctionVariable, fa.Symbols["expr"].Kind)

	// Non-function variables are locals of the top level, not symbols.
	assert.Contains(t, fa.ScopeVars[""], "notASymbol")
}

func TestAnalyzeFile_Redeclaration_LastWins(t *testing.T) {
	fa := analyze(t, "redeclare.js", `
function dup() { return 1; }
function dup() { return 2; }
`)

	require.Contains(t, fa.Symbols, "dup")
	assert.Equal(t, uint32(3), fa.Symbols["dup"].Location.StartLine, "second declaration should win")
}

func TestAnalyzeFile_NestedRedeclaration_CyclicScopeChain(t *testing.T) {
	// An inner redeclaration of an ancestor's name wins the shared key, so
	// the parent chain can come out cyclic. Consumers walking ScopeParent
	// must not assume every chain reaches the top level.
	fa := analyze(t, "cycle.js", `
function a() {
  function b() {
    function a() {}
  }
}
`)

	assert.Equal(t, "b", fa.ScopeParent["a"])
	assert.Equal(t, "a", fa.ScopeParent["b"])
}

func TestAnalyzeFile_NestedScopes(t *testing.T) {
	fa := analyze(t, "nested.js", `
function outer() {
  const x = 1;
  function inner() {
    const y = 2;
  }
}
`)

	assert.Equal(t, "", fa.ScopeParent["outer"])
	assert.Equal(t, "outer", fa.ScopeParent["inner"])

	assert.Contains(t, fa.ScopeVars["outer"], "x")
	assert.Contains(t, fa.ScopeVars["inner"], "y")
	assert.NotContains(t, fa.ScopeVars["outer"], "y")
}

func TestAnalyzeFile_DestructuredVariables(t *testing.T) {
	fa := analyze(t, "patterns.js", `
function handler() {
  const { a, b: renamed, ...rest } = source();
  const [first, , third] = list;
  const { nested: { deep } } = obj;
  const { withDefault = fallback() } = opts;
}
`)

	vars := fa.ScopeVars["handler"]
	for _, name := range []string{"a", "renamed", "rest", "first", "third", "deep", "withDefault"} {
		assert.Contains(t, vars, name, "pattern should bind %s", name)
	}
	assert.NotContains(t, vars, "b", "renamed property key is not a binding")
	assert.NotContains(t, vars, "nested", "intermediate property key is not a binding")

	// Initializers still contribute call edges.
	assert.Contains(t, fa.Calls["handler"], "source")
	assert.Contains(t, fa.Calls["handler"], "fallback")
}

func TestAnalyzeFile_CallEdges(t *testing.T) {
	fa := analyze(t, "calls.js", `
function caller() {
  direct();
  ns.method();
  obj.deep.chain();
  cb(nestedCall());
}
`)

	calls := fa.Calls["caller"]
	assert.Contains(t, calls, "direct")
	assert.Contains(t, calls, "ns", "member call records the object")
	assert.Contains(t, calls, "cb")
	assert.Contains(t, calls, "nestedCall")
	assert.NotContains(t, calls, "method", "method names are not dependencies")
}

func TestAnalyzeFile_TopLevelCallsIgnored(t *testing.T) {
	fa := analyze(t, "toplevel.js", `
setup();
function declared() { used(); }
teardown();
`)

	assert.Empty(t, fa.Calls[""], "top-level call sites are not recorded")
	assert.Contains(t, fa.Calls["declared"], "used")
}

func TestAnalyzeFile_JSXComponents(t *testing.T) {
	fa := analyze(t, "app.jsx", `
function App() {
  return (
    <div>
      <Button label="ok" />
      <Panel>text</Panel>
    </div>
  );
}
`)

	calls := fa.Calls["App"]
	assert.Contains(t, calls, "Button")
	assert.Contains(t, calls, "Panel")
	assert.NotContains(t, calls, "div", "intrinsic elements are not dependencies")
}

func TestAnalyzeFile_TSX(t *testing.T) {
	fa := analyze(t, "page.tsx", `
type Props = { title: string };

const Page = ({ title }: Props) => {
  return <Header title={title} />;
};
`)

	require.Contains(t, fa.Symbols, "Page")
	assert.Equal(t, SymbolKindFunctionVariable, fa.Symbols["Page"].Kind)
	assert.Contains(t, fa.Calls["Page"], "Header")
}

func TestAnalyzeFile_Imports(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "helpers.js")
	require.NoError(t, os.WriteFile(target, []byte("export function helper() {}\n"), 0644))

	source := `
import { helper as h, other } from './helpers';
import Default from './helpers';
import * as ns from './helpers';
import axios from 'axios';
import { missing } from './nowhere';
`
	path := filepath.Join(dir, "main.js")
	require.NoError(t, os.WriteFile(path, []byte(source), 0644))

	a := setupAnalyzer(t)
	fa, err := a.AnalyzeFile(path, []byte(source))
	require.NoError(t, err)

	for _, alias := range []string{"h", "other", "Default", "ns"} {
		assert.Equal(t, target, fa.Imports[alias], "alias %s should resolve", alias)
	}

	assert.Contains(t, fa.Externals, "axios")

	// Unresolvable local specifier leaves the alias unbound entirely.
	assert.NotContains(t, fa.Imports, "missing")
	assert.NotContains(t, fa.Externals, "missing")
}

func TestAnalyzeFile_ParseError(t *testing.T) {
	a := setupAnalyzer(t)

	path := filepath.Join(t.TempDir(), "broken.js")
	source := []byte("function broken( {{{")
	require.NoError(t, os.WriteFile(path, source, 0644))

	fa, err := a.AnalyzeFile(path, source)
	assert.Nil(t, fa)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, path, parseErr.Path)
}

func TestAnalyzeFile_FunctionVariableNotALocal(t *testing.T) {
	// The declarator name of a function-valued variable is a symbol, not a
	// local variable, so sibling symbols referencing it see a dependency.
	fa := analyze(t, "fnvar.js", `
const format = (s) => s.trim();
function caller() { format("x"); }
`)

	assert.Contains(t, fa.Symbols, "format")
	assert.NotContains(t, fa.ScopeVars[""], "format")
	assert.Contains(t, fa.Calls["caller"], "format")
}

func TestScopeStack(t *testing.T) {
	var s scopeStack

	assert.Equal(t, "", s.current())
	assert.Equal(t, 0, s.depth())

	s.push("outer")
	s.push("inner")
	assert.Equal(t, "inner", s.current())
	assert.Equal(t, 2, s.depth())

	assert.Equal(t, "inner", s.pop())
	assert.Equal(t, "outer", s.pop())
	assert.Equal(t, 0, s.depth())

	assert.Panics(t, func() { s.pop() })
}
