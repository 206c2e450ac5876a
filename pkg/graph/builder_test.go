package graph

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gengraph/pkg/analyzer"
	"gengraph/pkg/util"
)

func newTestBuilder(t *testing.T, trackExternals bool) *Builder {
	cache := util.NewFileCache(util.DefaultFileCacheConfig())
	t.Cleanup(func() { cache.Close() })

	return NewBuilder(newTestResolver(), cache, BuilderConfig{TrackExternals: trackExternals})
}

func TestBuildRecords(t *testing.T) {
	source := "function a() { b(); }\nfunction b() { fetch(); }\n"
	path := filepath.Join(t.TempDir(), "two.js")
	require.NoError(t, os.WriteFile(path, []byte(source), 0644))

	fa := newAnalysis(path).
		symbol("a", "").
		symbol("b", "").
		call("a", "b").
		call("b", "fetch").
		fa
	fa.Symbols["a"].Location = analyzer.Location{StartByte: 0, EndByte: 21}
	fa.Symbols["b"].Location = analyzer.Location{StartByte: 22, EndByte: 47}

	records := newTestBuilder(t, true).BuildRecords(fa)
	require.Len(t, records, 2)

	a := records[0]
	assert.Equal(t, "a", a.Function)
	assert.Equal(t, path, a.File)
	assert.Equal(t, []string{"b"}, a.Dependencies)
	assert.Equal(t, []string{"fetch"}, a.DependenciesExternal, "externals propagate transitively")
	assert.Equal(t, "function a() { b(); }", a.Code)
	assert.Equal(t, source, a.FileContent)

	b := records[1]
	assert.Equal(t, "b", b.Function)
	assert.Equal(t, []string{}, b.Dependencies, "empty list, not null")
	assert.Equal(t, "function b() { fetch(); }", b.Code)
}

func TestBuildRecords_ExternalsDisabled(t *testing.T) {
	source := "function f() { fetch(); }\n"
	path := filepath.Join(t.TempDir(), "f.js")
	require.NoError(t, os.WriteFile(path, []byte(source), 0644))

	fa := newAnalysis(path).
		symbol("f", "").
		call("f", "fetch").
		fa
	fa.Symbols["f"].Location = analyzer.Location{StartByte: 0, EndByte: 25}

	records := newTestBuilder(t, false).BuildRecords(fa)
	require.Len(t, records, 1)
	assert.Nil(t, records[0].DependenciesExternal)
}

func TestBuildRecords_MissingDefinitionSite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.js")
	require.NoError(t, os.WriteFile(path, []byte("// tiny\n"), 0644))

	fa := newAnalysis(path).symbol("ghost", "").fa
	// Range beyond the file: slicing fails, record degrades to the sentinel.
	fa.Symbols["ghost"].Location = analyzer.Location{StartByte: 100, EndByte: 200}

	records := newTestBuilder(t, false).BuildRecords(fa)
	require.Len(t, records, 1)
	assert.Equal(t, CodeNotFound, records[0].Code)
}

func TestFileContent(t *testing.T) {
	source := "const x = 1;\n"
	path := filepath.Join(t.TempDir(), "c.js")
	require.NoError(t, os.WriteFile(path, []byte(source), 0644))

	fc, err := newTestBuilder(t, false).FileContent(path)
	require.NoError(t, err)
	assert.Equal(t, path, fc.Path)
	assert.Equal(t, source, fc.Content)
}

func TestDocument_SaveAndLoad(t *testing.T) {
	doc := testDocument()
	path := filepath.Join(t.TempDir(), "context.json")

	require.NoError(t, doc.Save(path))

	loaded, err := LoadDocument(path)
	require.NoError(t, err)
	assert.Equal(t, doc.Nodes, loaded.Nodes)
	assert.Equal(t, doc.FilesContent, loaded.FilesContent)
}

func TestLoadDocument_Missing(t *testing.T) {
	_, err := LoadDocument(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
