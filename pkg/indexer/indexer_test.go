package indexer

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gengraph/pkg/analyzer"
	"gengraph/pkg/graph"
)

func newTestIndexer(t *testing.T, trackExternals bool) *Indexer {
	idx, err := NewIndexer(Config{TrackExternals: trackExternals, Workers: 2})
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func writeSource(t *testing.T, root, rel, source string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(source), 0644))
	return path
}

func recordByName(doc *graph.ContextDocument, name string) (graph.DependencyRecord, bool) {
	for _, rec := range doc.Nodes {
		if rec.Function == name {
			return rec, true
		}
	}
	return graph.DependencyRecord{}, false
}

func TestRun_EndToEnd(t *testing.T) {
	root := t.TempDir()

	writeSource(t, root, "helpers.js", `
export function helperA() {}
export function helperB() {}
`)
	writeSource(t, root, "main.js", `
import { helperA } from './helpers';
import axios from 'axios';

function top() {
  middle();
}

function middle() {
  helperA();
  axios.get('/x');
}
`)

	idx := newTestIndexer(t, true)
	doc, stats, err := idx.Run(root, DefaultScanOptions(), nil)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.FilesDiscovered)
	assert.Equal(t, 2, stats.FilesAnalyzed)
	assert.Equal(t, 0, stats.FilesFailed)
	assert.Equal(t, 4, stats.SymbolsFound)

	top, ok := recordByName(doc, "top")
	require.True(t, ok)
	assert.Equal(t, []string{"helperA", "helperB", "middle"}, top.Dependencies,
		"import expansion pulls in the whole helper file surface")
	assert.Equal(t, []string{"axios"}, top.DependenciesExternal)
	assert.Contains(t, top.Code, "function top()")

	middle, ok := recordByName(doc, "middle")
	require.True(t, ok)
	assert.Equal(t, []string{"helperA", "helperB"}, middle.Dependencies)

	assert.Len(t, doc.FilesContent, 2)
}

func TestRun_ParseFailureSkipsFile(t *testing.T) {
	root := t.TempDir()

	writeSource(t, root, "broken.js", "function broken( {{{")
	writeSource(t, root, "main.js", `
import { stuff } from './broken';

function caller() {
  stuff();
}
`)

	idx := newTestIndexer(t, false)
	doc, stats, err := idx.Run(root, DefaultScanOptions(), nil)
	require.NoError(t, err, "a parse failure never aborts the run")

	assert.Equal(t, 1, stats.FilesAnalyzed)
	assert.Equal(t, 1, stats.FilesFailed)
	require.Len(t, stats.Errors, 1)

	var parseErr *analyzer.ParseError
	assert.True(t, errors.As(stats.Errors[0].Err, &parseErr))

	// The broken file's registry entry is absent, so the import alias
	// falls back to an opaque local dependency.
	caller, ok := recordByName(doc, "caller")
	require.True(t, ok)
	assert.Equal(t, []string{"stuff"}, caller.Dependencies)

	_, found := recordByName(doc, "broken")
	assert.False(t, found)
}

func TestRun_ProgressCallback(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "a.js", "function a() {}\n")
	writeSource(t, root, "b.js", "function b() {}\n")

	var seen int
	idx := newTestIndexer(t, false)
	_, _, err := idx.Run(root, DefaultScanOptions(), func(done, total int, path string) {
		seen++
		assert.Equal(t, 2, total)
	})
	require.NoError(t, err)
	assert.Equal(t, 2, seen)
}

func TestReanalyzeFile(t *testing.T) {
	root := t.TempDir()
	path := writeSource(t, root, "a.js", "function first() {}\n")

	idx := newTestIndexer(t, false)
	doc, _, err := idx.Run(root, DefaultScanOptions(), nil)
	require.NoError(t, err)

	_, ok := recordByName(doc, "first")
	require.True(t, ok)

	// File changes on disk; reanalysis must see the new content.
	require.NoError(t, os.WriteFile(path, []byte("function second() {}\n"), 0644))
	require.NoError(t, idx.ReanalyzeFile(path))

	doc = idx.Document()
	_, ok = recordByName(doc, "first")
	assert.False(t, ok)
	_, ok = recordByName(doc, "second")
	assert.True(t, ok)
}

func TestReanalyzeFile_ConcurrentWithDocument(t *testing.T) {
	// Watch mode fires one debounce goroutine per changed file, so a
	// reanalysis invalidating one file's cache entry can overlap document
	// assembly reading that same file for another change.
	root := t.TempDir()
	pathA := writeSource(t, root, "a.js", "function alpha() { return 1; }\n")
	pathB := writeSource(t, root, "b.js", "function beta() { return 2; }\n")

	idx := newTestIndexer(t, false)
	_, _, err := idx.Run(root, DefaultScanOptions(), nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, path := range []string{pathA, pathB} {
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			for n := 0; n < 50; n++ {
				assert.NoError(t, idx.ReanalyzeFile(path))
				assert.NotEmpty(t, idx.Document().Nodes)
			}
		}(path)
	}
	wg.Wait()

	doc := idx.Document()
	_, ok := recordByName(doc, "alpha")
	assert.True(t, ok)
	_, ok = recordByName(doc, "beta")
	assert.True(t, ok)
}

func TestRemoveFile(t *testing.T) {
	root := t.TempDir()
	path := writeSource(t, root, "gone.js", "function gone() {}\n")

	idx := newTestIndexer(t, false)
	_, _, err := idx.Run(root, DefaultScanOptions(), nil)
	require.NoError(t, err)

	idx.RemoveFile(path)

	doc := idx.Document()
	_, ok := recordByName(doc, "gone")
	assert.False(t, ok)
	assert.Empty(t, doc.FilesContent)
}
