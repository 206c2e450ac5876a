package graph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDepth(t *testing.T) {
	tests := []struct {
		input   string
		want    Depth
		wantErr bool
	}{
		{"*:*", Depth{Unbounded, Unbounded}, false},
		{"", Depth{Unbounded, Unbounded}, false},
		{"2:3", Depth{2, 3}, false},
		{"*:0", Depth{Unbounded, 0}, false},
		{"0:*", Depth{0, Unbounded}, false},
		{":", Depth{Unbounded, Unbounded}, false},
		{"2", Depth{2, 2}, false},
		{"*", Depth{Unbounded, Unbounded}, false},
		{"x:1", Depth{}, true},
		{"1:-2", Depth{}, true},
	}

	for _, tt := range tests {
		got, err := ParseDepth(tt.input)
		if tt.wantErr {
			assert.Error(t, err, tt.input)
			continue
		}
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}
}

// testDocument builds a small graph:
//
//	top -> mid -> leaf
//	side -> mid
//	leaf -> external "fetch"
func testDocument() *ContextDocument {
	return &ContextDocument{
		Nodes: []DependencyRecord{
			{File: "/p/top.js", Function: "top", Dependencies: []string{"mid"}, Code: "function top() {}"},
			{File: "/p/side.js", Function: "side", Dependencies: []string{"mid"}, Code: "function side() {}"},
			{File: "/p/mid.js", Function: "mid", Dependencies: []string{"leaf"}, Code: "function mid() {}"},
			{File: "/p/leaf.js", Function: "leaf", Dependencies: []string{}, DependenciesExternal: []string{"fetch"}, Code: "function leaf() {}"},
		},
		FilesContent: []FileContent{
			{Path: "/p/top.js", Content: "// top"},
			{Path: "/p/side.js", Content: "// side"},
			{Path: "/p/mid.js", Content: "// mid"},
			{Path: "/p/leaf.js", Content: "// leaf"},
		},
	}
}

func TestQueryService_Functions(t *testing.T) {
	s := NewQueryService(testDocument())
	assert.Equal(t, []string{"leaf", "mid", "side", "top"}, s.Functions())
}

func TestQueryService_Context_Unbounded(t *testing.T) {
	s := NewQueryService(testDocument())

	result := s.Context("mid", Depth{Parents: Unbounded, Children: Unbounded})
	require.True(t, result.Found)
	assert.Equal(t, "/p/mid.js", result.Target.File)

	parentNames := entryNames(result.Parents)
	assert.ElementsMatch(t, []string{"top", "side"}, parentNames)

	childNames := entryNames(result.Children)
	assert.ElementsMatch(t, []string{"leaf", "fetch"}, childNames,
		"external leaves appear as children with no record")

	paths := make([]string, 0, len(result.Files))
	for _, fc := range result.Files {
		paths = append(paths, fc.Path)
	}
	assert.Equal(t, []string{"/p/leaf.js", "/p/mid.js", "/p/side.js", "/p/top.js"}, paths)
}

func TestQueryService_Context_DepthLimits(t *testing.T) {
	s := NewQueryService(testDocument())

	// One hop up from leaf reaches mid only.
	result := s.Context("leaf", Depth{Parents: 1, Children: 0})
	assert.Equal(t, []string{"mid"}, entryNames(result.Parents))
	assert.Empty(t, result.Children, "child depth 0 skips the traversal")

	// Two hops up reaches top and side too.
	result = s.Context("leaf", Depth{Parents: 2, Children: 0})
	assert.ElementsMatch(t, []string{"mid", "top", "side"}, entryNames(result.Parents))

	// One hop down from top.
	result = s.Context("top", Depth{Parents: 0, Children: 1})
	assert.Empty(t, result.Parents)
	assert.Equal(t, []string{"mid"}, entryNames(result.Children))
}

func TestQueryService_Context_NotFound(t *testing.T) {
	s := NewQueryService(testDocument())

	result := s.Context("ghost", Depth{Parents: Unbounded, Children: Unbounded})
	assert.False(t, result.Found)
	assert.Empty(t, result.Parents)
	assert.Empty(t, result.Children)
}

func TestFormat(t *testing.T) {
	s := NewQueryService(testDocument())
	result := s.Context("mid", Depth{Parents: Unbounded, Children: Unbounded})

	text := Format(result, FormatOptions{IncludeCode: true, IncludeFiles: true})

	assert.Contains(t, text, "🎯 Component/Function of interest: mid")
	assert.Contains(t, text, "⬆️  Parent (calling) components/functions:")
	assert.Contains(t, text, "⬇️  Children (called) components/functions:")
	assert.Contains(t, text, "🔹 top")
	assert.Contains(t, text, "🔹 leaf")
	assert.Contains(t, text, "function mid() {}")
	assert.Contains(t, text, "📄 Included File Contents:")
	assert.Contains(t, text, "--- /p/mid.js ---")
}

func TestFormat_NotFoundAndEmptySections(t *testing.T) {
	s := NewQueryService(testDocument())
	result := s.Context("ghost", Depth{Parents: Unbounded, Children: Unbounded})

	text := Format(result, FormatOptions{})

	assert.Contains(t, text, "🎯 Component/Function 'ghost' not found in graph.")
	assert.Contains(t, text, "None")
	assert.NotContains(t, text, "📄", "file section is opt-in")
}

func TestFormat_ExcludesCodeByDefault(t *testing.T) {
	s := NewQueryService(testDocument())
	result := s.Context("mid", Depth{Parents: Unbounded, Children: Unbounded})

	text := Format(result, FormatOptions{})
	assert.False(t, strings.Contains(text, "function mid() {}"))
}

func entryNames(entries []Entry) []string {
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	return names
}
