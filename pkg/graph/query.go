package graph

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	dgraph "github.com/dominikbraun/graph"
)

// Unbounded marks a traversal direction with no depth limit.
const Unbounded = -1

// Depth bounds a context traversal in both directions. Parents counts hops
// against call edges (who depends on the target), Children counts hops
// along them (what the target depends on). Unbounded lifts the limit;
// Children == 0 skips the child traversal entirely.
type Depth struct {
	Parents  int
	Children int
}

// ParseDepth parses a "PARENTS:CHILDREN" depth expression. Each side is a
// non-negative integer or "*" for unbounded; an empty side means
// unbounded. A bare value without a colon applies to both directions.
func ParseDepth(s string) (Depth, error) {
	if s == "" {
		return Depth{Parents: Unbounded, Children: Unbounded}, nil
	}
	if !strings.Contains(s, ":") {
		s = s + ":" + s
	}

	parts := strings.SplitN(s, ":", 2)

	parents, err := parseDepthPart(parts[0])
	if err != nil {
		return Depth{}, fmt.Errorf("invalid parent depth %q: %w", parts[0], err)
	}
	children, err := parseDepthPart(parts[1])
	if err != nil {
		return Depth{}, fmt.Errorf("invalid child depth %q: %w", parts[1], err)
	}

	return Depth{Parents: parents, Children: children}, nil
}

func parseDepthPart(part string) (int, error) {
	part = strings.TrimSpace(part)
	if part == "" || part == "*" {
		return Unbounded, nil
	}

	n, err := strconv.Atoi(part)
	if err != nil || n < 0 {
		return 0, errors.New("expected a non-negative integer or *")
	}
	return n, nil
}

// Entry is one node reached by a context traversal. File and Code are
// empty for unresolved or external names that have no record of their own.
type Entry struct {
	Name string
	File string
	Code string
}

// ContextResult is the outcome of a context query for one function.
type ContextResult struct {
	Name     string
	Found    bool
	Target   Entry
	Parents  []Entry
	Children []Entry
	// Files lists the distinct source files touched by the traversal,
	// sorted, paired with their content where known.
	Files []FileContent
}

// QueryService answers dependency-context queries over a built document.
//
// Records are indexed by function name; when two files declare the same
// name, the later record wins, matching the name-keyed graph the document
// consumers build. Alongside the record index it maintains a directed
// dependency graph and caller/callee adjacency for bidirectional BFS.
type QueryService struct {
	records map[string]DependencyRecord
	files   map[string]string

	dag     dgraph.Graph[string, string]
	callers map[string][]string
	callees map[string][]string
}

// NewQueryService indexes a context document for querying.
func NewQueryService(doc *ContextDocument) *QueryService {
	s := &QueryService{
		records: make(map[string]DependencyRecord),
		files:   make(map[string]string),
		dag:     dgraph.New(dgraph.StringHash, dgraph.Directed()),
		callers: make(map[string][]string),
		callees: make(map[string][]string),
	}

	for _, fc := range doc.FilesContent {
		s.files[fc.Path] = fc.Content
	}

	for _, rec := range doc.Nodes {
		s.records[rec.Function] = rec
		_ = s.dag.AddVertex(rec.Function)
	}

	for _, rec := range doc.Nodes {
		for _, dep := range rec.Dependencies {
			s.addEdge(rec.Function, dep)
		}
		for _, dep := range rec.DependenciesExternal {
			s.addEdge(rec.Function, dep)
		}
	}

	// Deterministic BFS order.
	for _, adj := range []map[string][]string{s.callers, s.callees} {
		for name := range adj {
			sort.Strings(adj[name])
		}
	}

	return s
}

func (s *QueryService) addEdge(from, to string) {
	// Unresolved and external names become leaf vertices with no record.
	_ = s.dag.AddVertex(to)
	if err := s.dag.AddEdge(from, to); err != nil && !errors.Is(err, dgraph.ErrEdgeAlreadyExists) {
		return
	}

	s.callees[from] = appendUnique(s.callees[from], to)
	s.callers[to] = appendUnique(s.callers[to], from)
}

func appendUnique(list []string, name string) []string {
	for _, existing := range list {
		if existing == name {
			return list
		}
	}
	return append(list, name)
}

// Functions returns every known function name, sorted.
func (s *QueryService) Functions() []string {
	names := make([]string, 0, len(s.records))
	for name := range s.records {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Record returns the dependency record for a function name.
func (s *QueryService) Record(name string) (DependencyRecord, bool) {
	rec, ok := s.records[name]
	return rec, ok
}

// Context collects the target's callers and callees to the requested
// depths, plus the contents of every file the traversal touched.
func (s *QueryService) Context(name string, depth Depth) *ContextResult {
	result := &ContextResult{Name: name}

	rec, ok := s.records[name]
	if !ok {
		return result
	}

	result.Found = true
	result.Target = s.entry(name)

	filesSeen := map[string]struct{}{rec.File: {}}

	result.Parents = s.traverse(s.callers, name, depth.Parents, filesSeen)
	if depth.Children != 0 {
		result.Children = s.traverse(s.callees, name, depth.Children, filesSeen)
	}

	paths := make([]string, 0, len(filesSeen))
	for path := range filesSeen {
		if path != "" {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)

	for _, path := range paths {
		result.Files = append(result.Files, FileContent{Path: path, Content: s.files[path]})
	}

	return result
}

// traverse runs a depth-limited BFS over one adjacency direction, returning
// the reached entries in visit order. The start node is excluded from the
// result but counts as visited.
func (s *QueryService) traverse(adjacency map[string][]string, start string, limit int, filesSeen map[string]struct{}) []Entry {
	if limit == 0 {
		return nil
	}

	var entries []Entry
	visited := map[string]struct{}{start: {}}

	frontier := []string{start}
	for hop := 0; len(frontier) > 0 && (limit == Unbounded || hop < limit); hop++ {
		var next []string
		for _, node := range frontier {
			for _, neighbor := range adjacency[node] {
				if _, seen := visited[neighbor]; seen {
					continue
				}
				visited[neighbor] = struct{}{}

				e := s.entry(neighbor)
				entries = append(entries, e)
				if e.File != "" {
					filesSeen[e.File] = struct{}{}
				}
				next = append(next, neighbor)
			}
		}
		frontier = next
	}

	return entries
}

func (s *QueryService) entry(name string) Entry {
	if rec, ok := s.records[name]; ok {
		return Entry{Name: name, File: rec.File, Code: rec.Code}
	}
	return Entry{Name: name}
}

// FormatOptions controls text rendering of a context result.
type FormatOptions struct {
	// IncludeCode appends each entry's source to its block.
	IncludeCode bool
	// IncludeFiles appends the full content of every touched file.
	IncludeFiles bool
}

// Format renders a context result as a human-readable report.
func Format(result *ContextResult, opts FormatOptions) string {
	var out []string

	if result.Found {
		target := fmt.Sprintf("\n🎯 Component/Function of interest: %s\n\tFile: %s", result.Name, result.Target.File)
		if opts.IncludeCode && result.Target.Code != "" {
			target += fmt.Sprintf("\nCode:\n%s", result.Target.Code)
		}
		out = append(out, target)
	} else {
		out = append(out, fmt.Sprintf("\n🎯 Component/Function '%s' not found in graph.", result.Name))
	}

	out = append(out, "\n⬆️  Parent (calling) components/functions:")
	out = append(out, formatEntries(result.Parents, opts.IncludeCode))

	out = append(out, "\n⬇️  Children (called) components/functions:")
	out = append(out, formatEntries(result.Children, opts.IncludeCode))

	if opts.IncludeFiles {
		out = append(out, "\n📄 Included File Contents:")
		for _, fc := range result.Files {
			if fc.Content != "" {
				out = append(out, fmt.Sprintf("\n--- %s ---\n%s\n", fc.Path, fc.Content))
			}
		}
	}

	return strings.Join(out, "\n")
}

func formatEntries(entries []Entry, includeCode bool) string {
	if len(entries) == 0 {
		return "None"
	}

	blocks := make([]string, 0, len(entries))
	for _, e := range entries {
		block := fmt.Sprintf("\n🔹 %s\n\tFile: %s", e.Name, e.File)
		if includeCode && e.Code != "" {
			block += fmt.Sprintf("\n\tCode:\n%s", e.Code)
		}
		blocks = append(blocks, block)
	}
	return strings.Join(blocks, "\n")
}
