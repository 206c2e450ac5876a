package graph

import (
	"log/slog"
	"sort"

	"gengraph/pkg/analyzer"
)

// Resolver computes transitive dependency closures for declared symbols.
// It holds only read access to the shared registry; each closure
// computation is otherwise stateless.
type Resolver struct {
	registry *Registry
	logger   *slog.Logger
}

// NewResolver creates a Resolver over the given registry.
func NewResolver(registry *Registry, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}

	return &Resolver{
		registry: registry,
		logger:   logger,
	}
}

// Closure computes the transitive dependencies of one declared symbol.
//
// It walks the symbol's call edges, following same-file symbols
// transitively and expanding project-local imports one level through the
// registry. Each callee classifies, in order, as: a variable visible on
// the scope chain (ignored; local bindings shadow any same-named symbol),
// a same-file declared symbol (local, recursed into), a project-local
// import (local; the target file's whole declared surface, or the alias
// itself when the target is unpublished), a known external alias, or an
// unresolved reference (external). The symbol itself is removed at the end
// so recursion never self-reports.
//
// Both returned lists are sorted and deduplicated.
func (r *Resolver) Closure(fa *analyzer.FileAnalysis, symbol string) (local []string, external []string) {
	localSet := make(map[string]struct{})
	externalSet := make(map[string]struct{})

	visited := map[string]struct{}{symbol: {}}
	queue := []string{symbol}

	for len(queue) > 0 {
		scope := queue[0]
		queue = queue[1:]

		accessible := accessibleVariables(fa, scope)

		for callee := range fa.Calls[scope] {
			if _, ok := accessible[callee]; ok {
				continue
			}

			if _, ok := fa.Symbols[callee]; ok {
				localSet[callee] = struct{}{}
				if _, seen := visited[callee]; !seen {
					visited[callee] = struct{}{}
					queue = append(queue, callee)
				}
				continue
			}

			if target, ok := fa.Imports[callee]; ok {
				if names, published := r.registry.Lookup(target); published {
					// The alias cannot be matched to one declared symbol
					// confidently, so the whole target surface counts.
					for _, name := range names {
						localSet[name] = struct{}{}
					}
				} else {
					// Target not analyzed (or failed to parse): the alias
					// itself stands in as an opaque dependency.
					localSet[callee] = struct{}{}
				}
				continue
			}

			if _, ok := fa.Externals[callee]; ok {
				externalSet[callee] = struct{}{}
				continue
			}

			// Global, built-in, or otherwise unregistered identifier.
			externalSet[callee] = struct{}{}
		}
	}

	delete(localSet, symbol)

	return sortedKeys(localSet), sortedKeys(externalSet)
}

// accessibleVariables unions the locally declared variable sets along the
// scope chain from the given scope up to and including the top level.
//
// Scopes are keyed by bare name and redeclaration is last-writer-wins, so a
// nested redeclaration of an ancestor's name can make the parent chain
// cyclic (a -> b -> a). The walk tracks visited scopes and stops at the
// first repeat instead of requiring the chain to reach the top level.
func accessibleVariables(fa *analyzer.FileAnalysis, scope string) map[string]struct{} {
	accessible := make(map[string]struct{})
	visited := make(map[string]struct{})

	current := scope
	for {
		if _, seen := visited[current]; seen {
			return accessible
		}
		visited[current] = struct{}{}

		for name := range fa.ScopeVars[current] {
			accessible[name] = struct{}{}
		}
		if current == "" {
			return accessible
		}
		current = fa.ScopeParent[current]
	}
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}

	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
