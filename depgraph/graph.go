// Package depgraph builds an in-memory directed graph of view-to-view
// references from a lineage provider and produces a deterministic,
// dependency-respecting emission order for it.
package depgraph

import (
	"github.com/K-Oxon/dbt-view-importer/view"
)

// Graph maps each discovered view to the set of views its definition
// references. It is owned by Build during construction; afterwards it is
// treated as immutable, so Sort and any number of readers require no
// locking.
type Graph struct {
	deps     map[view.Ref][]view.Ref
	boundary map[view.Ref]bool
}

// NewGraph creates an empty dependency graph. Most callers obtain graphs
// from Build; direct construction is intended for tests and fixtures.
func NewGraph() *Graph {
	return &Graph{
		deps:     make(map[view.Ref][]view.Ref),
		boundary: make(map[view.Ref]bool),
	}
}

// Add records ref as a node together with its outgoing dependency edges.
// Dependency targets become graph nodes as well (with empty edge sets) so
// that every reference reachable from a seed is present as a key. Calling
// Add twice for the same ref replaces its edge set.
func (g *Graph) Add(ref view.Ref, deps ...view.Ref) {
	sorted := view.SortRefs(append([]view.Ref(nil), deps...))
	g.deps[ref] = sorted
	for _, dep := range sorted {
		if _, ok := g.deps[dep]; !ok {
			g.deps[dep] = nil
		}
	}
}

// markBoundary flags ref as a node whose own dependencies were never
// expanded because it was first reached at the traversal depth limit.
func (g *Graph) markBoundary(ref view.Ref) {
	if _, ok := g.deps[ref]; !ok {
		g.deps[ref] = nil
	}
	g.boundary[ref] = true
}

// Len returns the number of nodes in the graph.
func (g *Graph) Len() int {
	return len(g.deps)
}

// Contains reports whether ref is a node of the graph.
func (g *Graph) Contains(ref view.Ref) bool {
	_, ok := g.deps[ref]
	return ok
}

// Refs returns every node of the graph in ascending order of the
// fully-qualified name.
func (g *Graph) Refs() []view.Ref {
	refs := make([]view.Ref, 0, len(g.deps))
	for ref := range g.deps {
		refs = append(refs, ref)
	}
	return view.SortRefs(refs)
}

// Dependencies returns the outgoing edges of ref in ascending order. The
// returned slice is shared with the graph and must not be mutated.
func (g *Graph) Dependencies(ref view.Ref) []view.Ref {
	return g.deps[ref]
}

// Dependents returns the refs whose definitions reference ref, in ascending
// order. This is the reverse adjacency of Dependencies.
func (g *Graph) Dependents(ref view.Ref) []view.Ref {
	var dependents []view.Ref
	for from, deps := range g.deps {
		for _, dep := range deps {
			if dep == ref {
				dependents = append(dependents, from)
				break
			}
		}
	}
	return view.SortRefs(dependents)
}

// IsBoundary reports whether ref was recorded as a boundary leaf: present in
// the graph, but with its own dependencies left unexpanded due to the depth
// limit.
func (g *Graph) IsBoundary(ref view.Ref) bool {
	return g.boundary[ref]
}
