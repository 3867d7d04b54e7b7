package depgraph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/K-Oxon/dbt-view-importer/view"
)

// CycleError reports an unbreakable ordering conflict in the dependency
// graph. Path holds the views forming the cycle, from the point the repeated
// node was first entered to its recurrence.
type CycleError struct {
	Path []view.Ref
}

// Error implements error. The message spells out the full cycle path so the
// offending views can be fixed without re-running with extra diagnostics.
func (e *CycleError) Error() string {
	names := make([]string, 0, len(e.Path)+1)
	for _, ref := range e.Path {
		names = append(names, ref.String())
	}
	if len(e.Path) > 0 {
		names = append(names, e.Path[0].String())
	}
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(names, " -> "))
}

// Sort validates that the graph is acyclic and returns its nodes in
// dependency order: a view never precedes any view it depends on. Among
// views with no ordering constraint between them, ties break by ascending
// fully-qualified name, so identical graphs always sort identically.
// A cyclic graph fails with a *CycleError; the caller decides whether to
// abort or retry without the implicated nodes.
func Sort(g *Graph) ([]view.Ref, error) {
	if err := detectCycle(g); err != nil {
		return nil, err
	}

	// Kahn's algorithm over the reverse adjacency, always emitting the
	// smallest ready node first. pending counts the not-yet-emitted
	// dependencies of each node.
	refs := g.Refs()
	pending := make(map[view.Ref]int, len(refs))
	for _, ref := range refs {
		pending[ref] = len(g.Dependencies(ref))
	}
	dependents := make(map[view.Ref][]view.Ref, len(refs))
	for _, ref := range refs {
		for _, dep := range g.Dependencies(ref) {
			dependents[dep] = append(dependents[dep], ref)
		}
	}

	var ready []view.Ref
	for _, ref := range refs {
		if pending[ref] == 0 {
			ready = append(ready, ref)
		}
	}
	// refs is sorted, so ready starts sorted; insertions below keep it so.

	order := make([]view.Ref, 0, len(refs))
	for len(ready) > 0 {
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)

		for _, dependent := range dependents[next] {
			pending[dependent]--
			if pending[dependent] == 0 {
				ready = insertSorted(ready, dependent)
			}
		}
	}

	return order, nil
}

// insertSorted inserts ref into the sorted slice, keeping it sorted.
func insertSorted(refs []view.Ref, ref view.Ref) []view.Ref {
	i := sort.Search(len(refs), func(i int) bool {
		return refs[i].String() >= ref.String()
	})
	refs = append(refs, view.Ref{})
	copy(refs[i+1:], refs[i:])
	refs[i] = ref
	return refs
}

// Traversal colors for cycle detection: a node is unvisited, somewhere on
// the current descent path, or fully explored.
const (
	white = iota
	grey
	black
)

// detectCycle runs a depth-first traversal with three-coloring over the
// graph. Hitting a grey node during descent means the current path loops
// back on itself. Black subtrees are never revisited, keeping the whole scan
// O(V+E).
func detectCycle(g *Graph) error {
	color := make(map[view.Ref]int, g.Len())
	var path []view.Ref

	var visit func(ref view.Ref) error
	visit = func(ref view.Ref) error {
		switch color[ref] {
		case black:
			return nil
		case grey:
			// Report the path from the first entry of ref to its recurrence.
			for i, r := range path {
				if r == ref {
					return &CycleError{Path: append([]view.Ref(nil), path[i:]...)}
				}
			}
			return &CycleError{Path: []view.Ref{ref}}
		}

		color[ref] = grey
		path = append(path, ref)
		for _, dep := range g.Dependencies(ref) {
			if err := visit(dep); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		color[ref] = black
		return nil
	}

	for _, ref := range g.Refs() {
		if err := visit(ref); err != nil {
			return err
		}
	}
	return nil
}
