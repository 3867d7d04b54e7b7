// Package filter applies include/exclude glob patterns to sets of view
// references. Filtering always operates on the fully expanded node set of a
// dependency graph, never on the seed set used for expansion: filtering
// seeds first would silently drop legitimate cross-dataset dependencies.
package filter

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"github.com/K-Oxon/dbt-view-importer/view"
)

// MalformedPatternError is returned when an include or exclude pattern fails
// to compile as a glob. It is reported before any filtering runs.
type MalformedPatternError struct {
	// The offending pattern as supplied by the caller.
	Pattern string

	// The underlying compile error.
	Err error
}

// Error implements error.
func (e *MalformedPatternError) Error() string {
	return fmt.Sprintf("malformed filter pattern %q: %v", e.Pattern, e.Err)
}

// Unwrap returns the underlying compile error.
func (e *MalformedPatternError) Unwrap() error { return e.Err }

// pattern is a single compiled glob. Patterns containing a literal '.'
// match against the fully-qualified "project.dataset.name" string; bare
// patterns match against the name component only, which keeps the original
// short-hand (e.g. "temp_*") working.
type pattern struct {
	raw       string
	qualified bool
	g         glob.Glob
}

func (p pattern) match(ref view.Ref) bool {
	if p.qualified {
		return p.g.Match(ref.String())
	}
	return p.g.Match(ref.Name)
}

// Filter holds compiled include and exclude patterns.
type Filter struct {
	includes []pattern
	excludes []pattern
}

// New compiles the given include and exclude patterns. Any pattern that does
// not compile fails the whole call with a MalformedPatternError so that a
// typo never silently widens or narrows the selection.
func New(includes, excludes []string) (*Filter, error) {
	f := &Filter{}
	var err error
	if f.includes, err = compile(includes); err != nil {
		return nil, err
	}
	if f.excludes, err = compile(excludes); err != nil {
		return nil, err
	}
	return f, nil
}

func compile(raw []string) ([]pattern, error) {
	patterns := make([]pattern, 0, len(raw))
	for _, r := range raw {
		g, err := glob.Compile(r)
		if err != nil {
			return nil, &MalformedPatternError{Pattern: r, Err: err}
		}
		patterns = append(patterns, pattern{
			raw:       r,
			qualified: strings.Contains(r, "."),
			g:         g,
		})
	}
	return patterns, nil
}

// Match reports whether a single ref is kept by the filter: it must match at
// least one include pattern (or the include list must be empty) and no
// exclude pattern. Exclude always takes precedence over include.
func (f *Filter) Match(ref view.Ref) bool {
	for _, p := range f.excludes {
		if p.match(ref) {
			return false
		}
	}
	if len(f.includes) == 0 {
		return true
	}
	for _, p := range f.includes {
		if p.match(ref) {
			return true
		}
	}
	return false
}

// Apply returns the refs kept by the filter, preserving input order. It has
// no side effects and is idempotent: filtering an already-filtered set is a
// no-op.
func (f *Filter) Apply(refs []view.Ref) []view.Ref {
	var kept []view.Ref
	for _, ref := range refs {
		if f.Match(ref) {
			kept = append(kept, ref)
		}
	}
	return kept
}

// Apply is a convenience that compiles the patterns and filters refs in one
// call. See Filter.Apply.
func Apply(refs []view.Ref, includes, excludes []string) ([]view.Ref, error) {
	f, err := New(includes, excludes)
	if err != nil {
		return nil, err
	}
	return f.Apply(refs), nil
}
