package depgraph

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/K-Oxon/dbt-view-importer/view"
)

// DefaultMaxDepth bounds the traversal when the caller does not configure a
// depth limit.
const DefaultMaxDepth = 3

// Warning records a non-fatal lineage lookup failure. The affected view is
// kept in the graph with an empty dependency set; missing lineage for one
// view must not block conversion of everything else.
type Warning struct {
	// The view whose lookup failed.
	Ref view.Ref

	// The provider error.
	Err error
}

// String returns a human-readable form naming the affected view.
func (w Warning) String() string {
	return fmt.Sprintf("lineage lookup failed for %s: %v", w.Ref, w.Err)
}

// MergeWarnings folds a warning list into a single error value, or nil when
// the list is empty.
func MergeWarnings(warnings []Warning) error {
	var merged *multierror.Error
	for _, w := range warnings {
		merged = multierror.Append(merged, fmt.Errorf("%s: %w", w.Ref, w.Err))
	}
	return merged.ErrorOrNil()
}

// BuildConfig carries the settings for a graph build.
type BuildConfig struct {
	// MaxDepth bounds the traversal, measured from the nearest seed.
	// Nodes first reached at MaxDepth become boundary leaves. Zero selects
	// DefaultMaxDepth.
	MaxDepth int

	// FetchWorkers bounds how many same-depth lineage lookups may run
	// concurrently. Values below 2 disable concurrency. No ordering
	// guarantee is required between sibling lookups, so parallelism never
	// changes the resulting graph.
	FetchWorkers int

	// Logger, if set, receives per-level progress output.
	Logger *logrus.Entry
}

func (cfg BuildConfig) maxDepth() int {
	if cfg.MaxDepth == 0 {
		return DefaultMaxDepth
	}
	return cfg.MaxDepth
}

// Build expands the dependency graph reachable from seeds, breadth-first,
// asking provider for each node's direct references. Each node is expanded
// exactly once; nodes at the same depth are processed in ascending ref order
// so that identical inputs always produce identical graphs. Provider
// failures for individual nodes are returned as warnings, never as a build
// failure. Build only fails when ctx is cancelled.
func Build(ctx context.Context, seeds []view.Ref, provider view.Provider, cfg BuildConfig) (*Graph, []Warning, error) {
	g := NewGraph()
	maxDepth := cfg.maxDepth()

	var warnings []Warning

	// scheduled tracks every ref that has been queued for expansion or
	// recorded as a boundary leaf, guarding against re-entry when a view is
	// referenced from multiple parents.
	scheduled := make(map[view.Ref]bool, len(seeds))

	level := view.SortRefs(dedupe(seeds))
	for _, seed := range level {
		scheduled[seed] = true
	}

	if maxDepth <= 0 {
		// Nothing may be expanded; the seeds themselves are the frontier.
		for _, seed := range level {
			g.markBoundary(seed)
		}
		return g, nil, nil
	}

	for depth := 0; len(level) > 0; depth++ {
		if err := ctx.Err(); err != nil {
			return g, warnings, err
		}
		if cfg.Logger != nil {
			cfg.Logger.WithFields(logrus.Fields{
				"depth": depth,
				"nodes": len(level),
			}).Debug("expanding dependency level")
		}

		var next []view.Ref
		for _, res := range fetchLevel(ctx, provider, level, cfg.FetchWorkers) {
			if res.err != nil {
				warnings = append(warnings, Warning{Ref: res.ref, Err: res.err})
				g.Add(res.ref)
				continue
			}

			deps := view.SortRefs(dedupe(res.deps))
			g.Add(res.ref, deps...)

			for _, dep := range deps {
				if scheduled[dep] {
					continue
				}
				scheduled[dep] = true
				if depth+1 < maxDepth {
					next = append(next, dep)
				} else {
					g.markBoundary(dep)
				}
			}
		}
		level = view.SortRefs(next)
	}

	// Cancellation during the final level would otherwise be missed by the
	// per-level check.
	return g, warnings, ctx.Err()
}

type fetchResult struct {
	ref  view.Ref
	deps []view.Ref
	err  error
}

// fetchLevel looks up the dependencies of every ref in the level. Lookups
// may run concurrently under a token pool, but results are returned in level
// order so the merge stays deterministic. Once ctx is cancelled, pending
// lookups record the context error instead of calling the provider, so a
// cancelled build drains without issuing doomed requests.
func fetchLevel(ctx context.Context, provider view.Provider, level []view.Ref, workers int) []fetchResult {
	results := make([]fetchResult, len(level))

	if workers < 2 || len(level) < 2 {
		for i, ref := range level {
			if err := ctx.Err(); err != nil {
				results[i] = fetchResult{ref: ref, err: err}
				continue
			}
			deps, err := provider.Dependencies(ctx, ref)
			results[i] = fetchResult{ref: ref, deps: deps, err: err}
		}
		return results
	}

	tokens := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i := range level {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			// Wait for a token to become available before issuing the lookup.
			select {
			case tokens <- struct{}{}:
			case <-ctx.Done():
				results[i] = fetchResult{ref: level[i], err: ctx.Err()}
				return
			}
			defer func() { <-tokens }()

			if err := ctx.Err(); err != nil {
				results[i] = fetchResult{ref: level[i], err: err}
				return
			}
			deps, err := provider.Dependencies(ctx, level[i])
			results[i] = fetchResult{ref: level[i], deps: deps, err: err}
		}(i)
	}
	wg.Wait()
	return results
}

func dedupe(refs []view.Ref) []view.Ref {
	seen := make(map[view.Ref]bool, len(refs))
	var out []view.Ref
	for _, ref := range refs {
		if seen[ref] {
			continue
		}
		seen[ref] = true
		out = append(out, ref)
	}
	return out
}
