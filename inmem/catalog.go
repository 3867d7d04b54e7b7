// Package inmem provides an in-memory view catalog that acts as both a
// view.Source and a view.Provider. It backs tests and the static:// lineage
// backend, where a catalog is loaded from a YAML fixture file instead of a
// live warehouse.
package inmem

import (
	"context"
	"fmt"
	"sync"

	"github.com/K-Oxon/dbt-view-importer/view"
)

// Compile-time checks for ensuring Catalog implements Source and Provider.
var (
	_ view.Source   = (*Catalog)(nil)
	_ view.Provider = (*Catalog)(nil)
)

// View is a single catalog entry: the object's metadata plus its recorded
// lineage.
type View struct {
	Ref          view.Ref
	Type         string
	Definition   string
	Columns      []view.Column
	Dependencies []view.Ref
}

// Catalog implements an in-memory view catalog that can be concurrently
// accessed by multiple clients.
type Catalog struct {
	mu    sync.RWMutex
	views map[view.Ref]*View
}

// NewCatalog creates a new empty in-memory catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		views: make(map[view.Ref]*View),
	}
}

// Upsert inserts v into the catalog, replacing any existing entry with the
// same ref. A missing type defaults to "VIEW".
func (c *Catalog) Upsert(v View) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v.Type == "" {
		v.Type = view.TypeView
	}

	// Store a copy so callers cannot mutate catalog state afterwards.
	vCopy := v
	vCopy.Columns = append([]view.Column(nil), v.Columns...)
	vCopy.Dependencies = append([]view.Ref(nil), v.Dependencies...)
	c.views[v.Ref] = &vCopy
}

// ListViews implements view.Source.
func (c *Catalog) ListViews(_ context.Context, project, dataset string) ([]view.Ref, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var refs []view.Ref
	for ref, v := range c.views {
		if v.Type == view.TypeView && ref.InDataset(project, dataset) {
			refs = append(refs, ref)
		}
	}
	return view.SortRefs(refs), nil
}

// Definition implements view.Source.
func (c *Catalog) Definition(_ context.Context, ref view.Ref) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.views[ref]
	if !ok {
		return "", fmt.Errorf("definition of %s: %w", ref, view.ErrNotFound)
	}
	return v.Definition, nil
}

// Schema implements view.Source.
func (c *Catalog) Schema(_ context.Context, ref view.Ref) ([]view.Column, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.views[ref]
	if !ok {
		return nil, fmt.Errorf("schema of %s: %w", ref, view.ErrNotFound)
	}
	return append([]view.Column(nil), v.Columns...), nil
}

// TableType implements view.Source.
func (c *Catalog) TableType(_ context.Context, ref view.Ref) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.views[ref]
	if !ok {
		return "", fmt.Errorf("table type of %s: %w", ref, view.ErrNotFound)
	}
	return v.Type, nil
}

// Dependencies implements view.Provider. Unknown refs yield no dependencies;
// the catalog never distinguishes "no lineage recorded" from "not present".
func (c *Catalog) Dependencies(_ context.Context, ref view.Ref) ([]view.Ref, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.views[ref]
	if !ok {
		return nil, nil
	}
	return append([]view.Ref(nil), v.Dependencies...), nil
}
