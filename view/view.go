// Package view defines the domain model for BigQuery views: the
// fully-qualified Ref identifier and the boundary interfaces through which
// view metadata and lineage edges enter the importer.
package view

import (
	"context"
	"errors"
)

var (
	// ErrMalformedRef is returned when a string cannot be parsed into the
	// three-part "project.dataset.name" form.
	ErrMalformedRef = errors.New("malformed view reference")

	// ErrNotFound is returned when a view lookup fails because the object
	// does not exist.
	ErrNotFound = errors.New("view not found")

	// ErrNotAView is returned when an object exists but is not a view
	// (e.g. a base table or a materialized view).
	ErrNotAView = errors.New("object is not a view")
)

// Provider is implemented by lineage backends that can report the direct
// dependencies of a view. It is the only way dependency edges enter the
// importer; the importer never parses SQL to infer them.
type Provider interface {
	// Dependencies returns the set of tables/views that the definition of
	// ref directly references. A nil result means the view has no
	// dependencies and is not an error.
	Dependencies(ctx context.Context, ref Ref) ([]Ref, error)
}

// ProviderFunc adapts a plain function to the Provider interface.
type ProviderFunc func(ctx context.Context, ref Ref) ([]Ref, error)

// Dependencies implements Provider.
func (f ProviderFunc) Dependencies(ctx context.Context, ref Ref) ([]Ref, error) {
	return f(ctx, ref)
}

// Source is implemented by objects that can enumerate views and retrieve
// their definitions and schemas from a warehouse.
type Source interface {
	// ListViews returns the refs of all views in the given dataset, in
	// ascending name order.
	ListViews(ctx context.Context, project, dataset string) ([]Ref, error)

	// Definition returns the SQL body of the view.
	Definition(ctx context.Context, ref Ref) (string, error)

	// Schema returns the output columns of the view.
	Schema(ctx context.Context, ref Ref) ([]Column, error)

	// TableType returns the warehouse's type designation for the object,
	// e.g. "VIEW" or "BASE TABLE". Lookups of missing objects fail with an
	// error wrapping ErrNotFound.
	TableType(ctx context.Context, ref Ref) (string, error)
}

// TypeView is the TableType value that identifies a convertible view.
const TypeView = "VIEW"

// Column describes a single output column of a view.
type Column struct {
	// The column name.
	Name string

	// The warehouse type, e.g. "STRING" or "INT64".
	Type string

	// An optional human-readable description.
	Description string

	// The column mode, e.g. "NULLABLE", "REQUIRED" or "REPEATED".
	Mode string
}
