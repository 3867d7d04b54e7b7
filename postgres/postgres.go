// Package postgres provides a view.Source and view.Provider backed by a
// PostgreSQL database. View metadata comes from information_schema and
// lineage edges from information_schema.view_table_usage, which Postgres
// maintains itself; no SQL parsing is involved.
package postgres

import (
	"context"
	"database/sql"
	"strings"

	// Register the postgres driver.
	_ "github.com/lib/pq"
	"golang.org/x/xerrors"

	"github.com/K-Oxon/dbt-view-importer/view"
)

// Compile-time checks for ensuring Catalog implements Source and Provider.
var (
	_ view.Source   = (*Catalog)(nil)
	_ view.Provider = (*Catalog)(nil)
)

const (
	listViewsQuery = `
SELECT table_name FROM information_schema.views
WHERE table_catalog=$1 AND table_schema=$2
ORDER BY table_name`

	definitionQuery = `
SELECT view_definition FROM information_schema.views
WHERE table_catalog=$1 AND table_schema=$2 AND table_name=$3`

	schemaQuery = `
SELECT column_name, data_type, is_nullable
FROM information_schema.columns
WHERE table_catalog=$1 AND table_schema=$2 AND table_name=$3
ORDER BY ordinal_position`

	tableTypeQuery = `
SELECT table_type FROM information_schema.tables
WHERE table_catalog=$1 AND table_schema=$2 AND table_name=$3`

	dependenciesQuery = `
SELECT DISTINCT table_catalog, table_schema, table_name
FROM information_schema.view_table_usage
WHERE view_catalog=$1 AND view_schema=$2 AND view_name=$3
ORDER BY table_catalog, table_schema, table_name`
)

// Catalog reads view metadata and lineage from a Postgres database. In the
// three-part reference form the project maps to the database (catalog) and
// the dataset to the schema.
type Catalog struct {
	db *sql.DB
}

// NewCatalog opens a connection to the database with the given DSN.
func NewCatalog(dsn string) (*Catalog, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, xerrors.Errorf("open postgres catalog: %w", err)
	}
	return &Catalog{db: db}, nil
}

// Close releases the underlying connection pool.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// ListViews implements view.Source.
func (c *Catalog) ListViews(ctx context.Context, project, dataset string) ([]view.Ref, error) {
	rows, err := c.db.QueryContext(ctx, listViewsQuery, project, dataset)
	if err != nil {
		return nil, xerrors.Errorf("list views in %s.%s: %w", project, dataset, err)
	}
	defer rows.Close()

	var refs []view.Ref
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, xerrors.Errorf("list views in %s.%s: %w", project, dataset, err)
		}
		refs = append(refs, view.Ref{
			Project: strings.ToLower(project),
			Dataset: strings.ToLower(dataset),
			Name:    strings.ToLower(name),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, xerrors.Errorf("list views in %s.%s: %w", project, dataset, err)
	}
	return refs, nil
}

// Definition implements view.Source.
func (c *Catalog) Definition(ctx context.Context, ref view.Ref) (string, error) {
	var definition sql.NullString
	err := c.db.QueryRowContext(ctx, definitionQuery, ref.Project, ref.Dataset, ref.Name).Scan(&definition)
	if err == sql.ErrNoRows {
		return "", xerrors.Errorf("definition of %s: %w", ref, view.ErrNotFound)
	}
	if err != nil {
		return "", xerrors.Errorf("definition of %s: %w", ref, err)
	}
	return definition.String, nil
}

// Schema implements view.Source.
func (c *Catalog) Schema(ctx context.Context, ref view.Ref) ([]view.Column, error) {
	rows, err := c.db.QueryContext(ctx, schemaQuery, ref.Project, ref.Dataset, ref.Name)
	if err != nil {
		return nil, xerrors.Errorf("schema of %s: %w", ref, err)
	}
	defer rows.Close()

	var columns []view.Column
	for rows.Next() {
		var name, dataType, nullable string
		if err := rows.Scan(&name, &dataType, &nullable); err != nil {
			return nil, xerrors.Errorf("schema of %s: %w", ref, err)
		}
		mode := "NULLABLE"
		if nullable == "NO" {
			mode = "REQUIRED"
		}
		columns = append(columns, view.Column{Name: name, Type: dataType, Mode: mode})
	}
	if err := rows.Err(); err != nil {
		return nil, xerrors.Errorf("schema of %s: %w", ref, err)
	}
	if len(columns) == 0 {
		return nil, xerrors.Errorf("schema of %s: %w", ref, view.ErrNotFound)
	}
	return columns, nil
}

// TableType implements view.Source.
func (c *Catalog) TableType(ctx context.Context, ref view.Ref) (string, error) {
	var tableType string
	err := c.db.QueryRowContext(ctx, tableTypeQuery, ref.Project, ref.Dataset, ref.Name).Scan(&tableType)
	if err == sql.ErrNoRows {
		return "", xerrors.Errorf("table type of %s: %w", ref, view.ErrNotFound)
	}
	if err != nil {
		return "", xerrors.Errorf("table type of %s: %w", ref, err)
	}
	return tableType, nil
}

// Dependencies implements view.Provider. A view without recorded usage rows
// simply has no dependencies.
func (c *Catalog) Dependencies(ctx context.Context, ref view.Ref) ([]view.Ref, error) {
	rows, err := c.db.QueryContext(ctx, dependenciesQuery, ref.Project, ref.Dataset, ref.Name)
	if err != nil {
		return nil, xerrors.Errorf("dependencies of %s: %w", ref, err)
	}
	defer rows.Close()

	var deps []view.Ref
	for rows.Next() {
		var catalog, schema, name string
		if err := rows.Scan(&catalog, &schema, &name); err != nil {
			return nil, xerrors.Errorf("dependencies of %s: %w", ref, err)
		}
		deps = append(deps, view.Ref{
			Project: strings.ToLower(catalog),
			Dataset: strings.ToLower(schema),
			Name:    strings.ToLower(name),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, xerrors.Errorf("dependencies of %s: %w", ref, err)
	}
	return deps, nil
}
