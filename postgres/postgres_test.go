package postgres

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/K-Oxon/dbt-view-importer/view"
)

func TestPostgresCatalog(t *testing.T) {
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("Missing PG_DSN env var; skipping postgres-backed catalog test suite")
	}

	catalog, err := NewCatalog(dsn)
	if err != nil {
		t.Fatalf("failed to create catalog: %v", err)
	}
	defer func() {
		flushDB(t, catalog.db)
		if err := catalog.Close(); err != nil {
			t.Errorf("failed to close catalog: %v", err)
		}
	}()

	seedDB(t, catalog.db)

	// The connected database is the "project" of every ref.
	var dbName string
	if err := catalog.db.QueryRow("SELECT current_database()").Scan(&dbName); err != nil {
		t.Fatalf("failed to read database name: %v", err)
	}

	ctx := context.Background()

	t.Run("List views", func(t *testing.T) {
		got, err := catalog.ListViews(ctx, dbName, "viewimport_test")
		if err != nil {
			t.Fatalf("failed to list views: %v", err)
		}
		want := []view.Ref{
			{Project: dbName, Dataset: "viewimport_test", Name: "order_totals"},
		}
		if !cmp.Equal(got, want) {
			t.Errorf("unexpected view list (-want +got):\n%s", cmp.Diff(want, got))
		}
	})

	t.Run("Table type", func(t *testing.T) {
		typ, err := catalog.TableType(ctx, view.Ref{Project: dbName, Dataset: "viewimport_test", Name: "orders"})
		if err != nil {
			t.Fatalf("failed to fetch table type: %v", err)
		}
		if typ != "BASE TABLE" {
			t.Errorf("expected BASE TABLE, got %q", typ)
		}
	})

	t.Run("Missing object", func(t *testing.T) {
		_, err := catalog.TableType(ctx, view.Ref{Project: dbName, Dataset: "viewimport_test", Name: "nope"})
		if !errors.Is(err, view.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Schema", func(t *testing.T) {
		columns, err := catalog.Schema(ctx, view.Ref{Project: dbName, Dataset: "viewimport_test", Name: "orders"})
		if err != nil {
			t.Fatalf("failed to fetch schema: %v", err)
		}
		want := []view.Column{
			{Name: "order_id", Type: "integer", Mode: "REQUIRED"},
			{Name: "amount", Type: "numeric", Mode: "NULLABLE"},
		}
		if !cmp.Equal(columns, want) {
			t.Errorf("unexpected schema (-want +got):\n%s", cmp.Diff(want, columns))
		}
	})

	t.Run("Dependencies", func(t *testing.T) {
		deps, err := catalog.Dependencies(ctx, view.Ref{Project: dbName, Dataset: "viewimport_test", Name: "order_totals"})
		if err != nil {
			t.Fatalf("failed to fetch dependencies: %v", err)
		}
		want := []view.Ref{
			{Project: dbName, Dataset: "viewimport_test", Name: "orders"},
		}
		if !cmp.Equal(deps, want) {
			t.Errorf("unexpected dependencies (-want +got):\n%s", cmp.Diff(want, deps))
		}
	})

	t.Run("Absent lineage means no dependencies", func(t *testing.T) {
		deps, err := catalog.Dependencies(ctx, view.Ref{Project: dbName, Dataset: "viewimport_test", Name: "orders"})
		if err != nil {
			t.Fatalf("absent lineage must not be an error, got: %v", err)
		}
		if len(deps) != 0 {
			t.Errorf("expected no dependencies, got %v", deps)
		}
	})
}

func seedDB(t *testing.T, db *sql.DB) {
	t.Helper()
	for _, stmt := range []string{
		"CREATE SCHEMA IF NOT EXISTS viewimport_test",
		"CREATE TABLE IF NOT EXISTS viewimport_test.orders (order_id integer NOT NULL, amount numeric)",
		"CREATE OR REPLACE VIEW viewimport_test.order_totals AS SELECT order_id, sum(amount) AS amount FROM viewimport_test.orders GROUP BY order_id",
	} {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("failed to seed database: %v", err)
		}
	}
}

func flushDB(t *testing.T, db *sql.DB) {
	t.Helper()
	if _, err := db.Exec("DROP SCHEMA IF EXISTS viewimport_test CASCADE"); err != nil {
		t.Fatalf("failed to drop test schema: %v", err)
	}
}
