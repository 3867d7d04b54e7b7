// Package viewtest defines a re-usable acceptance suite that can be executed
// against any view.Source / view.Provider backend pair.
package viewtest

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/K-Oxon/dbt-view-importer/view"
)

// FixtureView describes one object of the canonical test catalog.
type FixtureView struct {
	Ref          view.Ref
	Type         string
	Definition   string
	Columns      []view.Column
	Dependencies []view.Ref
}

// Fixture returns the canonical catalog every backend under test must be
// seeded with before each test. The shape intentionally covers a dependency
// chain, a base table and a second dataset.
func Fixture() []FixtureView {
	return []FixtureView{
		{
			Ref:        view.MustParse("fixproj.dm_sales.revenue"),
			Type:       view.TypeView,
			Definition: "select order_id, amount from `fixproj.stg_core.orders`",
			Columns: []view.Column{
				{Name: "order_id", Type: "INT64", Mode: "REQUIRED"},
				{Name: "amount", Type: "NUMERIC", Description: "gross amount", Mode: "NULLABLE"},
			},
			Dependencies: []view.Ref{view.MustParse("fixproj.stg_core.orders")},
		},
		{
			Ref:        view.MustParse("fixproj.dm_sales.daily_summary"),
			Type:       view.TypeView,
			Definition: "select date, sum(amount) as amount from `fixproj.dm_sales.revenue` group by date",
			Columns: []view.Column{
				{Name: "date", Type: "DATE", Mode: "NULLABLE"},
				{Name: "amount", Type: "NUMERIC", Mode: "NULLABLE"},
			},
			Dependencies: []view.Ref{view.MustParse("fixproj.dm_sales.revenue")},
		},
		{
			Ref:        view.MustParse("fixproj.stg_core.orders"),
			Type:       view.TypeView,
			Definition: "select * from `fixproj.raw_core.orders_raw`",
			Columns: []view.Column{
				{Name: "order_id", Type: "INT64", Mode: "REQUIRED"},
			},
			Dependencies: []view.Ref{view.MustParse("fixproj.raw_core.orders_raw")},
		},
		{
			Ref:  view.MustParse("fixproj.raw_core.orders_raw"),
			Type: "BASE TABLE",
			Columns: []view.Column{
				{Name: "order_id", Type: "INT64", Mode: "REQUIRED"},
			},
		},
	}
}

// Suite defines a re-usable set of backend tests. BeforeEach must (re)load
// the Fixture catalog into the backend under test.
type Suite struct {
	Source   view.Source
	Provider view.Provider

	// Optional helper functions.
	BeforeEach func(*testing.T)
	AfterEach  func(*testing.T)
}

// TestBackend runs the whole suite as named subtests.
func (s *Suite) TestBackend(t *testing.T) {
	tests := []struct {
		name string
		fn   func(*testing.T, *Suite)
	}{
		{"List views", TestListViews},
		{"View definition", TestDefinition},
		{"View schema", TestSchema},
		{"Table type", TestTableType},
		{"Missing object", TestMissingObject},
		{"Dependencies", TestDependencies},
		{"Absent lineage means no dependencies", TestAbsentLineage},
	}

	if s.BeforeEach == nil {
		s.BeforeEach = func(t *testing.T) {}
	}

	if s.AfterEach == nil {
		s.AfterEach = func(t *testing.T) {}
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s.BeforeEach(t)
			test.fn(t, s)
			s.AfterEach(t)
		})
	}
}

// TestListViews verifies that only views are listed, in ascending order.
func TestListViews(t *testing.T, s *Suite) {
	got, err := s.Source.ListViews(context.Background(), "fixproj", "dm_sales")
	if err != nil {
		t.Fatalf("failed to list views: %v", err)
	}
	want := []view.Ref{
		view.MustParse("fixproj.dm_sales.daily_summary"),
		view.MustParse("fixproj.dm_sales.revenue"),
	}
	if !cmp.Equal(got, want) {
		t.Errorf("unexpected view list (-want +got):\n%s", cmp.Diff(want, got))
	}

	// The base table dataset holds no views at all.
	got, err = s.Source.ListViews(context.Background(), "fixproj", "raw_core")
	if err != nil {
		t.Fatalf("failed to list views: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no views in raw_core, got %v", got)
	}
}

// TestDefinition verifies SQL body retrieval.
func TestDefinition(t *testing.T, s *Suite) {
	got, err := s.Source.Definition(context.Background(), view.MustParse("fixproj.dm_sales.revenue"))
	if err != nil {
		t.Fatalf("failed to fetch definition: %v", err)
	}
	want := "select order_id, amount from `fixproj.stg_core.orders`"
	if got != want {
		t.Errorf("unexpected definition:\n got: %s\nwant: %s", got, want)
	}
}

// TestSchema verifies column metadata retrieval.
func TestSchema(t *testing.T, s *Suite) {
	got, err := s.Source.Schema(context.Background(), view.MustParse("fixproj.dm_sales.revenue"))
	if err != nil {
		t.Fatalf("failed to fetch schema: %v", err)
	}
	want := []view.Column{
		{Name: "order_id", Type: "INT64", Mode: "REQUIRED"},
		{Name: "amount", Type: "NUMERIC", Description: "gross amount", Mode: "NULLABLE"},
	}
	if !cmp.Equal(got, want) {
		t.Errorf("unexpected schema (-want +got):\n%s", cmp.Diff(want, got))
	}
}

// TestTableType verifies the view/table distinction.
func TestTableType(t *testing.T, s *Suite) {
	typ, err := s.Source.TableType(context.Background(), view.MustParse("fixproj.dm_sales.revenue"))
	if err != nil {
		t.Fatalf("failed to fetch table type: %v", err)
	}
	if typ != view.TypeView {
		t.Errorf("expected %q, got %q", view.TypeView, typ)
	}

	typ, err = s.Source.TableType(context.Background(), view.MustParse("fixproj.raw_core.orders_raw"))
	if err != nil {
		t.Fatalf("failed to fetch table type: %v", err)
	}
	if typ == view.TypeView {
		t.Error("base table reported as a view")
	}
}

// TestMissingObject verifies that lookups of absent objects fail with
// view.ErrNotFound.
func TestMissingObject(t *testing.T, s *Suite) {
	missing := view.MustParse("fixproj.dm_sales.does_not_exist")

	if _, err := s.Source.TableType(context.Background(), missing); !errors.Is(err, view.ErrNotFound) {
		t.Errorf("TableType: expected ErrNotFound, got %v", err)
	}
	if _, err := s.Source.Definition(context.Background(), missing); !errors.Is(err, view.ErrNotFound) {
		t.Errorf("Definition: expected ErrNotFound, got %v", err)
	}
	if _, err := s.Source.Schema(context.Background(), missing); !errors.Is(err, view.ErrNotFound) {
		t.Errorf("Schema: expected ErrNotFound, got %v", err)
	}
}

// TestDependencies verifies direct lineage retrieval.
func TestDependencies(t *testing.T, s *Suite) {
	got, err := s.Provider.Dependencies(context.Background(), view.MustParse("fixproj.dm_sales.daily_summary"))
	if err != nil {
		t.Fatalf("failed to fetch dependencies: %v", err)
	}
	want := []view.Ref{view.MustParse("fixproj.dm_sales.revenue")}
	if !cmp.Equal(view.SortRefs(got), want) {
		t.Errorf("unexpected dependencies (-want +got):\n%s", cmp.Diff(want, got))
	}
}

// TestAbsentLineage verifies that a view without recorded lineage yields no
// dependencies rather than an error.
func TestAbsentLineage(t *testing.T, s *Suite) {
	deps, err := s.Provider.Dependencies(context.Background(), view.MustParse("fixproj.raw_core.orders_raw"))
	if err != nil {
		t.Fatalf("absent lineage must not be an error, got: %v", err)
	}
	if len(deps) != 0 {
		t.Errorf("expected no dependencies, got %v", deps)
	}
}
