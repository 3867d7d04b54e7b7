package view

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseRoundTrip(t *testing.T) {
	// Parse followed by String must return the original input for any
	// well-formed lowercase reference.
	for _, s := range []string{
		"proj.dm_sales.revenue",
		"my-project.stg_core.orders_v2",
		"p.d.n",
	} {
		ref, err := Parse(s)
		if err != nil {
			t.Fatalf("failed to parse %q: %v", s, err)
		}
		if got := ref.String(); got != s {
			t.Errorf("round-trip mismatch: parsed %q, got back %q", s, got)
		}
	}
}

func TestParseNormalizesCase(t *testing.T) {
	upper, err := Parse("Proj.DM_Sales.Revenue")
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	lower := MustParse("proj.dm_sales.revenue")
	if upper != lower {
		t.Errorf("expected case-insensitive equality, got %v != %v", upper, lower)
	}
}

func TestParseMalformed(t *testing.T) {
	for _, s := range []string{
		"",
		"revenue",
		"dm_sales.revenue",
		"proj.dm_sales.revenue.extra",
		"proj..revenue",
		".dm_sales.revenue",
		"proj.dm_sales.",
	} {
		if _, err := Parse(s); !errors.Is(err, ErrMalformedRef) {
			t.Errorf("expected ErrMalformedRef for %q, got %v", s, err)
		}
	}
}

func TestParseWithProject(t *testing.T) {
	ref, err := ParseWithProject("dm_sales.revenue", "proj")
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	if want := MustParse("proj.dm_sales.revenue"); ref != want {
		t.Errorf("expected %v, got %v", want, ref)
	}

	// Three-part input keeps its own project.
	ref, err = ParseWithProject("other.dm_sales.revenue", "proj")
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	if ref.Project != "other" {
		t.Errorf("default project overrode an explicit one: %v", ref)
	}

	// A missing default project does not make two-part input valid.
	if _, err = ParseWithProject("dm_sales.revenue", ""); !errors.Is(err, ErrMalformedRef) {
		t.Errorf("expected ErrMalformedRef, got %v", err)
	}
}

func TestInDataset(t *testing.T) {
	ref := MustParse("proj.dm_sales.revenue")
	if !ref.InDataset("proj", "dm_sales") {
		t.Error("expected ref to be in proj.dm_sales")
	}
	if !ref.InDataset("PROJ", "DM_Sales") {
		t.Error("expected dataset membership to ignore case")
	}
	if ref.InDataset("proj", "dm_marketing") {
		t.Error("expected ref not to be in proj.dm_marketing")
	}
}

func TestSortRefs(t *testing.T) {
	refs := []Ref{
		MustParse("proj.ds.c"),
		MustParse("aaa.zzz.a"),
		MustParse("proj.ds.a"),
		MustParse("proj.ds.b"),
	}
	want := []Ref{
		MustParse("aaa.zzz.a"),
		MustParse("proj.ds.a"),
		MustParse("proj.ds.b"),
		MustParse("proj.ds.c"),
	}
	if got := SortRefs(refs); !cmp.Equal(got, want) {
		t.Errorf("unexpected order (-want +got):\n%s", cmp.Diff(want, got))
	}
}
