package view

import (
	"fmt"
	"sort"
	"strings"
)

// Ref is the fully-qualified reference to a BigQuery view or table. Refs are
// normalized to lower case on construction so that two Refs naming the same
// object compare equal and can be used directly as map keys.
type Ref struct {
	// The project that owns the dataset.
	Project string

	// The dataset that contains the view.
	Dataset string

	// The view (or table) name.
	Name string
}

// Parse converts a "project.dataset.name" string into a Ref. It fails with
// an error wrapping ErrMalformedRef unless s splits into exactly three
// non-empty dot-separated components.
func Parse(s string) (Ref, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Ref{}, fmt.Errorf("parse view ref %q: %w", s, ErrMalformedRef)
	}
	for _, part := range parts {
		if part == "" {
			return Ref{}, fmt.Errorf("parse view ref %q: %w", s, ErrMalformedRef)
		}
	}

	return Ref{
		Project: strings.ToLower(parts[0]),
		Dataset: strings.ToLower(parts[1]),
		Name:    strings.ToLower(parts[2]),
	}, nil
}

// ParseWithProject behaves like Parse but also accepts the two-part
// "dataset.name" form, qualifying it with the provided default project.
func ParseWithProject(s, defaultProject string) (Ref, error) {
	if parts := strings.Split(s, "."); len(parts) == 2 && defaultProject != "" {
		return Parse(defaultProject + "." + s)
	}
	return Parse(s)
}

// MustParse is a Parse variant that panics on malformed input. It is intended
// for tests and fixtures with hard-coded references.
func MustParse(s string) Ref {
	ref, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return ref
}

// String returns the fully-qualified "project.dataset.name" form. For
// well-formed, already-lowercase input this is the exact inverse of Parse.
func (r Ref) String() string {
	return r.Project + "." + r.Dataset + "." + r.Name
}

// IsZero reports whether r is the zero Ref.
func (r Ref) IsZero() bool {
	return r == Ref{}
}

// InDataset reports whether r belongs to the given project and dataset.
func (r Ref) InDataset(project, dataset string) bool {
	return r.Project == strings.ToLower(project) && r.Dataset == strings.ToLower(dataset)
}

// SortRefs sorts the given slice in ascending order of the fully-qualified
// string form, in place, and returns it. The builder and sorter rely on this
// ordering to stay deterministic across runs.
func SortRefs(refs []Ref) []Ref {
	sort.Slice(refs, func(i, j int) bool {
		return refs[i].String() < refs[j].String()
	})
	return refs
}
