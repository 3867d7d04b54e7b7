package inmem

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/K-Oxon/dbt-view-importer/view"
)

// fixtureFile is the on-disk shape of a static catalog fixture.
type fixtureFile struct {
	Views []fixtureView `yaml:"views"`
}

type fixtureView struct {
	Name       string          `yaml:"name"`
	Type       string          `yaml:"type"`
	Definition string          `yaml:"definition"`
	Columns    []fixtureColumn `yaml:"columns"`
	DependsOn  []string        `yaml:"depends_on"`
}

type fixtureColumn struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Description string `yaml:"description"`
	Mode        string `yaml:"mode"`
}

// LoadCatalog reads a YAML catalog fixture and returns the populated
// in-memory catalog. Fixture files let the importer run against a recorded
// catalog instead of a live warehouse.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var file fixtureFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode catalog fixture: %w", err)
	}

	catalog := NewCatalog()
	for _, fv := range file.Views {
		ref, err := view.Parse(fv.Name)
		if err != nil {
			return nil, fmt.Errorf("catalog fixture: %w", err)
		}

		var deps []view.Ref
		for _, dep := range fv.DependsOn {
			depRef, err := view.Parse(dep)
			if err != nil {
				return nil, fmt.Errorf("catalog fixture, depends_on of %s: %w", ref, err)
			}
			deps = append(deps, depRef)
		}

		columns := make([]view.Column, 0, len(fv.Columns))
		for _, col := range fv.Columns {
			columns = append(columns, view.Column{
				Name:        col.Name,
				Type:        col.Type,
				Description: col.Description,
				Mode:        col.Mode,
			})
		}

		catalog.Upsert(View{
			Ref:          ref,
			Type:         fv.Type,
			Definition:   fv.Definition,
			Columns:      columns,
			Dependencies: deps,
		})
	}
	return catalog, nil
}

// LoadCatalogFile is a LoadCatalog convenience reading from a file path.
func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog fixture: %w", err)
	}
	defer f.Close()
	return LoadCatalog(f)
}
