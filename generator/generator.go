// Package generator renders resolved views into dbt model files: a .sql
// file carrying the view definition and a .yml sidecar carrying the model
// schema.
package generator

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/juju/clock"
	"gopkg.in/yaml.v3"

	"github.com/K-Oxon/dbt-view-importer/naming"
	"github.com/K-Oxon/dbt-view-importer/view"
)

// defaultSQLTemplate produces the .sql model body. The header records where
// the model came from so a later re-import can be traced.
const defaultSQLTemplate = `-- dbt model {{.ModelName}}
-- imported from {{.SourceView}} at {{.ImportedAt}}

{{.SQLDefinition}}
`

// Config carries the settings for a model generator.
type Config struct {
	// OutputDir is the directory model files are written to. It must exist.
	OutputDir string

	// Preset selects the model naming strategy.
	Preset naming.Preset

	// SQLTemplatePath optionally overrides the built-in .sql template.
	SQLTemplatePath string

	// YMLTemplatePath optionally overrides the structured .yml rendering
	// with a custom template.
	YMLTemplatePath string

	// YMLPrefix is prepended to .yml file names, producing dbt's
	// "_model.yml" sidecar convention when set to "_".
	YMLPrefix string

	// Clock supplies the import timestamp rendered into headers. Defaults
	// to the wall clock.
	Clock clock.Clock
}

// Model is the rendered output for a single view, not yet written to disk.
type Model struct {
	Ref        view.Ref
	ModelName  string
	SQLFile    string
	YMLFile    string
	SQLContent string
	YMLContent string
}

// Generator renders and writes dbt model files.
type Generator struct {
	cfg     Config
	sqlTmpl *template.Template
	ymlTmpl *template.Template
}

// New creates a generator, loading any custom templates up front so a bad
// template path fails before the first view is converted.
func New(cfg Config) (*Generator, error) {
	if cfg.OutputDir == "" {
		return nil, fmt.Errorf("generator: output directory must be specified")
	}
	if cfg.Preset == "" {
		cfg.Preset = naming.DefaultPreset
	}
	if err := cfg.Preset.Validate(); err != nil {
		return nil, fmt.Errorf("generator: %w", err)
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.WallClock
	}

	g := &Generator{cfg: cfg}

	var err error
	if g.sqlTmpl, err = loadTemplate("sql", cfg.SQLTemplatePath, defaultSQLTemplate); err != nil {
		return nil, err
	}
	if cfg.YMLTemplatePath != "" {
		if g.ymlTmpl, err = loadTemplate("yml", cfg.YMLTemplatePath, ""); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func loadTemplate(name, path, fallback string) (*template.Template, error) {
	text := fallback
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("generator: read %s template: %w", name, err)
		}
		text = string(raw)
	}
	tmpl, err := template.New(name).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("generator: parse %s template: %w", name, err)
	}
	return tmpl, nil
}

// templateVars are the bindings exposed to sql and yml templates.
type templateVars struct {
	SourceView    string
	ModelName     string
	SQLDefinition string
	Description   string
	Columns       []view.Column
	ImportedAt    string
}

// Render produces the model files for a view without touching the file
// system.
func (g *Generator) Render(ref view.Ref, definition, description string, columns []view.Column) (*Model, error) {
	vars := templateVars{
		SourceView:    ref.String(),
		ModelName:     naming.ModelName(ref, g.cfg.Preset),
		SQLDefinition: definition,
		Description:   description,
		Columns:       columns,
		ImportedAt:    g.cfg.Clock.Now().UTC().Format("2006-01-02 15:04:05"),
	}

	var sqlBuf bytes.Buffer
	if err := g.sqlTmpl.Execute(&sqlBuf, vars); err != nil {
		return nil, fmt.Errorf("render sql model for %s: %w", ref, err)
	}

	ymlContent, err := g.renderYML(ref, vars)
	if err != nil {
		return nil, err
	}

	return &Model{
		Ref:        ref,
		ModelName:  vars.ModelName,
		SQLFile:    naming.FileName(ref, g.cfg.Preset, "sql", ""),
		YMLFile:    naming.FileName(ref, g.cfg.Preset, "yml", g.cfg.YMLPrefix),
		SQLContent: sqlBuf.String(),
		YMLContent: ymlContent,
	}, nil
}

func (g *Generator) renderYML(ref view.Ref, vars templateVars) (string, error) {
	if g.ymlTmpl != nil {
		var buf bytes.Buffer
		if err := g.ymlTmpl.Execute(&buf, vars); err != nil {
			return "", fmt.Errorf("render yml model for %s: %w", ref, err)
		}
		return buf.String(), nil
	}

	type columnEntry struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description,omitempty"`
		DataType    string `yaml:"data_type,omitempty"`
	}
	type modelEntry struct {
		Name        string        `yaml:"name"`
		Description string        `yaml:"description,omitempty"`
		Columns     []columnEntry `yaml:"columns,omitempty"`
	}

	model := modelEntry{Name: vars.ModelName, Description: vars.Description}
	for _, col := range vars.Columns {
		model.Columns = append(model.Columns, columnEntry{
			Name:        col.Name,
			Description: col.Description,
			DataType:    col.Type,
		})
	}

	raw, err := yaml.Marshal(struct {
		Version int          `yaml:"version"`
		Models  []modelEntry `yaml:"models"`
	}{Version: 2, Models: []modelEntry{model}})
	if err != nil {
		return "", fmt.Errorf("render yml model for %s: %w", ref, err)
	}
	return string(raw), nil
}

// SQLPath returns the output path of the .sql file for ref.
func (g *Generator) SQLPath(ref view.Ref) string {
	return filepath.Join(g.cfg.OutputDir, naming.FileName(ref, g.cfg.Preset, "sql", ""))
}

// YMLPath returns the output path of the .yml sidecar for ref.
func (g *Generator) YMLPath(ref view.Ref) string {
	return filepath.Join(g.cfg.OutputDir, naming.FileName(ref, g.cfg.Preset, "yml", g.cfg.YMLPrefix))
}

// Exists reports whether either output file for ref is already present.
func (g *Generator) Exists(ref view.Ref) (sqlExists, ymlExists bool) {
	if _, err := os.Stat(g.SQLPath(ref)); err == nil {
		sqlExists = true
	}
	if _, err := os.Stat(g.YMLPath(ref)); err == nil {
		ymlExists = true
	}
	return sqlExists, ymlExists
}

// Write persists both files of a rendered model to the output directory.
func (g *Generator) Write(m *Model) error {
	if err := os.WriteFile(g.SQLPath(m.Ref), []byte(m.SQLContent), 0o644); err != nil {
		return fmt.Errorf("write sql model for %s: %w", m.Ref, err)
	}
	if err := os.WriteFile(g.YMLPath(m.Ref), []byte(m.YMLContent), 0o644); err != nil {
		return fmt.Errorf("write yml model for %s: %w", m.Ref, err)
	}
	return nil
}
