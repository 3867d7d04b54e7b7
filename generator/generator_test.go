package generator

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	gc "gopkg.in/check.v1"
	"gopkg.in/yaml.v3"

	"github.com/K-Oxon/dbt-view-importer/naming"
	"github.com/K-Oxon/dbt-view-importer/view"
)

func Test(t *testing.T) { gc.TestingT(t) }

var _ = gc.Suite(new(GeneratorSuite))

type GeneratorSuite struct {
	dir   string
	clock *testclock.Clock
}

func (s *GeneratorSuite) SetUpTest(c *gc.C) {
	s.dir = c.MkDir()
	s.clock = testclock.NewClock(time.Date(2023, 11, 5, 12, 30, 0, 0, time.UTC))
}

func (s *GeneratorSuite) newGenerator(c *gc.C, cfg Config) *Generator {
	if cfg.OutputDir == "" {
		cfg.OutputDir = s.dir
	}
	cfg.Clock = s.clock
	g, err := New(cfg)
	c.Assert(err, gc.IsNil)
	return g
}

func (s *GeneratorSuite) TestRenderSQL(c *gc.C) {
	g := s.newGenerator(c, Config{})

	ref := view.MustParse("analytics.dm_sales.revenue")
	model, err := g.Render(ref, "SELECT 1 AS one", "", nil)
	c.Assert(err, gc.IsNil)

	c.Assert(model.ModelName, gc.Equals, "dm_sales__revenue")
	c.Assert(model.SQLFile, gc.Equals, "dm_sales__revenue.sql")
	c.Assert(model.SQLContent, gc.Equals, `-- dbt model dm_sales__revenue
-- imported from analytics.dm_sales.revenue at 2023-11-05 12:30:00

SELECT 1 AS one
`)
}

func (s *GeneratorSuite) TestRenderYML(c *gc.C) {
	g := s.newGenerator(c, Config{})

	ref := view.MustParse("analytics.dm_sales.revenue")
	columns := []view.Column{
		{Name: "day", Type: "DATE", Description: "Sale date"},
		{Name: "amount", Type: "NUMERIC"},
	}
	model, err := g.Render(ref, "SELECT 1", "Daily revenue", columns)
	c.Assert(err, gc.IsNil)

	var doc struct {
		Version int `yaml:"version"`
		Models  []struct {
			Name        string `yaml:"name"`
			Description string `yaml:"description"`
			Columns     []struct {
				Name        string `yaml:"name"`
				Description string `yaml:"description"`
				DataType    string `yaml:"data_type"`
			} `yaml:"columns"`
		} `yaml:"models"`
	}
	c.Assert(yaml.Unmarshal([]byte(model.YMLContent), &doc), gc.IsNil)
	c.Assert(doc.Version, gc.Equals, 2)
	c.Assert(doc.Models, gc.HasLen, 1)
	c.Assert(doc.Models[0].Name, gc.Equals, "dm_sales__revenue")
	c.Assert(doc.Models[0].Description, gc.Equals, "Daily revenue")
	c.Assert(doc.Models[0].Columns, gc.HasLen, 2)
	c.Assert(doc.Models[0].Columns[0].Name, gc.Equals, "day")
	c.Assert(doc.Models[0].Columns[0].DataType, gc.Equals, "DATE")
	c.Assert(doc.Models[0].Columns[1].Description, gc.Equals, "")
}

func (s *GeneratorSuite) TestYMLPrefix(c *gc.C) {
	g := s.newGenerator(c, Config{YMLPrefix: "_"})

	ref := view.MustParse("analytics.dm_sales.revenue")
	model, err := g.Render(ref, "SELECT 1", "", nil)
	c.Assert(err, gc.IsNil)
	c.Assert(model.YMLFile, gc.Equals, "_dm_sales__revenue.yml")
	c.Assert(model.SQLFile, gc.Equals, "dm_sales__revenue.sql")
}

func (s *GeneratorSuite) TestZeroPresetDefaultsToFull(c *gc.C) {
	g, err := New(Config{OutputDir: s.dir})
	c.Assert(err, gc.IsNil)

	model, err := g.Render(view.MustParse("analytics.dm_sales.revenue"), "SELECT 1", "", nil)
	c.Assert(err, gc.IsNil)
	c.Assert(model.ModelName, gc.Equals, "dm_sales__revenue")
	c.Assert(model.SQLFile, gc.Equals, "dm_sales__revenue.sql")
}

func (s *GeneratorSuite) TestTableOnlyPreset(c *gc.C) {
	g := s.newGenerator(c, Config{Preset: naming.PresetTableOnly})

	model, err := g.Render(view.MustParse("analytics.dm_sales.revenue"), "SELECT 1", "", nil)
	c.Assert(err, gc.IsNil)
	c.Assert(model.ModelName, gc.Equals, "revenue")
	c.Assert(model.SQLFile, gc.Equals, "revenue.sql")
}

func (s *GeneratorSuite) TestCustomSQLTemplate(c *gc.C) {
	tmplPath := filepath.Join(c.MkDir(), "model.sql.tmpl")
	err := os.WriteFile(tmplPath, []byte("/* {{.SourceView}} */\n{{.SQLDefinition}}\n"), 0o644)
	c.Assert(err, gc.IsNil)

	g := s.newGenerator(c, Config{SQLTemplatePath: tmplPath})
	model, err := g.Render(view.MustParse("analytics.dm_sales.revenue"), "SELECT 2", "", nil)
	c.Assert(err, gc.IsNil)
	c.Assert(model.SQLContent, gc.Equals, "/* analytics.dm_sales.revenue */\nSELECT 2\n")
}

func (s *GeneratorSuite) TestCustomYMLTemplate(c *gc.C) {
	tmplPath := filepath.Join(c.MkDir(), "model.yml.tmpl")
	err := os.WriteFile(tmplPath, []byte("version: 2\nmodels:\n  - name: {{.ModelName}}\n"), 0o644)
	c.Assert(err, gc.IsNil)

	g := s.newGenerator(c, Config{YMLTemplatePath: tmplPath})
	model, err := g.Render(view.MustParse("analytics.dm_sales.revenue"), "SELECT 1", "", nil)
	c.Assert(err, gc.IsNil)
	c.Assert(model.YMLContent, gc.Equals, "version: 2\nmodels:\n  - name: dm_sales__revenue\n")
}

func (s *GeneratorSuite) TestMissingTemplateFailsFast(c *gc.C) {
	_, err := New(Config{OutputDir: s.dir, SQLTemplatePath: filepath.Join(s.dir, "nope.tmpl")})
	c.Assert(err, gc.NotNil)
}

func (s *GeneratorSuite) TestInvalidPresetFailsFast(c *gc.C) {
	_, err := New(Config{OutputDir: s.dir, Preset: naming.Preset("bogus")})
	c.Assert(err, gc.NotNil)
}

func (s *GeneratorSuite) TestWriteAndExists(c *gc.C) {
	g := s.newGenerator(c, Config{})

	ref := view.MustParse("analytics.dm_sales.revenue")
	sqlExists, ymlExists := g.Exists(ref)
	c.Assert(sqlExists, gc.Equals, false)
	c.Assert(ymlExists, gc.Equals, false)

	model, err := g.Render(ref, "SELECT 1", "", nil)
	c.Assert(err, gc.IsNil)
	c.Assert(g.Write(model), gc.IsNil)

	sqlExists, ymlExists = g.Exists(ref)
	c.Assert(sqlExists, gc.Equals, true)
	c.Assert(ymlExists, gc.Equals, true)

	raw, err := os.ReadFile(g.SQLPath(ref))
	c.Assert(err, gc.IsNil)
	c.Assert(string(raw), gc.Equals, model.SQLContent)
}
