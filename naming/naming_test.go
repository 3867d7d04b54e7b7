package naming_test

import (
	"testing"

	gc "gopkg.in/check.v1"

	"github.com/K-Oxon/dbt-view-importer/naming"
	"github.com/K-Oxon/dbt-view-importer/view"
)

func Test(t *testing.T) {
	// Run all gocheck test-suites
	gc.TestingT(t)
}

var _ = gc.Suite(&NamingSuite{})

type NamingSuite struct{}

func (s *NamingSuite) TestPresets(c *gc.C) {
	ref := view.MustParse("proj.dm_sales.revenue")

	c.Check(naming.ModelName(ref, naming.PresetFull), gc.Equals, "dm_sales__revenue")
	c.Check(naming.ModelName(ref, naming.PresetTableOnly), gc.Equals, "revenue")
	c.Check(naming.ModelName(ref, naming.PresetDatasetWithoutPrefix), gc.Equals, "sales__revenue")
}

func (s *NamingSuite) TestDatasetWithoutSeparatorDegradesToFull(c *gc.C) {
	ref := view.MustParse("proj.sales.revenue")
	c.Check(naming.ModelName(ref, naming.PresetDatasetWithoutPrefix), gc.Equals, "sales__revenue")
}

func (s *NamingSuite) TestDatasetWithTrailingSeparator(c *gc.C) {
	// "sales_" has a separator but nothing after it; degrade to full.
	ref := view.Ref{Project: "proj", Dataset: "sales_", Name: "revenue"}
	c.Check(naming.ModelName(ref, naming.PresetDatasetWithoutPrefix), gc.Equals, "sales___revenue")
}

func (s *NamingSuite) TestDatasetWithMultipleSeparators(c *gc.C) {
	// Only the first segment is treated as the layer prefix.
	ref := view.MustParse("proj.dm_sales_emea.revenue")
	c.Check(naming.ModelName(ref, naming.PresetDatasetWithoutPrefix), gc.Equals, "sales_emea__revenue")
}

func (s *NamingSuite) TestUnknownPresetDegradesToFull(c *gc.C) {
	ref := view.MustParse("proj.dm_sales.revenue")
	c.Check(naming.ModelName(ref, naming.Preset("bogus")), gc.Equals, "dm_sales__revenue")
}

func (s *NamingSuite) TestFileName(c *gc.C) {
	ref := view.MustParse("proj.dm_sales.revenue")

	c.Check(naming.FileName(ref, naming.PresetFull, "sql", ""), gc.Equals, "dm_sales__revenue.sql")
	c.Check(naming.FileName(ref, naming.PresetFull, "yml", ""), gc.Equals, "dm_sales__revenue.yml")
	c.Check(naming.FileName(ref, naming.PresetFull, "yml", "_"), gc.Equals, "_dm_sales__revenue.yml")
	// The prefix only applies to yml sidecars.
	c.Check(naming.FileName(ref, naming.PresetFull, "sql", "_"), gc.Equals, "dm_sales__revenue.sql")
}

func (s *NamingSuite) TestValidate(c *gc.C) {
	c.Check(naming.PresetFull.Validate(), gc.IsNil)
	c.Check(naming.PresetTableOnly.Validate(), gc.IsNil)
	c.Check(naming.PresetDatasetWithoutPrefix.Validate(), gc.IsNil)

	err := naming.Preset("snake").Validate()
	c.Assert(err, gc.NotNil)
	c.Check(err, gc.ErrorMatches, `unsupported naming preset "snake".*`)
}
