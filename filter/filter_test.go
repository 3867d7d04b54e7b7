package filter_test

import (
	"errors"
	"testing"

	gc "gopkg.in/check.v1"

	"github.com/K-Oxon/dbt-view-importer/filter"
	"github.com/K-Oxon/dbt-view-importer/view"
)

func Test(t *testing.T) {
	// Run all gocheck test-suites
	gc.TestingT(t)
}

var _ = gc.Suite(&FilterSuite{})

type FilterSuite struct {
	refs []view.Ref
}

func (s *FilterSuite) SetUpTest(c *gc.C) {
	s.refs = []view.Ref{
		view.MustParse("proj.ds.orders"),
		view.MustParse("proj.ds.temp_foo"),
		view.MustParse("proj.ds.temp_bar"),
		view.MustParse("other.stg_core.orders"),
	}
}

func (s *FilterSuite) TestNoPatternsKeepsAll(c *gc.C) {
	got, err := filter.Apply(s.refs, nil, nil)
	c.Assert(err, gc.IsNil)
	c.Assert(got, gc.DeepEquals, s.refs)
}

func (s *FilterSuite) TestExcludeWinsOverInclude(c *gc.C) {
	// temp_foo matches the include wildcard but must still be dropped.
	got, err := filter.Apply(s.refs, []string{"*"}, []string{"temp_*"})
	c.Assert(err, gc.IsNil)
	c.Assert(got, gc.DeepEquals, []view.Ref{
		view.MustParse("proj.ds.orders"),
		view.MustParse("other.stg_core.orders"),
	})
}

func (s *FilterSuite) TestBarePatternMatchesNameOnly(c *gc.C) {
	got, err := filter.Apply(s.refs, []string{"orders"}, nil)
	c.Assert(err, gc.IsNil)
	// Both datasets contain an "orders" view; a bare pattern keeps both.
	c.Assert(got, gc.DeepEquals, []view.Ref{
		view.MustParse("proj.ds.orders"),
		view.MustParse("other.stg_core.orders"),
	})
}

func (s *FilterSuite) TestQualifiedPatternMatchesFullName(c *gc.C) {
	got, err := filter.Apply(s.refs, []string{"proj.ds.*"}, nil)
	c.Assert(err, gc.IsNil)
	c.Assert(got, gc.DeepEquals, []view.Ref{
		view.MustParse("proj.ds.orders"),
		view.MustParse("proj.ds.temp_foo"),
		view.MustParse("proj.ds.temp_bar"),
	})
}

func (s *FilterSuite) TestQuestionMarkWildcard(c *gc.C) {
	got, err := filter.Apply(s.refs, []string{"temp_?oo"}, nil)
	c.Assert(err, gc.IsNil)
	c.Assert(got, gc.DeepEquals, []view.Ref{view.MustParse("proj.ds.temp_foo")})
}

func (s *FilterSuite) TestIdempotence(c *gc.C) {
	f, err := filter.New([]string{"*"}, []string{"temp_*"})
	c.Assert(err, gc.IsNil)

	once := f.Apply(s.refs)
	twice := f.Apply(once)
	c.Assert(twice, gc.DeepEquals, once)
}

func (s *FilterSuite) TestEmptyInput(c *gc.C) {
	got, err := filter.Apply(nil, []string{"*"}, []string{"temp_*"})
	c.Assert(err, gc.IsNil)
	c.Assert(got, gc.HasLen, 0)
}

func (s *FilterSuite) TestMalformedPatternFailsFast(c *gc.C) {
	_, err := filter.Apply(s.refs, []string{"orders", "[unterminated"}, nil)
	c.Assert(err, gc.NotNil)

	var malformed *filter.MalformedPatternError
	c.Assert(errors.As(err, &malformed), gc.Equals, true)
	c.Assert(malformed.Pattern, gc.Equals, "[unterminated")
	c.Assert(err, gc.ErrorMatches, `malformed filter pattern .*`)
}

func (s *FilterSuite) TestMalformedExcludeFailsFast(c *gc.C) {
	_, err := filter.Apply(s.refs, nil, []string{"[bad"})
	var malformed *filter.MalformedPatternError
	c.Assert(errors.As(err, &malformed), gc.Equals, true)
}
