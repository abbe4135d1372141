package utils

import (
	"gopkg.in/check.v1"
)

type ParseSuite struct{}

var _ = check.Suite(&ParseSuite{})

func (s *ParseSuite) TestParseTags(c *check.C) {
	type testCase struct {
		in       string
		outTags  map[string]string
		outError bool
	}
	testCases := []testCase{
		{
			in:      "Persistent=true,AutoAttach=true",
			outTags: map[string]string{"Persistent": "true", "AutoAttach": "true"},
		},
		{
			in:      " Name = saves , ",
			outTags: map[string]string{"Name": "saves"},
		},
		{
			in:      "Query=a=b",
			outTags: map[string]string{"Query": "a=b"},
		},
		{
			in:      "",
			outTags: map[string]string{},
		},
		{
			in:       "Persistent",
			outError: true,
		},
		{
			in:       "=true",
			outError: true,
		},
	}
	for _, tc := range testCases {
		out, err := ParseTags(tc.in)
		if tc.outError {
			c.Assert(err, check.NotNil)
			c.Assert(out, check.IsNil)
		} else {
			c.Assert(err, check.IsNil)
			c.Assert(out, check.DeepEquals, tc.outTags, check.Commentf(tc.in))
		}
	}
}

func (s *ParseSuite) TestFormatTags(c *check.C) {
	c.Assert(FormatTags(map[string]string{"b": "2", "a": "1"}), check.Equals, "a=1,b=2")
	c.Assert(FormatTags(nil), check.Equals, "")
}
