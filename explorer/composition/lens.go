package composition

import (
	"strconv"

	"golang.org/x/exp/slices"
)

const (
	Daily     = "daily"
	Weekly    = "weekly"
	Monthly   = "monthly"
	Quarterly = "quarterly"
	Yearly    = "yearly"
	Rolling   = "rolling"
)

var Granularities = []string{Daily, Weekly, Monthly, Quarterly, Yearly, Rolling}

// GranularityUnit maps a calendar granularity to its snap unit.
var GranularityUnit = map[string]string{
	Daily:     "D",
	Weekly:    "W",
	Monthly:   "M",
	Quarterly: "Q",
	Yearly:    "Y",
}

const (
	MaxGroups             = 2
	MaxComparisons        = 1
	MinRollingWindow      = 2 * 86400
	MinCumeWindow         = 12 * 3600
	rollingWindowMultiple = 86400
	cumeWindowMultiple    = 60
)

func validateGroupCount(c *Composition, v *validation, max int) {
	if len(c.groups) > max {
		v.errs.Add("groups", TooMany)
	}
}

// validateWindow parses the window and checks its minimum and multiple.
func validateWindow(c *Composition, v *validation, min int64, multiple int64) {
	c.windowSecs = 0
	if c.window == "" {
		v.errs.Add("window", Blank)
		return
	}
	n, err := strconv.ParseInt(c.window, 10, 64)
	if err != nil {
		v.errs.Add("window", NotNumeric, c.window)
		return
	}
	if n < min {
		v.errs.Add("window", TooShort)
	}
	if n%multiple != 0 {
		v.errs.Add("window", NotWhole)
	}
	c.windowSecs = n
}

func rejectComparisons(c *Composition, v *validation) {
	for _, cmp := range c.comparisons {
		v.errs.Add(cmp.field(), Present)
	}
}

type dimensionalRules struct{}

func (dimensionalRules) validate(c *Composition, v *validation) {
	validateGroupCount(c, v, MaxGroups)
	if c.granularity != "" {
		v.errs.Add("granularity", Present)
	}
	if c.window != "" {
		v.errs.Add("window", Present)
	}
	rejectComparisons(c, v)
}

type timeSeriesRules struct{}

func (timeSeriesRules) validate(c *Composition, v *validation) {
	validateGroupCount(c, v, MaxGroups)
	switch {
	case c.granularity == "":
		v.errs.Add("granularity", Blank)
	case !slices.Contains(Granularities, c.granularity):
		v.errs.Add("granularity", Inclusion, c.granularity)
	case c.granularity == Rolling:
		validateWindow(c, v, MinRollingWindow, rollingWindowMultiple)
	case c.window != "":
		v.errs.Add("window", Present)
	}

	if len(c.comparisons) > MaxComparisons {
		v.errs.Add("compare", TooMany)
	}
	seen := map[Period]bool{}
	for _, cmp := range c.comparisons {
		if seen[cmp.Period] {
			v.errs.Add(cmp.field(), Duplicate)
		}
		seen[cmp.Period] = true
		cmp.validate(v)
		if allowed, ok := periodGranularities[cmp.Period]; ok && c.granularity != "" &&
			!slices.Contains(allowed, c.granularity) {
			v.errs.Add(cmp.field(), Incompatible, c.granularity)
		}
	}
}

type cumeRules struct{}

func (cumeRules) validate(c *Composition, v *validation) {
	pinned := v.registry.Cume.Dimension
	if pinned == "" {
		v.errs.Add("lens", NotPermitted)
		return
	}
	switch {
	case len(c.groups) == 0:
		v.errs.Add("group.1", Blank)
	case len(c.groups) > 1:
		v.errs.Add("groups", TooMany)
	}
	if len(c.groups) > 0 {
		g := c.groups[0]
		if g.Dimension != nil && (g.Dimension.Name != pinned || g.Mode() != GroupRaw) {
			v.errs.Add(g.field(""), Pinned, pinned)
		}
	}
	validateWindow(c, v, MinCumeWindow, cumeWindowMultiple)
	if c.granularity != "" {
		v.errs.Add("granularity", Present)
	}
	rejectComparisons(c, v)
}
