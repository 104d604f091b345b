package composition

import (
	"strconv"
	"time"

	"github.com/podlake/explorer/explorer/timeexpr"
)

type Period string

const (
	WoW Period = "WoW"
	QoQ Period = "QoQ"
	YoY Period = "YoY"
)

const MaxLookback = 4

// comparable granularities per period
var periodGranularities = map[Period][]string{
	WoW: {Daily, Weekly},
	QoQ: {Daily, Weekly, Monthly, Quarterly},
	YoY: {Daily, Weekly, Monthly, Quarterly, Yearly},
}

type Comparison struct {
	Period   Period
	Lookback string

	lookback int
}

func (c *Comparison) field() string {
	return "compare." + string(c.Period)
}

// Steps is the validated lookback.
func (c *Comparison) Steps() int {
	return c.lookback
}

// Shift moves t back by step periods.
func (c *Comparison) Shift(t time.Time, step int) time.Time {
	switch c.Period {
	case WoW:
		return t.AddDate(0, 0, -7*step)
	case QoQ:
		return timeexpr.AddMonths(t, -3*step)
	case YoY:
		return timeexpr.AddMonths(t, -12*step)
	}
	return t
}

// Range shifts an already resolved range back by step periods.
func (c *Comparison) Range(base RangeFields, step int) RangeFields {
	from, to := base.Bounds()
	return AbsoluteRange(c.Shift(from, step), c.Shift(to, step))
}

func (c *Comparison) validate(v *validation) {
	c.lookback = 0
	if _, ok := periodGranularities[c.Period]; !ok {
		v.errs.Add(c.field(), Inclusion)
		return
	}
	n, err := strconv.Atoi(c.Lookback)
	if err != nil {
		v.errs.Add(c.field(), NotNumeric, c.Lookback)
		return
	}
	if n < 1 || n > MaxLookback {
		v.errs.Add(c.field(), Inclusion, c.Lookback)
		return
	}
	c.lookback = n
}
