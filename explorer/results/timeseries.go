package results

import (
	"time"

	"github.com/podlake/explorer/explorer/composition"
	"github.com/podlake/explorer/explorer/shaper"
	"github.com/podlake/explorer/explorer/timeexpr"
)

type comparisonKey struct {
	period composition.Period
	step   int
}

// TimeSeries is a result bucketed by granularity, with the results of
// comparison queries attached per period and lookback step.
type TimeSeries struct {
	*Dimensional
	comparisons map[comparisonKey]*TimeSeries
}

// Granularities lists every bucket of the range in order, including buckets
// the warehouse returned no rows for.
func (t *TimeSeries) Granularities() []string {
	from, to := t.c.Bounds()
	var res []string
	if t.c.Rolling() {
		window := time.Duration(t.c.WindowSeconds()) * time.Second
		for end := to; end.After(from); end = end.Add(-window) {
			res = append(res, end.Add(-window).Format(composition.MemberTimeLayout))
		}
		for i, j := 0, len(res)-1; i < j; i, j = i+1, j-1 {
			res[i], res[j] = res[j], res[i]
		}
		return res
	}
	unit := composition.GranularityUnit[t.c.Granularity()]
	for at := timeexpr.Truncate(from, unit); at.Before(to); at = timeexpr.Advance(at, unit, 1) {
		res = append(res, at.Format(composition.MemberTimeLayout))
	}
	return res
}

func (t *TimeSeries) TimeSeriesLookup(metric string, granularity string, members ...Member) (float64, bool) {
	return t.lookup(metric, []criterion{{alias: shaper.GranularityAlias, member: Value(granularity)}}, members)
}

// Attach registers the result of the comparison query for one step.
func (t *TimeSeries) Attach(cmp *composition.Comparison, step int, set *TimeSeries) {
	if t.comparisons == nil {
		t.comparisons = map[comparisonKey]*TimeSeries{}
	}
	t.comparisons[comparisonKey{period: cmp.Period, step: step}] = set
}

func (t *TimeSeries) Comparison(cmp *composition.Comparison, step int) *TimeSeries {
	return t.comparisons[comparisonKey{period: cmp.Period, step: step}]
}

// ComparisonLookup finds the value of the bucket step periods before
// granularity in the attached comparison result.
func (t *TimeSeries) ComparisonLookup(cmp *composition.Comparison, step int, metric string, granularity string,
	members ...Member) (float64, bool) {
	set := t.Comparison(cmp, step)
	if set == nil {
		return 0, false
	}
	at, err := time.Parse(composition.MemberTimeLayout, granularity)
	if err != nil {
		return 0, false
	}
	shifted := cmp.Shift(at, step)
	if unit, ok := composition.GranularityUnit[t.c.Granularity()]; ok {
		shifted = timeexpr.Truncate(shifted, unit)
	}
	return set.TimeSeriesLookup(metric, shifted.Format(composition.MemberTimeLayout), members...)
}
