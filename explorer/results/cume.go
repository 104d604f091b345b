package results

import (
	"strconv"

	"github.com/podlake/explorer/explorer/shaper"
)

type cumeKey struct {
	memo   string
	window int64
}

// Cume is a result bucketed by windows since publication.
type Cume struct {
	*Dimensional
	cumulative map[cumeKey]lookupResult
}

// Windows lists the window starts in seconds from 0 to the last window
// present in the rows, gaps included.
func (c *Cume) Windows() []int64 {
	size := c.c.WindowSeconds()
	if size <= 0 {
		return nil
	}
	var last int64 = -1
	for _, row := range c.rows {
		if w, ok := row.number(shaper.CumeWindowAlias); ok && int64(w) > last {
			last = int64(w)
		}
	}
	var res []int64
	for w := int64(0); w <= last; w += size {
		res = append(res, w)
	}
	return res
}

func (c *Cume) WindowLookup(metric string, window int64, members ...Member) (float64, bool) {
	return c.lookup(metric, []criterion{{
		alias:  shaper.CumeWindowAlias,
		member: Value(strconv.FormatInt(window, 10)),
	}}, members)
}

// CumulativeLookup sums the metric over every window up to and including
// window. It has no value once the window is past the episode age or ends
// after the queried range.
func (c *Cume) CumulativeLookup(metric string, window int64, members ...Member) (float64, bool) {
	size := c.c.WindowSeconds()
	if size <= 0 || window < 0 || window%size != 0 || c.c.Metric(metric) == nil {
		return 0, false
	}
	var crit []criterion
	groups := c.c.Groups()
	if len(members) > len(groups) {
		return 0, false
	}
	for i, m := range members {
		crit = append(crit, criterion{alias: groups[i].Alias(), member: m})
	}
	key := cumeKey{memo: memoKey(metric, crit), window: window}
	if res, ok := c.cumulative[key]; ok {
		return res.val, res.ok
	}
	res := c.cumulate(metric, window, crit, members)
	if c.cumulative == nil {
		c.cumulative = map[cumeKey]lookupResult{}
	}
	c.cumulative[key] = res
	return res.val, res.ok
}

func (c *Cume) cumulate(metric string, window int64, crit []criterion, members []Member) lookupResult {
	if c.spansEpisodes(crit) {
		return lookupResult{}
	}
	age, published, ok := c.episode(crit)
	if !ok || window > age {
		return lookupResult{}
	}
	_, to := c.c.Bounds()
	if published+window+c.c.WindowSeconds() > to.Unix() {
		return lookupResult{}
	}
	raw, _ := c.WindowLookup(metric, window, members...)
	if window == 0 {
		return lookupResult{val: raw, ok: true}
	}
	prev, ok := c.CumulativeLookup(metric, window-c.c.WindowSeconds(), members...)
	if !ok {
		return lookupResult{}
	}
	return lookupResult{val: prev + raw, ok: true}
}

// episode returns the age and publish time of the rows matching crit.
func (c *Cume) episode(crit []criterion) (int64, int64, bool) {
	var age, published float64
	found := false
	for _, row := range c.rows {
		if !row.matches(crit) {
			continue
		}
		a, okAge := row.number(shaper.CumeAgeAlias)
		p, okPub := row.number(shaper.CumePublishedAlias)
		if !okAge || !okPub {
			continue
		}
		if !found || a > age {
			age = a
		}
		if !found || p > published {
			published = p
		}
		found = true
	}
	return int64(age), int64(published), found
}

// spansEpisodes reports whether the rows matching crit differ in a group
// that crit leaves open.
func (c *Cume) spansEpisodes(crit []criterion) bool {
	groups := c.c.Groups()
	if len(crit) >= len(groups) {
		return false
	}
	var first *Row
	for i := range c.rows {
		row := &c.rows[i]
		if !row.matches(crit) {
			continue
		}
		if first == nil {
			first = row
			continue
		}
		for _, g := range groups[len(crit):] {
			if row.member(g.Alias()) != first.member(g.Alias()) {
				return true
			}
		}
	}
	return false
}
