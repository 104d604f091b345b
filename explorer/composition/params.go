package composition

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	gschema "github.com/gorilla/schema"
	"github.com/jonboulle/clockwork"
	"github.com/podlake/explorer/explorer/schema"
	"github.com/podlake/explorer/explorer/timeexpr"
)

type topLevelParams struct {
	Lens        string `schema:"lens"`
	From        string `schema:"from"`
	To          string `schema:"to"`
	Metrics     string `schema:"metrics"`
	Granularity string `schema:"granularity"`
	Window      string `schema:"window"`
}

var decoder = func() *gschema.Decoder {
	d := gschema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}()

type Option func(b *Builder)

func WithClock(clock clockwork.Clock) Option {
	return func(b *Builder) { b.Clock(clock) }
}

func WithAuthorization(auth Authorization) Option {
	return func(b *Builder) { b.Authorize(auth) }
}

func WithWarehouse(warehouse string) Option {
	return func(b *Builder) { b.Warehouse(warehouse) }
}

// FromParams builds a composition from request parameters. It never fails:
// missing or malformed fragments become validation errors.
func FromParams(reg *schema.Registry, values url.Values, opts ...Option) *Composition {
	var top topLevelParams
	decodeErr := decoder.Decode(&top, values)

	lens := Lens(top.Lens)
	if lens == "" {
		lens = Dimensional
	}
	b := NewBuilder(reg, lens)
	for _, opt := range opts {
		opt(b)
	}
	if decodeErr != nil {
		b.reject("params", Invalid, decodeErr.Error())
	}
	b.Range(timeParam(top.From), timeParam(top.To))
	if top.Granularity != "" {
		b.Granularity(top.Granularity)
	}
	if top.Window != "" {
		b.Window(strings.TrimSpace(top.Window))
	}
	for _, raw := range splitList(top.Metrics) {
		b.Metric(ParseMetric(reg, raw))
	}

	filters := map[string]*Filter{}
	var filterKeys []string
	groups := map[int]*Group{}
	for _, key := range sortedParamKeys(values) {
		val := strings.Join(values[key], ",")
		switch {
		case strings.HasPrefix(key, "filter."):
			qk, suffix := splitKey(strings.TrimPrefix(key, "filter."))
			f, ok := filters[qk]
			if !ok {
				d, known := reg.DimensionByKey(qk)
				if !known {
					b.reject("filter."+qk, Unknown)
					filters[qk] = nil
					continue
				}
				f = &Filter{Key: qk, Dimension: d}
				filters[qk] = f
				filterKeys = append(filterKeys, qk)
			}
			if f == nil {
				continue
			}
			applyFilterParam(f, suffix, values[key])
		case strings.HasPrefix(key, "group."):
			rawIdx, suffix := splitKey(strings.TrimPrefix(key, "group."))
			idx, err := strconv.Atoi(rawIdx)
			if err != nil || idx < 1 {
				b.reject(key, Invalid)
				continue
			}
			g, ok := groups[idx]
			if !ok {
				g = &Group{Index: idx}
				groups[idx] = g
			}
			applyGroupParam(b, reg, g, suffix, val)
		case strings.HasPrefix(key, "compare."):
			b.Compare(&Comparison{
				Period:   Period(strings.TrimPrefix(key, "compare.")),
				Lookback: strings.TrimSpace(values.Get(key)),
			})
		}
	}
	for _, qk := range filterKeys {
		b.Filter(filters[qk])
	}
	idxs := make([]int, 0, len(groups))
	for idx := range groups {
		idxs = append(idxs, idx)
	}
	sort.Ints(idxs)
	for _, idx := range idxs {
		b.Group(groups[idx])
	}
	return b.Build()
}

func applyFilterParam(f *Filter, suffix string, raw []string) {
	val := strings.Join(raw, ",")
	switch suffix {
	case "":
		f.Values = append(f.Values, splitList(val)...)
	case "operator":
		f.Operator = Operator(strings.TrimSpace(val))
	case "nulls":
		f.Nulls = strings.TrimSpace(val)
	case "from":
		f.Range.From = timeParam(val)
	case "to":
		f.Range.To = timeParam(val)
	case "extract":
		f.Extract = strings.TrimSpace(val)
	case "gte":
		f.Gte = timeexpr.ExpandDuration(strings.TrimSpace(val))
	case "lt":
		f.Lt = timeexpr.ExpandDuration(strings.TrimSpace(val))
	}
}

func applyGroupParam(b *Builder, reg *schema.Registry, g *Group, suffix string, val string) {
	switch suffix {
	case "":
		key := strings.TrimSpace(val)
		if key == "" {
			return
		}
		d, ok := reg.DimensionByKey(key)
		if !ok {
			b.reject(g.field(""), Unknown, key)
			return
		}
		g.Dimension = d
	case "extract":
		g.Extract = strings.TrimSpace(val)
	case "truncate":
		g.Truncate = strings.TrimSpace(val)
	case "indices":
		for _, idx := range strings.Split(val, ",") {
			g.Indices = append(g.Indices, timeexpr.ExpandDuration(timeParam(idx)))
		}
	case "meta":
		g.Meta = append(g.Meta, splitList(val)...)
	}
}

// Params serializes the composition back into request parameters.
func (c *Composition) Params() url.Values {
	res := url.Values{}
	set := func(key, val string) {
		if val != "" {
			res.Set(key, val)
		}
	}
	set("lens", string(c.lens))
	set("from", c.rng.From)
	set("to", c.rng.To)
	ids := make([]string, len(c.metrics))
	for i, m := range c.metrics {
		ids[i] = m.ID()
	}
	set("metrics", strings.Join(ids, ","))
	set("granularity", c.granularity)
	set("window", c.window)
	for _, f := range c.filters {
		key := "filter." + f.Key
		if f.Dimension != nil {
			key = "filter." + f.Dimension.QueryKey()
		}
		set(key, strings.Join(f.Values, ","))
		set(key+".operator", string(f.Operator))
		set(key+".nulls", f.Nulls)
		set(key+".from", f.Range.From)
		set(key+".to", f.Range.To)
		set(key+".extract", f.Extract)
		set(key+".gte", f.Gte)
		set(key+".lt", f.Lt)
	}
	for _, g := range c.groups {
		key := g.field("")
		if g.Dimension != nil {
			set(key, g.Dimension.QueryKey())
		}
		set(key+".extract", g.Extract)
		set(key+".truncate", g.Truncate)
		set(key+".indices", strings.Join(g.Indices, ","))
		set(key+".meta", strings.Join(g.Meta, ","))
	}
	for _, cmp := range c.comparisons {
		set(cmp.field(), cmp.Lookback)
	}
	return res
}

func splitKey(key string) (string, string) {
	if i := strings.IndexByte(key, '.'); i >= 0 {
		return key[:i], key[i+1:]
	}
	return key, ""
}

func splitList(val string) []string {
	var res []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			res = append(res, part)
		}
	}
	return res
}

// timeParam undoes the space a form-decoded '+' leaves in an expression.
func timeParam(val string) string {
	return strings.ReplaceAll(strings.TrimSpace(val), " ", "+")
}

func sortedParamKeys(values url.Values) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
