package composition

import (
	"sort"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/podlake/explorer/explorer/schema"
	"github.com/podlake/explorer/explorer/timeexpr"
)

type Lens string

const (
	Dimensional Lens = "dimensional"
	TimeSeries  Lens = "timeseries"
	Cume        Lens = "cume"
)

type state int

const (
	unvalidated state = iota
	validating
	valid
	invalid
)

// Composition is one analytics request. It is assembled by a Builder and
// must not be changed afterwards; Valid runs the checks once and caches the
// outcome.
type Composition struct {
	lens        Lens
	rng         RangeFields
	filters     []*Filter
	groups      []*Group
	metrics     []*Metric
	granularity string
	window      string
	comparisons []*Comparison

	registry  *schema.Registry
	warehouse string
	auth      Authorization
	now       time.Time

	parseErrors Errors
	state       state
	errors      Errors
	warnings    Errors
	windowSecs  int64
}

type validation struct {
	now       time.Time
	registry  *schema.Registry
	warehouse string
	errs      *Errors
	warns     *Errors
}

// lensRules are the checks that differ between lenses. Range, metric,
// component and authorization checks run for every lens before these.
type lensRules interface {
	validate(c *Composition, v *validation)
}

func (c *Composition) Lens() Lens                 { return c.lens }
func (c *Composition) Now() time.Time             { return c.now }
func (c *Composition) Registry() *schema.Registry { return c.registry }
func (c *Composition) Warehouse() string          { return c.warehouse }
func (c *Composition) Authorization() Authorization {
	return c.auth
}
func (c *Composition) Granularity() string { return c.granularity }

func (c *Composition) Range() RangeFields {
	return c.rng
}

// Bounds are the resolved from and to instants; zero before validation.
func (c *Composition) Bounds() (time.Time, time.Time) {
	return c.rng.Bounds()
}

func (c *Composition) Filters() []*Filter {
	return append([]*Filter(nil), c.filters...)
}

func (c *Composition) Groups() []*Group {
	return append([]*Group(nil), c.groups...)
}

func (c *Composition) Group(index int) *Group {
	for _, g := range c.groups {
		if g.Index == index {
			return g
		}
	}
	return nil
}

func (c *Composition) Metrics() []*Metric {
	return append([]*Metric(nil), c.metrics...)
}

// Metric finds a requested metric by its ID, name(variable).
func (c *Composition) Metric(id string) *Metric {
	for _, m := range c.metrics {
		if m.ID() == id {
			return m
		}
	}
	return nil
}

func (c *Composition) Comparisons() []*Comparison {
	return append([]*Comparison(nil), c.comparisons...)
}

// WindowSeconds is the validated window, 0 when not used.
func (c *Composition) WindowSeconds() int64 {
	return c.windowSecs
}

func (c *Composition) Rolling() bool {
	return c.lens == TimeSeries && c.granularity == Rolling
}

func (c *Composition) Errors() Errors {
	c.Valid()
	return append(Errors(nil), c.errors...)
}

func (c *Composition) Warnings() Errors {
	c.Valid()
	return append(Errors(nil), c.warnings...)
}

func (c *Composition) Valid() bool {
	switch c.state {
	case valid:
		return true
	case invalid, validating:
		return false
	}
	c.state = validating
	v := &validation{
		now:       c.now,
		registry:  c.registry,
		warehouse: c.warehouse,
		errs:      &c.errors,
		warns:     &c.warnings,
	}
	c.errors = append(c.errors, c.parseErrors...)
	c.validateBase(v)
	c.validateAuthorization(v)
	if rules := c.rules(); rules != nil {
		rules.validate(c, v)
	} else {
		v.errs.Add("lens", Inclusion, string(c.lens))
	}
	if c.errors.Empty() {
		c.state = valid
	} else {
		c.state = invalid
	}
	return c.state == valid
}

func (c *Composition) rules() lensRules {
	switch c.lens {
	case Dimensional:
		return dimensionalRules{}
	case TimeSeries:
		return timeSeriesRules{}
	case Cume:
		return cumeRules{}
	}
	return nil
}

func (c *Composition) validateBase(v *validation) {
	c.rng.validate("", v.now, v.errs)
	if c.rng.Resolved() {
		if _, to := c.rng.Bounds(); to.After(v.now) {
			v.warns.Add("to", Future)
		}
	}

	if len(c.metrics) == 0 {
		v.errs.Add("metrics", Blank)
	}
	seenMetrics := map[string]bool{}
	for _, m := range c.metrics {
		if seenMetrics[m.ID()] {
			v.errs.Add("metrics", Duplicate, m.ID())
		}
		seenMetrics[m.ID()] = true
		m.validate(v)
	}

	seenFilters := map[*schema.Dimension]bool{}
	for _, f := range c.filters {
		if f.Dimension != nil && seenFilters[f.Dimension] {
			v.errs.Add(f.field(""), Duplicate)
		}
		seenFilters[f.Dimension] = true
		f.validate(v)
	}

	for i, g := range c.groups {
		if g.Index != i+1 {
			v.errs.Add("group."+strconv.Itoa(i+1), Blank)
			break
		}
	}
	for _, g := range c.groups {
		g.validate(v)
		c.cautionGroup(g, v)
	}
}

// validateAuthorization enforces that the authorization dimension is
// filtered to permitted values only. It runs for every lens.
func (c *Composition) validateAuthorization(v *validation) {
	name := c.registry.AuthorizationDimension
	if name == "" {
		return
	}
	found := false
	for _, f := range c.filters {
		if f.Dimension == nil || f.Dimension.Name != name {
			continue
		}
		found = true
		if f.Operator != "" && f.Operator != Include {
			v.errs.Add(f.field("operator"), NotAuthorized)
		}
		if len(f.Values) == 0 {
			v.errs.Add(f.field(""), NotAuthorized)
		}
		for _, val := range f.Values {
			if !c.auth.Permits(val) {
				v.errs.Add(f.field(""), NotAuthorized, val)
				break
			}
		}
	}
	if !found {
		d, _ := c.registry.Dimension(name)
		v.errs.Add("filter."+d.QueryKey(), Required)
	}
}

func (c *Composition) cautionGroup(g *Group, v *validation) {
	if g.Dimension == nil || !g.Dimension.Unsafe || g.Mode() != GroupRaw {
		return
	}
	if unless := g.Dimension.CautionUnless; unless != "" {
		for _, f := range c.filters {
			if f.Dimension != nil && f.Dimension.Name == unless && !f.Excludes() && len(f.Values) == 1 {
				return
			}
		}
	}
	v.warns.Add(g.field(""), Caution)
}

// ComparisonComposition is the composition for one lookback step of a
// comparison: the same request moved back by step periods, without
// comparisons of its own. The receiver must be valid.
func (c *Composition) ComparisonComposition(cmp *Comparison, step int) *Composition {
	res := *c
	res.rng = cmp.Range(c.rng, step)
	res.comparisons = nil
	res.parseErrors = nil
	res.errors = nil
	res.warnings = nil
	res.state = unvalidated
	return &res
}

// Builder assembles a Composition. Build freezes the result and captures
// now from the clock.
type Builder struct {
	c     *Composition
	clock clockwork.Clock
}

func NewBuilder(reg *schema.Registry, lens Lens) *Builder {
	return &Builder{
		c: &Composition{
			lens:      lens,
			registry:  reg,
			warehouse: schema.DefaultWarehouse,
		},
		clock: clockwork.NewRealClock(),
	}
}

func (b *Builder) Range(from, to string) *Builder {
	b.c.rng = NewRange(from, to)
	return b
}

func (b *Builder) Filter(f *Filter) *Builder {
	b.c.filters = append(b.c.filters, f)
	return b
}

func (b *Builder) Group(g *Group) *Builder {
	b.c.groups = append(b.c.groups, g)
	return b
}

func (b *Builder) Metric(m *Metric) *Builder {
	b.c.metrics = append(b.c.metrics, m)
	return b
}

func (b *Builder) Granularity(granularity string) *Builder {
	b.c.granularity = granularity
	return b
}

// Window accepts seconds or duration shorthand.
func (b *Builder) Window(window string) *Builder {
	b.c.window = timeexpr.ExpandDuration(window)
	return b
}

func (b *Builder) Compare(cmp *Comparison) *Builder {
	b.c.comparisons = append(b.c.comparisons, cmp)
	return b
}

func (b *Builder) Authorize(auth Authorization) *Builder {
	b.c.auth = auth
	return b
}

// Warehouse selects the schema bindings used for type checks.
func (b *Builder) Warehouse(warehouse string) *Builder {
	b.c.warehouse = warehouse
	return b
}

func (b *Builder) Clock(clock clockwork.Clock) *Builder {
	b.clock = clock
	return b
}

func (b *Builder) reject(field string, reason Reason, detail ...string) *Builder {
	b.c.parseErrors.Add(field, reason, detail...)
	return b
}

func (b *Builder) Build() *Composition {
	c := b.c
	b.c = nil
	c.now = b.clock.Now().UTC()
	sort.SliceStable(c.groups, func(i, j int) bool { return c.groups[i].Index < c.groups[j].Index })
	for i, m := range c.metrics {
		m.Position = i + 1
	}
	return c
}
