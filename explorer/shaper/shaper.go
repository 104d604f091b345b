package shaper

import (
	"bytes"
	_ "embed"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig"
	"github.com/pkg/errors"
	"github.com/podlake/explorer/explorer/composition"
	"github.com/podlake/explorer/explorer/schema"
	"github.com/podlake/explorer/explorer/timeexpr"
	sql "github.com/podlake/explorer/explorer/utils/sql_select"
)

const (
	GranularityAlias      = "granularity"
	GranularityRangeAlias = "granularity_range"
	CumeWindowAlias       = "cume_window"
	CumeAgeAlias          = "cume_age"
	CumePublishedAlias    = "cume_published"
)

var ErrInvalidComposition = errors.New("composition is not valid")

// granularity -> truncate unit
var granularityTruncate = map[string]string{
	composition.Daily:     "day",
	composition.Weekly:    "week",
	composition.Monthly:   "month",
	composition.Quarterly: "quarter",
	composition.Yearly:    "year",
}

//go:embed query.sql.tmpl
var queryTemplate string

var statement = template.Must(template.New("query").Funcs(sprig.TxtFuncMap()).Parse(queryTemplate))

type Metadata struct {
	Lens    composition.Lens
	Dialect string
	Groups  []string
	Metrics []string
	Tables  []string
}

// Query holds the rendered fragments of one statement.
type Query struct {
	From     string
	Selects  []string
	Joins    []string
	Wheres   []string
	GroupBys []string
	OrderBys []string
	Metadata Metadata
}

func (q *Query) SQL() (string, error) {
	var buf bytes.Buffer
	if err := statement.Execute(&buf, q); err != nil {
		return "", errors.Wrap(err, "render query")
	}
	return strings.TrimSpace(buf.String()), nil
}

type shaper struct {
	c      *composition.Composition
	d      Dialect
	reg    *schema.Registry
	ctx    *sql.Ctx
	tables []string
	q      *Query
}

// Shape compiles a valid composition into query fragments for the dialect.
func Shape(c *composition.Composition, d Dialect) (*Query, error) {
	if c == nil || !c.Valid() {
		return nil, ErrInvalidComposition
	}
	s := &shaper{
		c:   c,
		d:   d,
		reg: c.Registry(),
		ctx: &sql.Ctx{},
		q: &Query{Metadata: Metadata{
			Lens:    c.Lens(),
			Dialect: d.Name(),
		}},
	}
	if err := s.shape(); err != nil {
		return nil, err
	}
	return s.q, nil
}

func (s *shaper) shape() error {
	root := s.reg.Root()
	from, err := s.render(sql.NewTable(root.Physical.For(s.d.Name()), root.Name))
	if err != nil {
		return err
	}
	s.q.From = from

	timeDim, ok := s.reg.Dimension(s.reg.TimeDimension)
	if !ok {
		return errors.Errorf("time dimension %s is not defined", s.reg.TimeDimension)
	}
	timeBinding := s.binding(timeDim.Warehouse)

	var cumeJoin *sql.Join
	switch s.c.Lens() {
	case composition.TimeSeries:
		if err := s.granularity(timeBinding.Selector); err != nil {
			return err
		}
	case composition.Cume:
		if cumeJoin, err = s.cumeWindow(timeBinding.Selector); err != nil {
			return err
		}
	}

	for _, g := range s.c.Groups() {
		if err := s.group(g); err != nil {
			return err
		}
	}
	for _, m := range s.c.Metrics() {
		s.need(m.Metric.Warehouse)
		if err := s.sel(sql.NewRawObject(m.Metric.Selector(s.d.Name(), m.Variable)), m.Alias()); err != nil {
			return err
		}
		s.q.Metadata.Metrics = append(s.q.Metadata.Metrics, m.Alias())
	}
	if s.c.Lens() == composition.Cume {
		if err := s.cumeAggregates(); err != nil {
			return err
		}
	}

	start, end := s.c.Bounds()
	if err := s.where(sql.NewParen(s.between(sql.NewRawObject(timeBinding.Selector),
		s.d.Time(start), s.d.Time(end), false))); err != nil {
		return err
	}
	for _, f := range s.c.Filters() {
		cond, err := s.filter(f)
		if err != nil {
			return err
		}
		if err := s.where(cond); err != nil {
			return err
		}
	}

	s.q.Metadata.Tables = s.reg.TableClosure(s.tables)
	for _, name := range s.q.Metadata.Tables {
		join, err := s.join(name)
		if err != nil {
			return err
		}
		s.q.Joins = append(s.q.Joins, join)
	}
	if cumeJoin != nil {
		str, err := s.render(cumeJoin)
		if err != nil {
			return err
		}
		s.q.Joins = append(s.q.Joins, str)
	}
	return nil
}

func (s *shaper) render(obj sql.SQLObject) (string, error) {
	return obj.String(s.ctx)
}

func (s *shaper) binding(b schema.Bindings) *schema.Binding {
	s.need(b)
	return b.For(s.d.Name())
}

func (s *shaper) need(b schema.Bindings) {
	if binding := b.For(s.d.Name()); binding != nil {
		s.tables = append(s.tables, binding.RequiredTables...)
	}
}

func (s *shaper) sel(expr sql.SQLObject, alias string) error {
	str, err := s.render(sql.NewCol(expr, alias))
	if err != nil {
		return err
	}
	s.q.Selects = append(s.q.Selects, str)
	return nil
}

func (s *shaper) groupBy(aliases ...string) {
	s.q.GroupBys = append(s.q.GroupBys, aliases...)
}

func (s *shaper) where(cond sql.SQLCondition) error {
	str, err := s.render(cond)
	if err != nil {
		return err
	}
	s.q.Wheres = append(s.q.Wheres, str)
	return nil
}

// granularity selects the time series bucket. Rolling windows are counted
// back from the end of the range, so the last window is always complete.
func (s *shaper) granularity(ts string) error {
	if !s.c.Rolling() {
		unit := granularityTruncate[s.c.Granularity()]
		if err := s.sel(sql.NewRawObject(s.d.Truncate(unit, ts)), GranularityAlias); err != nil {
			return err
		}
		s.groupBy(GranularityAlias)
		s.q.OrderBys = append(s.q.OrderBys, GranularityAlias+" ASC")
		return nil
	}
	_, to := s.c.Bounds()
	end := int64Literal(to.Unix())
	window := int64Literal(s.c.WindowSeconds())
	rng := s.d.IntDiv(fmt.Sprintf("%s - 1 - %s", end, s.d.Unix(ts)), window)
	start := s.d.FormatUnix(fmt.Sprintf("%s - (%s + 1) * %s", end, rng, window))
	if err := s.sel(sql.NewRawObject(rng), GranularityRangeAlias); err != nil {
		return err
	}
	if err := s.sel(sql.NewRawObject(start), GranularityAlias); err != nil {
		return err
	}
	s.groupBy(GranularityRangeAlias, GranularityAlias)
	s.q.OrderBys = append(s.q.OrderBys, GranularityAlias+" ASC")
	return nil
}

func (s *shaper) publishedSelector() (string, error) {
	name := s.reg.Cume.PublishedProperty
	p, ok := s.reg.Property(name)
	if !ok {
		return "", errors.Errorf("cume published property %s is not defined", name)
	}
	return s.binding(p.Warehouse).Selector, nil
}

// cumeWindow matches every download to its window since publication
// through the precomputed windows table.
func (s *shaper) cumeWindow(ts string) (*sql.Join, error) {
	published, err := s.publishedSelector()
	if err != nil {
		return nil, err
	}
	table := s.reg.Cume.WindowsTable
	window := int64Literal(s.c.WindowSeconds())
	number := table + ".window_number"
	if err := s.sel(sql.FmtRawObject("%s * %s", number, window), CumeWindowAlias); err != nil {
		return nil, err
	}
	s.groupBy(CumeWindowAlias)
	s.q.OrderBys = append(s.q.OrderBys, CumeWindowAlias+" ASC")
	on := sql.Eq(sql.NewRawObject(number), sql.NewRawObject(s.d.IntDiv(s.d.DiffSeconds(published, ts), window)))
	return sql.NewJoin("INNER", sql.NewTable(table, ""), on), nil
}

func (s *shaper) cumeAggregates() error {
	published, err := s.publishedSelector()
	if err != nil {
		return err
	}
	now, err := s.render(s.d.Time(s.c.Now()))
	if err != nil {
		return err
	}
	if err := s.sel(sql.FmtRawObject("MAX(%s)", s.d.DiffSeconds(published, now)), CumeAgeAlias); err != nil {
		return err
	}
	return s.sel(sql.FmtRawObject("MAX(%s)", s.d.Unix(published)), CumePublishedAlias)
}

func (s *shaper) group(g *composition.Group) error {
	b := s.binding(g.Dimension.Warehouse)
	var expr sql.SQLObject
	switch g.Mode() {
	case composition.GroupExtract:
		expr = sql.NewRawObject(s.d.Extract(g.Extract, b.Selector))
	case composition.GroupTruncate:
		expr = sql.NewRawObject(s.d.Truncate(g.Truncate, b.Selector))
	case composition.GroupIndices:
		expr = s.indices(g, sql.NewRawObject(b.Selector))
	default:
		expr = sql.NewRawObject(b.Selector)
	}
	if err := s.sel(expr, g.Alias()); err != nil {
		return err
	}
	s.groupBy(g.Alias())
	s.q.Metadata.Groups = append(s.q.Metadata.Groups, g.Alias())

	for _, prop := range g.Properties() {
		p, ok := s.reg.Property(prop.Name)
		if !ok {
			return errors.Errorf("%s: property %s is not defined", g.Alias(), prop.Name)
		}
		pb := s.binding(p.Warehouse)
		if err := s.sel(sql.NewRawObject(pb.Selector), prop.Alias); err != nil {
			return err
		}
		s.groupBy(prop.Alias)
	}
	return nil
}

// indices renders the bin ladder; every bin is labelled by its upper bound.
func (s *shaper) indices(g *composition.Group, col sql.SQLObject) sql.SQLObject {
	ladder := sql.NewCase().When(sql.IsNull(col), sql.NewRawObject("NULL"))
	for _, b := range g.Bounds() {
		var bound sql.SQLObject = sql.NewIntVal(b.Seconds)
		if g.Dimension.Type == schema.Timestamp {
			bound = s.d.Time(b.Time)
		}
		ladder.When(sql.Lt(col, bound), s.d.String(b.Label))
	}
	return ladder.Else(s.d.String(composition.Overflow))
}

func (s *shaper) filter(f *composition.Filter) (sql.SQLCondition, error) {
	b := s.binding(f.Dimension.Warehouse)
	col := sql.SQLObject(sql.NewRawObject(b.Selector))
	var cond sql.SQLCondition
	switch f.Mode() {
	case composition.ModeRange:
		from, to := f.Range.Bounds()
		cond = s.between(col, s.d.Time(from), s.d.Time(to), f.Excludes())
	case composition.ModeDuration:
		gte, lt := f.DurationBounds()
		var lo, hi sql.SQLObject
		if gte != nil {
			lo = sql.NewIntVal(*gte)
		}
		if lt != nil {
			hi = sql.NewIntVal(*lt)
		}
		cond = s.between(col, lo, hi, f.Excludes())
	case composition.ModeExtract:
		col = sql.NewRawObject(s.d.Extract(f.Extract, b.Selector))
		vals, err := s.values(schema.TypeInt64, f.Values)
		if err != nil {
			return nil, errors.Wrapf(err, "filter %s", f.Key)
		}
		cond = in(col, vals, f.Excludes())
	default:
		vals, err := s.values(b.Type, f.Values)
		if err != nil {
			return nil, errors.Wrapf(err, "filter %s", f.Key)
		}
		cond = in(col, vals, f.Excludes())
	}
	return nulls(f, cond, col), nil
}

func in(col sql.SQLObject, vals []sql.SQLObject, exclude bool) sql.SQLCondition {
	if exclude {
		return sql.NewNotIn(col, vals...)
	}
	return sql.NewIn(col, vals...)
}

// between renders a half-open range; a nil end is unbounded.
func (s *shaper) between(col, lo, hi sql.SQLObject, exclude bool) sql.SQLCondition {
	var parts []sql.SQLCondition
	if exclude {
		if lo != nil {
			parts = append(parts, sql.Lt(col, lo))
		}
		if hi != nil {
			parts = append(parts, sql.Ge(col, hi))
		}
		return sql.NewParen(sql.Or(parts...))
	}
	if lo != nil {
		parts = append(parts, sql.Ge(col, lo))
	}
	if hi != nil {
		parts = append(parts, sql.Lt(col, hi))
	}
	return sql.And(parts...)
}

// nulls applies the null rule: an include matches nulls only when they
// follow, an exclude keeps them unless they follow.
func nulls(f *composition.Filter, cond sql.SQLCondition, col sql.SQLObject) sql.SQLCondition {
	if f.Excludes() != f.FollowsNulls() {
		return sql.NewParen(sql.Or(cond, sql.IsNull(col)))
	}
	return sql.NewParen(cond)
}

// values quotes filter values according to the binding type.
func (s *shaper) values(tp string, vals []string) ([]sql.SQLObject, error) {
	res := make([]sql.SQLObject, len(vals))
	for i, val := range vals {
		switch tp {
		case schema.TypeInt64:
			n, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "value %q", val)
			}
			res[i] = sql.NewIntVal(n)
		case schema.TypeFloat64:
			n, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "value %q", val)
			}
			res[i] = sql.NewFloatVal(n)
		case schema.TypeTimestamp:
			t, err := timeexpr.ResolveBound(val, timeexpr.Front, s.c.Now())
			if err != nil {
				return nil, err
			}
			res[i] = s.d.Time(t)
		default:
			res[i] = s.d.String(val)
		}
	}
	return res, nil
}

func (s *shaper) join(name string) (string, error) {
	t, ok := s.reg.Table(name)
	if !ok {
		return "", errors.Errorf("table %s is not defined", name)
	}
	var conds []sql.SQLCondition
	for _, target := range t.Targets() {
		spec := t.JoinsTo[target]
		if spec.Expression != "" {
			conds = append(conds, sql.NewRawCondition(spec.Expression))
			continue
		}
		conds = append(conds, sql.Eq(
			sql.NewRawObject(name+"."+spec.Key),
			sql.NewRawObject(target+"."+spec.TargetKey)))
	}
	return s.render(sql.NewJoin(t.Join, sql.NewTable(t.Physical.For(s.d.Name()), name), sql.And(conds...)))
}
