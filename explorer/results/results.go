package results

import (
	"io"

	"github.com/pkg/errors"
	"github.com/podlake/explorer/explorer/composition"
)

var (
	ErrAmbiguousAggregate = errors.New("aggregate over two groups needs a group")
	ErrUnknownMetric      = errors.New("metric was not requested")
	ErrUnknownGroup       = errors.New("group was not requested")
)

type Op string

const (
	Sum  Op = "sum"
	Min  Op = "min"
	Max  Op = "max"
	Mean Op = "arithmetic_mean"
)

// Set is the part shared by every lens result.
type Set interface {
	Composition() *composition.Composition
	Rows() []Row
	Lookup(metric string, members ...Member) (float64, bool)
	Aggregate(op Op, metric string, group int, member *Member) (float64, bool, error)
	UniqueMembers(group int) []Member
	Exhibit(group int, member Member) string
	WriteCSV(w io.Writer) error
}

// New wraps raw rows in the result set of the composition lens.
func New(c *composition.Composition, raw []map[string]any) (Set, error) {
	if !c.Valid() {
		return nil, errors.New("results of an invalid composition")
	}
	base := newDimensional(c, NewRows(raw))
	switch c.Lens() {
	case composition.TimeSeries:
		return &TimeSeries{Dimensional: base}, nil
	case composition.Cume:
		return &Cume{Dimensional: base}, nil
	}
	return base, nil
}

type lookupResult struct {
	val float64
	ok  bool
}

// Dimensional is the plain grouped result. It is also embedded by the
// other lenses.
type Dimensional struct {
	c    *composition.Composition
	rows []Row
	memo map[string]lookupResult
}

func newDimensional(c *composition.Composition, rows []Row) *Dimensional {
	return &Dimensional{c: c, rows: rows, memo: map[string]lookupResult{}}
}

func (d *Dimensional) Composition() *composition.Composition {
	return d.c
}

func (d *Dimensional) Rows() []Row {
	return d.rows
}

// Lookup returns the metric of the row matching the members, given in group
// order. Omitted trailing members match anything; when that leaves more than
// one row the lookup has no value.
func (d *Dimensional) Lookup(metric string, members ...Member) (float64, bool) {
	return d.lookup(metric, nil, members)
}

func (d *Dimensional) lookup(metric string, extra []criterion, members []Member) (float64, bool) {
	m := d.c.Metric(metric)
	if m == nil {
		return 0, false
	}
	groups := d.c.Groups()
	if len(members) > len(groups) {
		return 0, false
	}
	crit := append([]criterion(nil), extra...)
	for i, member := range members {
		crit = append(crit, criterion{alias: groups[i].Alias(), member: member})
	}
	key := memoKey(metric, crit)
	if res, ok := d.memo[key]; ok {
		return res.val, res.ok
	}
	var res lookupResult
	matched := 0
	for _, row := range d.rows {
		if !row.matches(crit) {
			continue
		}
		matched++
		if matched > 1 {
			res = lookupResult{}
			break
		}
		res.val, res.ok = row.number(m.Alias())
	}
	d.memo[key] = res
	return res.val, res.ok
}

// Aggregate folds a metric over the rows, optionally restricted to one
// member of a group. min, max and mean ignore null metric values and rows
// where the relevant groups are null; sum counts missing values as 0.
func (d *Dimensional) Aggregate(op Op, metric string, group int, member *Member) (float64, bool, error) {
	m := d.c.Metric(metric)
	if m == nil {
		return 0, false, errors.Wrap(ErrUnknownMetric, metric)
	}
	switch op {
	case Sum, Min, Max, Mean:
	default:
		return 0, false, errors.Errorf("unknown aggregate %q", op)
	}
	groups := d.c.Groups()
	var g *composition.Group
	if group != 0 {
		if g = d.c.Group(group); g == nil {
			return 0, false, errors.Wrapf(ErrUnknownGroup, "group %d", group)
		}
	} else if op != Sum && len(groups) > 1 {
		return 0, false, ErrAmbiguousAggregate
	}

	var (
		total float64
		count int
		best  float64
	)
rows:
	for _, row := range d.rows {
		if g != nil && member != nil && row.member(g.Alias()) != *member {
			continue
		}
		if op != Sum && g != nil {
			if member == nil && row.member(g.Alias()).Null {
				continue
			}
			if member != nil {
				for _, other := range groups {
					if other != g && row.member(other.Alias()).Null {
						continue rows
					}
				}
			}
		}
		v, ok := row.number(m.Alias())
		if !ok {
			continue
		}
		switch {
		case count == 0:
			best = v
		case op == Min && v < best:
			best = v
		case op == Max && v > best:
			best = v
		}
		total += v
		count++
	}

	switch op {
	case Sum:
		return total, true, nil
	case Mean:
		if count == 0 {
			return 0, false, nil
		}
		return total / float64(count), true, nil
	}
	return best, count > 0, nil
}

// UniqueMembers lists the bins of an indices group, overflow last, or else
// the non-null values seen in the rows in first-seen order.
func (d *Dimensional) UniqueMembers(group int) []Member {
	g := d.c.Group(group)
	if g == nil {
		return nil
	}
	if g.Mode() == composition.GroupIndices {
		var res []Member
		for _, label := range g.Members() {
			res = append(res, Value(label))
		}
		return res
	}
	var res []Member
	seen := map[string]bool{}
	for _, row := range d.rows {
		m := row.member(g.Alias())
		if m.Null || seen[m.Value] {
			continue
		}
		seen[m.Value] = true
		res = append(res, m)
	}
	return res
}

// Exhibit is the display label of a member: its exhibit property when the
// dimension has one, the raw value otherwise.
func (d *Dimensional) Exhibit(group int, member Member) string {
	if member.Null {
		return ""
	}
	for _, p := range d.properties(group) {
		if p.Role == composition.RoleExhibit {
			if label := d.property(group, member, p.Alias); label != "" {
				return label
			}
		}
	}
	return member.Value
}

// Meta returns a requested meta property of a member.
func (d *Dimensional) Meta(group int, member Member, name string) string {
	for _, p := range d.properties(group) {
		if p.Role == composition.RoleMeta && p.Name == name {
			return d.property(group, member, p.Alias)
		}
	}
	return ""
}

func (d *Dimensional) properties(group int) []composition.GroupProperty {
	if g := d.c.Group(group); g != nil {
		return g.Properties()
	}
	return nil
}

func (d *Dimensional) property(group int, member Member, alias string) string {
	g := d.c.Group(group)
	for _, row := range d.rows {
		if row.member(g.Alias()) == member {
			return row.Text(alias)
		}
	}
	return ""
}
