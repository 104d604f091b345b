package results

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/pkg/errors"
	"github.com/podlake/explorer/explorer/composition"
	"github.com/valyala/bytebufferpool"
)

type csvLookup func(metric string, prefix string, members []Member) (float64, bool)

// csvTable writes one line per member combination, optionally repeated for
// every prefix value (a granularity or a window).
type csvTable struct {
	d        *Dimensional
	prefix   string
	prefixes []string
	lookup   csvLookup
}

func (d *Dimensional) WriteCSV(w io.Writer) error {
	return csvTable{d: d, lookup: func(metric string, _ string, members []Member) (float64, bool) {
		return d.Lookup(metric, members...)
	}}.write(w)
}

func (t *TimeSeries) WriteCSV(w io.Writer) error {
	return csvTable{
		d:        t.Dimensional,
		prefix:   "Interval",
		prefixes: t.Granularities(),
		lookup: func(metric string, granularity string, members []Member) (float64, bool) {
			return t.TimeSeriesLookup(metric, granularity, members...)
		},
	}.write(w)
}

func (c *Cume) WriteCSV(w io.Writer) error {
	windows := c.Windows()
	prefixes := make([]string, len(windows))
	for i, win := range windows {
		prefixes[i] = strconv.FormatInt(win, 10)
	}
	return csvTable{
		d:        c.Dimensional,
		prefix:   "Window",
		prefixes: prefixes,
		lookup: func(metric string, window string, members []Member) (float64, bool) {
			n, err := strconv.ParseInt(window, 10, 64)
			if err != nil {
				return 0, false
			}
			return c.CumulativeLookup(metric, n, members...)
		},
	}.write(w)
}

func (t csvTable) header() []string {
	var res []string
	if t.prefix != "" {
		res = append(res, t.prefix)
	}
	reg := t.d.c.Registry()
	for _, g := range t.d.c.Groups() {
		res = append(res, g.Dimension.Label)
		for _, p := range g.Properties() {
			if p.Role == composition.RoleSort {
				continue
			}
			label := p.Name
			if prop, ok := reg.Property(p.Name); ok {
				label = prop.Label
			}
			res = append(res, label)
		}
	}
	for _, m := range t.d.c.Metrics() {
		res = append(res, m.Label())
	}
	return res
}

// combinations is the cross product of every group's members, each group
// extended with the null member.
func (t csvTable) combinations() [][]Member {
	res := [][]Member{nil}
	for _, g := range t.d.c.Groups() {
		members := append(t.d.UniqueMembers(g.Index), Null)
		next := make([][]Member, 0, len(res)*len(members))
		for _, combo := range res {
			for _, m := range members {
				next = append(next, append(append([]Member(nil), combo...), m))
			}
		}
		res = next
	}
	return res
}

func (t csvTable) line(prefix string, combo []Member) []string {
	var res []string
	if t.prefix != "" {
		res = append(res, prefix)
	}
	for i, g := range t.d.c.Groups() {
		m := combo[i]
		res = append(res, m.String())
		for _, p := range g.Properties() {
			switch p.Role {
			case composition.RoleExhibit:
				res = append(res, t.d.Exhibit(g.Index, m))
			case composition.RoleMeta:
				res = append(res, t.d.Meta(g.Index, m, p.Name))
			}
		}
	}
	for _, m := range t.d.c.Metrics() {
		if v, ok := t.lookup(m.ID(), prefix, combo); ok {
			res = append(res, strconv.FormatFloat(v, 'f', -1, 64))
		} else {
			res = append(res, "")
		}
	}
	return res
}

func (t csvTable) write(w io.Writer) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	out := csv.NewWriter(buf)
	if err := out.Write(t.header()); err != nil {
		return errors.Wrap(err, "csv header")
	}
	prefixes := t.prefixes
	if t.prefix == "" {
		prefixes = []string{""}
	}
	combos := t.combinations()
	for _, prefix := range prefixes {
		for _, combo := range combos {
			if err := out.Write(t.line(prefix, combo)); err != nil {
				return errors.Wrap(err, "csv line")
			}
		}
	}
	out.Flush()
	if err := out.Error(); err != nil {
		return errors.Wrap(err, "csv flush")
	}
	_, err := w.Write(buf.B)
	return err
}
