package composition

import (
	"strconv"

	"github.com/grafana/regexp"
	"github.com/podlake/explorer/explorer/schema"
)

var metricRe = regexp.MustCompile(`^([a-zA-Z_][a-zA-Z0-9_]*)(?:\(([^()]*)\))?$`)

type Metric struct {
	Name     string
	Variable string
	Position int
	Metric   *schema.Metric
}

// ParseMetric splits name(variable). Unparseable input keeps the raw text
// as the name so validation can report it.
func ParseMetric(reg *schema.Registry, raw string) *Metric {
	res := &Metric{Name: raw}
	if m := metricRe.FindStringSubmatch(raw); m != nil {
		res.Name, res.Variable = m[1], m[2]
	}
	res.Metric, _ = reg.Metric(res.Name)
	return res
}

// ID is the request notation, used as the result lookup key.
func (m *Metric) ID() string {
	if m.Variable == "" {
		return m.Name
	}
	return m.Name + "(" + m.Variable + ")"
}

func (m *Metric) Alias() string {
	return "m" + strconv.Itoa(m.Position)
}

func (m *Metric) Label() string {
	if m.Metric == nil {
		return m.ID()
	}
	if m.Variable == "" {
		return m.Metric.Label
	}
	return m.Metric.Label + " (" + m.Variable + ")"
}

func (m *Metric) validate(v *validation) {
	if m.Metric == nil {
		v.errs.Add("metrics", Unknown, m.Name)
		return
	}
	spec := m.Metric.Variable
	switch {
	case spec == nil && m.Variable != "":
		v.errs.Add("metrics", Present, m.ID())
	case spec != nil && m.Variable == "":
		v.errs.Add("metrics", Blank, m.Name+" variable")
	case spec != nil:
		n, err := strconv.ParseInt(m.Variable, 10, 64)
		if err != nil {
			v.errs.Add("metrics", NotNumeric, m.ID())
		} else if n < spec.Min || n > spec.Max {
			v.errs.Add("metrics", Inclusion, m.ID())
		}
	}
}
