package composition

import (
	"strconv"
	"time"

	"github.com/podlake/explorer/explorer/schema"
	"github.com/podlake/explorer/explorer/timeexpr"
	"golang.org/x/exp/slices"
)

type GroupMode int

const (
	GroupRaw GroupMode = iota
	GroupExtract
	GroupTruncate
	GroupIndices
)

// Overflow labels the catch-all bin after the last index.
const Overflow = "overflow"

// MemberTimeLayout is the canonical format of timestamp members.
const MemberTimeLayout = "2006-01-02T15:04:05Z"

var TruncateUnits = []string{"hour", "day", "week", "isoweek", "month", "quarter", "year"}

// IndexBound is one validated indices boundary.
type IndexBound struct {
	Label   string
	Seconds int64
	Time    time.Time
}

type Group struct {
	Index     int
	Dimension *schema.Dimension
	Extract   string
	Truncate  string
	Indices   []string
	Meta      []string

	bounds []IndexBound
}

func (g *Group) field(suffix string) string {
	f := "group." + strconv.Itoa(g.Index)
	if suffix != "" {
		f += "." + suffix
	}
	return f
}

func (g *Group) Mode() GroupMode {
	switch {
	case g.Extract != "":
		return GroupExtract
	case g.Truncate != "":
		return GroupTruncate
	case len(g.Indices) > 0:
		return GroupIndices
	}
	return GroupRaw
}

// Alias is the select alias of the group value.
func (g *Group) Alias() string {
	return "g" + strconv.Itoa(g.Index)
}

// PropertyAlias encodes group alias, role and field into one alias.
func (g *Group) PropertyAlias(role string, field string) string {
	return g.Alias() + "_" + role + "_" + field
}

// Bounds returns the indices boundaries resolved during validation.
func (g *Group) Bounds() []IndexBound {
	return g.bounds
}

// Members lists the fixed bins of an indices group, overflow last.
func (g *Group) Members() []string {
	if g.Mode() != GroupIndices {
		return nil
	}
	res := make([]string, 0, len(g.bounds)+1)
	for _, b := range g.bounds {
		res = append(res, b.Label)
	}
	return append(res, Overflow)
}

// Properties are the exhibit, sort and meta properties selected alongside a
// raw group, keyed by role.
func (g *Group) Properties() []GroupProperty {
	if g.Dimension == nil || g.Mode() != GroupRaw {
		return nil
	}
	var res []GroupProperty
	seen := map[string]bool{}
	add := func(role, name string) {
		if seen[role+name] {
			return
		}
		seen[role+name] = true
		res = append(res, GroupProperty{Role: role, Name: name, Alias: g.PropertyAlias(role, name)})
	}
	if g.Dimension.ExhibitField != "" {
		add(RoleExhibit, g.Dimension.ExhibitField)
	}
	for _, p := range g.Dimension.SortProperties {
		add(RoleSort, p)
	}
	for _, p := range g.Meta {
		add(RoleMeta, p)
	}
	return res
}

const (
	RoleExhibit = "x"
	RoleSort    = "s"
	RoleMeta    = "m"
)

type GroupProperty struct {
	Role  string
	Name  string
	Alias string
}

func (g *Group) validate(v *validation) {
	g.bounds = nil
	if g.Dimension == nil {
		v.errs.Add(g.field(""), Blank)
		return
	}
	modes := 0
	for _, set := range []bool{g.Extract != "", g.Truncate != "", len(g.Indices) > 0} {
		if set {
			modes++
		}
	}
	if modes > 1 {
		v.errs.Add(g.field(""), Exclusive)
	}
	if g.Extract != "" {
		if g.Dimension.Type != schema.Timestamp {
			v.errs.Add(g.field("extract"), TypeMismatch)
		} else if !slices.Contains(ExtractParts, g.Extract) {
			v.errs.Add(g.field("extract"), Inclusion)
		}
	}
	if g.Truncate != "" {
		if g.Dimension.Type != schema.Timestamp {
			v.errs.Add(g.field("truncate"), TypeMismatch)
		} else if !slices.Contains(TruncateUnits, g.Truncate) {
			v.errs.Add(g.field("truncate"), Inclusion)
		}
	}
	if len(g.Indices) > 0 {
		g.validateIndices(v)
	}
	for _, m := range g.Meta {
		if _, ok := v.registry.Property(m); !ok {
			v.errs.Add(g.field("meta"), Unknown, m)
		}
	}
	if len(g.Meta) > 0 && g.Mode() != GroupRaw {
		v.errs.Add(g.field("meta"), Exclusive)
	}
}

func (g *Group) validateIndices(v *validation) {
	field := g.field("indices")
	if g.Dimension.Type == schema.Token {
		v.errs.Add(field, TypeMismatch)
		return
	}
	bounds := make([]IndexBound, 0, len(g.Indices))
	for _, raw := range g.Indices {
		if raw == "" {
			v.errs.Add(field, Blank)
			return
		}
		if g.Dimension.Type == schema.Duration {
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				v.errs.Add(field, NotNumeric, raw)
				return
			}
			bounds = append(bounds, IndexBound{Label: strconv.FormatInt(n, 10), Seconds: n})
			continue
		}
		t, err := timeexpr.ResolveBound(raw, timeexpr.Front, v.now)
		if err != nil {
			v.errs.Add(field, Invalid, raw)
			return
		}
		bounds = append(bounds, IndexBound{Label: t.Format(MemberTimeLayout), Seconds: t.Unix(), Time: t})
	}
	for i := 1; i < len(bounds); i++ {
		switch {
		case bounds[i].Seconds == bounds[i-1].Seconds:
			v.errs.Add(field, Duplicate, bounds[i].Label)
			return
		case bounds[i].Seconds < bounds[i-1].Seconds:
			v.errs.Add(field, NotIncreasing, bounds[i].Label)
			return
		}
	}
	g.bounds = bounds
}
