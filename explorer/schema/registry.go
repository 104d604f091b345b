package schema

import (
	_ "embed"
	"io/ioutil"
	"sort"
	"strings"

	"github.com/grafana/regexp"
	"github.com/pkg/errors"
	"gopkg.in/go-playground/validator.v9"
	"gopkg.in/yaml.v2"
)

//go:embed default.yml
var defaultSchema []byte

var identifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Registry is the read-only data schema. It is built once by Load.
type Registry struct {
	Dimensions             map[string]*Dimension `yaml:"dimensions" validate:"required,min=1,dive"`
	Properties             map[string]*Property  `yaml:"properties" validate:"dive"`
	Metrics                map[string]*Metric    `yaml:"metrics" validate:"required,min=1,dive"`
	Tables                 map[string]*Table     `yaml:"tables" validate:"required,min=1,dive"`
	Lists                  map[string]*List      `yaml:"lists" validate:"dive"`
	TimeDimension          string                `yaml:"time_dimension" validate:"required"`
	AuthorizationDimension string                `yaml:"authorization_dimension"`
	Cume                   CumeSettings          `yaml:"cume"`

	root string
	keys map[string]*Dimension
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("identifier", func(fl validator.FieldLevel) bool {
		return identifierRe.MatchString(fl.Field().String())
	})
	return v
}

func Load(data []byte) (*Registry, error) {
	reg := &Registry{}
	if err := yaml.UnmarshalStrict(data, reg); err != nil {
		return nil, errors.Wrap(err, "schema parse error")
	}
	if err := newValidator().Struct(reg); err != nil {
		return nil, errors.Wrap(err, "schema validation error")
	}
	if err := reg.link(); err != nil {
		return nil, err
	}
	return reg, nil
}

func LoadFile(path string) (*Registry, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read schema %s", path)
	}
	return Load(data)
}

// Default returns the schema compiled into the binary.
func Default() *Registry {
	reg, err := Load(defaultSchema)
	if err != nil {
		panic(err)
	}
	return reg
}

func (r *Registry) link() error {
	for name, t := range r.Tables {
		t.Name = name
		if !identifierRe.MatchString(name) {
			return errors.Errorf("table name %q is not an identifier", name)
		}
		if t.Physical[DefaultWarehouse] == "" {
			return errors.Errorf("table %s: no %s physical name", name, DefaultWarehouse)
		}
		if t.Join == "" {
			t.Join = "LEFT"
		}
		if t.Root {
			if r.root != "" {
				return errors.Errorf("tables %s and %s are both marked as root", r.root, name)
			}
			r.root = name
		}
	}
	if r.root == "" {
		return errors.New("no root table")
	}
	if err := r.checkJoinGraph(); err != nil {
		return err
	}

	for name, p := range r.Properties {
		p.Name = name
		if p.Label == "" {
			p.Label = humanize(name)
		}
		if err := r.checkBindings("property "+name, p.Warehouse); err != nil {
			return err
		}
	}
	for name, m := range r.Metrics {
		m.Name = name
		if m.Label == "" {
			m.Label = humanize(name)
		}
		if err := r.checkBindings("metric "+name, m.Warehouse); err != nil {
			return err
		}
	}
	r.keys = map[string]*Dimension{}
	for name, d := range r.Dimensions {
		d.Name = name
		if d.Label == "" {
			d.Label = humanize(name)
		}
		if err := r.checkBindings("dimension "+name, d.Warehouse); err != nil {
			return err
		}
		if err := r.checkDimensionRefs(d); err != nil {
			return err
		}
		for _, key := range append([]string{name}, d.QueryKeys...) {
			if other, ok := r.keys[key]; ok && other != d {
				return errors.Errorf("query key %s is used by %s and %s", key, other.Name, name)
			}
			r.keys[key] = d
		}
	}
	for name, l := range r.Lists {
		if _, ok := r.Tables[l.Table]; !ok {
			return errors.Errorf("list %s: unknown table %s", name, l.Table)
		}
	}
	return r.checkSettings()
}

// checkBindings requires a default binding so that every warehouse resolves
// to one.
func (r *Registry) checkBindings(owner string, bindings Bindings) error {
	if bindings[DefaultWarehouse] == nil {
		return errors.Errorf("%s: no %s warehouse binding", owner, DefaultWarehouse)
	}
	for warehouse, b := range bindings {
		for _, t := range b.RequiredTables {
			if _, ok := r.Tables[t]; !ok {
				return errors.Errorf("%s (%s): unknown required table %s", owner, warehouse, t)
			}
		}
	}
	return nil
}

func (r *Registry) checkDimensionRefs(d *Dimension) error {
	props := append([]string{}, d.SortProperties...)
	props = append(props, d.MetaProperties...)
	if d.ExhibitField != "" {
		props = append(props, d.ExhibitField)
	}
	for _, p := range props {
		if _, ok := r.Properties[p]; !ok {
			return errors.Errorf("dimension %s: unknown property %s", d.Name, p)
		}
	}
	for _, m := range d.SummableMetrics {
		if _, ok := r.Metrics[m]; !ok {
			return errors.Errorf("dimension %s: unknown metric %s", d.Name, m)
		}
	}
	if d.CautionUnless != "" {
		if _, ok := r.Dimensions[d.CautionUnless]; !ok {
			return errors.Errorf("dimension %s: unknown caution dimension %s", d.Name, d.CautionUnless)
		}
	}
	return nil
}

func (r *Registry) checkSettings() error {
	td, ok := r.Dimensions[r.TimeDimension]
	if !ok || td.Type != Timestamp {
		return errors.Errorf("time dimension %s must be a Timestamp dimension", r.TimeDimension)
	}
	if r.AuthorizationDimension != "" {
		ad, ok := r.Dimensions[r.AuthorizationDimension]
		if !ok || ad.Type != Token {
			return errors.Errorf("authorization dimension %s must be a Token dimension", r.AuthorizationDimension)
		}
	}
	if r.Cume.Dimension != "" {
		if _, ok := r.Dimensions[r.Cume.Dimension]; !ok {
			return errors.Errorf("cume dimension %s is unknown", r.Cume.Dimension)
		}
		if _, ok := r.Properties[r.Cume.PublishedProperty]; !ok {
			return errors.Errorf("cume published property %s is unknown", r.Cume.PublishedProperty)
		}
		if r.Cume.WindowsTable == "" {
			return errors.New("cume windows table is required")
		}
	}
	return nil
}

// checkJoinGraph asserts that joins_to forms a DAG in which every table
// reaches the root.
func (r *Registry) checkJoinGraph() error {
	const (
		white = iota
		grey
		black
	)
	color := map[string]int{}
	reaches := map[string]bool{r.root: true}
	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		switch color[name] {
		case grey:
			return errors.Errorf("join cycle: %s", strings.Join(append(path, name), " -> "))
		case black:
			return nil
		}
		color[name] = grey
		t := r.Tables[name]
		for _, target := range t.Targets() {
			if _, ok := r.Tables[target]; !ok {
				return errors.Errorf("table %s joins to unknown table %s", name, target)
			}
			spec := t.JoinsTo[target]
			if (spec.Key == "") == (spec.Expression == "") {
				return errors.Errorf("table %s -> %s: exactly one of key or expression is required", name, target)
			}
			if err := visit(target, append(path, name)); err != nil {
				return err
			}
			reaches[name] = reaches[name] || reaches[target]
		}
		color[name] = black
		return nil
	}
	for _, name := range r.TableNames() {
		t := r.Tables[name]
		if t.Root && len(t.JoinsTo) > 0 {
			return errors.Errorf("root table %s cannot join to other tables", name)
		}
		if err := visit(name, nil); err != nil {
			return err
		}
		if !reaches[name] {
			return errors.Errorf("table %s does not reach root table %s", name, r.root)
		}
	}
	return nil
}

// Targets lists the join targets in a stable order.
func (t *Table) Targets() []string {
	res := make([]string, 0, len(t.JoinsTo))
	for target := range t.JoinsTo {
		res = append(res, target)
	}
	sort.Strings(res)
	return res
}

func (r *Registry) Root() *Table {
	return r.Tables[r.root]
}

func (r *Registry) TableNames() []string {
	return sortedKeys(r.Tables)
}

func (r *Registry) DimensionNames() []string {
	return sortedKeys(r.Dimensions)
}

func (r *Registry) MetricNames() []string {
	return sortedKeys(r.Metrics)
}

func (r *Registry) Dimension(name string) (*Dimension, bool) {
	d, ok := r.Dimensions[name]
	return d, ok
}

// DimensionByKey resolves a request query key or alias.
func (r *Registry) DimensionByKey(key string) (*Dimension, bool) {
	d, ok := r.keys[key]
	return d, ok
}

func (r *Registry) Property(name string) (*Property, bool) {
	p, ok := r.Properties[name]
	return p, ok
}

func (r *Registry) Metric(name string) (*Metric, bool) {
	m, ok := r.Metrics[name]
	return m, ok
}

func (r *Registry) Table(name string) (*Table, bool) {
	t, ok := r.Tables[name]
	return t, ok
}

// TableClosure closes the given tables over joins_to. Dependencies come
// before their dependants, first occurrence wins and the root is left out.
func (r *Registry) TableClosure(tables []string) []string {
	seen := map[string]bool{r.root: true}
	var res []string
	var visit func(name string)
	visit = func(name string) {
		if seen[name] {
			return
		}
		seen[name] = true
		t, ok := r.Tables[name]
		if !ok {
			return
		}
		for _, target := range t.Targets() {
			visit(target)
		}
		res = append(res, name)
	}
	for _, name := range tables {
		visit(name)
	}
	return res
}

func sortedKeys[T any](m map[string]T) []string {
	res := make([]string, 0, len(m))
	for k := range m {
		res = append(res, k)
	}
	sort.Strings(res)
	return res
}

func humanize(name string) string {
	words := strings.Split(name, "_")
	if len(words) > 0 && words[0] != "" {
		words[0] = strings.ToUpper(words[0][:1]) + words[0][1:]
	}
	return strings.Join(words, " ")
}
