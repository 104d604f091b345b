package schema

import (
	"strings"
)

type DimensionType string

const (
	Token     DimensionType = "Token"
	Timestamp DimensionType = "Timestamp"
	Duration  DimensionType = "Duration"
)

const (
	TypeInt64     = "INT64"
	TypeFloat64   = "FLOAT64"
	TypeString    = "STRING"
	TypeTimestamp = "TIMESTAMP"
)

const DefaultWarehouse = "default"

// Binding is the warehouse-specific half of a dimension, property or metric.
type Binding struct {
	Selector        string   `yaml:"selector" validate:"required"`
	Type            string   `yaml:"type" validate:"omitempty,oneof=INT64 FLOAT64 STRING TIMESTAMP"`
	RequiredTables  []string `yaml:"required_tables"`
	RequiredColumns []string `yaml:"required_columns"`
}

type Bindings map[string]*Binding

// For returns the binding for the warehouse, falling back to default.
func (b Bindings) For(warehouse string) *Binding {
	if res, ok := b[warehouse]; ok {
		return res
	}
	return b[DefaultWarehouse]
}

type Names map[string]string

func (n Names) For(warehouse string) string {
	if res, ok := n[warehouse]; ok {
		return res
	}
	return n[DefaultWarehouse]
}

type Dimension struct {
	Name            string        `yaml:"-"`
	Type            DimensionType `yaml:"type" validate:"required,oneof=Token Timestamp Duration"`
	Label           string        `yaml:"label"`
	QueryKeys       []string      `yaml:"query_keys"`
	ExhibitField    string        `yaml:"exhibit_field"`
	SortProperties  []string      `yaml:"sort_properties"`
	MetaProperties  []string      `yaml:"meta_properties"`
	SummableMetrics []string      `yaml:"summable_metrics"`
	PermitNulls     bool          `yaml:"permit_nulls"`
	Unsafe          bool          `yaml:"unsafe"`
	CautionUnless   string        `yaml:"caution_unless"`
	Warehouse       Bindings      `yaml:"warehouse" validate:"required,min=1,dive"`
}

// QueryKey is the canonical request parameter key for the dimension.
func (d *Dimension) QueryKey() string {
	if len(d.QueryKeys) > 0 {
		return d.QueryKeys[0]
	}
	return d.Name
}

type Property struct {
	Name      string   `yaml:"-"`
	Label     string   `yaml:"label"`
	Warehouse Bindings `yaml:"warehouse" validate:"required,min=1,dive"`
}

type VariableSpec struct {
	Min int64 `yaml:"min"`
	Max int64 `yaml:"max" validate:"gtefield=Min"`
}

type Metric struct {
	Name      string        `yaml:"-"`
	Label     string        `yaml:"label"`
	Variable  *VariableSpec `yaml:"variable"`
	Warehouse Bindings      `yaml:"warehouse" validate:"required,min=1,dive"`
}

const variablePlaceholder = "{{variable}}"

// Selector substitutes the metric variable into the aggregate expression.
func (m *Metric) Selector(warehouse string, variable string) string {
	return strings.ReplaceAll(m.Warehouse.For(warehouse).Selector, variablePlaceholder, variable)
}

type JoinSpec struct {
	Key        string `yaml:"key" validate:"omitempty,identifier"`
	TargetKey  string `yaml:"target_key" validate:"omitempty,identifier"`
	Expression string `yaml:"expression"`
}

type Table struct {
	Name     string               `yaml:"-"`
	Root     bool                 `yaml:"root"`
	Physical Names                `yaml:"physical" validate:"required,min=1,dive,identifier"`
	Join     string               `yaml:"join" validate:"omitempty,oneof=LEFT INNER"`
	JoinsTo  map[string]*JoinSpec `yaml:"joins_to" validate:"dive"`
}

type CumeSettings struct {
	Dimension         string `yaml:"dimension"`
	PublishedProperty string `yaml:"published_property"`
	WindowsTable      string `yaml:"windows_table" validate:"omitempty,identifier"`
}

// List is a reference list served to filter pickers.
type List struct {
	Table string `yaml:"table" validate:"required"`
	Code  string `yaml:"code" validate:"required,identifier"`
	Name  string `yaml:"name" validate:"required,identifier"`
	Where string `yaml:"where"`
}
