package sql

import (
	"fmt"
	"strconv"
	"strings"
)

type RawObject struct {
	val string
}

func (r *RawObject) String(ctx *Ctx, options ...int) (string, error) {
	return r.val, nil
}

func NewRawObject(val string) *RawObject {
	return &RawObject{
		val: val,
	}
}

func FmtRawObject(tmpl string, arg ...interface{}) *RawObject {
	return &RawObject{fmt.Sprintf(tmpl, arg...)}
}

type OrderBy struct {
	col       SQLObject
	direction int
}

func (o *OrderBy) String(ctx *Ctx, options ...int) (string, error) {
	order := "DESC"
	if o.direction == ORDER_BY_DIRECTION_ASC {
		order = "ASC"
	}
	str, err := o.col.String(ctx, options...)
	return fmt.Sprintf("%s %s", str, order), err
}

func NewOrderBy(col SQLObject, direction int) *OrderBy {
	return &OrderBy{
		col:       col,
		direction: direction,
	}
}

// Table is a physical table referenced under a logical alias.
type Table struct {
	name  string
	alias string
}

func (t *Table) String(ctx *Ctx, options ...int) (string, error) {
	if t.alias == "" || t.alias == t.name {
		return t.name, nil
	}
	return t.name + " AS " + t.alias, nil
}

func NewTable(name string, alias string) *Table {
	return &Table{name: name, alias: alias}
}

type Join struct {
	tp    string
	table SQLObject
	on    SQLCondition
}

func (l *Join) String(ctx *Ctx, options ...int) (string, error) {
	tbl, err := l.table.String(ctx, options...)
	if err != nil {
		return "", err
	}
	if l.on == nil {
		return fmt.Sprintf("%s JOIN %s", l.tp, tbl), nil
	}
	on, err := l.on.String(ctx, options...)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s JOIN %s ON %s", l.tp, tbl, on), nil
}

func (l *Join) GetTable() SQLObject {
	return l.table
}

func (l *Join) GetOn() SQLCondition {
	return l.on
}

func NewJoin(tp string, table SQLObject, on SQLCondition) *Join {
	return &Join{
		tp:    strings.ToUpper(tp),
		table: table,
		on:    on,
	}
}

type StringVal struct {
	val string
}

func (s *StringVal) String(ctx *Ctx, options ...int) (string, error) {
	find := []string{"\\", "\000", "\n", "\r", "\b", "\t", "\x1a", "'"}
	replace := []string{"\\\\", "\\0", "\\n", "\\r", "\\b", "\\t", "\\x1a", "\\'"}
	res := s.val
	for i, v := range find {
		res = strings.Replace(res, v, replace[i], -1)
	}
	return "'" + res + "'", nil
}

func NewStringVal(s string) SQLObject {
	return &StringVal{
		val: s,
	}
}

type IntVal struct {
	val int64
}

func (i *IntVal) String(ctx *Ctx, options ...int) (string, error) {
	return strconv.FormatInt(i.val, 10), nil
}

func NewIntVal(val int64) *IntVal {
	return &IntVal{
		val: val,
	}
}

type FloatVal struct {
	val float64
}

func (f *FloatVal) String(ctx *Ctx, options ...int) (string, error) {
	return strconv.FormatFloat(f.val, 'f', -1, 64), nil
}

func NewFloatVal(f float64) SQLObject {
	return &FloatVal{
		val: f,
	}
}

type Col struct {
	expr  SQLObject
	alias string
}

func (c *Col) GetExpr() SQLObject {
	return c.expr
}

func (c *Col) GetAlias() string {
	return c.alias
}

func (c *Col) String(ctx *Ctx, options ...int) (string, error) {
	expr, err := c.expr.String(ctx, options...)
	if c.alias == "" {
		return expr, err
	}
	return fmt.Sprintf("%s AS %s", expr, c.alias), err
}

func NewCol(expr SQLObject, alias string) *Col {
	return &Col{
		expr:  expr,
		alias: alias,
	}
}

func NewSimpleCol(name string, alias string) *Col {
	return &Col{
		expr:  NewRawObject(name),
		alias: alias,
	}
}

type In struct {
	not       bool
	leftSide  SQLObject
	rightSide []SQLObject
}

func (in *In) String(ctx *Ctx, options ...int) (string, error) {
	parts := make([]string, len(in.rightSide))
	for i, e := range in.rightSide {
		str, err := e.String(ctx, options...)
		if err != nil {
			return "", err
		}
		parts[i] = str
	}
	str, err := in.leftSide.String(ctx, options...)
	return fmt.Sprintf("%s %s (%s)", str, in.GetFunction(), strings.Join(parts, ", ")), err
}

func (in *In) GetFunction() string {
	if in.not {
		return "NOT IN"
	}
	return "IN"
}

func (in *In) GetEntity() []SQLObject {
	ent := make([]SQLObject, len(in.rightSide)+1)
	ent[0] = in.leftSide
	for i, r := range in.rightSide {
		ent[i+1] = r
	}
	return ent
}

func NewIn(left SQLObject, right ...SQLObject) *In {
	return &In{
		leftSide:  left,
		rightSide: right,
	}
}

func NewNotIn(left SQLObject, right ...SQLObject) *In {
	return &In{
		not:       true,
		leftSide:  left,
		rightSide: right,
	}
}

type When struct {
	cond SQLCondition
	then SQLObject
}

// Case renders CASE WHEN ... THEN ... ELSE ... END.
type Case struct {
	whens []When
	els   SQLObject
}

func (c *Case) When(cond SQLCondition, then SQLObject) *Case {
	c.whens = append(c.whens, When{cond: cond, then: then})
	return c
}

func (c *Case) Else(els SQLObject) *Case {
	c.els = els
	return c
}

func (c *Case) String(ctx *Ctx, options ...int) (string, error) {
	res := strings.Builder{}
	res.WriteString("CASE")
	for _, w := range c.whens {
		cond, err := w.cond.String(ctx, options...)
		if err != nil {
			return "", err
		}
		then, err := w.then.String(ctx, options...)
		if err != nil {
			return "", err
		}
		res.WriteString(" WHEN ")
		res.WriteString(cond)
		res.WriteString(" THEN ")
		res.WriteString(then)
	}
	if c.els != nil {
		els, err := c.els.String(ctx, options...)
		if err != nil {
			return "", err
		}
		res.WriteString(" ELSE ")
		res.WriteString(els)
	}
	res.WriteString(" END")
	return res.String(), nil
}

func NewCase() *Case {
	return &Case{}
}

type CustomCol struct {
	stringify func(ctx *Ctx, options ...int) (string, error)
}

func (c *CustomCol) String(ctx *Ctx, options ...int) (string, error) {
	return c.stringify(ctx, options...)
}

func NewCustomCol(fn func(ctx *Ctx, options ...int) (string, error)) SQLObject {
	return &CustomCol{stringify: fn}
}
