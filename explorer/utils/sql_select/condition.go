package sql

import (
	"fmt"
	"strings"
)

type LogicalOp struct {
	fn      string
	clauses []SQLObject
}

func (op *LogicalOp) GetFunction() string {
	return op.fn
}

func (op *LogicalOp) GetEntity() []SQLObject {
	return op.clauses
}

func (op *LogicalOp) AppendEntity(clauses ...SQLCondition) {
	for _, v := range clauses {
		op.clauses = append(op.clauses, v)
	}
}

// String wraps only nested logical ops of a different function in parens.
func (op *LogicalOp) String(ctx *Ctx, options ...int) (string, error) {
	strClauses := make([]string, len(op.clauses))
	for i, c := range op.clauses {
		s, err := c.String(ctx, options...)
		if err != nil {
			return "", err
		}
		if nested, ok := c.(*LogicalOp); ok && nested.fn != op.fn && len(nested.clauses) > 1 {
			s = "(" + s + ")"
		}
		strClauses[i] = s
	}
	return strings.Join(strClauses, " "+op.fn+" "), nil
}

func NewGenericLogicalOp(fn string, clauses ...SQLCondition) *LogicalOp {
	_clauses := make([]SQLObject, len(clauses))
	for i, c := range clauses {
		_clauses[i] = c
	}
	return &LogicalOp{
		fn:      fn,
		clauses: _clauses,
	}
}

func And(clauses ...SQLCondition) *LogicalOp {
	return NewGenericLogicalOp("AND", clauses...)
}

func Or(clauses ...SQLCondition) *LogicalOp {
	return NewGenericLogicalOp("OR", clauses...)
}

type Binary struct {
	fn    string
	left  SQLObject
	right SQLObject
}

func (b *Binary) GetFunction() string {
	return b.fn
}

func (b *Binary) GetEntity() []SQLObject {
	return []SQLObject{b.left, b.right}
}

func (b *Binary) String(ctx *Ctx, options ...int) (string, error) {
	l, err := b.left.String(ctx, options...)
	if err != nil {
		return "", err
	}
	r, err := b.right.String(ctx, options...)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s %s", l, b.fn, r), nil
}

func BinaryOp(fn string, left SQLObject, right SQLObject) *Binary {
	return &Binary{
		fn:    fn,
		left:  left,
		right: right,
	}
}

func Eq(left SQLObject, right SQLObject) *Binary {
	return BinaryOp("=", left, right)
}

func Neq(left SQLObject, right SQLObject) *Binary {
	return BinaryOp("!=", left, right)
}

func Lt(left SQLObject, right SQLObject) *Binary {
	return BinaryOp("<", left, right)
}

func Le(left SQLObject, right SQLObject) *Binary {
	return BinaryOp("<=", left, right)
}

func Gt(left SQLObject, right SQLObject) *Binary {
	return BinaryOp(">", left, right)
}

func Ge(left SQLObject, right SQLObject) *Binary {
	return BinaryOp(">=", left, right)
}

type CNull struct {
	not  bool
	expr SQLObject
}

func (c *CNull) GetFunction() string {
	if c.not {
		return "IS NOT NULL"
	}
	return "IS NULL"
}

func (c *CNull) GetEntity() []SQLObject {
	return []SQLObject{c.expr}
}

func (c *CNull) String(ctx *Ctx, options ...int) (string, error) {
	str, err := c.expr.String(ctx, options...)
	return fmt.Sprintf("%s %s", str, c.GetFunction()), err
}

func IsNull(obj SQLObject) SQLCondition {
	return &CNull{expr: obj}
}

func NotNull(obj SQLObject) SQLCondition {
	return &CNull{not: true, expr: obj}
}

// Paren wraps a condition in one pair of parens.
type Paren struct {
	expr SQLCondition
}

func (p *Paren) GetFunction() string {
	return "()"
}

func (p *Paren) GetEntity() []SQLObject {
	return []SQLObject{p.expr}
}

func (p *Paren) String(ctx *Ctx, options ...int) (string, error) {
	str, err := p.expr.String(ctx, options...)
	return "(" + str + ")", err
}

func NewParen(expr SQLCondition) SQLCondition {
	return &Paren{expr: expr}
}

// RawCondition is a schema-declared condition taken verbatim.
type RawCondition struct {
	val string
}

func (r *RawCondition) GetFunction() string {
	return "raw"
}

func (r *RawCondition) GetEntity() []SQLObject {
	return nil
}

func (r *RawCondition) String(ctx *Ctx, options ...int) (string, error) {
	return r.val, nil
}

func NewRawCondition(val string) SQLCondition {
	return &RawCondition{val: val}
}
