package sql

const (
	ORDER_BY_DIRECTION_ASC  = 3
	ORDER_BY_DIRECTION_DESC = 4
)

type SQLObject interface {
	String(ctx *Ctx, options ...int) (string, error)
}

type SQLCondition interface {
	GetFunction() string
	GetEntity() []SQLObject
	String(ctx *Ctx, options ...int) (string, error)
}

type Ctx struct {
	id int
}

func (c *Ctx) Id() int {
	c.id++
	return c.id
}

type ISelect interface {
	Distinct(distinct bool) ISelect
	GetDistinct() bool
	Select(cols ...SQLObject) ISelect
	GetSelect() []SQLObject
	From(table SQLObject) ISelect
	GetFrom() SQLObject
	AndWhere(clauses ...SQLCondition) ISelect
	GetWhere() SQLCondition
	GroupBy(fields ...SQLObject) ISelect
	GetGroupBy() []SQLObject
	OrderBy(fields ...SQLObject) ISelect
	GetOrderBy() []SQLObject
	Limit(limit SQLObject) ISelect
	GetLimit() SQLObject
	Join(joins ...*Join) ISelect
	AddJoin(joins ...*Join) ISelect
	GetJoin() []*Join
	String(ctx *Ctx, options ...int) (string, error)
}

type Aliased interface {
	GetExpr() SQLObject
	GetAlias() string
	String(ctx *Ctx, options ...int) (string, error)
}

// Render stringifies any object with a fresh context.
func Render(obj SQLObject) (string, error) {
	return obj.String(&Ctx{})
}
