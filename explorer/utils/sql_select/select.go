package sql

import (
	"fmt"
	"strings"
)

type Select struct {
	distinct bool
	columns  []SQLObject
	from     SQLObject
	where    SQLCondition
	groupBy  []SQLObject
	orderBy  []SQLObject
	limit    SQLObject
	joins    []*Join
}

func (s *Select) Distinct(distinct bool) ISelect {
	s.distinct = distinct
	return s
}

func (s *Select) GetDistinct() bool {
	return s.distinct
}

func (s *Select) Select(cols ...SQLObject) ISelect {
	s.columns = cols
	return s
}

func (s *Select) GetSelect() []SQLObject {
	return s.columns
}

func (s *Select) From(table SQLObject) ISelect {
	s.from = table
	return s
}

func (s *Select) GetFrom() SQLObject {
	return s.from
}

func (s *Select) AndWhere(clauses ...SQLCondition) ISelect {
	if s.where == nil {
		s.where = And(clauses...)
		return s
	}
	if _, ok := s.where.(*LogicalOp); ok && s.where.GetFunction() == "AND" {
		s.where.(*LogicalOp).AppendEntity(clauses...)
		return s
	}
	_clauses := make([]SQLCondition, len(clauses)+1)
	_clauses[0] = s.where
	for i, v := range clauses {
		_clauses[i+1] = v
	}
	s.where = And(_clauses...)
	return s
}

func (s *Select) GetWhere() SQLCondition {
	return s.where
}

func (s *Select) GroupBy(fields ...SQLObject) ISelect {
	s.groupBy = fields
	return s
}

func (s *Select) GetGroupBy() []SQLObject {
	return s.groupBy
}

func (s *Select) OrderBy(fields ...SQLObject) ISelect {
	s.orderBy = fields
	return s
}

func (s *Select) GetOrderBy() []SQLObject {
	return s.orderBy
}

func (s *Select) Limit(limit SQLObject) ISelect {
	s.limit = limit
	return s
}

func (s *Select) GetLimit() SQLObject {
	return s.limit
}

func (s *Select) Join(joins ...*Join) ISelect {
	s.joins = joins
	return s
}

func (s *Select) AddJoin(joins ...*Join) ISelect {
	for _, lj := range joins {
		s.joins = append(s.joins, lj)
	}
	return s
}

func (s *Select) GetJoin() []*Join {
	return s.joins
}

func (s *Select) String(ctx *Ctx, options ...int) (string, error) {
	res := strings.Builder{}
	res.WriteString("SELECT ")
	if s.distinct {
		res.WriteString("DISTINCT ")
	}
	if len(s.columns) == 0 {
		return "", fmt.Errorf("no 'SELECT' part")
	}
	for i, col := range s.columns {
		if i != 0 {
			res.WriteString(", ")
		}
		str, err := col.String(ctx, options...)
		if err != nil {
			return "", err
		}
		res.WriteString(str)
	}
	var (
		str string
		err error
	)
	if s.from != nil {
		res.WriteString(" FROM ")
		str, err = s.from.String(ctx, options...)
		if err != nil {
			return "", err
		}
		res.WriteString(str)
		for _, lj := range s.joins {
			str, err = lj.String(ctx, options...)
			if err != nil {
				return "", err
			}
			res.WriteString(" ")
			res.WriteString(str)
		}
	}
	if s.where != nil && len(s.where.GetEntity()) > 0 {
		res.WriteString(" WHERE ")
		str, err = s.where.String(ctx, options...)
		if err != nil {
			return "", err
		}
		res.WriteString(str)
	}
	if len(s.groupBy) > 0 {
		res.WriteString(" GROUP BY ")
		for i, f := range s.groupBy {
			if i != 0 {
				res.WriteString(", ")
			}
			str, err = f.String(ctx, options...)
			if err != nil {
				return "", err
			}
			res.WriteString(str)
		}
	}
	if len(s.orderBy) > 0 {
		res.WriteString(" ORDER BY ")
		for i, f := range s.orderBy {
			if i != 0 {
				res.WriteString(", ")
			}
			str, err = f.String(ctx, options...)
			if err != nil {
				return "", err
			}
			res.WriteString(str)
		}
	}
	if s.limit != nil {
		str, err = s.limit.String(ctx, options...)
		if err != nil {
			return "", err
		}
		if str != "" {
			res.WriteString(" LIMIT ")
			res.WriteString(str)
		}
	}
	return res.String(), nil
}

func NewSelect() ISelect {
	return &Select{}
}
