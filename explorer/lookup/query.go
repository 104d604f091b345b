package lookup

import (
	"github.com/pkg/errors"
	"github.com/podlake/explorer/explorer/schema"
	sql "github.com/podlake/explorer/explorer/utils/sql_select"
)

var ErrUnknownList = errors.New("unknown list")

// Query renders the statement that loads a reference list as code/name rows.
func Query(reg *schema.Registry, name string, warehouse string) (string, error) {
	list, ok := reg.Lists[name]
	if !ok {
		return "", errors.Wrap(ErrUnknownList, name)
	}
	table, ok := reg.Table(list.Table)
	if !ok {
		return "", errors.Errorf("list %s: unknown table %s", name, list.Table)
	}
	req := sql.NewSelect().
		Select(
			sql.NewSimpleCol(table.Name+"."+list.Code, "code"),
			sql.NewSimpleCol(table.Name+"."+list.Name, "name")).
		From(sql.NewTable(table.Physical.For(warehouse), table.Name)).
		OrderBy(sql.NewOrderBy(sql.NewRawObject("name"), sql.ORDER_BY_DIRECTION_ASC))
	if list.Where != "" {
		req = req.AndWhere(sql.NewParen(sql.NewRawCondition(list.Where)))
	}
	return sql.Render(req)
}
