package shaper

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	sql "github.com/podlake/explorer/explorer/utils/sql_select"
)

const literalLayout = "2006-01-02 15:04:05"

// Dialect renders the warehouse specific fragments of a statement. Name is
// also the key used to pick schema bindings.
type Dialect interface {
	Name() string
	Time(t time.Time) sql.SQLObject
	String(val string) sql.SQLObject
	// Extract returns the integer date part of expr.
	Extract(part string, expr string) string
	// Truncate returns the calendar bucket of expr as a member string.
	Truncate(unit string, expr string) string
	// Unix returns expr as integer epoch seconds.
	Unix(expr string) string
	// FormatUnix formats epoch seconds as a member string.
	FormatUnix(expr string) string
	DiffSeconds(from string, to string) string
	IntDiv(a string, b string) string
}

type ClickHouse struct{}

func (ClickHouse) Name() string { return "clickhouse" }

func (ClickHouse) Time(t time.Time) sql.SQLObject {
	return sql.FmtRawObject("toDateTime('%s', 'UTC')", t.UTC().Format(literalLayout))
}

func (ClickHouse) String(val string) sql.SQLObject {
	return sql.NewStringVal(val)
}

var clickhouseExtract = map[string]string{
	"hour":    "toHour(%s)",
	"day":     "toDayOfMonth(%s)",
	"dow":     "(toDayOfWeek(%s) %% 7)",
	"doy":     "toDayOfYear(%s)",
	"week":    "toISOWeek(%s)",
	"month":   "toMonth(%s)",
	"quarter": "toQuarter(%s)",
	"year":    "toYear(%s)",
}

func (ClickHouse) Extract(part string, expr string) string {
	return fmt.Sprintf(clickhouseExtract[part], expr)
}

var clickhouseTruncate = map[string]string{
	"hour":    "toStartOfHour(%s)",
	"day":     "toStartOfDay(%s)",
	"week":    "toStartOfWeek(%s, 0)",
	"isoweek": "toMonday(%s)",
	"month":   "toStartOfMonth(%s)",
	"quarter": "toStartOfQuarter(%s)",
	"year":    "toStartOfYear(%s)",
}

func (c ClickHouse) Truncate(unit string, expr string) string {
	return c.format(fmt.Sprintf("toDateTime(%s, 'UTC')", fmt.Sprintf(clickhouseTruncate[unit], expr)))
}

func (ClickHouse) Unix(expr string) string {
	return fmt.Sprintf("toUnixTimestamp(%s)", expr)
}

func (c ClickHouse) FormatUnix(expr string) string {
	return c.format(fmt.Sprintf("toDateTime(%s, 'UTC')", expr))
}

func (ClickHouse) format(expr string) string {
	return fmt.Sprintf("formatDateTime(%s, '%%Y-%%m-%%dT%%H:%%i:%%SZ', 'UTC')", expr)
}

func (ClickHouse) DiffSeconds(from string, to string) string {
	return fmt.Sprintf("dateDiff('second', %s, %s)", from, to)
}

func (ClickHouse) IntDiv(a string, b string) string {
	return fmt.Sprintf("intDiv(%s, %s)", a, b)
}

type DuckDB struct{}

func (DuckDB) Name() string { return "duckdb" }

func (DuckDB) Time(t time.Time) sql.SQLObject {
	return sql.FmtRawObject("TIMESTAMP '%s'", t.UTC().Format(literalLayout))
}

func (DuckDB) String(val string) sql.SQLObject {
	return sql.NewRawObject("'" + strings.ReplaceAll(val, "'", "''") + "'")
}

func (DuckDB) Extract(part string, expr string) string {
	return fmt.Sprintf("EXTRACT(%s FROM %s)", part, expr)
}

var duckdbTruncate = map[string]string{
	"hour":    "date_trunc('hour', %s)",
	"day":     "date_trunc('day', %s)",
	"week":    "(date_trunc('week', %s + INTERVAL 1 DAY) - INTERVAL 1 DAY)",
	"isoweek": "date_trunc('week', %s)",
	"month":   "date_trunc('month', %s)",
	"quarter": "date_trunc('quarter', %s)",
	"year":    "date_trunc('year', %s)",
}

func (d DuckDB) Truncate(unit string, expr string) string {
	return d.format(fmt.Sprintf(duckdbTruncate[unit], expr))
}

func (DuckDB) Unix(expr string) string {
	return fmt.Sprintf("CAST(epoch(%s) AS BIGINT)", expr)
}

func (d DuckDB) FormatUnix(expr string) string {
	return d.format(fmt.Sprintf("make_timestamp((%s) * 1000000)", expr))
}

func (DuckDB) format(expr string) string {
	return fmt.Sprintf("strftime(%s, '%%Y-%%m-%%dT%%H:%%M:%%SZ')", expr)
}

func (DuckDB) DiffSeconds(from string, to string) string {
	return fmt.Sprintf("date_diff('second', %s, %s)", from, to)
}

func (DuckDB) IntDiv(a string, b string) string {
	return fmt.Sprintf("CAST(floor((%s) / (%s)) AS BIGINT)", a, b)
}

// DialectByName resolves a configured warehouse name.
func DialectByName(name string) (Dialect, bool) {
	switch strings.ToLower(name) {
	case "", "clickhouse":
		return ClickHouse{}, true
	case "duckdb":
		return DuckDB{}, true
	}
	return nil, false
}

func int64Literal(n int64) string {
	return strconv.FormatInt(n, 10)
}
