package results

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/podlake/explorer/explorer/composition"
)

// Member identifies one value of a group. The null member matches only rows
// where the group has no value.
type Member struct {
	Value string
	Null  bool
}

var Null = Member{Null: true}

func Value(v string) Member {
	return Member{Value: v}
}

func (m Member) String() string {
	if m.Null {
		return ""
	}
	return m.Value
}

// Row is one result row keyed by select alias, with normalized values.
type Row map[string]any

// NewRows normalizes raw warehouse rows: integers become int64, floats
// float64, byte slices strings and times canonical UTC strings.
func NewRows(raw []map[string]any) []Row {
	res := make([]Row, len(raw))
	for i, r := range raw {
		row := make(Row, len(r))
		for k, v := range r {
			row[k] = normalize(v)
		}
		res[i] = row
	}
	return res
}

func normalize(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case int64, float64, string:
		return val
	case int:
		return int64(val)
	case int8:
		return int64(val)
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case uint8:
		return int64(val)
	case uint16:
		return int64(val)
	case uint32:
		return int64(val)
	case uint64:
		return int64(val)
	case uint:
		return int64(val)
	case float32:
		return float64(val)
	case []byte:
		return string(val)
	case bool:
		if val {
			return int64(1)
		}
		return int64(0)
	case time.Time:
		return val.UTC().Format(composition.MemberTimeLayout)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		return normalize(rv.Elem().Interface())
	}
	return v
}

func (r Row) member(alias string) Member {
	switch v := r[alias].(type) {
	case nil:
		return Null
	case string:
		return Value(v)
	case int64:
		return Value(strconv.FormatInt(v, 10))
	case float64:
		return Value(strconv.FormatFloat(v, 'f', -1, 64))
	default:
		return Value(fmt.Sprint(v))
	}
}

func (r Row) number(alias string) (float64, bool) {
	switch v := r[alias].(type) {
	case int64:
		return float64(v), true
	case float64:
		return v, true
	case string:
		n, err := strconv.ParseFloat(v, 64)
		return n, err == nil
	}
	return 0, false
}

// Text is the string form of a column, "" for NULL.
func (r Row) Text(alias string) string {
	if v, ok := r[alias]; ok && v != nil {
		return r.member(alias).Value
	}
	return ""
}

type criterion struct {
	alias  string
	member Member
}

func (r Row) matches(crit []criterion) bool {
	for _, c := range crit {
		if r.member(c.alias) != c.member {
			return false
		}
	}
	return true
}

func memoKey(metric string, crit []criterion) string {
	key := metric
	for _, c := range crit {
		key += "\x00" + c.alias + "="
		if c.member.Null {
			key += "\x01"
		} else {
			key += c.member.Value
		}
	}
	return key
}
