package timeexpr

import (
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Resolve evaluates a relative expression against now.
func Resolve(expr string, side Side, now time.Time) (time.Time, error) {
	e, err := Parse(expr)
	if err != nil {
		return time.Time{}, err
	}
	return e.Resolve(side, now), nil
}

// Resolve applies the snap (with the back side moving one extra period) and
// then every shift in textual order.
func (e *Expression) Resolve(side Side, now time.Time) time.Time {
	res := now.UTC()
	if e.Snap != nil {
		offset := e.Snap.Offset
		if side == Back {
			offset++
		}
		res = Advance(Truncate(res, e.Snap.Unit), e.Snap.Unit, offset)
	}
	for _, s := range e.Shifts {
		res = shift(res, s)
	}
	return res
}

// IsRelative reports whether str is written in the now-based grammar.
func IsRelative(str string) bool {
	return strings.HasPrefix(str, "now")
}

// ResolveBound accepts a relative expression, an RFC3339 instant or a
// YYYY-MM-DD date. A date behaves as a day snap, so the back side lands on
// the following midnight.
func ResolveBound(str string, side Side, now time.Time) (time.Time, error) {
	str = strings.TrimSpace(str)
	if IsRelative(str) {
		return Resolve(str, side, now)
	}
	if t, err := time.Parse(time.RFC3339, str); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.ParseInLocation(dateLayout, str, time.UTC); err == nil {
		if side == Back {
			return t.AddDate(0, 0, 1), nil
		}
		return t, nil
	}
	return time.Time{}, invalid(str, "neither a relative expression nor an absolute date")
}
