package timeexpr

import (
	"math"
	"strconv"
	"strings"

	"github.com/grafana/regexp"
)

var durationRe = regexp.MustCompile(`^([0-9]+)([YWDhm])$`)

// No month: its length is ambiguous.
var durationUnits = map[string]int64{
	"Y": 365 * 86400,
	"W": 7 * 86400,
	"D": 86400,
	"h": 3600,
	"m": 60,
}

// ExpandDuration rewrites shorthand like 10D into seconds. Bare integers and
// anything unrecognized are returned unchanged.
func ExpandDuration(token string) string {
	m := durationRe.FindStringSubmatch(token)
	if m == nil {
		return token
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return token
	}
	unit := durationUnits[m[2]]
	if n > math.MaxInt64/unit {
		return token
	}
	return strconv.FormatInt(n*unit, 10)
}

func DurationSeconds(token string) (int64, error) {
	expanded := ExpandDuration(strings.TrimSpace(token))
	n, err := strconv.ParseInt(expanded, 10, 64)
	if err != nil {
		return 0, invalid(token, "not a duration")
	}
	return n, nil
}
