package timeexpr

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Saturday
var testNow = time.Date(2024, time.June, 15, 13, 45, 30, 0, time.UTC)

func mustResolve(t *testing.T, expr string, side Side, now time.Time) time.Time {
	t.Helper()
	res, err := Resolve(expr, side, now)
	require.NoError(t, err, expr)
	return res
}

func TestSnapFront(t *testing.T) {
	for expr, want := range map[string]time.Time{
		"now":    testNow,
		"now/m":  time.Date(2024, 6, 15, 13, 45, 0, 0, time.UTC),
		"now/h":  time.Date(2024, 6, 15, 13, 0, 0, 0, time.UTC),
		"now/D":  time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
		"now/W":  time.Date(2024, 6, 9, 0, 0, 0, 0, time.UTC),
		"now/IW": time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
		"now/M":  time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		"now/Q":  time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		"now/Y":  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		"now-7D": time.Date(2024, 6, 8, 13, 45, 30, 0, time.UTC),
	} {
		assert.Equal(t, want, mustResolve(t, expr, Front, testNow), expr)
	}
}

func TestSnapBackIsNextBoundary(t *testing.T) {
	units := []string{"m", "h", "D", "W", "IW", "M", "Q", "Y"}
	for _, unit := range units {
		for _, offset := range []int{-3, -1, 0, 2} {
			expr := func(o int) string {
				if o == 0 {
					return "now/" + unit
				}
				return fmt.Sprintf("now%+d%s/%s", o, unit, unit)
			}
			front := mustResolve(t, expr(offset), Front, testNow)
			if offset <= 0 {
				assert.False(t, front.After(testNow), expr(offset))
			}
			assert.Equal(t, mustResolve(t, expr(offset+1), Front, testNow),
				mustResolve(t, expr(offset), Back, testNow), expr(offset))
		}
	}
}

func TestNoSnapIgnoresSide(t *testing.T) {
	assert.Equal(t, testNow, mustResolve(t, "now", Back, testNow))
	assert.Equal(t, mustResolve(t, "now-12h", Front, testNow), mustResolve(t, "now-12h", Back, testNow))
}

func TestWeekOffsetsAreSevenDays(t *testing.T) {
	assert.Equal(t, time.Date(2024, 5, 26, 0, 0, 0, 0, time.UTC), mustResolve(t, "now-2W/W", Front, testNow))
	assert.Equal(t, time.Date(2024, 6, 17, 0, 0, 0, 0, time.UTC), mustResolve(t, "now/IW", Back, testNow))
}

func TestShiftOrderMatters(t *testing.T) {
	a := mustResolve(t, "now/Y+2M-12h-1M", Front, testNow)
	b := mustResolve(t, "now/Y+2M-1M-12h", Front, testNow)
	assert.Equal(t, time.Date(2024, 1, 29, 12, 0, 0, 0, time.UTC), a)
	assert.Equal(t, time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC), b)
	assert.NotEqual(t, a, b)
}

func TestMonthClamping(t *testing.T) {
	endOfMarch := time.Date(2024, 3, 31, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 2, 29, 10, 0, 0, 0, time.UTC), mustResolve(t, "now-1M", Front, endOfMarch))
	assert.Equal(t, time.Date(2024, 1, 29, 10, 0, 0, 0, time.UTC), mustResolve(t, "now-1M-1M", Front, endOfMarch))

	assert.Equal(t, time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC), AddMonths(time.Date(2023, 3, 31, 0, 0, 0, 0, time.UTC), -1))
	assert.Equal(t, time.Date(2023, 1, 28, 0, 0, 0, 0, time.UTC), AddMonths(time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC), -1))
	assert.Equal(t, time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC), AddMonths(time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC), 12))
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), AddMonths(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), 1))
	assert.Equal(t, time.Date(2023, 4, 30, 0, 0, 0, 0, time.UTC), AddMonths(time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC), 3))
}

func TestInvalidExpressions(t *testing.T) {
	for _, expr := range []string{
		"",
		"yesterday",
		"now+7",
		"now/X",
		"now/D/M",
		"now-1h/D",
		"now-7D+1h/D",
		"now+1y",
		"now/D-1W",
		"now - 7D",
	} {
		_, err := Resolve(expr, Front, testNow)
		var target *InvalidExpressionError
		require.ErrorAs(t, err, &target, expr)
	}
}

func TestResolveBound(t *testing.T) {
	res, err := ResolveBound("2024-02-10", Front, testNow)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), res)

	res, err = ResolveBound("2024-02-10", Back, testNow)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 11, 0, 0, 0, 0, time.UTC), res)

	res, err = ResolveBound("2024-02-10T05:00:00+02:00", Back, testNow)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 10, 3, 0, 0, 0, time.UTC), res)

	res, err = ResolveBound("now/D", Back, testNow)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC), res)

	_, err = ResolveBound("last tuesday", Front, testNow)
	assert.Error(t, err)
}
