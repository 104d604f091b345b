package results

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const day = 86400

func cumeSet(t *testing.T) *Cume {
	t.Helper()
	c := compose(t, "lens=cume&window=1D&from=2024-01-01&to=2024-03-01&metrics=downloads"+
		"&filter.podcast=1&group.1=episode")
	row := func(episode string, window int64, downloads int64, age int64, published int64) map[string]any {
		return map[string]any{
			"cume_window":    window,
			"g1":             episode,
			"m1":             downloads,
			"cume_age":       age,
			"cume_published": published,
		}
	}
	set, err := New(c, []map[string]any{
		// 2024-01-01, no downloads in the third window
		row("e1", 0, 10, 14000000, 1704067200),
		row("e1", day, 5, 14000000, 1704067200),
		row("e1", 3*day, 2, 14000000, 1704067200),
		// 2024-01-10, a little over a day old
		row("e2", 0, 4, 100000, 1704844800),
		row("e2", day, 1, 100000, 1704844800),
		// 2024-02-28, close to the end of the range
		row("e3", 0, 1, 1000000, 1709078400),
		row("e3", 2*day, 1, 1000000, 1709078400),
	})
	require.NoError(t, err)
	return set.(*Cume)
}

func TestCumeWindows(t *testing.T) {
	assert.Equal(t, []int64{0, day, 2 * day, 3 * day}, cumeSet(t).Windows())
}

func TestCumulativeLookupWithGap(t *testing.T) {
	set := cumeSet(t)
	var got []float64
	for _, w := range set.Windows() {
		v, ok := set.CumulativeLookup("downloads", w, Value("e1"))
		require.True(t, ok, w)
		got = append(got, v)
	}
	assert.Equal(t, []float64{10, 15, 15, 17}, got)
}

func TestCumulativeLookupStopsAtEpisodeAge(t *testing.T) {
	set := cumeSet(t)
	v, ok := set.CumulativeLookup("downloads", day, Value("e2"))
	assert.True(t, ok)
	assert.Equal(t, 5.0, v)
	_, ok = set.CumulativeLookup("downloads", 2*day, Value("e2"))
	assert.False(t, ok)
}

func TestCumulativeLookupStopsAtRangeEnd(t *testing.T) {
	set := cumeSet(t)
	v, ok := set.CumulativeLookup("downloads", 2*day, Value("e3"))
	assert.True(t, ok)
	assert.Equal(t, 2.0, v)
	_, ok = set.CumulativeLookup("downloads", 3*day, Value("e3"))
	assert.False(t, ok)
}

func TestCumulativeLookupArguments(t *testing.T) {
	set := cumeSet(t)
	_, ok := set.CumulativeLookup("downloads", day+1, Value("e1"))
	assert.False(t, ok)
	_, ok = set.CumulativeLookup("downloads", day, Value("missing"))
	assert.False(t, ok)
	_, ok = set.CumulativeLookup("listeners", day, Value("e1"))
	assert.False(t, ok)

	fresh := cumeSet(t)
	fresh.CumulativeLookup("downloads", 3*day, Value("e1"))
	assert.Len(t, fresh.cumulative, 4)
}

func TestLookupsWithoutEpisodeNeedOneEpisode(t *testing.T) {
	set := cumeSet(t)
	_, ok := set.CumulativeLookup("downloads", 0)
	assert.False(t, ok)
	_, ok = set.WindowLookup("downloads", 0)
	assert.False(t, ok)

	v, ok := set.WindowLookup("downloads", day, Value("e2"))
	assert.True(t, ok)
	assert.Equal(t, 1.0, v)
}
