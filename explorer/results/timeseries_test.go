package results

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeSeriesMonthlyYoY(t *testing.T) {
	c := compose(t, "lens=timeseries&granularity=monthly&from=2024-01-01&to=2024-03-31"+
		"&metrics=downloads&filter.podcast=1&compare.YoY=1")
	set, err := New(c, []map[string]any{
		{"granularity": "2024-01-01T00:00:00Z", "m1": int64(100)},
		{"granularity": "2024-02-01T00:00:00Z", "m1": int64(120)},
	})
	require.NoError(t, err)
	ts := set.(*TimeSeries)

	cmp := c.Comparisons()[0]
	prev := c.ComparisonComposition(cmp, 1)
	prevSet, err := New(prev, []map[string]any{
		{"granularity": "2023-01-01T00:00:00Z", "m1": int64(80)},
		{"granularity": "2023-02-01T00:00:00Z", "m1": int64(90)},
	})
	require.NoError(t, err)
	ts.Attach(cmp, 1, prevSet.(*TimeSeries))

	assert.Equal(t, []string{
		"2024-01-01T00:00:00Z",
		"2024-02-01T00:00:00Z",
		"2024-03-01T00:00:00Z",
	}, ts.Granularities())

	v, ok := ts.TimeSeriesLookup("downloads", "2024-02-01T00:00:00Z")
	assert.True(t, ok)
	assert.Equal(t, 120.0, v)
	_, ok = ts.TimeSeriesLookup("downloads", "2024-03-01T00:00:00Z")
	assert.False(t, ok)

	v, ok = ts.ComparisonLookup(cmp, 1, "downloads", "2024-02-01T00:00:00Z")
	assert.True(t, ok)
	assert.Equal(t, 90.0, v)
	_, ok = ts.ComparisonLookup(cmp, 2, "downloads", "2024-02-01T00:00:00Z")
	assert.False(t, ok)
}

func TestWeeklyComparisonLandsOnWeekStart(t *testing.T) {
	c := compose(t, "lens=timeseries&granularity=weekly&from=2024-06-02&to=2024-06-15"+
		"&metrics=downloads&filter.podcast=1&compare.YoY=1")
	set, err := New(c, nil)
	require.NoError(t, err)
	ts := set.(*TimeSeries)
	cmp := c.Comparisons()[0]
	prevSet, err := New(c.ComparisonComposition(cmp, 1), []map[string]any{
		{"granularity": "2023-06-04T00:00:00Z", "m1": int64(7)},
	})
	require.NoError(t, err)
	ts.Attach(cmp, 1, prevSet.(*TimeSeries))

	assert.Equal(t, []string{"2024-06-02T00:00:00Z", "2024-06-09T00:00:00Z"}, ts.Granularities())
	v, ok := ts.ComparisonLookup(cmp, 1, "downloads", "2024-06-09T00:00:00Z")
	assert.True(t, ok)
	assert.Equal(t, 7.0, v)
}

func TestRollingGranularities(t *testing.T) {
	c := compose(t, "lens=timeseries&granularity=rolling&window=7D&from=2024-01-01&to=2024-01-20"+
		"&metrics=downloads&filter.podcast=1")
	set, err := New(c, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"2023-12-31T00:00:00Z",
		"2024-01-07T00:00:00Z",
		"2024-01-14T00:00:00Z",
	}, set.(*TimeSeries).Granularities())
}

func TestTimeSeriesCSV(t *testing.T) {
	c := compose(t, "lens=timeseries&granularity=monthly&from=2024-01-01&to=2024-02-29"+
		"&metrics=downloads&filter.podcast=1")
	set, err := New(c, []map[string]any{
		{"granularity": "2024-02-01T00:00:00Z", "m1": int64(3)},
	})
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, set.WriteCSV(&buf))
	assert.Equal(t, "Interval,Downloads\n"+
		"2024-01-01T00:00:00Z,\n"+
		"2024-02-01T00:00:00Z,3\n", buf.String())
}
