package shaper

import (
	"net/url"
	"testing"
	"time"

	"github.com/bradleyjkemp/cupaloy"
	"github.com/jonboulle/clockwork"
	"github.com/podlake/explorer/explorer/composition"
	"github.com/podlake/explorer/explorer/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, time.June, 15, 13, 45, 30, 0, time.UTC)

func compose(t *testing.T, raw string) *composition.Composition {
	t.Helper()
	values, err := url.ParseQuery(raw)
	require.NoError(t, err)
	c := composition.FromParams(schema.Default(), values,
		composition.WithClock(clockwork.NewFakeClockAt(testNow)),
		composition.WithAuthorization(composition.NewAuthorization("tester", "1", "2", "3")))
	require.True(t, c.Valid(), c.Errors().Error())
	return c
}

func shape(t *testing.T, raw string, d Dialect) *Query {
	t.Helper()
	q, err := Shape(compose(t, raw), d)
	require.NoError(t, err)
	return q
}

func TestDimensionalEndToEnd(t *testing.T) {
	q := shape(t, "from=2024-01-01&to=2024-01-31&metrics=downloads&filter.podcast=1,2,3&group.1=country", ClickHouse{})
	assert.Contains(t, q.Wheres, "(downloads.podcast_id IN (1, 2, 3))")
	assert.Contains(t, q.GroupBys, "g1")
	assert.Equal(t, []string{"g1", "g1_x_country_name"}, q.GroupBys)
	assert.Equal(t, []string{"LEFT JOIN geonames AS geo_countries ON geo_countries.geoname_id = downloads.country_geocode"}, q.Joins)
	assert.Equal(t, "(downloads.timestamp >= toDateTime('2024-01-01 00:00:00', 'UTC') AND "+
		"downloads.timestamp < toDateTime('2024-02-01 00:00:00', 'UTC'))", q.Wheres[0])
	assert.Equal(t, []string{"g1"}, q.Metadata.Groups)
	assert.Equal(t, []string{"m1"}, q.Metadata.Metrics)
	assert.Empty(t, q.OrderBys)
}

func TestTimeSeriesStatement(t *testing.T) {
	q := shape(t, "lens=timeseries&granularity=monthly&from=2024-01-01&to=2024-03-31"+
		"&metrics=downloads,completions(90)&filter.podcast=1,2&filter.feed=a's&filter.feed.operator=exclude"+
		"&group.1=podcast", ClickHouse{})
	stmt, err := q.SQL()
	require.NoError(t, err)
	cupaloy.SnapshotT(t, stmt)
}

func TestNullTruthTable(t *testing.T) {
	base := "from=2024-01-01&to=2024-01-31&metrics=downloads&filter.podcast=1&filter.feed=a,b"
	for suffix, want := range map[string]string{
		"":                                  "(downloads.feed_slug IN ('a', 'b'))",
		"&filter.feed.nulls=follow":         "(downloads.feed_slug IN ('a', 'b') OR downloads.feed_slug IS NULL)",
		"&filter.feed.operator=exclude":     "(downloads.feed_slug NOT IN ('a', 'b') OR downloads.feed_slug IS NULL)",
		"&filter.feed.operator=exclude" +
			"&filter.feed.nulls=follow": "(downloads.feed_slug NOT IN ('a', 'b'))",
	} {
		q := shape(t, base+suffix, ClickHouse{})
		require.Len(t, q.Wheres, 3, suffix)
		assert.Equal(t, want, q.Wheres[1], suffix)
	}
}

func TestRangeFilters(t *testing.T) {
	base := "from=2024-01-01&to=2024-01-31&metrics=downloads&filter.podcast=1" +
		"&filter.published.from=2023-01-01&filter.published.to=2023-02-01"
	q := shape(t, base, ClickHouse{})
	assert.Equal(t, "(episodes.published_at >= toDateTime('2023-01-01 00:00:00', 'UTC') AND "+
		"episodes.published_at < toDateTime('2023-02-02 00:00:00', 'UTC'))", q.Wheres[2])
	assert.Equal(t, []string{"LEFT JOIN episodes ON episodes.guid = downloads.episode_id"}, q.Joins)

	q = shape(t, base+"&filter.published.operator=exclude", ClickHouse{})
	assert.Equal(t, "((episodes.published_at < toDateTime('2023-01-01 00:00:00', 'UTC') OR "+
		"episodes.published_at >= toDateTime('2023-02-02 00:00:00', 'UTC')) OR episodes.published_at IS NULL)", q.Wheres[2])

	q = shape(t, "from=2024-01-01&to=2024-01-31&metrics=downloads&filter.podcast=1&filter.episode_age.gte=1D", ClickHouse{})
	assert.Equal(t, "(dateDiff('second', episodes.published_at, downloads.timestamp) >= 86400)", q.Wheres[1])

	q = shape(t, "from=2024-01-01&to=2024-01-31&metrics=downloads&filter.podcast=1"+
		"&filter.timestamp.extract=dow&filter.timestamp=0,6", DuckDB{})
	assert.Equal(t, "(EXTRACT(dow FROM downloads.timestamp) IN (0, 6))", q.Wheres[2])
}

func TestIndicesLadder(t *testing.T) {
	q := shape(t, "from=2024-01-01&to=2024-01-31&metrics=downloads&filter.podcast=1"+
		"&group.1=episode_age&group.1.indices=1D,7D", ClickHouse{})
	age := "dateDiff('second', episodes.published_at, downloads.timestamp)"
	assert.Equal(t, "CASE WHEN "+age+" IS NULL THEN NULL WHEN "+age+" < 86400 THEN '86400' WHEN "+
		age+" < 604800 THEN '604800' ELSE 'overflow' END AS g1", q.Selects[0])
	assert.Equal(t, []string{"g1"}, q.GroupBys)
}

func TestRollingGranularity(t *testing.T) {
	q := shape(t, "lens=timeseries&granularity=rolling&window=7D&from=2024-01-01&to=2024-01-28"+
		"&metrics=downloads&filter.podcast=1", DuckDB{})
	rng := "CAST(floor((1706486400 - 1 - CAST(epoch(downloads.timestamp) AS BIGINT)) / (604800)) AS BIGINT)"
	assert.Equal(t, rng+" AS granularity_range", q.Selects[0])
	assert.Equal(t, "strftime(make_timestamp((1706486400 - ("+rng+" + 1) * 604800) * 1000000), "+
		"'%Y-%m-%dT%H:%M:%SZ') AS granularity", q.Selects[1])
	assert.Equal(t, []string{GranularityRangeAlias, GranularityAlias}, q.GroupBys)
	assert.Equal(t, "(downloads.timestamp >= TIMESTAMP '2024-01-01 00:00:00' AND "+
		"downloads.timestamp < TIMESTAMP '2024-01-29 00:00:00')", q.Wheres[0])
}

func TestCumeWindows(t *testing.T) {
	q := shape(t, "lens=cume&window=1D&from=2024-01-01&to=2024-03-01&metrics=downloads"+
		"&filter.podcast=1&group.1=episode", ClickHouse{})
	assert.Equal(t, "cume_windows.window_number * 86400 AS cume_window", q.Selects[0])
	assert.Equal(t, []string{
		"LEFT JOIN episodes ON episodes.guid = downloads.episode_id",
		"INNER JOIN cume_windows ON cume_windows.window_number = " +
			"intDiv(dateDiff('second', episodes.published_at, downloads.timestamp), 86400)",
	}, q.Joins)
	assert.Contains(t, q.Selects,
		"MAX(dateDiff('second', episodes.published_at, toDateTime('2024-06-15 13:45:30', 'UTC'))) AS cume_age")
	assert.Contains(t, q.Selects, "MAX(toUnixTimestamp(episodes.published_at)) AS cume_published")
	assert.Equal(t, CumeWindowAlias, q.GroupBys[0])
	assert.NotContains(t, q.GroupBys, CumeAgeAlias)
	assert.Equal(t, []string{"cume_window ASC"}, q.OrderBys)
}

func TestDuckDBQuoting(t *testing.T) {
	q := shape(t, "from=2024-01-01&to=2024-01-31&metrics=downloads&filter.podcast=1&filter.feed=a's", DuckDB{})
	assert.Equal(t, "(downloads.feed_slug IN ('a''s'))", q.Wheres[1])
}

func TestTableClosureOrder(t *testing.T) {
	q := shape(t, "from=2024-01-01&to=2024-01-31&metrics=downloads&filter.podcast=1"+
		"&filter.category=news&group.1=published", ClickHouse{})
	assert.Equal(t, []string{"episodes", "podcasts", "podcast_categories"}, q.Metadata.Tables)
}

func TestShapeRejectsInvalidComposition(t *testing.T) {
	values, _ := url.ParseQuery("from=2024-01-01&to=2024-01-31&metrics=downloads")
	_, err := Shape(composition.FromParams(schema.Default(), values), ClickHouse{})
	assert.ErrorIs(t, err, ErrInvalidComposition)
}

func TestDialectByName(t *testing.T) {
	d, ok := DialectByName("DuckDB")
	assert.True(t, ok)
	assert.Equal(t, "duckdb", d.Name())
	_, ok = DialectByName("bigquery")
	assert.False(t, ok)
}
