package results

import (
	"bytes"
	"net/url"
	"testing"
	"time"

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
		composition.WithAuthorization(composition.NewAuthorization("tester", "1")))
	require.True(t, c.Valid(), c.Errors().Error())
	return c
}

func countryRows() []map[string]any {
	return []map[string]any{
		{"g1": int32(1), "g1_x_country_name": []byte("United States"), "m1": uint64(20)},
		{"g1": int64(2), "g1_x_country_name": "Canada", "m1": int64(10)},
		{"g1": nil, "g1_x_country_name": nil, "m1": int64(5)},
	}
}

func countrySet(t *testing.T) Set {
	t.Helper()
	set, err := New(compose(t, "from=2024-01-01&to=2024-01-31&metrics=downloads&filter.podcast=1&group.1=country"),
		countryRows())
	require.NoError(t, err)
	return set
}

func TestDimensionalLookup(t *testing.T) {
	set := countrySet(t)
	require.IsType(t, &Dimensional{}, set)

	v, ok := set.Lookup("downloads", Value("1"))
	assert.True(t, ok)
	assert.Equal(t, 20.0, v)

	v, ok = set.Lookup("downloads", Null)
	assert.True(t, ok)
	assert.Equal(t, 5.0, v)

	_, ok = set.Lookup("downloads")
	assert.False(t, ok, "three rows match when the member is omitted")

	_, ok = set.Lookup("downloads", Value("3"))
	assert.False(t, ok)
	_, ok = set.Lookup("listeners", Value("1"))
	assert.False(t, ok)
}

func TestLookupIsMemoized(t *testing.T) {
	set := countrySet(t).(*Dimensional)
	set.Lookup("downloads", Value("2"))
	set.Lookup("downloads", Value("2"))
	set.Lookup("downloads", Null)
	assert.Len(t, set.memo, 2)
}

func TestAggregate(t *testing.T) {
	set := countrySet(t)
	for op, want := range map[Op]float64{Sum: 35, Min: 10, Max: 20, Mean: 15} {
		v, ok, err := set.Aggregate(op, "downloads", 1, nil)
		require.NoError(t, err)
		assert.True(t, ok, op)
		assert.Equal(t, want, v, op)
	}
	v, ok, err := set.Aggregate(Sum, "downloads", 0, nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 35.0, v)

	v, _, err = set.Aggregate(Max, "downloads", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 20.0, v)

	_, _, err = set.Aggregate("median", "downloads", 1, nil)
	assert.Error(t, err)
	_, _, err = set.Aggregate(Sum, "listeners", 1, nil)
	assert.ErrorIs(t, err, ErrUnknownMetric)
	_, _, err = set.Aggregate(Sum, "downloads", 2, nil)
	assert.ErrorIs(t, err, ErrUnknownGroup)
}

func TestAggregateTwoGroups(t *testing.T) {
	c := compose(t, "from=2024-01-01&to=2024-01-31&metrics=downloads&filter.podcast=1&group.1=country&group.2=app")
	set, err := New(c, []map[string]any{
		{"g1": int64(1), "g2": int64(7), "m1": int64(4)},
		{"g1": int64(1), "g2": nil, "m1": int64(9)},
		{"g1": int64(2), "g2": int64(7), "m1": int64(6)},
	})
	require.NoError(t, err)

	_, _, err = set.Aggregate(Min, "downloads", 0, nil)
	assert.ErrorIs(t, err, ErrAmbiguousAggregate)

	v, ok, err := set.Aggregate(Sum, "downloads", 0, nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 19.0, v)

	member := Value("1")
	v, ok, err = set.Aggregate(Max, "downloads", 1, &member)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 4.0, v)

	v, _, err = set.Aggregate(Sum, "downloads", 1, &member)
	require.NoError(t, err)
	assert.Equal(t, 13.0, v)

	missing := Value("3")
	_, ok, err = set.Aggregate(Mean, "downloads", 1, &missing)
	require.NoError(t, err)
	assert.False(t, ok)

	v, ok = set.Lookup("downloads", Value("1"), Null)
	assert.True(t, ok)
	assert.Equal(t, 9.0, v)

	_, ok = set.Lookup("downloads", Value("1"))
	assert.False(t, ok, "country 1 has two app rows")
	v, ok = set.Lookup("downloads", Value("2"))
	assert.True(t, ok)
	assert.Equal(t, 6.0, v)
}

func TestUniqueMembersAndExhibit(t *testing.T) {
	set := countrySet(t)
	assert.Equal(t, []Member{Value("1"), Value("2")}, set.UniqueMembers(1))
	assert.Equal(t, "United States", set.Exhibit(1, Value("1")))
	assert.Equal(t, "9", set.Exhibit(1, Value("9")))
	assert.Equal(t, "", set.Exhibit(1, Null))
	assert.Nil(t, set.UniqueMembers(2))

	c := compose(t, "from=2024-01-01&to=2024-01-31&metrics=downloads&filter.podcast=1"+
		"&group.1=episode_age&group.1.indices=1D,7D")
	indexed, err := New(c, []map[string]any{{"g1": "604800", "m1": int64(1)}})
	require.NoError(t, err)
	assert.Equal(t, []Member{Value("86400"), Value("604800"), Value(composition.Overflow)}, indexed.UniqueMembers(1))
}

func TestNormalize(t *testing.T) {
	var missing *string
	name := "x"
	rows := NewRows([]map[string]any{{
		"a": uint8(3),
		"b": float32(1.5),
		"c": time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600)),
		"d": missing,
		"e": &name,
	}})
	assert.Equal(t, Row{
		"a": int64(3),
		"b": 1.5,
		"c": "2024-01-02T02:04:05Z",
		"d": nil,
		"e": "x",
	}, rows[0])
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, countrySet(t).WriteCSV(&buf))
	assert.Equal(t, "Country,Country name,Downloads\n"+
		"1,United States,20\n"+
		"2,Canada,10\n"+
		",,5\n", buf.String())
}

func TestNewRejectsInvalidComposition(t *testing.T) {
	values, _ := url.ParseQuery("from=2024-01-01&to=2024-01-31&metrics=downloads")
	_, err := New(composition.FromParams(schema.Default(), values), nil)
	assert.Error(t, err)
}
