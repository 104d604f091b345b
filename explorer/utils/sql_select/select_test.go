package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectString(t *testing.T) {
	sel := NewSelect().
		Select(NewSimpleCol("geonames.geoname_id", "code"), NewSimpleCol("geonames.name", "name")).
		From(NewTable("geonames", "")).
		AndWhere(Eq(NewRawObject("geonames.feature"), NewStringVal("city")), NotNull(NewRawObject("geonames.name"))).
		OrderBy(NewOrderBy(NewRawObject("name"), ORDER_BY_DIRECTION_ASC)).
		Limit(NewIntVal(10))
	str, err := Render(sel)
	require.NoError(t, err)
	assert.Equal(t, "SELECT geonames.geoname_id AS code, geonames.name AS name FROM geonames "+
		"WHERE geonames.feature = 'city' AND geonames.name IS NOT NULL ORDER BY name ASC LIMIT 10", str)
}

func TestSelectWithoutColumns(t *testing.T) {
	_, err := Render(NewSelect().From(NewTable("t", "")))
	assert.Error(t, err)
}

func TestConditions(t *testing.T) {
	col := NewRawObject("c")
	for _, tc := range []struct {
		name string
		cond SQLCondition
		want string
	}{
		{"in", NewParen(NewIn(col, NewIntVal(1), NewIntVal(2), NewIntVal(3))), "(c IN (1, 2, 3))"},
		{"not in or null", NewParen(Or(NewNotIn(col, NewStringVal("a")), IsNull(col))), "(c NOT IN ('a') OR c IS NULL)"},
		{"range or null", NewParen(Or(And(Ge(col, NewIntVal(1)), Lt(col, NewIntVal(5))), IsNull(col))),
			"((c >= 1 AND c < 5) OR c IS NULL)"},
		{"escaped", Eq(col, NewStringVal("it's")), `c = 'it\'s'`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			str, err := Render(tc.cond)
			require.NoError(t, err)
			assert.Equal(t, tc.want, str)
		})
	}
}

func TestCaseAndJoin(t *testing.T) {
	col := NewRawObject("d")
	c := NewCase().
		When(IsNull(col), NewRawObject("NULL")).
		When(Lt(col, NewIntVal(60)), NewStringVal("60")).
		Else(NewStringVal("overflow"))
	str, err := Render(c)
	require.NoError(t, err)
	assert.Equal(t, "CASE WHEN d IS NULL THEN NULL WHEN d < 60 THEN '60' ELSE 'overflow' END", str)

	j := NewJoin("left", NewTable("dt_podcasts", "podcasts"),
		Eq(NewRawObject("podcasts.id"), NewRawObject("downloads.podcast_id")))
	str, err = Render(j)
	require.NoError(t, err)
	assert.Equal(t, "LEFT JOIN dt_podcasts AS podcasts ON podcasts.id = downloads.podcast_id", str)
}
