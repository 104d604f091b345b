package service

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/podlake/explorer/explorer/composition"
	"github.com/podlake/explorer/explorer/model"
	"github.com/podlake/explorer/explorer/results"
	"github.com/podlake/explorer/explorer/schema"
	custom_errors "github.com/podlake/explorer/explorer/utils/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, time.June, 15, 13, 45, 30, 0, time.UTC)

type fakeWarehouse struct {
	mtx     sync.Mutex
	queries []string
	respond func(query string) ([]map[string]any, error)
}

func (f *fakeWarehouse) Dialect() string { return "clickhouse" }

func (f *fakeWarehouse) Query(ctx context.Context, query string) (*model.QueryResult, error) {
	f.mtx.Lock()
	f.queries = append(f.queries, query)
	f.mtx.Unlock()
	rows, err := f.respond(query)
	return &model.QueryResult{Rows: rows, BytesProcessed: 1024, Duration: time.Millisecond}, err
}

func newService(wh *fakeWarehouse) *ExplorerService {
	return NewExplorerService(wh, schema.Default(), time.Hour, clockwork.NewFakeClockAt(testNow))
}

func compose(t *testing.T, svc *ExplorerService, raw string) *composition.Composition {
	t.Helper()
	values, err := url.ParseQuery(raw)
	require.NoError(t, err)
	return svc.Compose(values, composition.NewAuthorization("tester", "1", "2", "3"))
}

func TestExploreDimensional(t *testing.T) {
	wh := &fakeWarehouse{respond: func(string) ([]map[string]any, error) {
		return []map[string]any{
			{"g1": uint32(6252001), "g1_x_country_name": "United States", "m1": uint64(20)},
			{"g1": uint32(6251999), "g1_x_country_name": "Canada", "m1": uint64(10)},
			{"g1": nil, "g1_x_country_name": nil, "m1": uint64(5)},
		}, nil
	}}
	svc := newService(wh)
	c := compose(t, svc, "from=2024-01-01&to=2024-01-31&metrics=downloads&filter.podcast=1,2,3&group.1=country")
	require.True(t, c.Valid(), c.Errors().Error())

	res, err := svc.Explore(context.Background(), c)
	require.NoError(t, err)
	require.Len(t, wh.queries, 1)
	assert.Contains(t, wh.queries[0], "(downloads.podcast_id IN (1, 2, 3))")
	assert.Contains(t, wh.queries[0], "GROUP BY g1")

	sum, ok, err := res.Set.Aggregate(results.Sum, "downloads", 0, nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 35.0, sum)
	assert.EqualValues(t, 1024, res.BytesProcessed())
}

func TestExploreTimeSeriesComparison(t *testing.T) {
	wh := &fakeWarehouse{respond: func(query string) ([]map[string]any, error) {
		if strings.Contains(query, "'2023-01-01 00:00:00'") {
			return []map[string]any{
				{"granularity": "2023-01-01T00:00:00Z", "m1": int64(80)},
				{"granularity": "2023-02-01T00:00:00Z", "m1": int64(90)},
			}, nil
		}
		return []map[string]any{
			{"granularity": "2024-01-01T00:00:00Z", "m1": int64(100)},
			{"granularity": "2024-02-01T00:00:00Z", "m1": int64(120)},
		}, nil
	}}
	svc := newService(wh)
	c := compose(t, svc, "lens=timeseries&granularity=monthly&from=2024-01-01&to=2024-03-31"+
		"&metrics=downloads&filter.podcast=1&compare.YoY=1")

	res, err := svc.Explore(context.Background(), c)
	require.NoError(t, err)
	assert.Len(t, wh.queries, 2)
	assert.Len(t, res.Statements, 2)
	assert.Contains(t, wh.queries[1], "toDateTime('2023-04-01 00:00:00', 'UTC')")

	ts := res.Set.(*results.TimeSeries)
	cmp := c.Comparisons()[0]
	v, ok := ts.ComparisonLookup(cmp, 1, "downloads", "2024-02-01T00:00:00Z")
	assert.True(t, ok)
	assert.Equal(t, 90.0, v)
	_, ok = ts.ComparisonLookup(cmp, 1, "downloads", "2024-03-01T00:00:00Z")
	assert.False(t, ok)
}

func TestExploreLookbackIssuesOneQueryPerStep(t *testing.T) {
	wh := &fakeWarehouse{respond: func(string) ([]map[string]any, error) { return nil, nil }}
	svc := newService(wh)
	c := compose(t, svc, "lens=timeseries&granularity=monthly&from=2024-01-01&to=2024-03-31"+
		"&metrics=downloads&filter.podcast=1&compare.YoY=3")
	_, err := svc.Explore(context.Background(), c)
	require.NoError(t, err)
	assert.Len(t, wh.queries, 4)
}

func TestExploreInvalid(t *testing.T) {
	wh := &fakeWarehouse{respond: func(string) ([]map[string]any, error) { return nil, nil }}
	svc := newService(wh)
	c := compose(t, svc, "from=2024-01-01&to=2024-01-31&metrics=downloads&filter.podcast=4")
	_, err := svc.Explore(context.Background(), c)
	require.Error(t, err)
	assert.Equal(t, 400, custom_errors.Code(err))
	assert.Empty(t, wh.queries)
}

func TestExploreWarehouseFailure(t *testing.T) {
	wh := &fakeWarehouse{respond: func(string) ([]map[string]any, error) {
		return nil, errors.New("Code: 241. Memory limit exceeded")
	}}
	svc := newService(wh)
	c := compose(t, svc, "from=2024-01-01&to=2024-01-31&metrics=downloads&filter.podcast=1")
	res, err := svc.Explore(context.Background(), c)
	require.Error(t, err)
	assert.Equal(t, 502, custom_errors.Code(err))
	assert.EqualValues(t, 1024, res.BytesProcessed())
}

func TestLists(t *testing.T) {
	wh := &fakeWarehouse{respond: func(string) ([]map[string]any, error) {
		return []map[string]any{{"code": uint32(6251999), "name": "Canada"}}, nil
	}}
	svc := newService(wh)
	res, err := svc.Lists(context.Background(), "countries")
	require.NoError(t, err)
	assert.Equal(t, "6251999", res[0].Code)
	_, err = svc.Lists(context.Background(), "countries")
	require.NoError(t, err)
	assert.Len(t, wh.queries, 1)

	_, err = svc.Lists(context.Background(), "planets")
	assert.Equal(t, 404, custom_errors.Code(err))
}
