package lookup

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/podlake/explorer/explorer/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingLoader(calls *int32) Loader {
	return func(ctx context.Context, name string) ([]Entry, error) {
		atomic.AddInt32(calls, 1)
		return []Entry{{Code: "6252001", Name: "United States"}, {Code: "6251999", Name: "Canada"}}, nil
	}
}

func TestCacheReadsThroughUntilExpiry(t *testing.T) {
	var calls int32
	clock := clockwork.NewFakeClock()
	cache := NewCache(time.Hour*12, countingLoader(&calls), clock)

	res, err := cache.Get(context.Background(), "countries")
	require.NoError(t, err)
	assert.Len(t, res, 2)
	_, err = cache.Get(context.Background(), "countries")
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

	clock.Advance(time.Hour * 12)
	res, err = cache.Get(context.Background(), "countries")
	require.NoError(t, err)
	assert.Equal(t, "United States", res[0].Name)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestCacheSharesConcurrentLoads(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	cache := NewCache(time.Hour, func(ctx context.Context, name string) ([]Entry, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return []Entry{{Code: "1", Name: "a"}}, nil
	}, clockwork.NewFakeClock())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.Get(context.Background(), "apps")
			assert.NoError(t, err)
		}()
	}
	time.Sleep(time.Millisecond * 50)
	close(release)
	wg.Wait()
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestCacheDoesNotStoreErrors(t *testing.T) {
	var calls int32
	cache := NewCache(time.Hour, func(ctx context.Context, name string) ([]Entry, error) {
		atomic.AddInt32(&calls, 1)
		return nil, errors.New("warehouse down")
	}, clockwork.NewFakeClock())
	_, err := cache.Get(context.Background(), "apps")
	assert.Error(t, err)
	_, err = cache.Get(context.Background(), "apps")
	assert.Error(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestQuery(t *testing.T) {
	reg := schema.Default()
	q, err := Query(reg, "countries", schema.DefaultWarehouse)
	require.NoError(t, err)
	assert.Equal(t, "SELECT geo_countries.geoname_id AS code, geo_countries.name AS name "+
		"FROM geonames AS geo_countries WHERE (feature_class = 'A') ORDER BY name ASC", q)

	_, err = Query(reg, "nope", schema.DefaultWarehouse)
	assert.True(t, errors.Is(err, ErrUnknownList))
}
