package lookup

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/jonboulle/clockwork"
	jsoniter "github.com/json-iterator/go"
	"github.com/podlake/explorer/explorer/metric"
	"golang.org/x/sync/singleflight"
)

type Entry struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Loader reads a list from the warehouse on a cache miss.
type Loader func(ctx context.Context, name string) ([]Entry, error)

// Cache is a read-through cache of reference lists. Concurrent misses for
// one list share a single load.
type Cache struct {
	sets   *fastcache.Cache
	group  singleflight.Group
	ttl    time.Duration
	clock  clockwork.Clock
	loader Loader
}

func NewCache(ttl time.Duration, loader Loader, clock clockwork.Clock) *Cache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Cache{
		sets:   fastcache.New(32 * 1024 * 1024),
		ttl:    ttl,
		clock:  clock,
		loader: loader,
	}
}

func (c *Cache) Get(ctx context.Context, name string) ([]Entry, error) {
	if res, ok := c.get(name); ok {
		metric.LookupCache.WithLabelValues("hit").Inc()
		return res, nil
	}
	metric.LookupCache.WithLabelValues("miss").Inc()
	res, err, _ := c.group.Do(name, func() (interface{}, error) {
		if res, ok := c.get(name); ok {
			return res, nil
		}
		res, err := c.loader(ctx, name)
		if err != nil {
			return nil, err
		}
		c.set(name, res)
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return res.([]Entry), nil
}

func (c *Cache) Reset() {
	c.sets.Reset()
}

// entries are stored as an 8 byte expiry in unix nanoseconds followed by JSON.
func (c *Cache) get(name string) ([]Entry, bool) {
	raw := c.sets.GetBig(nil, []byte(name))
	if len(raw) < 8 {
		return nil, false
	}
	expires := int64(binary.BigEndian.Uint64(raw[:8]))
	if c.clock.Now().UnixNano() >= expires {
		return nil, false
	}
	var res []Entry
	if err := jsoniter.ConfigFastest.Unmarshal(raw[8:], &res); err != nil {
		return nil, false
	}
	return res, true
}

func (c *Cache) set(name string, entries []Entry) {
	body, err := jsoniter.ConfigFastest.Marshal(entries)
	if err != nil {
		return
	}
	raw := make([]byte, 8, 8+len(body))
	binary.BigEndian.PutUint64(raw, uint64(c.clock.Now().Add(c.ttl).UnixNano()))
	c.sets.SetBig([]byte(name), append(raw, body...))
}
