package dbRegistry

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/podlake/explorer/explorer/model"
)

type staticDBRegistry struct {
	databases    []*model.DataDatabasesMap
	rand         *rand.Rand
	mtx          sync.Mutex
	lastPingTime time.Time
}

var _ model.IDBRegistry = &staticDBRegistry{}

func NewStaticDBRegistry(databases map[string]*model.DataDatabasesMap) model.IDBRegistry {
	res := staticDBRegistry{
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, d := range databases {
		res.databases = append(res.databases, d)
	}
	return &res
}

func (s *staticDBRegistry) GetDB(ctx context.Context) (*model.DataDatabasesMap, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if len(s.databases) == 0 {
		return nil, errors.New("no warehouse configured")
	}
	idx := s.rand.Intn(len(s.databases))
	return s.databases[idx], nil
}

func (s *staticDBRegistry) Run() {
}

func (s *staticDBRegistry) Stop() {
	for _, d := range s.databases {
		d.Session.Close()
	}
}

// Ping checks every node, at most once per 30 seconds.
func (s *staticDBRegistry) Ping() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.lastPingTime.Add(time.Second * 30).After(time.Now()) {
		return nil
	}
	for _, v := range s.databases {
		err := func(db model.ISqlxDB) error {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
			defer cancel()
			conn, err := db.Conn(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()
			return conn.PingContext(ctx)
		}(v.Session)
		if err != nil {
			return errors.Wrapf(err, "ping %s", v.Session.GetName())
		}
	}
	s.lastPingTime = time.Now()
	return nil
}
