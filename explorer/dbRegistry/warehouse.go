package dbRegistry

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/pkg/errors"
	"github.com/podlake/explorer/explorer/config"
	"github.com/podlake/explorer/explorer/model"
)

type registryWarehouse struct {
	registry model.IDBRegistry
	dialect  string
}

var _ model.Warehouse = &registryWarehouse{}

// NewWarehouse runs statements on a node picked from the registry.
func NewWarehouse(registry model.IDBRegistry, dialect string) model.Warehouse {
	if dialect == "" {
		dialect = config.WarehouseClickHouse
	}
	return &registryWarehouse{registry: registry, dialect: dialect}
}

func (w *registryWarehouse) Dialect() string {
	return w.dialect
}

func (w *registryWarehouse) Query(ctx context.Context, query string) (*model.QueryResult, error) {
	db, err := w.registry.GetDB(ctx)
	if err != nil {
		return nil, err
	}
	res := &model.QueryResult{}
	var processed uint64
	if w.dialect == config.WarehouseClickHouse {
		ctx = clickhouse.Context(ctx, clickhouse.WithProgress(func(p *clickhouse.Progress) {
			atomic.AddUint64(&processed, p.Bytes)
		}))
	}
	start := time.Now()
	defer func() {
		res.Duration = time.Since(start)
		res.BytesProcessed = atomic.LoadUint64(&processed)
	}()

	rows, err := db.Session.QueryCtx(ctx, query)
	if err != nil {
		return res, errors.Wrapf(err, "query %s", db.Session.GetName())
	}
	defer rows.Close()
	for rows.Next() {
		row := map[string]any{}
		if err := rows.MapScan(row); err != nil {
			return res, errors.Wrap(err, "scan row")
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return res, errors.Wrap(err, "read rows")
	}
	return res, nil
}
