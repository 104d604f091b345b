package service

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/go-faster/city"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/podlake/explorer/explorer/composition"
	"github.com/podlake/explorer/explorer/lookup"
	"github.com/podlake/explorer/explorer/metric"
	"github.com/podlake/explorer/explorer/model"
	"github.com/podlake/explorer/explorer/results"
	"github.com/podlake/explorer/explorer/schema"
	"github.com/podlake/explorer/explorer/shaper"
	custom_errors "github.com/podlake/explorer/explorer/utils/errors"
	"github.com/podlake/explorer/explorer/utils/logger"
)

type ExplorerService struct {
	Warehouse model.Warehouse
	Registry  *schema.Registry
	Lookups   *lookup.Cache
	Clock     clockwork.Clock
}

func NewExplorerService(warehouse model.Warehouse, reg *schema.Registry, lookupTTL time.Duration,
	clock clockwork.Clock) *ExplorerService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	res := &ExplorerService{
		Warehouse: warehouse,
		Registry:  reg,
		Clock:     clock,
	}
	res.Lookups = lookup.NewCache(lookupTTL, res.loadList, clock)
	return res
}

// Statement is one executed query.
type Statement struct {
	SQL            string        `json:"sql"`
	BytesProcessed uint64        `json:"bytes"`
	Duration       time.Duration `json:"-"`
}

type ExploreResult struct {
	Set        results.Set
	Statements []Statement
}

func (r *ExploreResult) BytesProcessed() uint64 {
	var res uint64
	for _, s := range r.Statements {
		res += s.BytesProcessed
	}
	return res
}

// Compose parses request parameters into a composition bound to the
// warehouse dialect.
func (s *ExplorerService) Compose(values url.Values, auth composition.Authorization) *composition.Composition {
	c := composition.FromParams(s.Registry, values,
		composition.WithClock(s.Clock),
		composition.WithAuthorization(auth),
		composition.WithWarehouse(s.Warehouse.Dialect()))
	metric.Compositions.WithLabelValues(string(c.Lens()), strconv.FormatBool(c.Valid())).Inc()
	return c
}

// Explore runs the composition and, for time series, one query per
// comparison lookback step.
func (s *ExplorerService) Explore(ctx context.Context, c *composition.Composition) (*ExploreResult, error) {
	if !c.Valid() {
		return nil, custom_errors.New400Error(c.Errors().Error())
	}
	dialect, ok := shaper.DialectByName(s.Warehouse.Dialect())
	if !ok {
		return nil, errors.Errorf("unsupported warehouse dialect %s", s.Warehouse.Dialect())
	}
	res := &ExploreResult{}
	set, err := s.execute(ctx, c, dialect, res)
	if err != nil {
		return res, err
	}
	res.Set = set
	ts, ok := set.(*results.TimeSeries)
	if !ok {
		return res, nil
	}
	for _, cmp := range c.Comparisons() {
		for step := 1; step <= cmp.Steps(); step++ {
			cc := c.ComparisonComposition(cmp, step)
			if !cc.Valid() {
				return res, custom_errors.New400Error(cc.Errors().Error())
			}
			sub, err := s.execute(ctx, cc, dialect, res)
			if err != nil {
				return res, err
			}
			ts.Attach(cmp, step, sub.(*results.TimeSeries))
		}
	}
	return res, nil
}

func (s *ExplorerService) execute(ctx context.Context, c *composition.Composition, dialect shaper.Dialect,
	res *ExploreResult) (results.Set, error) {
	q, err := shaper.Shape(c, dialect)
	if err != nil {
		return nil, err
	}
	req, err := q.SQL()
	if err != nil {
		return nil, err
	}
	out, err := s.Warehouse.Query(ctx, req)
	stmt := Statement{SQL: req}
	if out != nil {
		stmt.BytesProcessed = out.BytesProcessed
		stmt.Duration = out.Duration
	}
	res.Statements = append(res.Statements, stmt)
	s.audit(c, stmt, err)
	if err != nil {
		return nil, custom_errors.New502Error(errors.Wrap(err, "warehouse query failed"))
	}
	return results.New(c, out.Rows)
}

func (s *ExplorerService) audit(c *composition.Composition, stmt Statement, err error) {
	lens := string(c.Lens())
	metric.QueryTime.WithLabelValues(lens).Observe(float64(stmt.Duration.Milliseconds()))
	metric.BytesProcessed.WithLabelValues(lens).Add(float64(stmt.BytesProcessed))
	entry := logger.WithFields(logger.LogInfo{
		"user":        c.Authorization().User,
		"lens":        lens,
		"fingerprint": strconv.FormatUint(city.CH64([]byte(stmt.SQL)), 16),
		"bytes":       datasize.ByteSize(stmt.BytesProcessed).HumanReadable(),
		"duration":    stmt.Duration.String(),
	})
	if err != nil {
		metric.QueryErrors.WithLabelValues(lens).Inc()
		entry.WithError(err).Error("explore query failed")
		return
	}
	entry.Info("explore query")
	logger.Debug(stmt.SQL)
}

// Lists returns a reference list through the lookup cache.
func (s *ExplorerService) Lists(ctx context.Context, name string) ([]lookup.Entry, error) {
	if _, ok := s.Registry.Lists[name]; !ok {
		return nil, custom_errors.New404Error("unknown list " + name)
	}
	return s.Lookups.Get(ctx, name)
}

func (s *ExplorerService) loadList(ctx context.Context, name string) ([]lookup.Entry, error) {
	req, err := lookup.Query(s.Registry, name, s.Warehouse.Dialect())
	if err != nil {
		return nil, err
	}
	out, err := s.Warehouse.Query(ctx, req)
	if err != nil {
		return nil, custom_errors.New502Error(errors.Wrapf(err, "load list %s", name))
	}
	rows := results.NewRows(out.Rows)
	res := make([]lookup.Entry, 0, len(rows))
	for _, row := range rows {
		res = append(res, lookup.Entry{Code: row.Text("code"), Name: row.Text("name")})
	}
	return res, nil
}
