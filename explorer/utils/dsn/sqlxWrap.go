package dsn

import (
	"context"
	"database/sql"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/podlake/explorer/explorer/utils/logger"
)

// StableSqlxDBWrapper reopens the pool with GetDB after a failed statement.
type StableSqlxDBWrapper struct {
	DB    *sqlx.DB
	mtx   sync.RWMutex
	GetDB func() *sqlx.DB
	Name  string
}

func (s *StableSqlxDBWrapper) reconnect(err error) {
	logger.Error("warehouse ", s.Name, " reconnecting after: ", err)
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.DB.Close()
	s.DB = s.GetDB()
}

func (s *StableSqlxDBWrapper) QueryCtx(ctx context.Context, query string, args ...any) (*sqlx.Rows, error) {
	res, err := func() (*sqlx.Rows, error) {
		s.mtx.RLock()
		defer s.mtx.RUnlock()
		return s.DB.QueryxContext(ctx, query, args...)
	}()
	if err != nil && ctx.Err() == nil && isConnError(err) {
		s.reconnect(err)
	}
	return res, err
}

func (s *StableSqlxDBWrapper) ExecCtx(ctx context.Context, query string, args ...any) error {
	err := func() error {
		s.mtx.RLock()
		defer s.mtx.RUnlock()
		_, err := s.DB.ExecContext(ctx, query, args...)
		return err
	}()
	if err != nil && ctx.Err() == nil && isConnError(err) {
		s.reconnect(err)
	}
	return err
}

func (s *StableSqlxDBWrapper) GetName() string {
	return s.Name
}

func (s *StableSqlxDBWrapper) Conn(ctx context.Context) (*sql.Conn, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.DB.Conn(ctx)
}

func (s *StableSqlxDBWrapper) Close() {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	s.DB.Close()
}
