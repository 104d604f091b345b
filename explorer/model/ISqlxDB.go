package model

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

type ISqlxDB interface {
	GetName() string
	QueryCtx(ctx context.Context, query string, args ...any) (*sqlx.Rows, error)
	ExecCtx(ctx context.Context, query string, args ...any) error
	Conn(ctx context.Context) (*sql.Conn, error)
	Close()
}
