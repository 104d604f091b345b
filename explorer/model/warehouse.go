package model

import (
	"context"
	"time"
)

// QueryResult is the outcome of one warehouse statement. BytesProcessed is
// filled even when the statement fails part way.
type QueryResult struct {
	Rows           []map[string]any
	BytesProcessed uint64
	Duration       time.Duration
}

type Warehouse interface {
	Dialect() string
	Query(ctx context.Context, query string) (*QueryResult, error)
}
