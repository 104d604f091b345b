package config

import (
	"time"

	clconfig "github.com/metrico/cloki-config"
)

var Cloki *clconfig.ClokiConfig

const (
	WarehouseClickHouse = "clickhouse"
	WarehouseDuckDB     = "duckdb"
)

type ExplorerSettings struct {
	// SchemaPath is a YAML schema file; the compiled-in schema is used when empty.
	SchemaPath string
	Warehouse  string
	DuckDBPath string
	// AuthorizedHeader carries the comma-joined IDs the caller may query.
	AuthorizedHeader string
	UserHeader       string
	LookupTTL        time.Duration
	// CumeHorizonDays is how many daily windows the maintenance task keeps
	// in the cume windows table.
	CumeHorizonDays int
}

var Explorer = ExplorerSettings{
	Warehouse:        WarehouseClickHouse,
	AuthorizedHeader: "X-Explorer-Authorized",
	UserHeader:       "X-Explorer-User",
	LookupTTL:        time.Hour * 12,
	CumeHorizonDays:  3650,
}
