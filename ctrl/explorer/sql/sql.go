package sql

import _ "embed"

//go:embed cume.sql
var CumeScript string

//go:embed fill.sql
var FillScript string

//go:embed duckdb.sql
var DuckDBScript string
