package model

import "github.com/metrico/cloki-config/config"

type DataDatabasesMap struct {
	Config *config.ClokiBaseDataBase
	DSN    string `json:"dsn"`
	// Dialect is the name of the SQL dialect spoken by the node.
	Dialect string
	Session ISqlxDB
}
