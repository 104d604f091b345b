package maintenance

import (
	"context"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/podlake/explorer/ctrl/explorer/sql"
	"github.com/podlake/explorer/ctrl/maintenance"
)

// InitDuckDB creates and fills the cume windows table in an embedded
// database file.
func InitDuckDB(path string, opts Options, logger maintenance.ILogger) error {
	db, err := sqlx.Open("duckdb", path)
	if err != nil {
		return errors.Wrapf(err, "open duckdb %s", path)
	}
	defer db.Close()
	return initDuckDB(context.Background(), db, opts, logger)
}

func initDuckDB(ctx context.Context, db *sqlx.DB, opts Options, logger maintenance.ILogger) error {
	env := templateEnv("", "", false, opts)
	for _, script := range getSQLFile(sql.DuckDBScript) {
		req, err := render(script, env)
		if err != nil {
			return err
		}
		logger.Debug(req)
		if _, err := db.ExecContext(ctx, req); err != nil {
			logger.Error(req)
			return errors.Wrap(err, "duckdb maintenance")
		}
	}
	return nil
}
