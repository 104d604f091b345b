package dbRegistry

import (
	"crypto/tls"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"
	clconfig "github.com/metrico/cloki-config/config"
	"github.com/podlake/explorer/explorer/config"
	"github.com/podlake/explorer/explorer/model"
	"github.com/podlake/explorer/explorer/plugins"
	"github.com/podlake/explorer/explorer/utils/dsn"
	"github.com/podlake/explorer/explorer/utils/logger"
)

var Registry model.IDBRegistry
var DataDBSession []model.ISqlxDB
var DatabaseNodeMap []model.DataDatabasesMap

func Init() {
	if p := plugins.GetDatabaseRegistryPlugin(); p != nil {
		Registry = (*p)()
		return
	}
	Registry = InitStaticRegistry()
}

func InitStaticRegistry() model.IDBRegistry {
	if config.Explorer.Warehouse == config.WarehouseDuckDB {
		initDuckDBSession()
	} else {
		initDataDBSession()
	}
	if len(DataDBSession) == 0 {
		panic("We don't have any active DB session configured. Please check your config")
	}
	dbMap := map[string]*model.DataDatabasesMap{}
	for i := range DatabaseNodeMap {
		node := DatabaseNodeMap[i]
		node.Session = DataDBSession[i]
		dbMap[node.Config.Node] = &node
	}
	return NewStaticDBRegistry(dbMap)
}

func connectionLine(dbObject *clconfig.ClokiBaseDataBase) string {
	stream := jsoniter.ConfigFastest.BorrowStream(nil)
	defer jsoniter.ConfigFastest.ReturnStream(stream)
	stream.WriteRaw("Connecting to [")
	stream.WriteRaw(dbObject.Host)
	stream.WriteRaw(", ")
	stream.WriteRaw(dbObject.User)
	stream.WriteRaw(", ")
	stream.WriteRaw(dbObject.Name)
	stream.WriteRaw(", ")
	stream.WriteRaw(dbObject.Node)
	stream.WriteRaw(", ")
	stream.WriteInt64(int64(dbObject.Port))
	stream.WriteRaw(", ")
	stream.WriteInt64(int64(dbObject.ReadTimeout))
	stream.WriteRaw("]")
	return string(stream.Buffer())
}

func initDataDBSession() {
	dbMap := []model.ISqlxDB{}
	dbNodeMap := []model.DataDatabasesMap{}

	for i := range config.Cloki.Setting.DATABASE_DATA {
		dbObject := config.Cloki.Setting.DATABASE_DATA[i]
		logger.Info(connectionLine(&dbObject))
		addr := func() string {
			stream := jsoniter.ConfigFastest.BorrowStream(nil)
			defer jsoniter.ConfigFastest.ReturnStream(stream)
			stream.WriteRaw(dbObject.Host)
			stream.WriteRaw(":")
			stream.WriteUint32(dbObject.Port)
			return string(stream.Buffer())
		}()
		getDB := func() *sqlx.DB {
			opts := &clickhouse.Options{
				Addr: []string{addr},
				Auth: clickhouse.Auth{
					Database: dbObject.Name,
					Username: dbObject.User,
					Password: dbObject.Password,
				},
				Debug: dbObject.Debug,
			}
			if dbObject.ReadTimeout > 0 {
				opts.ReadTimeout = time.Duration(dbObject.ReadTimeout) * time.Second
			}
			if dbObject.Secure {
				opts.TLS = &tls.Config{
					InsecureSkipVerify: dbObject.InsecureSkipVerify,
				}
			}
			conn := clickhouse.OpenDB(opts)
			db := sqlx.NewDb(conn, "clickhouse")
			db.SetMaxOpenConns(dbObject.MaxOpenConn)
			db.SetMaxIdleConns(dbObject.MaxIdleConn)
			db.SetConnMaxLifetime(time.Minute * 10)
			return db
		}

		dbMap = append(dbMap, &dsn.StableSqlxDBWrapper{
			DB:    getDB(),
			GetDB: getDB,
			Name:  dbObject.Node,
		})

		chDsn := "clickhouse://" + dbObject.User + "@" + addr + "/" + dbObject.Name
		if dbObject.Secure {
			chDsn += "?secure=true"
		}
		dbNodeMap = append(dbNodeMap, model.DataDatabasesMap{
			Config:  &dbObject,
			DSN:     chDsn,
			Dialect: config.WarehouseClickHouse,
		})
		logger.Info("*** Database Config Session created: ", dbObject.Node, " ***")
	}

	DataDBSession = dbMap
	DatabaseNodeMap = dbNodeMap
}

// initDuckDBSession opens a single embedded node. An empty path is an
// in-memory database.
func initDuckDBSession() {
	path := config.Explorer.DuckDBPath
	dbObject := &clconfig.ClokiBaseDataBase{Node: "duckdb", Name: path}
	logger.Info("Opening duckdb [", path, "]")
	getDB := func() *sqlx.DB {
		db, err := sqlx.Open("duckdb", path)
		if err != nil {
			panic(err)
		}
		return db
	}
	DataDBSession = []model.ISqlxDB{&dsn.StableSqlxDBWrapper{
		DB:    getDB(),
		GetDB: getDB,
		Name:  dbObject.Node,
	}}
	DatabaseNodeMap = []model.DataDatabasesMap{{
		Config:  dbObject,
		DSN:     "duckdb://" + path,
		Dialect: config.WarehouseDuckDB,
	}}
}
