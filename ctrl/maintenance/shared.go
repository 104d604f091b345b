package maintenance

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	clickhouse_v2 "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/avast/retry-go"
	"github.com/metrico/cloki-config/config"
)

type ILogger interface {
	Error(args ...any)
	Debug(args ...any)
	Info(args ...any)
}

// ConnectV2 opens a native connection and waits up to a minute for the
// server to answer.
func ConnectV2(dbObject *config.ClokiBaseDataBase, database bool, logger ILogger) (clickhouse_v2.Conn, error) {
	databaseName := ""
	if database {
		databaseName = dbObject.Name
	}
	opt := &clickhouse_v2.Options{
		Addr: []string{fmt.Sprintf("%s:%d", dbObject.Host, dbObject.Port)},
		Auth: clickhouse_v2.Auth{
			Database: databaseName,
			Username: dbObject.User,
			Password: dbObject.Password,
		},
		Debug:           dbObject.Debug,
		DialTimeout:     time.Second * 30,
		ReadTimeout:     time.Second * 30,
		MaxOpenConns:    4,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Hour,
	}
	if dbObject.Secure {
		opt.TLS = &tls.Config{InsecureSkipVerify: dbObject.InsecureSkipVerify}
	}
	conn, err := clickhouse_v2.Open(opt)
	if err != nil {
		return nil, err
	}
	err = retry.Do(func() error {
		ctx, cancel := MakeTimeout()
		defer cancel()
		return conn.Ping(ctx)
	},
		retry.Attempts(6),
		retry.Delay(time.Second*10),
		retry.DelayType(retry.FixedDelay),
		retry.OnRetry(func(n uint, err error) {
			logger.Info(fmt.Sprintf("waiting for %s:%d (attempt %d): %v", dbObject.Host, dbObject.Port, n+1, err))
		}))
	if err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func InitDBTry(conn clickhouse_v2.Conn, clusterName string, dbName string, logger ILogger) error {
	onCluster := ""
	if clusterName != "" {
		onCluster = fmt.Sprintf("ON CLUSTER `%s`", clusterName)
	}
	query := fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s` %s", dbName, onCluster)
	logger.Info("Creating database: ", query)
	ctx, cancel := MakeTimeout()
	defer cancel()
	return conn.Exec(ctx, query)
}

func MakeTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Second*30)
}
